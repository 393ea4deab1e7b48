package couple

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	profiledomain "cozy-dates-go/internal/domain/profile"
	"github.com/google/uuid"
)

const (
	DefaultCoupleName   = "Our Couple"
	defaultCodeAttempts = 5
	maxCoupleNameLength = 80
)

type Options struct {
	InviteCodeLength int
	CodeAttempts     int
	DefaultName      string
	Now              func() time.Time
}

// Service is the membership state machine: it decides whether a pairing
// action is allowed for a profile and applies it to the store.
type Service struct {
	repo     Repository
	profiles Profiles
	opts     Options
}

func NewService(repo Repository, profiles Profiles, opts Options) *Service {
	if opts.InviteCodeLength <= 0 {
		opts.InviteCodeLength = DefaultInviteCodeLength
	}
	if opts.CodeAttempts <= 0 {
		opts.CodeAttempts = defaultCodeAttempts
	}
	if strings.TrimSpace(opts.DefaultName) == "" {
		opts.DefaultName = DefaultCoupleName
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{repo: repo, profiles: profiles, opts: opts}
}

func (s *Service) Create(ctx context.Context, callerID, name string) (*Result, error) {
	name, err := s.resolveCoupleName(ctx, callerID, name)
	if err != nil {
		return nil, err
	}

	var result Result
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		memberships, err := tx.ListMembershipsByProfile(ctx, callerID)
		if err != nil {
			return err
		}
		if findAccepted(memberships) != nil {
			return ErrActiveCoupleExists
		}

		code, err := s.generateUniqueCode(ctx, tx)
		if err != nil {
			return err
		}

		couple := Couple{
			ID:         uuid.NewString(),
			Name:       &name,
			InviteCode: &code,
		}
		if err := tx.CreateCouple(ctx, &couple); err != nil {
			return err
		}

		membership := Membership{
			ProfileID: callerID,
			CoupleID:  couple.ID,
			Status:    StatusAccepted,
			Role:      rolePtr(RoleOwner),
		}
		if err := tx.UpsertMembership(ctx, &membership); err != nil {
			return err
		}

		result = Result{Couple: &couple, Status: membership.Status, Role: membership.Role}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (s *Service) Join(ctx context.Context, callerID, inviteCode string) (*Result, error) {
	code := NormalizeInviteCode(inviteCode)
	if code == "" {
		return nil, ErrInviteCodeRequired
	}

	var result Result
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		memberships, err := tx.ListMembershipsByProfile(ctx, callerID)
		if err != nil {
			return err
		}

		// Paired callers are rejected before the code is looked up, even for
		// their own couple's code.
		if findAccepted(memberships) != nil {
			return ErrActiveCoupleExists
		}

		target, err := tx.GetCoupleByInviteCode(ctx, code)
		if err != nil {
			return err
		}

		membership := Membership{
			ProfileID: callerID,
			CoupleID:  target.ID,
			Status:    StatusAccepted,
			Role:      rolePtr(RoleMember),
		}
		if err := tx.UpsertMembership(ctx, &membership); err != nil {
			return err
		}

		result = Result{Couple: target, Status: membership.Status, Role: membership.Role}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// Leave is intentionally unsupported; callers get a NotImplemented error.
func (s *Service) Leave(ctx context.Context, callerID string) (*Result, error) {
	return nil, ErrLeaveNotImplemented
}

// ActivateFromOnboarding stamps the profile as confirmed and returns the
// membership the client should start from. It does not check pairing rules.
func (s *Service) ActivateFromOnboarding(ctx context.Context, userID string) (*Result, error) {
	if _, err := s.profiles.MarkProfileConfirmed(ctx, userID, s.opts.Now().UTC()); err != nil {
		return nil, err
	}

	memberships, err := s.repo.ListMembershipsByProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	membership := mostRelevant(memberships)
	if membership == nil {
		return &Result{}, nil
	}

	couple, err := s.repo.GetCoupleByID(ctx, membership.CoupleID)
	if err != nil {
		return nil, err
	}

	return &Result{Couple: couple, Status: membership.Status, Role: membership.Role}, nil
}

func (s *Service) Invite(ctx context.Context, callerID, email string) (*Membership, error) {
	email = profiledomain.NormalizeEmail(email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	invitee, err := s.profiles.GetProfileByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, profiledomain.ErrProfileNotFound) {
			return nil, ErrInviteeNotFound
		}
		return nil, err
	}
	if invitee.ID == callerID {
		return nil, ErrCannotInviteSelf
	}

	var result Membership
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		callerMemberships, err := tx.ListMembershipsByProfile(ctx, callerID)
		if err != nil {
			return err
		}
		accepted := findAccepted(callerMemberships)
		if accepted == nil {
			return ErrNoActiveCouple
		}

		inviteeMemberships, err := tx.ListMembershipsByProfile(ctx, invitee.ID)
		if err != nil {
			return err
		}
		if findAccepted(inviteeMemberships) != nil {
			return ErrInviteeAlreadyPaired
		}

		for _, existing := range inviteeMemberships {
			if existing.CoupleID == accepted.CoupleID && existing.Status == StatusPending {
				result = existing
				return nil
			}
		}

		membership := Membership{
			ProfileID: invitee.ID,
			CoupleID:  accepted.CoupleID,
			Status:    StatusPending,
		}
		if err := tx.UpsertMembership(ctx, &membership); err != nil {
			return err
		}
		result = membership
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (s *Service) ListInvitations(ctx context.Context, callerID string) ([]Invitation, error) {
	memberships, err := s.repo.ListMembershipsByProfile(ctx, callerID)
	if err != nil {
		return nil, err
	}

	var pending []Membership
	ids := make([]string, 0, len(memberships))
	for _, membership := range memberships {
		if membership.Status == StatusPending {
			pending = append(pending, membership)
			ids = append(ids, membership.CoupleID)
		}
	}
	if len(pending) == 0 {
		return []Invitation{}, nil
	}

	couples, err := s.repo.ListCouplesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Couple, len(couples))
	for _, couple := range couples {
		byID[couple.ID] = couple
	}

	invitations := make([]Invitation, 0, len(pending))
	for _, membership := range pending {
		couple, ok := byID[membership.CoupleID]
		if !ok {
			continue
		}
		invitations = append(invitations, Invitation{Couple: couple, InvitedAt: membership.UpdatedAt})
	}
	return invitations, nil
}

func (s *Service) AcceptInvitation(ctx context.Context, callerID, coupleID string) (*Result, error) {
	var result Result
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if _, err := pendingMembership(ctx, tx, callerID, coupleID); err != nil {
			return err
		}

		memberships, err := tx.ListMembershipsByProfile(ctx, callerID)
		if err != nil {
			return err
		}
		if findAccepted(memberships) != nil {
			return ErrActiveCoupleExists
		}

		couple, err := tx.GetCoupleByID(ctx, coupleID)
		if err != nil {
			return err
		}

		membership := Membership{
			ProfileID: callerID,
			CoupleID:  coupleID,
			Status:    StatusAccepted,
			Role:      rolePtr(RoleMember),
		}
		if err := tx.UpsertMembership(ctx, &membership); err != nil {
			return err
		}

		result = Result{Couple: couple, Status: membership.Status, Role: membership.Role}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Service) DeclineInvitation(ctx context.Context, callerID, coupleID string) (*Result, error) {
	var result Result
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if _, err := pendingMembership(ctx, tx, callerID, coupleID); err != nil {
			return err
		}

		couple, err := tx.GetCoupleByID(ctx, coupleID)
		if err != nil {
			return err
		}

		membership := Membership{
			ProfileID: callerID,
			CoupleID:  coupleID,
			Status:    StatusDeclined,
		}
		if err := tx.UpsertMembership(ctx, &membership); err != nil {
			return err
		}

		result = Result{Couple: couple, Status: membership.Status}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Rename lets any accepted member rename the couple.
func (s *Service) Rename(ctx context.Context, callerID, name string) (*Couple, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if utf8.RuneCountInString(name) > maxCoupleNameLength {
		return nil, ErrNameTooLong
	}

	memberships, err := s.repo.ListMembershipsByProfile(ctx, callerID)
	if err != nil {
		return nil, err
	}
	accepted := findAccepted(memberships)
	if accepted == nil {
		return nil, ErrNoActiveCouple
	}

	if err := s.repo.UpdateCoupleName(ctx, accepted.CoupleID, name); err != nil {
		return nil, err
	}
	return s.repo.GetCoupleByID(ctx, accepted.CoupleID)
}

func (s *Service) Overview(ctx context.Context, callerID string) (*Overview, error) {
	profile, err := s.profiles.GetProfile(ctx, callerID)
	if err != nil {
		return nil, err
	}

	memberships, err := s.repo.ListMembershipsByProfile(ctx, callerID)
	if err != nil {
		return nil, err
	}

	overview := Overview{Profile: profile, State: StateUnpaired, Members: []Member{}}
	membership := mostRelevant(memberships)
	if membership == nil {
		return &overview, nil
	}
	overview.Membership = membership

	couple, err := s.repo.GetCoupleByID(ctx, membership.CoupleID)
	if err != nil {
		return nil, err
	}
	overview.Couple = couple

	if !membership.IsAccepted() {
		return &overview, nil
	}
	overview.State = StatePaired

	members, err := s.listMembers(ctx, couple.ID)
	if err != nil {
		return nil, err
	}
	overview.Members = members
	return &overview, nil
}

func (s *Service) listMembers(ctx context.Context, coupleID string) ([]Member, error) {
	memberships, err := s.repo.ListMembershipsByCouple(ctx, coupleID, StatusAccepted)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(memberships))
	for _, membership := range memberships {
		ids = append(ids, membership.ProfileID)
	}
	profiles, err := s.profiles.ListProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]profiledomain.Profile, len(profiles))
	for _, profile := range profiles {
		byID[profile.ID] = profile
	}

	members := make([]Member, 0, len(memberships))
	for _, membership := range memberships {
		member := Member{
			ProfileID: membership.ProfileID,
			Role:      membership.Role,
			JoinedAt:  membership.UpdatedAt,
		}
		if profile, ok := byID[membership.ProfileID]; ok {
			member.Name = profile.Name()
			member.AvatarURL = profile.AvatarURL
		}
		members = append(members, member)
	}
	return members, nil
}

// resolveCoupleName falls back to the caller's display name, then to the default.
func (s *Service) resolveCoupleName(ctx context.Context, callerID, name string) (string, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > maxCoupleNameLength {
		return "", ErrNameTooLong
	}
	if name != "" {
		return name, nil
	}

	profile, err := s.profiles.GetProfile(ctx, callerID)
	if err != nil && !errors.Is(err, profiledomain.ErrProfileNotFound) {
		return "", fmt.Errorf("load caller profile: %w", err)
	}
	if fallback := profile.Name(); fallback != "" {
		return fallback, nil
	}
	return s.opts.DefaultName, nil
}

func (s *Service) generateUniqueCode(ctx context.Context, repo Repository) (string, error) {
	for i := 0; i < s.opts.CodeAttempts; i++ {
		code, err := GenerateInviteCode(s.opts.InviteCodeLength)
		if err != nil {
			return "", err
		}
		taken, err := repo.IsInviteCodeTaken(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeGenerationFailed
}

func pendingMembership(ctx context.Context, repo Repository, profileID, coupleID string) (*Membership, error) {
	membership, err := repo.GetMembership(ctx, profileID, coupleID)
	if err != nil {
		if errors.Is(err, ErrMembershipNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}
	if membership.Status != StatusPending {
		return nil, ErrInvitationNotFound
	}
	return membership, nil
}

func findAccepted(memberships []Membership) *Membership {
	for i := range memberships {
		if memberships[i].IsAccepted() {
			return &memberships[i]
		}
	}
	return nil
}

// mostRelevant prefers the accepted membership, else the first known row.
func mostRelevant(memberships []Membership) *Membership {
	if accepted := findAccepted(memberships); accepted != nil {
		return accepted
	}
	if len(memberships) == 0 {
		return nil
	}
	return &memberships[0]
}

