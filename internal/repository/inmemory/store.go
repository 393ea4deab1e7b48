package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	coupledomain "cozy-dates-go/internal/domain/couple"
	profiledomain "cozy-dates-go/internal/domain/profile"
)

// Store keeps profiles, couples and memberships in process memory. It enforces
// the same uniqueness rules as the postgres schema and is used for local runs
// and handler tests.
type Store struct {
	mu   *sync.Mutex
	st   *state
	inTx bool
	now  func() time.Time
}

type membershipKey struct {
	profileID string
	coupleID  string
}

type state struct {
	profiles    map[string]profiledomain.Profile
	couples     map[string]coupledomain.Couple
	memberships map[membershipKey]coupledomain.Membership

	// insertion order of memberships, standing in for created_at ordering
	sequence map[membershipKey]uint64
	nextSeq  uint64
}

type Stats struct {
	Profiles    int
	Couples     int
	Memberships int
}

func NewStore() *Store {
	return &Store{
		mu: &sync.Mutex{},
		st: &state{
			profiles:    make(map[string]profiledomain.Profile),
			couples:     make(map[string]coupledomain.Couple),
			memberships: make(map[membershipKey]coupledomain.Membership),
			sequence:    make(map[membershipKey]uint64),
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// Transaction runs fn against a copy of the data and publishes it only when fn succeeds.
func (s *Store) Transaction(ctx context.Context, fn func(coupledomain.Repository) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.st.clone()
	tx := &Store{mu: s.mu, st: working, inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	*s.st = *working
	return nil
}

func (s *Store) Stats() Stats {
	defer s.lock()()
	return Stats{
		Profiles:    len(s.st.profiles),
		Couples:     len(s.st.couples),
		Memberships: len(s.st.memberships),
	}
}

func (s *Store) ListMembershipsByProfile(ctx context.Context, profileID string) ([]coupledomain.Membership, error) {
	defer s.lock()()
	return s.st.filterMemberships(func(m coupledomain.Membership) bool {
		return m.ProfileID == profileID
	}), nil
}

func (s *Store) ListMembershipsByCouple(ctx context.Context, coupleID string, status coupledomain.Status) ([]coupledomain.Membership, error) {
	defer s.lock()()
	return s.st.filterMemberships(func(m coupledomain.Membership) bool {
		return m.CoupleID == coupleID && m.Status == status
	}), nil
}

func (s *Store) GetMembership(ctx context.Context, profileID, coupleID string) (*coupledomain.Membership, error) {
	defer s.lock()()
	membership, ok := s.st.memberships[membershipKey{profileID, coupleID}]
	if !ok {
		return nil, coupledomain.ErrMembershipNotFound
	}
	return cloneMembership(membership), nil
}

func (s *Store) GetCoupleByID(ctx context.Context, coupleID string) (*coupledomain.Couple, error) {
	defer s.lock()()
	couple, ok := s.st.couples[coupleID]
	if !ok {
		return nil, coupledomain.ErrCoupleNotFound
	}
	return cloneCouple(couple), nil
}

func (s *Store) GetCoupleByInviteCode(ctx context.Context, code string) (*coupledomain.Couple, error) {
	defer s.lock()()
	couple, ok := s.st.coupleByCode(code)
	if !ok {
		return nil, coupledomain.ErrInviteCodeNotFound
	}
	return cloneCouple(couple), nil
}

func (s *Store) ListCouplesByIDs(ctx context.Context, ids []string) ([]coupledomain.Couple, error) {
	defer s.lock()()
	couples := make([]coupledomain.Couple, 0, len(ids))
	for _, id := range ids {
		if couple, ok := s.st.couples[id]; ok {
			couples = append(couples, *cloneCouple(couple))
		}
	}
	return couples, nil
}

func (s *Store) IsInviteCodeTaken(ctx context.Context, code string) (bool, error) {
	defer s.lock()()
	_, ok := s.st.coupleByCode(code)
	return ok, nil
}

func (s *Store) CreateCouple(ctx context.Context, couple *coupledomain.Couple) error {
	defer s.lock()()
	if couple.InviteCode != nil {
		if _, taken := s.st.coupleByCode(*couple.InviteCode); taken {
			return coupledomain.ErrInviteCodeTaken
		}
	}

	now := s.now()
	couple.CreatedAt = now
	couple.UpdatedAt = now
	s.st.couples[couple.ID] = *cloneCouple(*couple)
	return nil
}

func (s *Store) UpsertMembership(ctx context.Context, membership *coupledomain.Membership) error {
	defer s.lock()()
	if _, ok := s.st.couples[membership.CoupleID]; !ok {
		return coupledomain.ErrCoupleNotFound
	}

	key := membershipKey{membership.ProfileID, membership.CoupleID}
	if membership.IsAccepted() {
		for other, existing := range s.st.memberships {
			if other != key && other.profileID == membership.ProfileID && existing.IsAccepted() {
				return coupledomain.ErrActiveCoupleExists
			}
		}
	}

	now := s.now()
	stored, exists := s.st.memberships[key]
	if !exists {
		stored = coupledomain.Membership{
			ProfileID: membership.ProfileID,
			CoupleID:  membership.CoupleID,
			CreatedAt: now,
		}
		s.st.nextSeq++
		s.st.sequence[key] = s.st.nextSeq
	}
	stored.Status = membership.Status
	stored.Role = cloneRole(membership.Role)
	stored.UpdatedAt = now
	s.st.memberships[key] = stored

	membership.CreatedAt = stored.CreatedAt
	membership.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *Store) UpdateCoupleName(ctx context.Context, coupleID, name string) error {
	defer s.lock()()
	couple, ok := s.st.couples[coupleID]
	if !ok {
		return coupledomain.ErrCoupleNotFound
	}
	couple.Name = &name
	couple.UpdatedAt = s.now()
	s.st.couples[coupleID] = couple
	return nil
}

// UpsertProfile mirrors the postgres upsert: email is refreshed, display name
// and avatar are kept once set.
func (s *Store) UpsertProfile(ctx context.Context, profile *profiledomain.Profile) error {
	defer s.lock()()
	now := s.now()

	stored, ok := s.st.profiles[profile.ID]
	if !ok {
		stored = *cloneProfile(*profile)
		stored.CreatedAt = now
	} else {
		changed := false
		if profile.Email != nil && (stored.Email == nil || *stored.Email != *profile.Email) {
			stored.Email = cloneString(profile.Email)
			changed = true
		}
		if stored.DisplayName == nil && profile.DisplayName != nil {
			stored.DisplayName = cloneString(profile.DisplayName)
			changed = true
		}
		if stored.AvatarURL == nil && profile.AvatarURL != nil {
			stored.AvatarURL = cloneString(profile.AvatarURL)
			changed = true
		}
		if !changed {
			return nil
		}
	}
	stored.UpdatedAt = now
	s.st.profiles[profile.ID] = stored
	return nil
}

func (s *Store) GetProfile(ctx context.Context, id string) (*profiledomain.Profile, error) {
	defer s.lock()()
	profile, ok := s.st.profiles[id]
	if !ok {
		return nil, profiledomain.ErrProfileNotFound
	}
	return cloneProfile(profile), nil
}

func (s *Store) GetProfileByEmail(ctx context.Context, email string) (*profiledomain.Profile, error) {
	defer s.lock()()
	var contactMatch *profiledomain.Profile
	for _, id := range s.st.sortedProfileIDs() {
		profile := s.st.profiles[id]
		if profile.Email != nil && strings.EqualFold(*profile.Email, email) {
			return cloneProfile(profile), nil
		}
		if contactMatch == nil && profile.ContactEmail != nil && strings.EqualFold(*profile.ContactEmail, email) {
			contactMatch = cloneProfile(profile)
		}
	}
	if contactMatch == nil {
		return nil, profiledomain.ErrProfileNotFound
	}
	return contactMatch, nil
}

func (s *Store) ListProfiles(ctx context.Context, ids []string) ([]profiledomain.Profile, error) {
	defer s.lock()()
	profiles := make([]profiledomain.Profile, 0, len(ids))
	for _, id := range ids {
		if profile, ok := s.st.profiles[id]; ok {
			profiles = append(profiles, *cloneProfile(profile))
		}
	}
	return profiles, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id string, input profiledomain.UpdateInput) error {
	defer s.lock()()
	profile, ok := s.st.profiles[id]
	if !ok {
		return profiledomain.ErrProfileNotFound
	}

	setText := func(field **string, value *string) {
		if value == nil {
			return
		}
		if *value == "" {
			*field = nil
			return
		}
		*field = cloneString(value)
	}
	setText(&profile.DisplayName, input.DisplayName)
	setText(&profile.AvatarURL, input.AvatarURL)
	setText(&profile.Theme, input.Theme)
	setText(&profile.FirstName, input.FirstName)
	setText(&profile.LastName, input.LastName)
	setText(&profile.Nickname, input.Nickname)
	setText(&profile.ContactEmail, input.ContactEmail)
	if input.Age != nil {
		age := *input.Age
		profile.Age = &age
	}

	profile.UpdatedAt = s.now()
	s.st.profiles[id] = profile
	return nil
}

func (s *Store) MarkProfileConfirmed(ctx context.Context, id string, at time.Time) (bool, error) {
	defer s.lock()()
	profile, ok := s.st.profiles[id]
	if !ok {
		return false, profiledomain.ErrProfileNotFound
	}
	if profile.ConfirmedAt != nil {
		return false, nil
	}
	profile.ConfirmedAt = &at
	profile.UpdatedAt = s.now()
	s.st.profiles[id] = profile
	return true, nil
}

func (st *state) clone() *state {
	cloned := &state{
		profiles:    make(map[string]profiledomain.Profile, len(st.profiles)),
		couples:     make(map[string]coupledomain.Couple, len(st.couples)),
		memberships: make(map[membershipKey]coupledomain.Membership, len(st.memberships)),
		sequence:    make(map[membershipKey]uint64, len(st.sequence)),
		nextSeq:     st.nextSeq,
	}
	for id, profile := range st.profiles {
		cloned.profiles[id] = profile
	}
	for id, couple := range st.couples {
		cloned.couples[id] = couple
	}
	for key, membership := range st.memberships {
		cloned.memberships[key] = membership
	}
	for key, seq := range st.sequence {
		cloned.sequence[key] = seq
	}
	return cloned
}

func (st *state) coupleByCode(code string) (coupledomain.Couple, bool) {
	for _, couple := range st.couples {
		if couple.InviteCode != nil && *couple.InviteCode == code {
			return couple, true
		}
	}
	return coupledomain.Couple{}, false
}

// filterMemberships returns matching rows in insertion order.
func (st *state) filterMemberships(match func(coupledomain.Membership) bool) []coupledomain.Membership {
	keys := make([]membershipKey, 0)
	for key, membership := range st.memberships {
		if match(membership) {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return st.sequence[keys[i]] < st.sequence[keys[j]]
	})

	result := make([]coupledomain.Membership, 0, len(keys))
	for _, key := range keys {
		result = append(result, *cloneMembership(st.memberships[key]))
	}
	return result
}

func (st *state) sortedProfileIDs() []string {
	ids := make([]string, 0, len(st.profiles))
	for id := range st.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func cloneRole(role *coupledomain.Role) *coupledomain.Role {
	if role == nil {
		return nil
	}
	copied := *role
	return &copied
}

func cloneCouple(couple coupledomain.Couple) *coupledomain.Couple {
	couple.Name = cloneString(couple.Name)
	couple.InviteCode = cloneString(couple.InviteCode)
	return &couple
}

func cloneMembership(membership coupledomain.Membership) *coupledomain.Membership {
	membership.Role = cloneRole(membership.Role)
	return &membership
}

func cloneProfile(profile profiledomain.Profile) *profiledomain.Profile {
	for _, field := range []**string{
		&profile.Email, &profile.DisplayName, &profile.AvatarURL, &profile.Theme,
		&profile.FirstName, &profile.LastName, &profile.Nickname, &profile.ContactEmail,
	} {
		*field = cloneString(*field)
	}
	if profile.Age != nil {
		age := *profile.Age
		profile.Age = &age
	}
	if profile.ConfirmedAt != nil {
		at := *profile.ConfirmedAt
		profile.ConfirmedAt = &at
	}
	return &profile
}
