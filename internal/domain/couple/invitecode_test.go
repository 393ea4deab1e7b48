package couple

import (
	"strings"
	"testing"
)

func TestGenerateInviteCodeAlphabet(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := GenerateInviteCode(0)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(code) != DefaultInviteCodeLength {
			t.Fatalf("expected length %d, got %q", DefaultInviteCodeLength, code)
		}
		if strings.ContainsAny(code, "0O1IL") {
			t.Fatalf("code contains ambiguous characters: %q", code)
		}
		if code != strings.ToUpper(code) {
			t.Fatalf("code is not uppercase: %q", code)
		}
	}
}

func TestGenerateInviteCodeRequestedLength(t *testing.T) {
	for _, length := range []int{1, 4, 8, 12, 16} {
		code, err := GenerateInviteCode(length)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(code) != length {
			t.Fatalf("expected length %d, got %q", length, code)
		}
		for _, r := range code {
			if !strings.ContainsRune(inviteCodeAlphabet, r) {
				t.Fatalf("unexpected character %q in %q", r, code)
			}
		}
	}
}

func TestInviteCodeAlphabetHasNoDuplicates(t *testing.T) {
	seen := make(map[rune]bool)
	for _, r := range inviteCodeAlphabet {
		if seen[r] {
			t.Fatalf("duplicate character %q", r)
		}
		seen[r] = true
	}
	if len(seen) != 31 {
		t.Fatalf("expected 31 characters, got %d", len(seen))
	}
	for _, r := range "0O1IL" {
		if seen[r] {
			t.Fatalf("ambiguous character %q in alphabet", r)
		}
	}
}

func TestNormalizeInviteCode(t *testing.T) {
	if got := NormalizeInviteCode("  abcd2345\n"); got != "ABCD2345" {
		t.Fatalf("expected ABCD2345, got %q", got)
	}
}
