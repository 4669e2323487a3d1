package auth

import (
	"errors"
	"testing"

	"taskloop/internal/domain"
)

func TestCodec_IssueAndVerify(t *testing.T) {
	t.Parallel()

	codec := NewCodec("super-secret")

	tok, err := codec.Issue(42, domain.AccessAuth)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, err := codec.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("user id mismatch: got %d want 42", claims.UserID)
	}
	if claims.Access != domain.AccessAuth {
		t.Fatalf("access mismatch: got %q want %q", claims.Access, domain.AccessAuth)
	}
}

func TestCodec_IssueDistinct(t *testing.T) {
	t.Parallel()

	codec := NewCodec("super-secret")
	first, err := codec.Issue(1, domain.AccessAuth)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	second, err := codec.Issue(1, domain.AccessAuth)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if first == second {
		t.Fatalf("two issued tokens must differ")
	}
}

func TestCodec_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewCodec("right-secret").Issue(1, domain.AccessAuth)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := NewCodec("wrong-secret").Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestCodec_TamperedToken(t *testing.T) {
	t.Parallel()

	codec := NewCodec("super-secret")
	tok, err := codec.Issue(7, domain.AccessAuth)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	// Flipping any single byte must break verification.
	for i := 0; i < len(tok); i++ {
		tampered := []byte(tok)
		if tampered[i] == 'x' {
			tampered[i] = 'y'
		} else {
			tampered[i] = 'x'
		}
		if string(tampered) == tok {
			continue
		}
		if _, err := codec.Verify(string(tampered)); err == nil {
			t.Fatalf("tampered token at byte %d still verified", i)
		}
	}
}

func TestCodec_Malformed(t *testing.T) {
	t.Parallel()

	codec := NewCodec("k")
	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := codec.Verify(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Verify(%q): expected ErrInvalidToken, got %v", tok, err)
		}
	}
}
