package auth

import "testing"

func TestHashPassword_RoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hash == "secret1" {
		t.Fatalf("hash must not equal the plaintext")
	}
	if !CheckPassword("secret1", hash) {
		t.Fatalf("CheckPassword rejected the original password")
	}
	if CheckPassword("secret2", hash) {
		t.Fatalf("CheckPassword accepted a wrong password")
	}
}

func TestHashPassword_FreshSalt(t *testing.T) {
	t.Parallel()

	first, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	second, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if first == second {
		t.Fatalf("two hashes of the same password must differ")
	}
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	t.Parallel()

	if CheckPassword("secret1", "not-a-bcrypt-hash") {
		t.Fatalf("CheckPassword accepted a malformed hash")
	}
	if CheckPassword("secret1", "") {
		t.Fatalf("CheckPassword accepted an empty hash")
	}
}
