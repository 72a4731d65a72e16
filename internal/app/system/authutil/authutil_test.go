package authutil

import (
	"strings"
	"testing"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse 1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse 1" {
		t.Error("hash should not equal the plaintext")
	}
	if !CheckPassword("correct horse 1", hash) {
		t.Error("CheckPassword should accept the original password")
	}
	if CheckPassword("wrong password 1", hash) {
		t.Error("CheckPassword should reject a different password")
	}
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	if CheckPassword("anything1", "not-a-bcrypt-hash") {
		t.Error("malformed hash should never verify")
	}
}

func TestValidatePassword_TooShort(t *testing.T) {
	if err := ValidatePassword("ab1"); err == nil {
		t.Error("expected error for short password")
	}
}

func TestValidatePassword_LettersOnly(t *testing.T) {
	if err := ValidatePassword("onlyletters"); err == nil {
		t.Error("expected error for password without digits")
	}
}

func TestValidatePassword_DigitsOnly(t *testing.T) {
	if err := ValidatePassword("1234567890"); err == nil {
		t.Error("expected error for password without letters")
	}
}

func TestValidatePassword_Valid(t *testing.T) {
	if err := ValidatePassword("sunny day 42"); err != nil {
		t.Errorf("expected valid password, got %v", err)
	}
}

func TestPasswordRules_MentionsLength(t *testing.T) {
	if !strings.Contains(PasswordRules(), "8") {
		t.Error("password rules should mention the minimum length")
	}
}

func TestIsValidEmail_Valid(t *testing.T) {
	valid := []string{
		"test@example.com",
		"user@domain.org",
		"name.surname@company.co.uk",
		"a@b.co",
	}
	for _, email := range valid {
		if !IsValidEmail(email) {
			t.Errorf("expected %q to be valid", email)
		}
	}
}

func TestIsValidEmail_Invalid(t *testing.T) {
	invalid := []string{
		"",
		"   ",
		"testexample.com",
		"test@@example.com",
		"@example.com",
		"test@",
		".user@example.com",
		"user.@example.com",
		"user..name@example.com",
		"user@.example.com",
		"user@example..com",
		"User Name <user@example.com>",
		"user @example.com",
	}
	for _, email := range invalid {
		if IsValidEmail(email) {
			t.Errorf("expected %q to be invalid", email)
		}
	}
}
