package utils

import (
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted for new users.
const MinPasswordLength = 6

// MaxPasswordBytes is the longest input bcrypt will hash.
const MaxPasswordBytes = 72

// HashPassword returns a bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// PasswordProblems lists every rule a candidate password breaks: length
// bounds, and at least one digit, lower case, upper case and
// non-alphanumeric character. An empty result means the password is
// acceptable.
func PasswordProblems(plain string) []string {
	var digit, lower, upper, symbol bool
	for _, r := range plain {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case !unicode.IsLetter(r):
			symbol = true
		}
	}
	var out []string
	if len([]rune(plain)) < MinPasswordLength {
		out = append(out, "password must be at least 6 characters")
	}
	if len(plain) > MaxPasswordBytes {
		out = append(out, "password must be at most 72 bytes")
	}
	if !digit {
		out = append(out, "password must contain a digit")
	}
	if !lower {
		out = append(out, "password must contain a lowercase letter")
	}
	if !upper {
		out = append(out, "password must contain an uppercase letter")
	}
	if !symbol {
		out = append(out, "password must contain a non-alphanumeric character")
	}
	return out
}
