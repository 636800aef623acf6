package auth

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// PolicyError reports every password rule the candidate violated, not
// just the first one.
type PolicyError struct {
	Reasons []string
}

func (e *PolicyError) Error() string {
	return strings.Join(e.Reasons, " ")
}

// ValidatePassword checks the password strength rules: non-empty, at
// least 6 characters, at least one uppercase letter, one lowercase
// letter, and one digit.
func ValidatePassword(password string) error {
	var reasons []string

	if password == "" {
		reasons = append(reasons, "password must not be empty.")
	} else {
		if len(password) < 6 {
			reasons = append(reasons, "password must be at least 6 characters long.")
		}
		var upper, lower, digit bool
		for _, r := range password {
			switch {
			case unicode.IsUpper(r):
				upper = true
			case unicode.IsLower(r):
				lower = true
			case unicode.IsDigit(r):
				digit = true
			}
		}
		if !upper {
			reasons = append(reasons, "password must contain at least one uppercase letter.")
		}
		if !lower {
			reasons = append(reasons, "password must contain at least one lowercase letter.")
		}
		if !digit {
			reasons = append(reasons, "password must contain at least one digit.")
		}
	}

	if len(reasons) > 0 {
		return &PolicyError{Reasons: reasons}
	}
	return nil
}

// HashPassword computes a salted bcrypt hash at the default cost.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
