package validate

import (
	"regexp"
	"strings"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func Email(email string) bool {
	return emailRe.MatchString(email)
}

// Password requires at least 8 characters with one digit and one special
// character.
func Password(password string) bool {
	if len(password) < 8 {
		return false
	}
	return strings.ContainsAny(password, "0123456789") &&
		strings.ContainsAny(password, "!@#$%^&*")
}

func Name(name string) bool {
	n := strings.TrimSpace(name)
	return len(n) >= 2 && len(n) <= 100
}

func Rating(rating int) bool {
	return rating >= 1 && rating <= 5
}
