package services

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_.]+$`)
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	fullNameRe = regexp.MustCompile(`^[a-zA-Z\s]+$`)
)

const (
	minPasswordLen = 6
	minUsernameLen = 3
	maxUsernameLen = 30
	minFullNameLen = 3
	maxFullNameLen = 50
)

// SignupInput is the raw registration form.
type SignupInput struct {
	FullName string
	UserName string
	Email    string
	Password string
}

// normalize validates in and returns it with username and email lower-cased
// and every field trimmed, except the password.
func (in SignupInput) normalize() (SignupInput, error) {
	if in.UserName == "" || in.Password == "" || in.FullName == "" || in.Email == "" {
		return in, invalid("All fields are required")
	}
	if len(in.Password) < minPasswordLen {
		return in, invalid("Password must be at least 6 characters long")
	}

	out := SignupInput{
		FullName: strings.TrimSpace(in.FullName),
		UserName: strings.ToLower(strings.TrimSpace(in.UserName)),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Password: in.Password,
	}

	if !validUsername(out.UserName) {
		return in, invalid("Username can only contain alphanumeric characters, underscores, and periods. Periods cannot be at the start or end, and cannot be consecutive.")
	}
	if n := utf8.RuneCountInString(out.UserName); n < minUsernameLen || n > maxUsernameLen {
		return in, invalid("Username must be between 3 and 30 characters long")
	}
	if !emailRe.MatchString(out.Email) {
		return in, invalid("Invalid email format")
	}
	if !fullNameRe.MatchString(out.FullName) {
		return in, invalid("Full name can only contain letters and spaces")
	}
	if n := utf8.RuneCountInString(out.FullName); n < minFullNameLen || n > maxFullNameLen {
		return in, invalid("Full name must be between 3 and 50 characters long")
	}

	return out, nil
}

func validUsername(s string) bool {
	return usernameRe.MatchString(s) &&
		!strings.Contains(s, "..") &&
		!strings.HasPrefix(s, ".") &&
		!strings.HasSuffix(s, ".")
}

// defaultAvatar is the generated picture assigned at signup.
func defaultAvatar(username string) string {
	return "https://api.dicebear.com/9.x/avataaars-neutral/svg?seed=" + username
}
