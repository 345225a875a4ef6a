package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jakobkordez/wmm-reborn/internal/common/constants"
)

var (
	usernameRegex = regexp.MustCompile(fmt.Sprintf(`^[\w.]{%d,%d}$`, constants.UsernameMinLength, constants.UsernameMaxLength))
	nameRegex     = regexp.MustCompile(`^[a-zA-Z]+( [a-zA-Z]+)*$`)
	passwordRegex = regexp.MustCompile(fmt.Sprintf(`^[\w.#$%%&@\- ]{%d,}$`, constants.PasswordMinLength))
	emailRegex    = regexp.MustCompile(`^([a-zA-Z\d.+_$#!&%?-]+)@(([a-zA-Z\d-]+\.[a-z]{2,8}(\.[a-z]{2,8})?)|(\[\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\]))$`)
)

// validateRegistration checks fields in a fixed order and reports the first failure.
func validateRegistration(input RegisterInput) error {
	if !isValidUsername(input.Username) {
		return ErrValidationUsername
	}
	if !isValidName(input.Name) {
		return ErrValidationName
	}
	if !isValidEmail(input.Email) {
		return ErrValidationEmail
	}
	if !isValidPassword(input.Password) {
		return ErrValidationPassword
	}
	return nil
}

func isValidUsername(value string) bool {
	return usernameRegex.MatchString(value)
}

func isValidName(value string) bool {
	return nameRegex.MatchString(value)
}

// isValidPassword caps length at the bcrypt input limit; longer passwords
// would fail hashing rather than validation.
func isValidPassword(value string) bool {
	return len(value) <= constants.PasswordMaxLength && passwordRegex.MatchString(value)
}

// isValidEmail pairs the pattern with the negative checks RE2 cannot express
// as lookaheads.
func isValidEmail(value string) bool {
	m := emailRegex.FindStringSubmatch(value)
	if m == nil {
		return false
	}
	local, domain := m[1], m[2]
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") || strings.Contains(local, "..") {
		return false
	}
	if strings.HasPrefix(domain, "-") || strings.Contains(domain, "-.") {
		return false
	}
	return true
}
