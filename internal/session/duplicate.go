package session

import (
	"errors"
	"strings"

	"sulabh/backend/internal/identity"
)

// duplicateCodes and duplicateMessages are the provider error shapes that
// mean "this email already has an account". Messages match case-insensitively
// as substrings.
var (
	duplicateCodes = []string{
		"user_already_exists",
		"email_exists",
	}
	duplicateMessages = []string{
		"user already registered",
		"user already exists",
		"already registered",
		"email address is already registered",
	}
)

// isDuplicateAccount reports whether err from SignUp signals an existing account.
func isDuplicateAccount(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, identity.ErrAccountExists) {
		return true
	}

	var perr *identity.ProviderError
	if errors.As(err, &perr) {
		for _, code := range duplicateCodes {
			if strings.EqualFold(perr.Code, code) {
				return true
			}
		}
	}

	msg := strings.ToLower(err.Error())
	for _, m := range duplicateMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
