package identity

import (
	"errors"
	"fmt"
	"net/url"
)

// CallbackAction is what the auth callback page should do next.
type CallbackAction string

const (
	CallbackConfirmEmail CallbackAction = "confirm_email"
	CallbackRecovery     CallbackAction = "recovery"
)

// ErrInvalidCallback is returned for callbacks of an unknown type.
var ErrInvalidCallback = errors.New("Invalid callback type")

// Callback is a parsed auth redirect.
type Callback struct {
	Action CallbackAction
	Code   string
}

// ParseCallback interprets the query parameters of an identity-provider redirect.
func ParseCallback(q url.Values) (*Callback, error) {
	if e := q.Get("error"); e != "" {
		return nil, fmt.Errorf("%s: %s", e, q.Get("error_description"))
	}

	switch q.Get("type") {
	case "email_confirmation", "signup":
		code := q.Get("code")
		if code == "" {
			return nil, ErrInvalidCallback
		}
		return &Callback{Action: CallbackConfirmEmail, Code: code}, nil
	case "recovery":
		return &Callback{Action: CallbackRecovery, Code: q.Get("code")}, nil
	default:
		return nil, ErrInvalidCallback
	}
}
