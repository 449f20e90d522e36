// Package otp checks one-time email codes and decides where a verified user goes next.
package otp

import (
	"errors"

	"estatehub/internal/authz"
)

var ErrInvalidCode = errors.New("invalid code")

// Verify compares the submitted code with the issued one byte for byte and,
// on a match, returns the landing screen for role. It keeps no state: there is
// no expiry, attempt counter or lockout, and a mismatch can be retried freely.
func Verify(submitted, issued string, role authz.Role) (authz.NavTarget, error) {
	if submitted != issued {
		return "", ErrInvalidCode
	}
	return authz.Destination(role), nil
}
