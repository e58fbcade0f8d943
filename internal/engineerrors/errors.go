// Package engineerrors defines the engine's typed error taxonomy and the
// last-resort substring classifiers used when the wrapped PMS/WITS client
// exposes no typed error of its own.
package engineerrors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors, grounded on internal/storage/sqlite/errors.go's
// ErrNotFound/ErrConflict pattern.
var (
	// ErrUnmappedEnum indicates a priority/severity/user value had no
	// translation entry. Callers treat this as a warning: leave the
	// destination field unchanged and continue.
	ErrUnmappedEnum = errors.New("unmapped enum value")

	// ErrUnmappedStatusOrType indicates a status or work-item-type value
	// had no translation entry. Fatal for the current artifact.
	ErrUnmappedStatusOrType = errors.New("unmapped status or type")

	// ErrValidationFailed indicates the remote side rejected a save due to
	// field validation.
	ErrValidationFailed = errors.New("field validation failed")

	// ErrQueryCapExceeded indicates a WITS query exceeded the result-set
	// cap and must be retried with a narrower window.
	ErrQueryCapExceeded = errors.New("query result cap exceeded")

	// ErrAuthFailed indicates a client could not authenticate or
	// reselect its project.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrCounterpartDeleted indicates a mapping's external id could not
	// be opened on the remote side. Logged at info and skipped.
	ErrCounterpartDeleted = errors.New("mapped counterpart no longer exists")
)

// queryCapMarker is the literal substring recognized in a WITS query
// error that exceeded the provider's result-set cap.
const queryCapMarker = "VS402337"

// validationMarker is the fixed prefix of the TF400/TF401 error codes that
// IsValidationFailure looks for in a save error's text when the WITS
// client has no typed validation error. It is a constant; no
// configuration changes it.
const validationMarker = "TF"

// IsQueryCapExceeded reports whether err's text contains the query-cap
// sentinel substring. This is only consulted when the WITS client itself
// returns a generic error instead of ErrQueryCapExceeded; the substring
// check is a last-resort classifier, not the primary path.
func IsQueryCapExceeded(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQueryCapExceeded) {
		return true
	}
	return strings.Contains(err.Error(), queryCapMarker)
}

// IsValidationFailure reports whether err's text contains the
// field-validation sentinel substring.
func IsValidationFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	return strings.Contains(err.Error(), validationMarker+"401") ||
		strings.Contains(err.Error(), validationMarker+"400")
}

// Wrap attaches op context to err using the standard %w wrapping idiom,
// mirroring internal/storage/sqlite/errors.go's wrapDBError.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Wrapf attaches formatted op context to err.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
