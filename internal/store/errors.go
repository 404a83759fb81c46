package store

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Domain rejections. These are normal outcomes, never retried and never
// wrapped with transport detail before reaching the handler layer.
var (
	// ErrApplianceNotFound means the referenced appliance id does not exist.
	ErrApplianceNotFound = errors.New("appliance does not exist")

	// ErrApplianceInUse means the appliance already holds an active
	// reservation; the caller lost the race or picked a busy machine.
	ErrApplianceInUse = errors.New("appliance is already in use")
)

// DailyLimitError means the user already reserved an appliance of this kind
// on the same UTC calendar day.
type DailyLimitError struct {
	Kind string
}

func (e *DailyLimitError) Error() string {
	return fmt.Sprintf("daily limit reached for kind %q", e.Kind)
}

// isDomainError reports whether err is a business rejection rather than a
// persistence failure. Domain errors must not trigger retries.
func isDomainError(err error) bool {
	var dl *DailyLimitError
	return errors.Is(err, ErrApplianceNotFound) ||
		errors.Is(err, ErrApplianceInUse) ||
		errors.As(err, &dl)
}

// isDuplicateKey reports whether err is a unique-constraint violation. The
// pinned sqlite driver predates GORM's error translator, so the sqlite and
// postgres driver messages are matched as a fallback.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
