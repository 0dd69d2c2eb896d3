package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Validation errors
var (
	ErrInvalidAccountName = errors.New("invalid account name")
	ErrInvalidInstrument  = errors.New("invalid instrument")
	ErrInvalidTransCode   = errors.New("invalid transaction code")
	ErrInvalidIDFormat    = errors.New("invalid ID format")
	ErrBatchTooLarge      = errors.New("too many transactions in one request")
)

// Validation constants
const (
	MaxAccountNameLength = 255
	MinAccountNameLength = 1
	MaxInstrumentLength  = 32
	MaxTransCodeLength   = 16
	MaxDescriptionLength = 1024
)

var (
	ulidRegex       = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)
	instrumentRegex = regexp.MustCompile(`^[A-Z0-9.\-/ ]*$`)
)

// ValidateAccountName validates account name
func ValidateAccountName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) < MinAccountNameLength {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidAccountName)
	}

	if len(name) > MaxAccountNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidAccountName, MaxAccountNameLength)
	}

	return nil
}

// ValidateID checks a ULID-shaped identifier.
func ValidateID(id string) error {
	if !ulidRegex.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidIDFormat, id)
	}
	return nil
}

// ValidateTransaction checks a transaction submitted outside the CSV path.
func ValidateTransaction(t *Transaction) error {
	if t.ActivityDate.IsZero() {
		return fmt.Errorf("%w: activity date is required", ErrInvalidDate)
	}

	instrument := strings.ToUpper(strings.TrimSpace(t.Instrument))
	if len(instrument) > MaxInstrumentLength || !instrumentRegex.MatchString(instrument) {
		return fmt.Errorf("%w: %q", ErrInvalidInstrument, t.Instrument)
	}

	code := NormalizeTransCode(t.TransCode)
	if code == "" || len(code) > MaxTransCodeLength {
		return fmt.Errorf("%w: %q", ErrInvalidTransCode, t.TransCode)
	}

	if len(t.Description) > MaxDescriptionLength {
		return fmt.Errorf("description exceeds %d characters", MaxDescriptionLength)
	}

	return nil
}

// Page sizes for list operations.
const (
	DefaultPageSize = 50
	MaxPageSize     = 1000
)

// NormalizePage applies DefaultPageSize to a missing limit, caps it at
// maxSize and floors offset at zero.
func NormalizePage(limit, offset, maxSize int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	limit = min(limit, maxSize)
	return limit, max(offset, 0)
}
