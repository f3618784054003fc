package auth

import (
	"time"
)

// =============================================================================
// Time Validation
// =============================================================================

// ParseTimestamp parses an x-ckbfs-date value as UTC. The basic ISO 8601
// form is expected; RFC 3339 is accepted as well.
func ParseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse(ISO8601BasicFormat, value)
	if err == nil {
		return t.UTC(), nil
	}
	if t, rfcErr := time.Parse(time.RFC3339, value); rfcErr == nil {
		return t.UTC(), nil
	}
	return time.Time{}, err
}

// ValidateTimestamp checks that the timestamp is within tolerance of now in
// either direction. The comparison is made in whole seconds and the bound is
// inclusive.
func ValidateTimestamp(value string, now time.Time, tolerance time.Duration) (time.Time, error) {
	requestTime, err := ParseTimestamp(value)
	if err != nil {
		return time.Time{}, ErrTimestampInvalid
	}

	skew := now.UTC().Unix() - requestTime.Unix()
	if skew < 0 {
		skew = -skew
	}

	if skew > int64(tolerance/time.Second) {
		return time.Time{}, ErrTimestampInvalid
	}

	return requestTime, nil
}
