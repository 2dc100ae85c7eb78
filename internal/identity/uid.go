package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidUID marks identities that cannot join a channel: empty values,
// non-numeric strings and the zero UID.
var ErrInvalidUID = errors.New("invalid uid")

// Parse converts a wire identity into a numeric RTC UID.
//
// Zero is rejected for humans and agents alike. Some callers historically used
// 0 as a "not yet assigned" sentinel; a token or join request carrying it would
// authorize the wildcard identity, so the bridge treats it as a bad request
// everywhere.
func Parse(raw string) (uint32, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("uid is required: %w", ErrInvalidUID)
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("uid %q is not a positive integer: %w", s, ErrInvalidUID)
	}
	if n == 0 {
		return 0, fmt.Errorf("uid 0 is reserved: %w", ErrInvalidUID)
	}
	return uint32(n), nil
}

// UID is a channel identity as it arrives on the wire. Clients send it either
// as a JSON number or a JSON string; both forms decode to the same value.
type UID struct {
	raw string
}

func (u *UID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		u.raw = strings.TrimSpace(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("uid must be a string or a number: %w", ErrInvalidUID)
	}
	u.raw = n.String()
	return nil
}

func (u UID) String() string {
	return u.raw
}

// IsEmpty reports whether the field was absent or blank in the request body.
func (u UID) IsEmpty() bool {
	return u.raw == ""
}

// Value validates the identity and returns the numeric UID.
func (u UID) Value() (uint32, error) {
	return Parse(u.raw)
}
