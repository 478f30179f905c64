package identity

import (
	"encoding/json"
	"strings"
)

// Record is the persisted claim of who the current user is. It is written
// wholesale on login and destroyed on logout, never mutated in place.
type Record struct {
	Role         string `json:"role"`
	ID           string `json:"id"`
	MobileNumber string `json:"mobileNumber,omitempty"`
}

// Encode serializes the record for the session store.
func (r Record) Encode() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ResolveRole derives the normalized role from a raw persisted identity
// payload. Absence, a parse failure, or a missing role field all resolve to
// RoleNone, which callers treat as unauthenticated. It never returns an
// error: a malformed record is indistinguishable from no record.
func ResolveRole(raw string) Role {
	rec, ok := Decode(raw)
	if !ok {
		return RoleNone
	}
	if strings.TrimSpace(rec.Role) == "" {
		return RoleNone
	}
	return NormalizeRole(rec.Role)
}

// Decode parses a raw identity payload. ok is false when the payload is
// absent or unparsable.
func Decode(raw string) (Record, bool) {
	if strings.TrimSpace(raw) == "" {
		return Record{}, false
	}
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return Record{}, false
	}
	return rec, true
}
