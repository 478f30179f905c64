package directory

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrShapeMismatch indicates the upstream list response matched none of the
// known envelope shapes.
var ErrShapeMismatch = errors.New("directory: unrecognized response envelope")

// DecodeUserList unwraps the upstream list response. Known shapes are tried
// in priority order: data.users, data as an array, users, then the body
// itself as a bare array. A null or empty body decodes to an empty list;
// anything else is ErrShapeMismatch.
func DecodeUserList(raw []byte) ([]User, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []User{}, nil
	}

	if trimmed[0] == '[' {
		return decodeArray(trimmed)
	}

	var env struct {
		Data  json.RawMessage `json:"data"`
		Users json.RawMessage `json:"users"`
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, ErrShapeMismatch
	}

	if data := bytes.TrimSpace(env.Data); len(data) > 0 && !bytes.Equal(data, []byte("null")) {
		if data[0] == '{' {
			var nested struct {
				Users json.RawMessage `json:"users"`
			}
			if err := json.Unmarshal(data, &nested); err == nil {
				if users := bytes.TrimSpace(nested.Users); len(users) > 0 && users[0] == '[' {
					return decodeArray(users)
				}
			}
		}
		if data[0] == '[' {
			return decodeArray(data)
		}
	}

	if users := bytes.TrimSpace(env.Users); len(users) > 0 && users[0] == '[' {
		return decodeArray(users)
	}

	return nil, ErrShapeMismatch
}

func decodeArray(raw []byte) ([]User, error) {
	var users []User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, ErrShapeMismatch
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}
