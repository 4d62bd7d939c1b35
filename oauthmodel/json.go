package oauthmodel

import (
	"encoding/json"
	"strconv"
	"time"
)

// MarshalJSON renders the token per the wire contract: expires_in is a
// number, omitted fields are left out entirely rather than emitted as
// zero values.
func (t *AccessToken) MarshalJSON() ([]byte, error) {
	out := make(map[string]any)
	for k, v := range SerializeAccessToken(t, time.Now()) {
		if k == FieldExpiresIn {
			secs, err := strconv.Atoi(v)
			if err != nil {
				return nil, err
			}
			out[k] = secs
			continue
		}
		out[k] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts both numeric and string expires_in values.
func (t *AccessToken) UnmarshalJSON(data []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			fields[k] = s
			continue
		}
		var n json.Number
		if err := json.Unmarshal(v, &n); err == nil {
			fields[k] = n.String()
		}
	}
	parsed, err := DeserializeAccessToken(fields, time.Now())
	if err != nil {
		return err
	}
	*t = *parsed
	return nil
}

// MarshalJSON renders the error body with its extension fields; nil
// additional values become explicit JSON nulls.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(SerializeError(e))
}

// UnmarshalJSON reconstructs the error kind from the body. Null extension
// values are kept as nils, not coerced to empty strings.
func (e *Error) UnmarshalJSON(data []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	fields := make(map[string]*string, len(raw))
	for k, v := range raw {
		if string(v) == "null" {
			fields[k] = nil
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			fields[k] = &s
			continue
		}
		text := string(v)
		fields[k] = &text
	}
	*e = *DeserializeError(fields)
	return nil
}
