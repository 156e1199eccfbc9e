package visual

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// DiffID identifies a difference record stored by the service. The service
// has returned it as a string, a number, or not at all; the zero value means
// no identifier.
type DiffID string

// Valid reports whether the service returned an identifier.
func (d DiffID) Valid() bool {
	return d != ""
}

func (d DiffID) String() string {
	return string(d)
}

// UnmarshalJSON accepts a string, a number, or null.
func (d *DiffID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*d = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = DiffID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*d = DiffID(strconv.FormatInt(i, 10))
		return nil
	}
	*d = DiffID(n.String())
	return nil
}
