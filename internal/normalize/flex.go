package normalize

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Upstream timestamp conventions: calendar dates on input, full timestamps
// on records, both local time with no zone offset.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

// ParseDate parses a yyyy-MM-dd calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.Local)
}

// ParseTimestamp parses a yyyy-MM-dd HH:mm:ss upstream timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, s, time.Local)
}

// flexString decodes a JSON string or number into a string. Upstream id
// fields switch between the two depending on the endpoint.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}

// flexInt decodes a JSON number or numeric string into an int. Anything
// non-numeric decodes to zero rather than failing the record.
type flexInt int

func (i *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*i = 0
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			*i = 0
			return nil
		}
		*i = flexInt(n)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		*i = 0
		return nil
	}
	*i = flexInt(int(f))
	return nil
}

// flexInt64 is flexInt for id-sized values.
type flexInt64 int64

func (i *flexInt64) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*i = 0
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			*i = 0
			return nil
		}
		*i = flexInt64(n)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		*i = 0
		return nil
	}
	*i = flexInt64(int64(f))
	return nil
}
