package ident

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// ID is a record identifier. It decodes from a JSON number or a numeric
// string and always encodes as a number. Anything else decodes to 0, which
// callers treat as "no id".
type ID int

func (id ID) Valid() bool { return id > 0 }

func (id ID) String() string { return strconv.Itoa(int(id)) }

func (id ID) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, int64(id), 10), nil
}

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*id = 0
			return nil
		}
		b = []byte(strings.TrimSpace(s))
	}
	*id = Parse(string(b))
	return nil
}

// Parse reads an id from text. "7", "7.0" and " 7 " give 7; fractions are
// truncated; anything unparsable or beyond the int32 range gives 0, so max+1
// during allocation cannot overflow.
func Parse(s string) ID {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(s, 10, 32)
	switch {
	case err == nil:
		return ID(n)
	case errors.Is(err, strconv.ErrRange):
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0
	}
	return ID(math.Trunc(f))
}
