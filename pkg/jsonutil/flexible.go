// Package jsonutil decodes upstream JSON whose numeric fields arrive either
// as numbers or as quoted strings depending on the field and API version.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexInt decodes 42, "42" and null (as 0).
type FlexInt int64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(raw []byte) error {
	s, ok := numericText(raw)
	if !ok {
		*f = 0
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*f = FlexInt(n)
		return nil
	}
	// Some fields are integral values rendered as floats (e.g. 1500.0).
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("jsonutil: cannot decode %s as integer", string(raw))
	}
	*f = FlexInt(int64(v))
	return nil
}

// Int returns the value as an int.
func (f FlexInt) Int() int { return int(f) }

// FlexFloat decodes 3.5, "3.5" and null (as 0).
type FlexFloat float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexFloat) UnmarshalJSON(raw []byte) error {
	s, ok := numericText(raw)
	if !ok {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("jsonutil: cannot decode %s as number", string(raw))
	}
	*f = FlexFloat(v)
	return nil
}

// Float returns the value as a float64.
func (f FlexFloat) Float() float64 { return float64(f) }

// numericText returns the number text inside raw, unquoting strings.
// It reports false for null, empty input and empty strings.
func numericText(raw []byte) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	return string(raw), true
}
