package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrEmptyTripDetail = errors.New("empty trip detail")

// StringList decodes from either a JSON string or a JSON array of strings.
// A string is split on commas.
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*l = nil
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		out := make([]string, 0)
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		*l = out
		return nil
	}
	var arr []string
	if err := json.Unmarshal(b, &arr); err != nil {
		return err
	}
	*l = arr
	return nil
}

// FlexInt decodes from a JSON number or a numeric string.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("duration %q is not an integer", s)
		}
		*n = FlexInt(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = FlexInt(int(v))
	return nil
}

// ParseTripDetail decodes a serialized trip detail.
func ParseTripDetail(raw string) (TripDetail, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return TripDetail{}, ErrEmptyTripDetail
	}
	var d TripDetail
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return TripDetail{}, fmt.Errorf("parse trip detail: %w", err)
	}
	return d, nil
}

// ParseGeneratedTripDetail decodes model output, tolerating a surrounding
// markdown code fence (```json ... ```).
func ParseGeneratedTripDetail(text string) (TripDetail, error) {
	return ParseTripDetail(stripCodeFence(text))
}

func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// MarshalTripDetail serializes a trip detail for storage.
func MarshalTripDetail(d TripDetail) (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParsePriceUSD extracts whole dollars from a price like "$1,200" or "1200 USD".
// It returns 0 when no digits are present.
func ParsePriceUSD(price string) int64 {
	var (
		n       int64
		seen    bool
		started bool
	)
	for _, r := range price {
		switch {
		case r >= '0' && r <= '9':
			n = n*10 + int64(r-'0')
			seen, started = true, true
		case r == ',' && started:
		case r == '.' && started:
			return n
		default:
			if seen {
				return n
			}
		}
	}
	return n
}
