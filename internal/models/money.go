package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var dollarsPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// Dollars is a major-unit price exactly as configured, e.g. "75" or "75.50".
// It is kept as decimal text so that no floating point value ever holds money.
type Dollars string

// Cents converts the configured amount to integer minor units.
// This is the only place where major units are scaled to minor units.
func (d Dollars) Cents() (int64, error) {
	s := strings.TrimSpace(string(d))
	if s == "" {
		return 0, nil
	}
	if !dollarsPattern.MatchString(s) {
		return 0, fmt.Errorf("invalid dollar amount %q", s)
	}

	whole, frac, _ := strings.Cut(s, ".")
	for len(frac) < 2 {
		frac += "0"
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid dollar amount %q: %w", s, err)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid dollar amount %q: %w", s, err)
	}
	return w*100 + f, nil
}

// IsZero reports whether no amount is configured
func (d Dollars) IsZero() bool {
	return strings.TrimSpace(string(d)) == ""
}

// UnmarshalJSON accepts both JSON numbers and strings
func (d *Dollars) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = Dollars(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid dollar amount: %w", err)
	}
	*d = Dollars(n.String())
	return nil
}

// FormatCents renders minor units as a dollar string, e.g. 22500 -> "$225.00"
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
