package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// flexInt decodes numbers that arrive either as JSON numbers or, as with
// proto3 int64 fields, as strings. null and missing decode to zero.
type flexInt struct {
	Value int64
	Valid bool
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = flexInt{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = flexInt{}
			return nil
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer %q: %w", s, err)
		}
		*f = flexInt{Value: v, Valid: true}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	v, err := n.Int64()
	if err != nil {
		fv, ferr := n.Float64()
		if ferr != nil {
			return fmt.Errorf("invalid integer %s: %w", n, err)
		}
		v = int64(fv)
	}
	*f = flexInt{Value: v, Valid: true}
	return nil
}

// googleMonth decodes a MonthOfYear enum given by name or number.
type googleMonth struct {
	Month time.Month
}

var googleMonthNames = map[string]int{
	"JANUARY": 2, "FEBRUARY": 3, "MARCH": 4, "APRIL": 5, "MAY": 6, "JUNE": 7,
	"JULY": 8, "AUGUST": 9, "SEPTEMBER": 10, "OCTOBER": 11, "NOVEMBER": 12, "DECEMBER": 13,
}

// monthFromGoogleEnum maps the enum value (JANUARY=2 .. DECEMBER=13) to a
// calendar month. UNSPECIFIED (0) and UNKNOWN (1) map to zero.
func monthFromGoogleEnum(v int) (time.Month, error) {
	if v == 0 || v == 1 {
		return 0, nil
	}
	if v < 2 || v > 13 {
		return 0, fmt.Errorf("month enum %d out of range", v)
	}
	return time.Month(v - 1), nil
}

func (g *googleMonth) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "UNSPECIFIED" || s == "UNKNOWN" {
			g.Month = 0
			return nil
		}
		if v, ok := googleMonthNames[s]; ok {
			g.Month, _ = monthFromGoogleEnum(v)
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("unknown month %q", s)
		}
		m, err := monthFromGoogleEnum(n)
		if err != nil {
			return err
		}
		g.Month = m
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid month: %w", err)
	}
	m, err := monthFromGoogleEnum(n)
	if err != nil {
		return err
	}
	g.Month = m
	return nil
}

// missingTerms returns requested keywords that none of the returned
// keywords match under case folding, in request order.
func missingTerms(requested, returned []string) []string {
	fold := cases.Fold()
	seen := make(map[string]struct{}, len(returned))
	for _, kw := range returned {
		seen[fold.String(strings.TrimSpace(kw))] = struct{}{}
	}

	var missing []string
	for _, kw := range requested {
		if _, ok := seen[fold.String(strings.TrimSpace(kw))]; !ok {
			missing = append(missing, kw)
		}
	}
	return missing
}
