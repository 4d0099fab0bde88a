package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period is one calendar month.
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod reads an MM-YYYY column label.
func ParsePeriod(label string) (Period, error) {
	mm, yyyy, ok := strings.Cut(strings.TrimSpace(label), "-")
	if !ok || len(mm) != 2 || len(yyyy) != 4 {
		return Period{}, fmt.Errorf("invalid month label %q", label)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 1 || m > 12 {
		return Period{}, fmt.Errorf("invalid month in %q", label)
	}
	y, err := strconv.Atoi(yyyy)
	if err != nil {
		return Period{}, fmt.Errorf("invalid year in %q", label)
	}
	return Period{Year: y, Month: time.Month(m)}, nil
}

// Label formats the period as MM-YYYY.
func (p Period) Label() string {
	return fmt.Sprintf("%02d-%04d", int(p.Month), p.Year)
}

// Quarter returns 1..4.
func (p Period) Quarter() int {
	return (int(p.Month)-1)/3 + 1
}

func (p Period) index() int {
	return p.Year*12 + int(p.Month) - 1
}

// Before reports whether p is earlier than o.
func (p Period) Before(o Period) bool {
	return p.index() < o.index()
}

// shortLabel formats "<Mon> <yy>", e.g. "Dec 24".
func (p Period) shortLabel() string {
	return fmt.Sprintf("%s %02d", p.Month.String()[:3], p.Year%100)
}
