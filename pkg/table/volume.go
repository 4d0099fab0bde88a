// Package table turns provider keyword metrics into the volume table:
// one row per keyword, one column per month, plus quarterly and rolling
// twelve-month aggregates.
package table

import "strconv"

// Volume is a search volume that may be absent. NoData is distinct from a
// reported zero and never collapses into it.
type Volume struct {
	n  int64
	ok bool
}

// NoData is the absent volume.
func NoData() Volume { return Volume{} }

// Count is a reported volume.
func Count(n int64) Volume { return Volume{n: n, ok: true} }

// Value returns the count and whether one was reported.
func (v Volume) Value() (int64, bool) { return v.n, v.ok }

// IsNoData reports whether v is absent.
func (v Volume) IsNoData() bool { return !v.ok }

// Add sums two volumes. NoData is the identity; NoData+NoData is NoData.
func (v Volume) Add(o Volume) Volume {
	switch {
	case !v.ok:
		return o
	case !o.ok:
		return v
	}
	return Count(v.n + o.n)
}

// Sum adds vs left to right.
func Sum(vs ...Volume) Volume {
	total := NoData()
	for _, v := range vs {
		total = total.Add(v)
	}
	return total
}

// greater orders counts descending with NoData after every count.
func (v Volume) greater(o Volume) bool {
	switch {
	case !v.ok:
		return false
	case !o.ok:
		return true
	}
	return v.n > o.n
}

func (v Volume) String() string {
	if !v.ok {
		return ""
	}
	return strconv.FormatInt(v.n, 10)
}
