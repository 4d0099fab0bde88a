// Package geo resolves human-readable countries and languages to the
// numeric and ISO codes each keyword provider expects.
package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

var (
	ErrUnknownLocation = errors.New("unknown location")
	ErrUnknownLanguage = errors.New("unknown language")
)

// Location is a fully resolved target: the names analysts typed plus the
// codes sent to providers.
type Location struct {
	Region       string
	Country      string
	Language     string
	LocationCode int
	CountryISO   string
	LanguageCode string
	LanguageID   int
}

// Resolver maps names to codes using static lookup tables.
type Resolver struct {
	locations map[string]LocationRecord
	languages map[string]LanguageRecord
}

// NewResolver builds a resolver over the given records. Later records win
// when two names fold to the same key.
func NewResolver(locations []LocationRecord, languages []LanguageRecord) *Resolver {
	r := &Resolver{
		locations: make(map[string]LocationRecord, len(locations)),
		languages: make(map[string]LanguageRecord, len(languages)),
	}
	for _, loc := range locations {
		r.locations[r.key(loc.Name)] = loc
	}
	for _, lang := range languages {
		r.languages[r.key(lang.Name)] = lang
	}
	return r
}

// DefaultResolver uses the built-in tables.
func DefaultResolver() *Resolver {
	return NewResolver(defaultLocations, defaultLanguages)
}

// LoadResolver starts from the built-in tables and overlays entries read from
// locations.json and languages.json when the paths are non-empty.
func LoadResolver(locationsPath, languagesPath string) (*Resolver, error) {
	locations := append([]LocationRecord(nil), defaultLocations...)
	languages := append([]LanguageRecord(nil), defaultLanguages...)

	if locationsPath != "" {
		var extra []LocationRecord
		if err := readJSON(locationsPath, &extra); err != nil {
			return nil, fmt.Errorf("failed to load locations: %w", err)
		}
		locations = append(locations, extra...)
	}
	if languagesPath != "" {
		var extra []LanguageRecord
		if err := readJSON(languagesPath, &extra); err != nil {
			return nil, fmt.Errorf("failed to load languages: %w", err)
		}
		languages = append(languages, extra...)
	}

	return NewResolver(locations, languages), nil
}

func readJSON(path string, dest interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return nil
}

// key folds case and collapses whitespace so "united  KINGDOM " matches.
// Casers are stateful, so each call gets its own.
func (r *Resolver) key(name string) string {
	return cases.Fold().String(strings.Join(strings.Fields(name), " "))
}

// Resolve turns a template target into a Location.
func (r *Resolver) Resolve(t Target) (Location, error) {
	loc, ok := r.locations[r.key(t.Location)]
	if !ok {
		return Location{}, fmt.Errorf("%w: %q", ErrUnknownLocation, t.Location)
	}
	lang, ok := r.languages[r.key(t.Language)]
	if !ok {
		return Location{}, fmt.Errorf("%w: %q", ErrUnknownLanguage, t.Language)
	}

	return Location{
		Region:       strings.TrimSpace(t.Region),
		Country:      loc.Name,
		Language:     lang.Name,
		LocationCode: loc.Code,
		CountryISO:   loc.CountryISOCode,
		LanguageCode: lang.Code,
		LanguageID:   lang.ID,
	}, nil
}

// ResolveAll resolves every target, failing on the first unknown name.
func (r *Resolver) ResolveAll(targets []Target) ([]Location, error) {
	out := make([]Location, 0, len(targets))
	for i, t := range targets {
		loc, err := r.Resolve(t)
		if err != nil {
			return nil, fmt.Errorf("target #%d: %w", i+1, err)
		}
		out = append(out, loc)
	}
	return out, nil
}

// Countries lists known country names, sorted.
func (r *Resolver) Countries() []string {
	names := make([]string, 0, len(r.locations))
	for _, loc := range r.locations {
		names = append(names, loc.Name)
	}
	sort.Strings(names)
	return names
}

// Languages lists known language names, sorted.
func (r *Resolver) Languages() []string {
	names := make([]string, 0, len(r.languages))
	for _, lang := range r.languages {
		names = append(names, lang.Name)
	}
	sort.Strings(names)
	return names
}
