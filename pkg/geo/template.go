package geo

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrInvalidTemplate = errors.New("invalid location template")

// Target is one row of a location-selection template.
type Target struct {
	Region   string `yaml:"region" json:"region"`
	Location string `yaml:"target_location" json:"target_location"`
	Language string `yaml:"target_language" json:"target_language"`
}

type templateDocument struct {
	Params []Target `yaml:"params"`
}

// ParseTemplate reads a YAML document of the form
//
//	params:
//	  - region: Europe
//	    target_location: Germany
//	    target_language: German
func ParseTemplate(r io.Reader) ([]Target, error) {
	var doc templateDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidTemplate)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	if len(doc.Params) == 0 {
		return nil, fmt.Errorf("%w: no params", ErrInvalidTemplate)
	}

	for i, t := range doc.Params {
		if strings.TrimSpace(t.Location) == "" || strings.TrimSpace(t.Language) == "" {
			return nil, fmt.Errorf("%w: param #%d needs target_location and target_language", ErrInvalidTemplate, i+1)
		}
	}
	return doc.Params, nil
}

// LoadTemplate reads a template from disk.
func LoadTemplate(path string) ([]Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template: %w", err)
	}
	defer f.Close()
	return ParseTemplate(f)
}

// ParseTargets parses the compact "Region:Location:Language;..." form used
// on the command line.
func ParseTargets(list string) ([]Target, error) {
	var targets []Target
	for _, part := range strings.Split(list, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Split(part, ":")
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: %q is not Region:Location:Language", ErrInvalidTemplate, part)
		}
		targets = append(targets, Target{
			Region:   strings.TrimSpace(fields[0]),
			Location: strings.TrimSpace(fields[1]),
			Language: strings.TrimSpace(fields[2]),
		})
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: no targets", ErrInvalidTemplate)
	}
	return targets, nil
}
