// Package scholarship provides the built-in scholarship directory.
package scholarship

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed data.yaml
var defaultData []byte

// ErrNotFound is returned when a scholarship ID is unknown.
var ErrNotFound = errors.New("scholarship not found")

// Wildcards used by the dataset for entries open to every level or field.
const (
	AllLevels = "All Levels"
	AllFields = "All Fields"
)

// Scholarship is one funding opportunity.
type Scholarship struct {
	ID                string    `json:"id" yaml:"id"`
	Name              string    `json:"name" yaml:"name"`
	Provider          string    `json:"provider" yaml:"provider"`
	Country           string    `json:"country" yaml:"country"`
	Amount            string    `json:"amount" yaml:"amount"`
	Coverage          string    `json:"coverage" yaml:"coverage"`
	Deadline          time.Time `json:"deadline" yaml:"deadline"`
	StudyLevel        string    `json:"study_level" yaml:"study_level"`
	Fields            []string  `json:"fields" yaml:"fields"`
	EligibleCountries []string  `json:"eligible_countries" yaml:"eligible_countries"`
	Description       string    `json:"description" yaml:"description"`
	Requirements      []string  `json:"requirements" yaml:"requirements"`
	ApplicationURL    string    `json:"application_url" yaml:"application_url"`
	Difficulty        string    `json:"difficulty" yaml:"difficulty"`
}

// DaysUntilDeadline returns whole days from now until the deadline, rounded
// up. Zero or less means the deadline has passed.
func (s Scholarship) DaysUntilDeadline(now time.Time) int {
	return int(math.Ceil(s.Deadline.Sub(now).Hours() / 24))
}

// Filter narrows a listing. Empty fields match everything.
type Filter struct {
	Country    string
	StudyLevel string
	Coverage   string
	Field      string
	Query      string // case-insensitive substring of name, provider or description
}

func (f Filter) match(s Scholarship) bool {
	if f.Country != "" && s.Country != f.Country {
		return false
	}
	if f.StudyLevel != "" && s.StudyLevel != f.StudyLevel && s.StudyLevel != AllLevels {
		return false
	}
	if f.Coverage != "" && s.Coverage != f.Coverage {
		return false
	}
	if f.Field != "" && !contains(s.Fields, f.Field) && !contains(s.Fields, AllFields) {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		return strings.Contains(strings.ToLower(s.Name), q) ||
			strings.Contains(strings.ToLower(s.Provider), q) ||
			strings.Contains(strings.ToLower(s.Description), q)
	}
	return true
}

// Directory is an immutable, ordered set of scholarships.
type Directory struct {
	items []Scholarship
}

// Default returns the embedded directory.
func Default() (*Directory, error) {
	return Parse(defaultData)
}

// Parse decodes a YAML directory and checks that IDs are present and unique.
func Parse(data []byte) (*Directory, error) {
	var file struct {
		Scholarships []Scholarship `yaml:"scholarships"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse scholarships: %w", err)
	}

	seen := make(map[string]bool, len(file.Scholarships))
	for i, s := range file.Scholarships {
		if s.ID == "" {
			return nil, fmt.Errorf("scholarship %d: id is required", i)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("duplicate scholarship id %q", s.ID)
		}
		seen[s.ID] = true
	}

	return &Directory{items: file.Scholarships}, nil
}

// All returns every scholarship in dataset order.
func (d *Directory) All() []Scholarship {
	return append([]Scholarship(nil), d.items...)
}

// Get returns the scholarship with the given ID.
func (d *Directory) Get(id string) (Scholarship, error) {
	for _, s := range d.items {
		if s.ID == id {
			return s, nil
		}
	}
	return Scholarship{}, fmt.Errorf("%w: %q", ErrNotFound, id)
}

// Filter returns the scholarships matching f in dataset order.
func (d *Directory) Filter(f Filter) []Scholarship {
	out := make([]Scholarship, 0, len(d.items))
	for _, s := range d.items {
		if f.match(s) {
			out = append(out, s)
		}
	}
	return out
}

// Upcoming returns up to limit scholarships whose deadline is strictly after
// now, soonest first. A limit of zero or less returns all of them.
func (d *Directory) Upcoming(now time.Time, limit int) []Scholarship {
	var out []Scholarship
	for _, s := range d.items {
		if s.Deadline.After(now) {
			out = append(out, s)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Deadline.Before(out[j].Deadline)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Countries returns the distinct host countries, sorted.
func (d *Directory) Countries() []string {
	return d.facet(func(s Scholarship) []string { return []string{s.Country} })
}

// StudyLevels returns the distinct study levels, sorted.
func (d *Directory) StudyLevels() []string {
	return d.facet(func(s Scholarship) []string { return []string{s.StudyLevel} })
}

// CoverageTypes returns the distinct coverage types, sorted.
func (d *Directory) CoverageTypes() []string {
	return d.facet(func(s Scholarship) []string { return []string{s.Coverage} })
}

// Fields returns the distinct fields of study, sorted.
func (d *Directory) Fields() []string {
	return d.facet(func(s Scholarship) []string { return s.Fields })
}

func (d *Directory) facet(values func(Scholarship) []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range d.items {
		for _, v := range values(s) {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	sort.Strings(out)
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
