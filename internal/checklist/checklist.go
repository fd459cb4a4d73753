// Package checklist holds the immutable merchandising checklist definition.
//
// The checklist is an ordered sequence of sections, each with an ordered
// sequence of items; every item breaks down into individual points. The bot
// walks the flattened point list one step at a time, so step order and step
// identifiers must never change while the process is running.
package checklist

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed checklist.yaml
var embedded []byte

// Section is a titled group of checklist items.
type Section struct {
	Title string `yaml:"title"`
	Items []Item `yaml:"items"`
}

// Item is a single checklist item, identified by a stable code within its
// section and broken down into individual points to verify.
type Item struct {
	Code   string   `yaml:"code"`
	Title  string   `yaml:"title"`
	Points []string `yaml:"points"`
}

// Step is one element of the flattened traversal: a single point of a single
// item, together with the section and item it belongs to. Index is the
// position in the flattened list and stays stable for the lifetime of the
// process.
type Step struct {
	Index   int    `json:"index"`
	Section string `json:"section"`
	Code    string `json:"code"`
	Title   string `json:"title"`
	Text    string `json:"text"`
}

// Prompt renders the step the way it is presented to the user.
func (s Step) Prompt() string {
	return fmt.Sprintf("%s\n%s — %s\n\n%s", s.Section, s.Code, s.Title, s.Text)
}

// List is the loaded checklist definition. It is read-only after Load.
type List struct {
	Sections []Section
	steps    []Step
}

// Load parses the embedded checklist definition.
func Load() (*List, error) {
	return Parse(embedded)
}

// Parse parses a YAML checklist definition and flattens it into steps.
func Parse(b []byte) (*List, error) {
	var doc struct {
		Sections []Section `yaml:"sections"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("checklist: %w", err)
	}

	l := &List{Sections: doc.Sections}
	for si, sec := range doc.Sections {
		if sec.Title == "" {
			return nil, fmt.Errorf("checklist: section %d has no title", si)
		}
		for ii, it := range sec.Items {
			if it.Code == "" {
				return nil, fmt.Errorf("checklist: item %d of section %q has no code", ii, sec.Title)
			}
			if len(it.Points) == 0 {
				return nil, fmt.Errorf("checklist: item %s has no points", it.Code)
			}
			for _, p := range it.Points {
				l.steps = append(l.steps, Step{
					Index:   len(l.steps),
					Section: sec.Title,
					Code:    it.Code,
					Title:   it.Title,
					Text:    p,
				})
			}
		}
	}
	if len(l.steps) == 0 {
		return nil, fmt.Errorf("checklist: no steps defined")
	}
	return l, nil
}

// Len returns the number of steps in the flattened traversal.
func (l *List) Len() int { return len(l.steps) }

// Step returns the step at position i. It panics if i is out of range;
// callers are expected to bound-check against Len.
func (l *List) Step(i int) Step { return l.steps[i] }
