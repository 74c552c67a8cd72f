// Package refinery cleans free-text fields of intake records before they are matched or stored.
package refinery

import (
	"slices"
)

// ProcessingStep is a single text transformation
type ProcessingStep func(string) string

type namedStep struct {
	name string
	fn   ProcessingStep
}

// Refinery applies its steps in order
type Refinery struct {
	name  string
	steps []namedStep
}

// New creates an empty refinery
func New(name string) *Refinery {
	return &Refinery{name: name}
}

// Then appends a step and returns the refinery for chaining
func (r *Refinery) Then(name string, step ProcessingStep) *Refinery {
	r.steps = append(r.steps, namedStep{name: name, fn: step})
	return r
}

// Process runs text through every step
func (r *Refinery) Process(text string) string {
	for _, s := range r.steps {
		text = s.fn(text)
	}
	return text
}

// Name returns the refinery name
func (r *Refinery) Name() string {
	return r.name
}

// PipelineSteps returns the step names in order
func (r *Refinery) PipelineSteps() []string {
	names := make([]string, 0, len(r.steps))
	for _, s := range r.steps {
		names = append(names, s.name)
	}
	return slices.Clip(names)
}
