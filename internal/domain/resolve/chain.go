// Package resolve turns protocol addresses into display names and e-mail
// addresses using ordered fallback chains over profile and account data.
package resolve

import (
	"context"
	"errors"
	"fmt"
)

// Step is one lookup in a fallback chain.
type Step struct {
	// Name identifies the step in diagnostics, e.g. "vcard:FN".
	Name string
	// Fetch returns the step's candidate value. "" means "nothing here".
	Fetch func(ctx context.Context) (string, error)
}

// Chain is an ordered list of lookups. The first non-empty result wins.
type Chain []Step

// StepError reports which step of a chain failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// First evaluates the steps in order and returns the first non-empty value
// together with the name of the step that produced it. Later steps are not
// called once a value is found. A failing step is skipped: its error is
// wrapped in a *StepError and the chain moves on. The returned error joins
// the errors of every skipped step and is nil when no step failed, so a value
// and an error may be returned together.
func (c Chain) First(ctx context.Context) (value, step string, err error) {
	var errs []error
	for _, s := range c {
		v, ferr := s.Fetch(ctx)
		if ferr != nil {
			errs = append(errs, &StepError{Step: s.Name, Err: ferr})
			continue
		}
		if v != "" {
			return v, s.Name, errors.Join(errs...)
		}
	}
	return "", "", errors.Join(errs...)
}
