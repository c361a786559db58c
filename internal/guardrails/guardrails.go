// Package guardrails bounds user input before it reaches an LLM backend.
package guardrails

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	maxInterestsLen = 500
	maxTopicLen     = 500
	maxDemandLen    = 1000
)

// Guardrails performs input validation on the free-text fields of the three
// generation use cases.
type Guardrails struct{}

func New() *Guardrails {
	return &Guardrails{}
}

// CheckInterests validates the idea-generation interests field.
func (g *Guardrails) CheckInterests(input string) error {
	return check(input, "interests", maxInterestsLen)
}

// CheckTopic validates the Socratic questioning topic.
func (g *Guardrails) CheckTopic(input string) error {
	return check(input, "topic", maxTopicLen)
}

// CheckDemand validates the demand description.
func (g *Guardrails) CheckDemand(input string) error {
	return check(input, "demand", maxDemandLen)
}

func check(input, field string, max int) error {
	if strings.TrimSpace(input) == "" {
		return errors.New(field + " must not be empty")
	}
	if utf8.RuneCountInString(input) > max {
		return errors.New(field + " is too long")
	}
	return nil
}
