// Package rendering turns maturity reports and submissions into markdown,
// HTML, PDF and plain-text documents.
package rendering

import "fmt"

// TemplateError represents an error parsing or executing a document template
type TemplateError struct {
	Message string
	Cause   error
}

func (e *TemplateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("template error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("template error: %s", e.Message)
}

func (e *TemplateError) Unwrap() error {
	return e.Cause
}

// RenderError represents a conversion failure (markdown, HTML or PDF)
type RenderError struct {
	Format  Format
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render %s: %s: %v", e.Format, e.Message, e.Cause)
	}
	return fmt.Sprintf("render %s: %s", e.Format, e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}
