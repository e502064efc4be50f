// Package result models the outcome of a deployment step.
//
// Every install and uninstall step returns a *Result instead of an error.
// A failed step may wrap the result of the step that caused it, which gives
// callers an inspectable cause chain rooted at the lowest-level failure.
package result

import (
	"fmt"
	"strings"
)

// Status tags a Result.
type Status int

const (
	NoResult Status = iota
	Success
	Failure
)

func (s Status) String() string {
	switch s {
	case Success:
		return "Success"
	case Failure:
		return "Failure"
	default:
		return "NoResult"
	}
}

// Result is immutable once constructed.
type Result struct {
	status   Status
	message  string
	artefact string
	cause    *Result
	skipped  bool
}

// NewSuccess creates a successful result with a formatted message.
func NewSuccess(format string, args ...interface{}) *Result {
	return &Result{status: Success, message: fmt.Sprintf(format, args...)}
}

// NewFailure creates a failed result with a formatted message.
func NewFailure(format string, args ...interface{}) *Result {
	return &Result{status: Failure, message: fmt.Sprintf(format, args...)}
}

// NewSkipped creates a failed result for a step that was deliberately not
// run. It keeps the Failure status and is told apart by IsSkipped.
func NewSkipped(format string, args ...interface{}) *Result {
	return &Result{status: Failure, message: fmt.Sprintf(format, args...), skipped: true}
}

// NewNoResult creates a result for a step that had nothing to do.
func NewNoResult(format string, args ...interface{}) *Result {
	return &Result{status: NoResult, message: fmt.Sprintf(format, args...)}
}

// WithCause returns a copy of r that wraps cause.
func (r *Result) WithCause(cause *Result) *Result {
	c := *r
	c.cause = cause
	return &c
}

// WithArtefact returns a copy of r carrying artefact.
func (r *Result) WithArtefact(artefact string) *Result {
	c := *r
	c.artefact = artefact
	return &c
}

func (r *Result) Status() Status {
	if r == nil {
		return NoResult
	}
	return r.status
}

func (r *Result) Message() string {
	if r == nil {
		return ""
	}
	return r.message
}

func (r *Result) Artefact() string {
	if r == nil {
		return ""
	}
	return r.artefact
}

func (r *Result) Cause() *Result {
	if r == nil {
		return nil
	}
	return r.cause
}

func (r *Result) IsSuccess() bool {
	return r.Status() == Success
}

func (r *Result) IsFailure() bool {
	return r.Status() == Failure
}

func (r *Result) IsSkipped() bool {
	return r != nil && r.skipped
}

// Chain returns r followed by its causes, outermost first.
func (r *Result) Chain() []*Result {
	var chain []*Result
	for cur := r; cur != nil; cur = cur.cause {
		chain = append(chain, cur)
	}
	return chain
}

// Root returns the innermost result of the cause chain.
func (r *Result) Root() *Result {
	if r == nil {
		return nil
	}
	cur := r
	for cur.cause != nil {
		cur = cur.cause
	}
	return cur
}

// String renders the status and the messages of the whole chain.
func (r *Result) String() string {
	if r == nil {
		return NoResult.String()
	}
	msgs := make([]string, 0, 4)
	for _, cur := range r.Chain() {
		if cur.message != "" {
			msgs = append(msgs, cur.message)
		}
	}
	return fmt.Sprintf("%s: %s", r.status, strings.Join(msgs, ": "))
}
