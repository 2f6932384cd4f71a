package depgraph

import (
	"errors"
	"fmt"
	"strings"
)

// Construction-time validation failures. All are fatal: construction
// either fully succeeds or returns no usable graph.
var (
	ErrDuplicateComponent  = errors.New("duplicate component")
	ErrUnknownComponent    = errors.New("unknown component")
	ErrDuplicateDependency = errors.New("duplicate dependency")
	ErrCycleDetected       = errors.New("cycle detected")
)

// GraphError provides structured error information for graph operations.
type GraphError struct {
	Op          string   // Operation that failed (e.g., "addNode", "resolve")
	Component   string   // Component name (if applicable)
	Requirement string   // Requirement name (for edge operations)
	Cycle       []string // Participating components (for cycle errors)
	Cause       error    // Underlying sentinel
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	if len(e.Cycle) > 0 {
		return fmt.Sprintf("%s: %v: %s", e.Op, e.Cause, strings.Join(e.Cycle, ", "))
	}
	if e.Requirement != "" {
		return fmt.Sprintf("%s %s -> %s: %v", e.Op, e.Component, e.Requirement, e.Cause)
	}
	if e.Component != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Component, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *GraphError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error or its cause.
func (e *GraphError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// Convenience constructors for the error taxonomy

func duplicateComponentError(name string) error {
	return &GraphError{Op: "addNode", Component: name, Cause: ErrDuplicateComponent}
}

func unknownComponentError(op, name string) error {
	return &GraphError{Op: op, Component: name, Cause: ErrUnknownComponent}
}

func duplicateDependencyError(dependent, requirement string) error {
	return &GraphError{Op: "addEdge", Component: dependent, Requirement: requirement, Cause: ErrDuplicateDependency}
}

func cycleError(op string, participants []string) error {
	return &GraphError{Op: op, Cycle: participants, Cause: ErrCycleDetected}
}

// IsCycle returns true if the error reports a detected cycle.
func IsCycle(err error) bool {
	return errors.Is(err, ErrCycleDetected)
}

// IsValidation returns true if the error is any construction-time
// validation failure other than a cycle.
func IsValidation(err error) bool {
	return errors.Is(err, ErrDuplicateComponent) ||
		errors.Is(err, ErrUnknownComponent) ||
		errors.Is(err, ErrDuplicateDependency)
}
