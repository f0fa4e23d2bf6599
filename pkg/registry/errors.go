package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-calculator/pkg/validation"
)

var (
	// ErrConflict is matched by *ConflictError.
	ErrConflict = errors.New("registry: calculator id already registered")
	// ErrInvalidDefinition is matched by *DefinitionError.
	ErrInvalidDefinition = errors.New("registry: invalid calculator definition")
)

// ConflictError reports a duplicate id under the reject policy.
type ConflictError struct {
	ID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("registry: calculator %q already registered", e.ID)
}

// Is lets errors.Is(err, ErrConflict) match.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// DefinitionError reports a calculator rejected by definition checks.
type DefinitionError struct {
	ID     string
	Issues []validation.Issue
}

func (e *DefinitionError) Error() string {
	messages := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		if issue.Severity != validation.SeverityError {
			continue
		}
		messages = append(messages, issue.String())
	}
	id := e.ID
	if id == "" {
		id = "<unnamed>"
	}
	return fmt.Sprintf("registry: calculator %q is invalid: %s", id, strings.Join(messages, "; "))
}

// Is lets errors.Is(err, ErrInvalidDefinition) match.
func (e *DefinitionError) Is(target error) bool {
	return target == ErrInvalidDefinition
}
