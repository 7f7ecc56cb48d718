package lore

import (
	"errors"
	"fmt"
)

var (
	// ErrNoProject means no project directory has been configured.
	ErrNoProject = errors.New("no project directory configured")

	// ErrNotFound means an id does not resolve to a live row.
	ErrNotFound = errors.New("not found")

	// ErrValidation means the input was rejected before any mutation.
	ErrValidation = errors.New("invalid input")

	// ErrDuplicateName means a live sibling already uses the name.
	// It also matches ErrValidation.
	ErrDuplicateName = fmt.Errorf("%w: duplicate name", ErrValidation)
)

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}

func duplicate(name string) error {
	return fmt.Errorf("%q already exists: %w", name, ErrDuplicateName)
}
