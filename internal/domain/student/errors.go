package student

import (
	"fmt"

	"github.com/ganot/placement-desk/internal/repository"
)

var (
	// ErrDuplicateID is returned when a student id is already taken.
	ErrDuplicateID = fmt.Errorf("student id already exists: %w", repository.ErrConflict)

	// ErrDuplicateEmail is returned when an email belongs to another student.
	ErrDuplicateEmail = fmt.Errorf("student email already exists: %w", repository.ErrConflict)
)
