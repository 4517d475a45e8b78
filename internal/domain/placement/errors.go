package placement

import (
	"fmt"

	"github.com/ganot/placement-desk/internal/repository"
)

var (
	// ErrDuplicateID is returned when a placement id is already taken.
	ErrDuplicateID = fmt.Errorf("placement id already exists: %w", repository.ErrConflict)

	// ErrUnknownStudent is returned when a placement names a missing student.
	ErrUnknownStudent = fmt.Errorf("unknown student: %w", repository.ErrForeignKeyViolation)

	// ErrUnknownCompany is returned when a placement names a missing company.
	ErrUnknownCompany = fmt.Errorf("unknown company: %w", repository.ErrForeignKeyViolation)
)
