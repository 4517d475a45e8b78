package company

import (
	"fmt"

	"github.com/ganot/placement-desk/internal/repository"
)

// ErrDuplicateID is returned when a company id is already taken.
var ErrDuplicateID = fmt.Errorf("company id already exists: %w", repository.ErrConflict)
