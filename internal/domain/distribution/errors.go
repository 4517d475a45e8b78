package distribution

import "errors"

var (
	// ErrNoStudents is returned when a distribution has nothing to send.
	ErrNoStudents = errors.New("no students to distribute")
	// ErrNoCompanies is returned when a distribution names no targets.
	ErrNoCompanies = errors.New("no companies to distribute to")
)
