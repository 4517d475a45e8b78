package distribution

import (
	"bytes"
	"encoding/csv"

	"github.com/ganot/placement-desk/internal/domain/student"
)

func encodeCSV(students []student.Student) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(student.Columns); err != nil {
		return "", err
	}
	for _, st := range students {
		if err := w.Write(student.ToRow(st)); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
