package repository

import (
	"fmt"
	"strconv"
	"strings"
)

// A1 builds an A1-notation range such as Students!A2:J or Students!A5:J5.
// A toRow of zero leaves the range open-ended.
func A1(sheet string, fromRow, toRow int, lastCol string) string {
	if toRow <= 0 {
		return fmt.Sprintf("%s!A%d:%s", sheet, fromRow, lastCol)
	}
	return fmt.Sprintf("%s!A%d:%s%d", sheet, fromRow, lastCol, toRow)
}

// ParseA1 splits an A1 range into its sheet name and start row.
// A bare sheet name starts at row 1.
func ParseA1(rng string) (sheet string, startRow int, err error) {
	sheet, cells, found := strings.Cut(rng, "!")
	if sheet == "" {
		return "", 0, Invalid("range", fmt.Sprintf("missing sheet name in %q", rng))
	}
	sheet = strings.Trim(sheet, "'")
	if !found || cells == "" {
		return sheet, 1, nil
	}
	start, _, _ := strings.Cut(cells, ":")
	digits := strings.TrimLeft(start, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	if digits == "" {
		return sheet, 1, nil
	}
	startRow, err = strconv.Atoi(digits)
	if err != nil || startRow < 1 {
		return "", 0, Invalid("range", fmt.Sprintf("bad row in %q", rng))
	}
	return sheet, startRow, nil
}

// ColumnName returns the A1 letter(s) of the n-th column, counting from 1.
func ColumnName(n int) string {
	if n < 1 {
		return "A"
	}
	var name []byte
	for n > 0 {
		n--
		name = append([]byte{byte('A' + n%26)}, name...)
		n /= 26
	}
	return string(name)
}
