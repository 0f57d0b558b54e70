package utils

import (
	"strings"
)

// PadNumber left pads a numeric string with zeros up to width. Non numeric
// input is returned unchanged.
func PadNumber(num string, width int) string {
	if num == "" || strings.TrimLeft(num, "0123456789") != "" {
		return num
	}

	// Calculate required padding
	padding := width - len(num)

	// Add padding if needed
	if padding > 0 {
		return strings.Repeat("0", padding) + num
	}
	return num
}
