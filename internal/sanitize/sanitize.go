package sanitize

import (
	"regexp"
	"strings"
)

var illegalChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// Filename removes characters that aren't allowed in file names on common
// filesystems from a templated post name.
func Filename(name string) string {
	// Remove illegal chars
	name = illegalChars.ReplaceAllString(name, "")

	// Trim spaces & dots
	return strings.Trim(name, " .")
}
