package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

const projectURL = "https://github.com/booru-go/booru"

// UserAgent identifies the library and version to the sites it queries.
func UserAgent() string {
	return fmt.Sprintf("booru/%s (+%s)", Version, projectURL)
}
