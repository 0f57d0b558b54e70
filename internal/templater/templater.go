package templater

import (
	"regexp"
	"strconv"
	"strings"

	"booru/internal/domain"
	"booru/internal/utils"
)

var templatePattern = regexp.MustCompile(`{((\w+?)(:.*?)?)}`)

type Templater struct {
	Post domain.Post
}

func New(post domain.Post) *Templater {
	return &Templater{
		Post: post,
	}
}

// handleNumber pads numeric values: {id:8} gives 00001234.
func (t *Templater) handleNumber(value, options string) string {
	if options == "" {
		return value
	}

	length, _ := strconv.ParseInt(strings.ReplaceAll(options, ":", ""), 10, 32)
	return utils.PadNumber(value, int(length))
}

// handleText substitutes <.> in options with value, so {md5:_<.>} gives
// "_abc" or nothing when the post has no hash.
func (t *Templater) handleText(value, options string) string {
	if value == "" {
		return ""
	}

	cleanString := strings.ReplaceAll(options, ":", "")
	if cleanString == "" {
		return value
	}
	return strings.ReplaceAll(cleanString, "<.>", value)
}

func (t *Templater) ExecTemplate(template string) string {
	newString := template
	for _, match := range templatePattern.FindAllStringSubmatch(template, -1) {
		replace := match[0]

		varName := match[2]
		options := match[3]
		switch varName {
		case "id":
			replace = t.handleNumber(t.Post.ID, options)
		case "score":
			replace = t.handleNumber(strconv.Itoa(t.Post.Score), options)
		case "site":
			replace = t.handleText(t.Post.SourceSite, options)
		case "rating":
			replace = t.handleText(string(t.Post.Rating), options)
		case "md5":
			replace = t.handleText(t.Post.Hash, options)
		}

		newString = strings.Replace(newString, match[0], replace, 1)
	}

	return newString
}
