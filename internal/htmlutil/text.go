package htmlutil

import (
	"regexp"
	"strings"

	"github.com/k3a/html2text"
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// ToText converts rendered markup to plain text for terminal output. List
// items keep a bullet and runs of blank lines collapse to one.
func ToText(s string) string {
	text := html2text.HTML2TextWithOptions(s, html2text.WithUnixLineBreaks(), html2text.WithListSupport())
	return strings.TrimSpace(blankRuns.ReplaceAllString(text, "\n\n"))
}
