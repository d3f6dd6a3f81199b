package generator

import (
	"regexp"
	"strings"

	"wedding-appgen/internal/models"
)

// Toggle describes how an optional screen is wired into the layout file, so
// it can be commented out when the couple disables the feature.
type Toggle struct {
	Name string
	// Import is the exact import statement of the screen's source file.
	Import string
	// Widget matches every block that references the screen. Patterns should
	// use (?m) and anchor on uncommented line starts.
	Widget *regexp.Regexp
	// Enabled reads the feature flag from the request.
	Enabled func(*models.GenerationRequest) bool
}

// commentPrefix is inserted after a line's indentation.
const commentPrefix = "// "

// EraseFeature comments out the import line and every line spanned by a
// match of widget when enabled is false. Lines that are already comments are
// left alone, so applying it twice gives the same result as applying it once.
// It returns the new content and the number of lines it commented out.
func EraseFeature(content string, enabled bool, importLine string, widget *regexp.Regexp) (string, int) {
	if enabled {
		return content, 0
	}

	var spans [][2]int
	if importLine != "" {
		importRe := regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(importLine))
		for _, m := range importRe.FindAllStringIndex(content, -1) {
			spans = append(spans, [2]int{m[0], m[1]})
		}
	}
	if widget != nil {
		for _, m := range widget.FindAllStringIndex(content, -1) {
			if m[1] > m[0] {
				spans = append(spans, [2]int{lineStart(content, m[0]), m[1]})
			}
		}
	}
	if len(spans) == 0 {
		return content, 0
	}
	return commentLines(content, spans)
}

// commentLines prefixes every line whose start falls inside one of spans.
func commentLines(content string, spans [][2]int) (string, int) {
	covered := func(ls int) bool {
		for _, s := range spans {
			if s[0] <= ls && ls < s[1] {
				return true
			}
		}
		return false
	}

	var b strings.Builder
	b.Grow(len(content) + len(spans)*len(commentPrefix)*4)
	count := 0
	for pos := 0; pos < len(content); {
		end := strings.IndexByte(content[pos:], '\n')
		next := len(content)
		if end >= 0 {
			end += pos
			next = end + 1
		} else {
			end = len(content)
		}
		line := content[pos:end]
		if covered(pos) && commentable(line) {
			indent := len(line) - len(strings.TrimLeft(line, " \t"))
			b.WriteString(line[:indent])
			b.WriteString(commentPrefix)
			b.WriteString(line[indent:])
			count++
		} else {
			b.WriteString(line)
		}
		b.WriteString(content[end:next])
		pos = next
	}
	return b.String(), count
}

func commentable(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed != "" && !strings.HasPrefix(trimmed, "//")
}
