package generator

import (
	"fmt"
	"regexp"
	"strings"
)

// EmptyPolicy decides what happens to a marked region whose list is empty.
type EmptyPolicy int

const (
	// BlankRegion keeps both sentinels and leaves nothing between them.
	BlankRegion EmptyPolicy = iota
	// RemoveSection deletes the labelled section: the heading line, the
	// sentinels and everything between.
	RemoveSection
)

func (p EmptyPolicy) String() string {
	switch p {
	case BlankRegion:
		return "blank"
	case RemoveSection:
		return "remove"
	}
	return fmt.Sprintf("EmptyPolicy(%d)", int(p))
}

// anyEndSentinel matches the closing sentinel of any region. It bounds the
// backwards search for a section heading.
var anyEndSentinel = regexp.MustCompile(`(?m)^[ \t]*// [A-Z0-9_]+_END[ \t]*\r?$`)

// sentinel matches "// <MARKER>_<suffix>" standing alone on its line.
func sentinel(marker, suffix string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^[ \t]*// ` + regexp.QuoteMeta(marker) + `_` + suffix + `[ \t]*\r?$`)
}

// regionSpan holds byte offsets of one sentinel pair. The start line runs
// [startLine, bodyStart) and the end line runs [bodyEnd, endLineEnd).
type regionSpan struct {
	startLine  int
	bodyStart  int
	bodyEnd    int
	endLineEnd int
}

func findRegion(content, marker string) (regionSpan, error) {
	starts := sentinel(marker, "START").FindAllStringIndex(content, -1)
	ends := sentinel(marker, "END").FindAllStringIndex(content, -1)
	if len(starts) != 1 || len(ends) != 1 {
		return regionSpan{}, &IntegrityError{
			Marker:  marker,
			Message: fmt.Sprintf("found %d START and %d END sentinels, want exactly one of each", len(starts), len(ends)),
		}
	}
	if ends[0][0] < starts[0][1] {
		return regionSpan{}, &IntegrityError{Marker: marker, Message: "END sentinel precedes START"}
	}
	return regionSpan{
		startLine:  starts[0][0],
		bodyStart:  skipNewline(content, starts[0][1]),
		bodyEnd:    ends[0][0],
		endLineEnd: skipNewline(content, ends[0][1]),
	}, nil
}

func skipNewline(content string, i int) int {
	if i < len(content) && content[i] == '\n' {
		return i + 1
	}
	return i
}

// ReplaceRegion replaces everything strictly between the START and END
// sentinel lines of marker with fragment. Both sentinel lines are kept
// byte for byte. An empty fragment leaves an empty region.
func ReplaceRegion(content, marker, fragment string) (string, error) {
	span, err := findRegion(content, marker)
	if err != nil {
		return "", err
	}
	body := fragment
	if body != "" && !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	return content[:span.bodyStart] + body + content[span.bodyEnd:], nil
}

// RemoveRegion deletes the region of marker together with its sentinels.
// When label is set, the deletion starts at the nearest preceding line that
// contains the label as a single-quoted string, searching no further back
// than the previous region's END sentinel.
func RemoveRegion(content, marker, label string) (string, error) {
	span, err := findRegion(content, marker)
	if err != nil {
		return "", err
	}
	from := span.startLine
	if label != "" {
		floor := 0
		if prev := anyEndSentinel.FindAllStringIndex(content[:span.startLine], -1); len(prev) > 0 {
			floor = prev[len(prev)-1][1]
		}
		idx := strings.LastIndex(content[floor:span.startLine], "'"+label+"'")
		if idx < 0 {
			return "", &IntegrityError{Marker: marker, Message: fmt.Sprintf("section heading %q not found before START", label)}
		}
		from = lineStart(content, floor+idx)
	}
	return content[:from] + content[span.endLineEnd:], nil
}

func lineStart(content string, i int) int {
	return strings.LastIndexByte(content[:i], '\n') + 1
}

// InjectRegion applies the region contract for one marker: a non-empty
// fragment replaces the region body, an empty one is handled per policy.
func InjectRegion(content, marker, fragment string, policy EmptyPolicy, label string) (string, error) {
	if fragment == "" && policy == RemoveSection {
		return RemoveRegion(content, marker, label)
	}
	return ReplaceRegion(content, marker, fragment)
}
