package generator

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"wedding-appgen/internal/models"
)

// Theme fallbacks used when the couple skipped the theme step.
const (
	DefaultColor     = "#B0848B"
	DefaultFont      = "Sans"
	DefaultFontColor = "#FFFFFF"
)

// placeholderPattern finds {{TOKEN}} placeholders in template text.
var placeholderPattern = regexp.MustCompile(`\{\{([A-Z][A-Z0-9_]*)\}\}`)

// Token is one entry of the placeholder vocabulary.
type Token struct {
	Name string
	// Quoted tokens sit inside Dart string literals and are escaped.
	Quoted  bool
	Default string
	Value   func(r *models.GenerationRequest) string
}

func field(get func(r *models.GenerationRequest) string) func(r *models.GenerationRequest) string {
	return func(r *models.GenerationRequest) string { return strings.TrimSpace(get(r)) }
}

func flag(get func(r *models.GenerationRequest) bool) func(r *models.GenerationRequest) string {
	return func(r *models.GenerationRequest) string { return strconv.FormatBool(get(r)) }
}

// Vocabulary lists every placeholder a template may contain.
var Vocabulary = []Token{
	{Name: "BRIDE_NAME", Quoted: true, Value: field(func(r *models.GenerationRequest) string { return r.BrideName })},
	{Name: "GROOM_NAME", Quoted: true, Value: field(func(r *models.GenerationRequest) string { return r.GroomName })},
	{Name: "COUPLE_NAME", Quoted: true, Value: (*models.GenerationRequest).CoupleName},
	{Name: "WEDDING_DATE", Quoted: true, Value: field(func(r *models.GenerationRequest) string { return r.WeddingDate })},
	{Name: "WEDDING_LOCATION", Quoted: true, Value: field(func(r *models.GenerationRequest) string { return r.WeddingLocation })},
	{Name: "APP_NAME", Quoted: true, Value: field(func(r *models.GenerationRequest) string { return r.AppName })},
	{Name: "RSVP_DEADLINE", Quoted: true, Value: field(func(r *models.GenerationRequest) string { return r.RSVPDeadline })},
	{Name: "APP_PASSWORD", Quoted: true, Value: func(r *models.GenerationRequest) string {
		if !models.Flag(r.EnablePassword, false) {
			return ""
		}
		return r.AppPassword
	}},
	{Name: "ADMIN_PASSWORD", Quoted: true, Value: func(r *models.GenerationRequest) string {
		if !models.Flag(r.EnableAdminPassword, false) {
			return ""
		}
		return r.AdminAppPassword
	}},
	{Name: "SELECTED_COLOR", Quoted: true, Default: DefaultColor, Value: field(func(r *models.GenerationRequest) string { return r.SelectedColor })},
	{Name: "SELECTED_FONT", Quoted: true, Default: DefaultFont, Value: field(func(r *models.GenerationRequest) string { return r.SelectedFont })},
	{Name: "SELECTED_FONT_COLOR", Quoted: true, Default: DefaultFontColor, Value: field(func(r *models.GenerationRequest) string { return r.SelectedFontColor })},
	{Name: "ENABLE_RSVP_NOTIFICATION", Value: flag(func(r *models.GenerationRequest) bool { return r.EnableRSVPNotification })},
	{Name: "ENABLE_EVENT_NOTIFICATION", Value: flag(func(r *models.GenerationRequest) bool { return r.EnableEventNotification })},
	{Name: "ENABLE_PLANNER_UPDATES", Value: flag(func(r *models.GenerationRequest) bool { return r.EnablePlannerUpdates })},
	{Name: "ENABLE_COUNTDOWN", Value: flag(func(r *models.GenerationRequest) bool { return models.Flag(r.EnableCountdown, true) })},
	{Name: "SHEET_ID", Quoted: true, Value: func(r *models.GenerationRequest) string { return ExtractSheetID(r.RSVPSheetURL) }},
	{Name: "DRIVE_FOLDER_ID", Quoted: true, Value: func(r *models.GenerationRequest) string { return ExtractDriveFolderID(r.GalleryDriveURL) }},
}

// TokenValues resolves the whole vocabulary for r. Every token gets a value:
// the request field, else its default, else "". Quoted values are escaped.
func TokenValues(r *models.GenerationRequest) map[string]string {
	values := make(map[string]string, len(Vocabulary))
	for _, tok := range Vocabulary {
		v := tok.Value(r)
		if v == "" {
			v = tok.Default
		}
		if tok.Quoted {
			v = EscapeDart(v)
		}
		values[tok.Name] = v
	}
	return values
}

// CheckPlaceholders verifies content against the vocabulary before any edit:
// each name in required must appear, and no unknown placeholder may appear.
func CheckPlaceholders(content string, required []string, values map[string]string) error {
	for _, name := range required {
		if !strings.Contains(content, "{{"+name+"}}") {
			return &IntegrityError{Marker: name, Message: "required placeholder not found"}
		}
	}
	var unknown []string
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(content, -1) {
		if _, ok := values[m[1]]; !ok && !seen[m[1]] {
			seen[m[1]] = true
			unknown = append(unknown, m[1])
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &IntegrityError{
			Marker:  unknown[0],
			Message: fmt.Sprintf("placeholder(s) outside the vocabulary: %s", strings.Join(unknown, ", ")),
		}
	}
	return nil
}

// SubstituteTokens replaces every {{NAME}} for which values has an entry.
// Replacement is a single literal pass, so substituted values are never
// scanned again.
func SubstituteTokens(content string, values map[string]string) string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, 0, len(names)*2)
	for _, name := range names {
		pairs = append(pairs, "{{"+name+"}}", values[name])
	}
	return strings.NewReplacer(pairs...).Replace(content)
}
