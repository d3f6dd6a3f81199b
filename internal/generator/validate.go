package generator

import (
	"errors"
	"regexp"
	"slices"
	"strings"
	"time"

	"wedding-appgen/internal/models"
)

// dateLayouts are the wedding date formats the wizard has produced.
var dateLayouts = []string{"2006-01-02", "02.01.2006", "01/02/2006"}

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

var fonts = []string{"Serif", "Sans", "Script"}

// Validate checks the fields the generator cannot work without and the
// shape of the fields it passes through verbatim. Optional fields that are
// missing are fine; they fall back to defaults at substitution time.
func Validate(r *models.GenerationRequest) error {
	if r == nil {
		return &ValidationErrors{Errors: []ValidationError{{Field: "request", Message: "is required"}}}
	}
	var errs []ValidationError

	required := func(name, value string) bool {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, ValidationError{Field: name, Message: "is required"})
			return false
		}
		return true
	}

	required("brideName", r.BrideName)
	required("groomName", r.GroomName)
	if required("weddingDate", r.WeddingDate) && !validDate(r.WeddingDate) {
		errs = append(errs, ValidationError{
			Field:   "weddingDate",
			Message: "must be formatted as " + strings.Join(dateLayouts, ", "),
			Value:   r.WeddingDate,
		})
	}

	for name, value := range map[string]string{"selectedColor": r.SelectedColor, "selectedFontColor": r.SelectedFontColor} {
		if value != "" && !hexColorPattern.MatchString(value) {
			errs = append(errs, ValidationError{Field: name, Message: "must be a #RRGGBB color", Value: value})
		}
	}
	if r.SelectedFont != "" && !slices.Contains(fonts, r.SelectedFont) {
		errs = append(errs, ValidationError{
			Field:   "selectedFont",
			Message: "must be one of " + strings.Join(fonts, ", "),
			Value:   r.SelectedFont,
		})
	}

	if len(errs) == 0 {
		return nil
	}
	sortByField(errs)
	return &ValidationErrors{Errors: errs}
}

// ValidateSubmission is Validate plus the fields the web wizard marks as
// required before it lets a couple submit.
func ValidateSubmission(r *models.GenerationRequest) error {
	err := Validate(r)
	if r == nil {
		return err
	}
	var errs []ValidationError
	var ve *ValidationErrors
	if errors.As(err, &ve) {
		errs = slices.Clone(ve.Errors)
	}
	if strings.TrimSpace(r.WeddingLocation) == "" {
		errs = append(errs, ValidationError{Field: "weddingLocation", Message: "is required"})
	}
	if strings.TrimSpace(r.AppName) == "" {
		errs = append(errs, ValidationError{Field: "appName", Message: "is required"})
	}
	if len(errs) == 0 {
		return nil
	}
	sortByField(errs)
	return &ValidationErrors{Errors: errs}
}

func sortByField(errs []ValidationError) {
	slices.SortStableFunc(errs, func(a, b ValidationError) int { return strings.Compare(a.Field, b.Field) })
}

func validDate(s string) bool {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
