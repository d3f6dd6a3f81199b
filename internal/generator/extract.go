package generator

import "regexp"

var (
	// sheetIDPattern matches Google Sheets links: .../spreadsheets/d/<id>/edit
	sheetIDPattern = regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`)

	// driveFolderPattern matches Google Drive folder links: .../drive/folders/<id>
	driveFolderPattern = regexp.MustCompile(`/folders/([a-zA-Z0-9_-]+)`)
)

// ExtractID returns the first capture group of pattern in raw, or "" when raw
// is empty or does not contain the anchor. A missing identifier is a valid
// "not configured" state, not an error.
func ExtractID(pattern *regexp.Regexp, raw string) string {
	if raw == "" {
		return ""
	}
	m := pattern.FindStringSubmatch(raw)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// ExtractSheetID pulls the spreadsheet ID out of a pasted RSVP sheet URL.
func ExtractSheetID(url string) string {
	return ExtractID(sheetIDPattern, url)
}

// ExtractDriveFolderID pulls the folder ID out of a pasted Drive folder URL.
func ExtractDriveFolderID(url string) string {
	return ExtractID(driveFolderPattern, url)
}
