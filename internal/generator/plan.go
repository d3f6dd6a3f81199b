package generator

import (
	"regexp"

	"wedding-appgen/internal/models"
)

// FilePlan lists the edits applied to one template file. Edits run in a
// fixed order: regions, then placeholders, then feature toggles.
type FilePlan struct {
	// Path is slash-separated and relative to the template root.
	Path    string
	Regions []RegionPlan
	// Tokens must each appear in the pristine file.
	Tokens  []string
	Toggles []Toggle
}

// RegionPlan binds a marked region to the list that fills it.
type RegionPlan struct {
	Marker string
	// Label is the section heading removed along with an empty region
	// when Policy is RemoveSection.
	Label  string
	Policy EmptyPolicy
	Render func(r *models.GenerationRequest) string
}

func events(get func(r *models.GenerationRequest) []models.Event) func(r *models.GenerationRequest) string {
	return func(r *models.GenerationRequest) string { return RenderEvents(get(r)) }
}

func family(get func(r *models.GenerationRequest) []models.FamilyMember) func(r *models.GenerationRequest) string {
	return func(r *models.GenerationRequest) string { return RenderFamily(get(r)) }
}

func party(get func(r *models.GenerationRequest) []models.PartyMember) func(r *models.GenerationRequest) string {
	return func(r *models.GenerationRequest) string { return RenderParty(get(r)) }
}

// navTile matches a multi-line `_NavTile(` block in the home layout whose
// first argument line is `title: '<title>',`, up to its closing `),` line.
func navTile(title string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^[ \t]*_NavTile\(\r?\n[ \t]*title: '` + regexp.QuoteMeta(title) + `',[\s\S]*?^[ \t]*\),[ \t]*\r?$`)
}

// DefaultToggles are the optional screens of the shipped template.
var DefaultToggles = []Toggle{
	{
		Name:    "gallery",
		Import:  "import 'photo_gallery.dart';",
		Widget:  navTile("Photo Gallery"),
		Enabled: func(r *models.GenerationRequest) bool { return models.Flag(r.EnableGallery, false) },
	},
	{
		Name:    "rsvp",
		Import:  "import 'rsvpForm.dart';",
		Widget:  navTile("RSVP"),
		Enabled: func(r *models.GenerationRequest) bool { return models.Flag(r.EnableRSVP, true) },
	},
	{
		Name:    "itinerary",
		Import:  "import 'itinerary.dart';",
		Widget:  navTile("Itinerary"),
		Enabled: func(r *models.GenerationRequest) bool { return models.Flag(r.EnableItinerary, true) },
	},
	{
		Name:    "family",
		Import:  "import 'our_family.dart';",
		Widget:  navTile("Our Family"),
		Enabled: func(r *models.GenerationRequest) bool { return models.Flag(r.EnableFamily, true) },
	},
	{
		Name:    "wedding_party",
		Import:  "import 'wedding_party.dart';",
		Widget:  navTile("Wedding Party"),
		Enabled: func(r *models.GenerationRequest) bool { return models.Flag(r.EnableWeddingParty, false) },
	},
	{
		Name:    "registry",
		Import:  "import 'registry.dart';",
		Widget:  navTile("Registry"),
		Enabled: func(r *models.GenerationRequest) bool { return models.Flag(r.EnableRegistry, false) },
	},
}

// DefaultPlan rewrites the Flutter template shipped in templates/.
var DefaultPlan = []FilePlan{
	{
		Path: "lib/main.dart",
		Tokens: []string{
			"BRIDE_NAME", "GROOM_NAME", "COUPLE_NAME", "WEDDING_DATE", "WEDDING_LOCATION",
			"APP_NAME", "APP_PASSWORD", "SELECTED_COLOR", "SELECTED_FONT",
		},
	},
	{
		Path: "lib/itinerary.dart",
		Regions: []RegionPlan{
			{Marker: "WEDDING_EVENTS", Policy: BlankRegion, Render: events(func(r *models.GenerationRequest) []models.Event { return r.WeddingEvents })},
			{Marker: "BRIDE_EVENTS", Label: "Bride Events", Policy: RemoveSection, Render: events(func(r *models.GenerationRequest) []models.Event { return r.BrideEvents })},
			{Marker: "GROOM_EVENTS", Label: "Groom Events", Policy: RemoveSection, Render: events(func(r *models.GenerationRequest) []models.Event { return r.GroomEvents })},
		},
		Tokens: []string{"WEDDING_DATE", "WEDDING_LOCATION"},
	},
	{
		Path: "lib/our_family.dart",
		Regions: []RegionPlan{
			{Marker: "BRIDE_SIDE", Render: family(func(r *models.GenerationRequest) []models.FamilyMember { return r.FamilyDetails.Bride })},
			{Marker: "GROOM_SIDE", Render: family(func(r *models.GenerationRequest) []models.FamilyMember { return r.FamilyDetails.Groom })},
			{Marker: "PET_SIDE", Render: family(func(r *models.GenerationRequest) []models.FamilyMember { return r.FamilyDetails.Pets })},
		},
	},
	{
		Path: "lib/wedding_party.dart",
		Regions: []RegionPlan{
			{Marker: "BRIDAL_PARTY", Render: party(func(r *models.GenerationRequest) []models.PartyMember { return r.WeddingParty.Bride })},
			{Marker: "GROOM_PARTY", Render: party(func(r *models.GenerationRequest) []models.PartyMember { return r.WeddingParty.Groom })},
		},
	},
	{
		Path: "lib/registry.dart",
		Regions: []RegionPlan{
			{Marker: "REGISTRY", Render: func(r *models.GenerationRequest) string { return RenderRegistries(r.Registries) }},
		},
	},
	{
		Path:   "lib/rsvpForm.dart",
		Tokens: []string{"SHEET_ID"},
	},
	{
		Path:   "lib/photo_gallery.dart",
		Tokens: []string{"DRIVE_FOLDER_ID"},
	},
	{
		Path:    "lib/home_layout.dart",
		Tokens:  []string{"COUPLE_NAME"},
		Toggles: DefaultToggles,
	},
}

// RewriteFile applies plan to the pristine content of one file.
func RewriteFile(content string, plan FilePlan, r *models.GenerationRequest, values map[string]string) (string, error) {
	if err := CheckPlaceholders(content, plan.Tokens, values); err != nil {
		return "", withFile(err, plan.Path)
	}

	var err error
	for _, region := range plan.Regions {
		content, err = InjectRegion(content, region.Marker, region.Render(r), region.Policy, region.Label)
		if err != nil {
			return "", withFile(err, plan.Path)
		}
	}

	content = SubstituteTokens(content, values)

	for _, t := range plan.Toggles {
		content, _ = EraseFeature(content, t.Enabled(r), t.Import, t.Widget)
	}
	return content, nil
}
