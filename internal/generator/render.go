package generator

import (
	"bytes"
	"strings"
	"text/template"

	"wedding-appgen/internal/models"
)

// blockSeparator separates consecutive rendered records in a region.
const blockSeparator = "\n\n"

// placeholderImage is used for member cards without an uploaded photo.
const placeholderImage = "assets/placeholder.jpg"

// dartEscaper makes a value safe inside a Dart single-quoted string literal.
// Backslash goes first so the escapes added for the other characters are
// not doubled.
var dartEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`$`, `\$`,
	"\n", `\n`,
	"\r", `\r`,
)

// EscapeDart escapes s for a Dart single-quoted string literal. Every user
// supplied value that lands inside quotes in generated source goes through it.
func EscapeDart(s string) string {
	return dartEscaper.Replace(s)
}

var (
	eventTmpl = mustBlock("event", `Column(
  crossAxisAlignment: CrossAxisAlignment.start,
  children: [
    Text(
      '• {{.Name}}',
      style: TextStyle(fontSize: 16, fontWeight: FontWeight.bold),
    ),
    Text(
      'Location: {{.Location}}',
      style: TextStyle(fontSize: 15),
    ),
    Text(
      'Date: {{.Date}} • Time: {{.Time}}',
      style: TextStyle(fontSize: 15),
    ),
    Text(
      'Dress Code: {{.DressCode}}',
      style: TextStyle(fontSize: 15, fontStyle: FontStyle.italic),
    ),
    SizedBox(height: 12),
  ],
),`)

	familyTmpl = mustBlock("family", `  Padding(
    padding: const EdgeInsets.symmetric(vertical: 12),
    child: _buildMemberCard(
      '{{.Name}}',
      '{{.Relation}}',
      '{{.Image}}',
    ),
  ),`)

	partyTmpl = mustBlock("party", `  Padding(
    padding: const EdgeInsets.symmetric(vertical: 12),
    child: _buildMemberCard(
      '{{.Name}}',
      '{{.Role}}',
      '{{.Relation}}',
      '{{.Image}}',
    ),
  ),`)

	registryTmpl = mustBlock("registry", `  _buildRegistryTile(
    '{{.Label}}',
    '{{.URL}}',
  ),`)
)

func mustBlock(name, text string) *template.Template {
	return template.Must(template.New(name).Option("missingkey=error").Parse(text))
}

// The view types below hold already escaped strings. Block templates only
// ever see these, never the raw request records.

type eventView struct {
	Name, Location, Date, Time, DressCode string
}

type familyView struct {
	Name, Relation, Image string
}

type partyView struct {
	Name, Role, Relation, Image string
}

type registryView struct {
	Label, URL string
}

// RenderEvents renders itinerary entries in input order.
func RenderEvents(events []models.Event) string {
	return renderBlocks(events, func(e models.Event) (*template.Template, any) {
		return eventTmpl, eventView{
			Name:      EscapeDart(e.Name),
			Location:  EscapeDart(e.Location),
			Date:      EscapeDart(e.Date),
			Time:      EscapeDart(eventTime(e.StartTime, e.EndTime)),
			DressCode: EscapeDart(e.DressCode),
		}
	})
}

// RenderFamily renders "Our Family" member cards in input order.
func RenderFamily(members []models.FamilyMember) string {
	return renderBlocks(members, func(m models.FamilyMember) (*template.Template, any) {
		return familyTmpl, familyView{
			Name:     EscapeDart(m.Name),
			Relation: EscapeDart(m.RelationText()),
			Image:    EscapeDart(imageOrPlaceholder(m.Image)),
		}
	})
}

// RenderParty renders wedding party member cards in input order.
func RenderParty(members []models.PartyMember) string {
	return renderBlocks(members, func(m models.PartyMember) (*template.Template, any) {
		return partyTmpl, partyView{
			Name:     EscapeDart(m.Name),
			Role:     EscapeDart(m.Role),
			Relation: EscapeDart(m.Relation),
			Image:    EscapeDart(imageOrPlaceholder(m.Image)),
		}
	})
}

// RenderRegistries renders registry link tiles in input order.
func RenderRegistries(entries []models.RegistryEntry) string {
	return renderBlocks(entries, func(r models.RegistryEntry) (*template.Template, any) {
		return registryTmpl, registryView{
			Label: EscapeDart(r.Label),
			URL:   EscapeDart(r.URL),
		}
	})
}

// renderBlocks renders one block per record and joins them with
// blockSeparator. No records yields "".
func renderBlocks[T any](records []T, view func(T) (*template.Template, any)) string {
	blocks := make([]string, 0, len(records))
	for _, rec := range records {
		tmpl, data := view(rec)
		var buf bytes.Buffer
		// The views are fixed structs matching the block templates, so
		// execution can only fail on a programming error.
		if err := tmpl.Execute(&buf, data); err != nil {
			panic("generator: render " + tmpl.Name() + ": " + err.Error())
		}
		blocks = append(blocks, buf.String())
	}
	return strings.Join(blocks, blockSeparator)
}

func eventTime(start, end string) string {
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)
	switch {
	case start != "" && end != "":
		return start + " - " + end
	case start != "":
		return start
	}
	return end
}

func imageOrPlaceholder(image string) string {
	if strings.TrimSpace(image) == "" {
		return placeholderImage
	}
	return image
}
