package models

import "strings"

// GenerationRequest is the questionnaire submitted by the web wizard.
// It is treated as read-only for the duration of one generation.
type GenerationRequest struct {
	// Core info
	BrideName       string `json:"brideName"`
	GroomName       string `json:"groomName"`
	WeddingDate     string `json:"weddingDate"`
	WeddingLocation string `json:"weddingLocation"`
	AppName         string `json:"appName"`

	// RSVP & gallery
	EnableRSVP      *bool  `json:"enableRSVP,omitempty"`
	RSVPSheetURL    string `json:"rsvpSheetUrl"`
	RSVPDeadline    string `json:"rsvpDeadline,omitempty"`
	EnableGallery   *bool  `json:"enableGallery,omitempty"`
	GalleryDriveURL string `json:"galleryDriveUrl"`

	// Itinerary
	EnableItinerary *bool   `json:"enableItinerary,omitempty"`
	WeddingEvents   []Event `json:"weddingEvents"`
	BrideEvents     []Event `json:"brideEvents"`
	GroomEvents     []Event `json:"groomEvents"`

	// Family & wedding party
	EnableFamily       *bool         `json:"enableFamily,omitempty"`
	FamilyDetails      FamilyDetails `json:"familyDetails"`
	EnableWeddingParty *bool         `json:"enableWeddingParty,omitempty"`
	WeddingParty       WeddingParty  `json:"weddingParty"`

	// Registry
	EnableRegistry *bool           `json:"enableRegistry,omitempty"`
	Registries     []RegistryEntry `json:"registries"`

	// Password protection
	EnablePassword      *bool  `json:"enablePassword,omitempty"`
	AppPassword         string `json:"appPassword,omitempty"`
	EnableAdminPassword *bool  `json:"enableAdminPassword,omitempty"`
	AdminAppPassword    string `json:"adminAppPassword,omitempty"`

	// UI preferences
	SelectedFont      string `json:"selectedFont,omitempty"`
	SelectedColor     string `json:"selectedColor,omitempty"`
	SelectedFontColor string `json:"selectedFontColor,omitempty"`

	// Misc
	EnableCountdown         *bool `json:"enableCountdown,omitempty"`
	EnableRSVPNotification  bool  `json:"enableRSVPNotification"`
	EnableEventNotification bool  `json:"enableEventNotification"`
	EnablePlannerUpdates    bool  `json:"enablePlannerUpdates"`

	// NotifyPhone receives a WhatsApp message once the app is built.
	NotifyPhone string `json:"notifyPhone,omitempty"`
}

// Event is one itinerary entry.
type Event struct {
	Name      string `json:"name"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Location  string `json:"location"`
	DressCode string `json:"dressCode"`
}

// FamilyMember is a card on the "Our Family" screen.
type FamilyMember struct {
	Name     string `json:"name"`
	Relation string `json:"relation"`
	// Description is accepted from older wizard versions in place of Relation.
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// PartyMember is a card on the "Wedding Party" screen.
type PartyMember struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	Relation string `json:"relation"`
	Image    string `json:"image,omitempty"`
}

// RegistryEntry links to an external gift registry.
type RegistryEntry struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

type FamilyDetails struct {
	Bride []FamilyMember `json:"bride"`
	Groom []FamilyMember `json:"groom"`
	Pets  []FamilyMember `json:"pets"`
}

type WeddingParty struct {
	Bride []PartyMember `json:"bride"`
	Groom []PartyMember `json:"groom"`
}

// Flag resolves an optional feature flag, falling back to the wizard's
// default when the field was not submitted.
func Flag(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// Bool returns a pointer to b, for building requests in code.
func Bool(b bool) *bool {
	return &b
}

// CoupleName joins the two names the way the app headers display them.
func (r *GenerationRequest) CoupleName() string {
	bride := strings.TrimSpace(r.BrideName)
	groom := strings.TrimSpace(r.GroomName)
	switch {
	case bride == "":
		return groom
	case groom == "":
		return bride
	}
	return bride + " & " + groom
}

// RelationText returns the relation, or the legacy description if unset.
func (m FamilyMember) RelationText() string {
	if m.Relation != "" {
		return m.Relation
	}
	return m.Description
}
