package globalcontext

import (
	"fmt"
	"strings"
)

// a person identified across the video
type Person struct {
	Name                 string    `json:"name"`
	Role                 string    `json:"role"`
	Description          string    `json:"description"`
	AppearanceTimestamps []float64 `json:"appearance_timestamps"`
}

type Entities struct {
	People    []Person `json:"people"`
	Locations []string `json:"locations"`
	Objects   []string `json:"objects"`
}

type KeyMoment struct {
	Timestamp   float64 `json:"timestamp"`
	Description string  `json:"description"`
}

// GlobalContext is the video-level summary document built once per video
// and read-shared by every caption worker. It is never mutated after
// construction.
type GlobalContext struct {
	Summary        string            `json:"summary"`
	Entities       Entities          `json:"entities"`
	NarrativeStyle string            `json:"narrative_style"`
	SpeakerMap     map[string]string `json:"speaker_map"`
	KeyMoments     []KeyMoment       `json:"key_moments"`
}

// Fallback returns the empty best-effort document used when synthesis
// fails, so downstream stages always have a usable context.
func Fallback() *GlobalContext {
	return &GlobalContext{
		Summary: "Video context synthesis failed",
		Entities: Entities{
			People:    []Person{},
			Locations: []string{},
			Objects:   []string{},
		},
		NarrativeStyle: "unknown",
		SpeakerMap:     map[string]string{},
		KeyMoments:     []KeyMoment{},
	}
}

// FormatForPrompt renders the document as the concise context section
// embedded in every caption prompt.
func (gc *GlobalContext) FormatForPrompt() string {
	var sb strings.Builder

	sb.WriteString("### GLOBAL VIDEO CONTEXT ###\n")
	summary := gc.Summary
	if summary == "" {
		summary = "N/A"
	}
	sb.WriteString(fmt.Sprintf("Summary: %s\n", summary))

	style := gc.NarrativeStyle
	if style == "" {
		style = "unknown"
	}
	sb.WriteString(fmt.Sprintf("Video Style: %s\n", style))

	if len(gc.Entities.People) > 0 {
		sb.WriteString("Key People:\n")
		for _, p := range gc.Entities.People {
			sb.WriteString(fmt.Sprintf("- %s (%s): %s\n", p.Name, p.Role, p.Description))
		}
	}

	sb.WriteString("###########################\n")
	return sb.String()
}
