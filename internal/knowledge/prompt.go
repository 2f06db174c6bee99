package knowledge

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/plotcraft/backend-go/internal/models"
)

// PromptComposer builds generation prompts. It has no side effects.
type PromptComposer struct {
	locale *Locale
}

func NewPromptComposer(locale *Locale) *PromptComposer {
	if locale == nil {
		locale = LocaleThai
	}
	return &PromptComposer{locale: locale}
}

type chatPromptData struct {
	Query   string
	Context string
}

type draftPromptData struct {
	Title          string
	POV            string
	POVDetail      string
	Location       string
	LocationDetail string
	Others         string
	Goal           string
	Conflict       string
	Outcome        string
}

// ComposeChatPrompt renders the editor persona prompt with query as the user
// typed it. An empty context is replaced by the locale's no-context marker.
func (p *PromptComposer) ComposeChatPrompt(query, context string) string {
	context = strings.TrimSpace(context)
	if context == "" {
		context = p.locale.NoContext
	}
	return p.execute(p.locale.chatPrompt, chatPromptData{
		Query:   query,
		Context: context,
	})
}

// ComposeSceneDraftPrompt renders the ghostwriter prompt for s. Missing
// relations become the locale's "unspecified" and "none" placeholders.
func (p *PromptComposer) ComposeSceneDraftPrompt(s *models.Scene) string {
	l := p.locale
	if s == nil {
		s = &models.Scene{}
	}

	data := draftPromptData{
		Title:    orDefault(s.Title, l.Unspecified),
		POV:      characterName(s.POVCharacter, l.Unspecified),
		Location: locationName(s.Location, l.Unspecified),
		Others:   joinCharacterNames(s.Characters, l.None),
		Goal:     orDefault(s.Goal, l.Unspecified),
		Conflict: orDefault(s.Conflict, l.Unspecified),
		Outcome:  orDefault(s.Outcome, l.Unspecified),
	}
	if c := s.POVCharacter; c != nil {
		data.POVDetail = fmt.Sprintf("%s: %s, %s: %s",
			l.CharacterLabels.Personality, orDefault(c.Personality, l.Blank),
			l.DraftLabels.Appearance, orDefault(c.Appearance, l.Blank))
	}
	if loc := s.Location; loc != nil {
		data.LocationDetail = fmt.Sprintf("%s: %s, %s: %s",
			l.DraftLabels.Terrain, orDefault(loc.Terrain, l.Blank),
			l.DraftLabels.Climate, orDefault(loc.Climate, l.Blank))
	}

	return p.execute(l.draftPrompt, data)
}

func (p *PromptComposer) execute(tmpl *template.Template, data any) string {
	var buf bytes.Buffer
	// Templates are parsed at init and only read string fields.
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
