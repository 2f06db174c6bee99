package knowledge

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/plotcraft/backend-go/internal/models"
)

const sceneExcerptLimit = 1000

// Renderer turns entities into the text and metadata stored in the vector index.
// Output depends only on its input and the locale.
type Renderer struct {
	locale *Locale
}

func NewRenderer(locale *Locale) *Renderer {
	if locale == nil {
		locale = LocaleThai
	}
	return &Renderer{locale: locale}
}

func (r *Renderer) Locale() *Locale {
	return r.locale
}

type lineWriter struct {
	b     strings.Builder
	blank string
}

func (w *lineWriter) line(text string) {
	w.b.WriteString(text)
	w.b.WriteByte('\n')
}

func (w *lineWriter) field(label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = w.blank
	}
	w.line(label + ": " + value)
}

func (w *lineWriter) String() string {
	return strings.TrimRight(w.b.String(), "\n")
}

// RenderCharacter renders a character profile.
func (r *Renderer) RenderCharacter(c *models.Character) IndexedDocument {
	l := r.locale
	labels := l.CharacterLabels
	w := &lineWriter{blank: l.Blank}

	w.line(l.CharacterHeader)
	w.field(labels.Name, c.Name)
	w.field(labels.Alias, c.Alias)
	w.field(labels.Role, c.Role)
	w.field(labels.Personality, c.Personality)
	w.field(labels.Background, c.Background)
	w.field(labels.Strengths, c.Strengths)
	w.field(labels.Weaknesses, c.Weaknesses)
	w.field(labels.Skills, c.Skills)

	return IndexedDocument{
		ID:   DocumentID(DocumentTypeCharacter, c.CharacterID),
		Text: w.String(),
		Metadata: DocumentMetadata{
			Type:     DocumentTypeCharacter,
			NovelID:  scopeID(c.ProjectID),
			OwnerID:  scopeID(c.CreatedByID),
			SourceID: strconv.FormatUint(uint64(c.CharacterID), 10),
		},
	}
}

// RenderChapter renders chapter prose. The owner is the novel's author, so
// Novel should be loaded.
func (r *Renderer) RenderChapter(ch *models.Chapter) IndexedDocument {
	l := r.locale
	w := &lineWriter{blank: l.Blank}

	w.line(fmt.Sprintf(l.ChapterHeader, ch.Order))
	w.field(l.ChapterLabels.Title, ch.Title)
	w.field(l.ChapterLabels.Content, ch.Content)

	return IndexedDocument{
		ID:   DocumentID(DocumentTypeContent, ch.ChapterID),
		Text: w.String(),
		Metadata: DocumentMetadata{
			Type:     DocumentTypeContent,
			NovelID:  formatID(ch.NovelID),
			OwnerID:  formatID(ch.Novel.AuthorID),
			SourceID: strconv.FormatUint(uint64(ch.ChapterID), 10),
		},
	}
}

// RenderScene renders the scene outline plus the first part of its prose.
func (r *Renderer) RenderScene(s *models.Scene) IndexedDocument {
	l := r.locale
	labels := l.SceneLabels
	w := &lineWriter{blank: l.Blank}

	title := strings.TrimSpace(s.Title)
	if title == "" {
		title = l.Blank
	}

	w.line(l.SceneHeader)
	w.line(fmt.Sprintf("%s: %s (%s %d)", labels.Title, title, labels.Order, s.Order))
	w.field(labels.Status, l.StatusLabel(s.Status))
	w.field(labels.Location, locationName(s.Location, l.Unspecified))
	w.field(labels.POV, characterName(s.POVCharacter, l.Unspecified))
	w.field(labels.Others, joinCharacterNames(s.Characters, l.Blank))
	w.line("")
	w.field(labels.Goal, s.Goal)
	w.field(labels.Conflict, s.Conflict)
	w.field(labels.Outcome, s.Outcome)
	w.line("")
	w.line(labels.Excerpt + ":")
	if excerpt := strings.TrimSpace(truncateRunes(s.Content, sceneExcerptLimit)); excerpt != "" {
		w.line(excerpt)
	} else {
		w.line(l.NoContent)
	}

	return IndexedDocument{
		ID:   DocumentID(DocumentTypeScene, s.SceneID),
		Text: w.String(),
		Metadata: DocumentMetadata{
			Type:     DocumentTypeScene,
			NovelID:  scopeID(s.ProjectID),
			OwnerID:  scopeID(s.CreatedByID),
			SourceID: strconv.FormatUint(uint64(s.SceneID), 10),
		},
	}
}

func characterName(c *models.Character, fallback string) string {
	if c == nil || strings.TrimSpace(c.Name) == "" {
		return fallback
	}
	return c.Name
}

func locationName(loc *models.Location, fallback string) string {
	if loc == nil || strings.TrimSpace(loc.Name) == "" {
		return fallback
	}
	return loc.Name
}

func joinCharacterNames(chars []models.Character, fallback string) string {
	names := make([]string, 0, len(chars))
	for _, c := range chars {
		if name := strings.TrimSpace(c.Name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return fallback
	}
	return strings.Join(names, ", ")
}
