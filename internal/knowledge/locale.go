package knowledge

import (
	"strings"
	"text/template"

	"github.com/plotcraft/backend-go/internal/models"
)

// Sentinels returned by the generation client when no provider is configured.
// Callers can compare against these to tell "unavailable" apart from a reply.
const (
	ChatUnavailableTH  = "ระบบพี่ยังไม่พร้อมใช้งานครับ (No API Key)"
	DraftUnavailableTH = "ระบบยังไม่พร้อมใช้งาน (No API Key)"
	ChatUnavailableEN  = "The editor is not available yet (No API Key)"
	DraftUnavailableEN = "Drafting is not available yet (No API Key)"
)

// Locale holds every user-facing string of the RAG pipeline for one language.
type Locale struct {
	Code string

	CharacterHeader string
	CharacterLabels CharacterLabels

	// ChapterHeader is a format string taking the chapter order.
	ChapterHeader string
	ChapterLabels ChapterLabels
	SceneHeader   string
	SceneLabels   SceneLabels
	StatusLabels  map[models.SceneStatus]string
	DraftLabels   DraftLabels

	Unspecified string
	None        string
	Blank       string
	NoContent   string
	NoContext   string

	ChatUnavailable  string
	DraftUnavailable string

	// ChatFailure and DraftFailure are format strings taking the error.
	ChatFailure  string
	DraftFailure string

	chatPrompt  *template.Template
	draftPrompt *template.Template
}

type CharacterLabels struct {
	Name, Alias, Role, Personality, Background, Strengths, Weaknesses, Skills string
}

type ChapterLabels struct {
	Title, Content string
}

// DraftLabels describe the POV character and location in the draft prompt.
type DraftLabels struct {
	Appearance, Terrain, Climate string
}

type SceneLabels struct {
	Title, Order, Status, Location, POV, Others, Goal, Conflict, Outcome, Excerpt string
}

// StatusLabel returns the display label of status, falling back to the raw value.
func (l *Locale) StatusLabel(status models.SceneStatus) string {
	if label, ok := l.StatusLabels[status]; ok {
		return label
	}
	if status == "" {
		return l.Blank
	}
	return string(status)
}

const chatPromptTH = `Role: คุณคือ "พี่บก." (Plotcraft Editor) รุ่นพี่ที่สนิทกับนักเขียน (User) มากๆ
Personality: เก่ง สุภาพ ขี้เล่นนิดๆ ให้กำลังใจเก่ง และมีความรู้เรื่องนิยายแน่นปึ้ก

บริบทนิยายที่กำลังคุยถึง (Context):
{{.Context}}

ข้อความจากน้องนักเขียน:
"{{.Query}}"

กติกาการตอบ:
1. ห้ามใช้ Markdown เยอะ (ห้าม #, *, -) เอาให้อ่านง่ายเหมือนแชทไลน์
2. ตอบสั้น กระชับ (ไม่เกิน 3-4 ประโยค) เหมือนคุยแชท
3. ใช้ภาษาพูดที่เป็นกันเอง (แทนตัวว่า "พี่" แทน User ว่า "เรา" หรือ "น้อง")
4. ถ้ามี Context นิยาย: ให้ตอบโดยอิงข้อมูลนั้น ช่วยวิเคราะห์หรือเสนอไอเดีย
5. ถ้าไม่มี Context: ให้ชวนคุยเรื่องเทคนิคการเขียน หรือให้กำลังใจทั่วไป

เริ่มตอบได้:`

const draftPromptTH = `Role: คุณคือ "Ghostwriter" มืออาชีพ หน้าที่ของคุณคือร่างเนื้อหานิยาย (First Draft) จากโครงเรื่องที่กำหนดให้

โครงสร้างฉาก (Scene Structure):
- ชื่อฉาก: {{.Title}}
- ตัวละครดำเนินเรื่อง (POV): {{.POV}}{{with .POVDetail}} ({{.}}){{end}}
- สถานที่: {{.Location}}{{with .LocationDetail}} ({{.}}){{end}}
- ตัวละครอื่นๆ ในฉาก: {{.Others}}

เป้าหมายของฉาก (Goal): {{.Goal}}
อุปสรรค/ความขัดแย้ง (Conflict): {{.Conflict}}
ผลลัพธ์ของฉาก (Outcome): {{.Outcome}}

คำสั่งการเขียน:
1. เขียนบรรยายในรูปแบบ "นิยาย" (Narrative) มุมมองบุคคลที่ 3 (หรือ 1 ตามความเหมาะสมของ POV)
2. เริ่มต้นด้วยการบรรยายบรรยากาศสถานที่ (Setting the scene) ให้เห็นภาพ
3. ใส่บทพูด (Dialogue) และการกระทำ (Action) ที่สะท้อนนิสัยตัวละคร
4. ดำเนินเรื่องให้เห็น "อุปสรรค" ที่ตัวละครต้องเจอ และจบลงที่ "ผลลัพธ์" ตามที่ระบุ
5. ไม่ต้องเขียนยาวมาก เอาแค่โครงร่างหลักๆ ประมาณ 300-500 คำ เพื่อให้นักเขียนไปเกลาต่อได้
6. ใช้ภาษาไทยสละสลวย เหมาะกับการเป็นนิยาย

เริ่มร่างเนื้อหา:`

const chatPromptEN = `Role: You are "the Editor" (Plotcraft Editor), a senior colleague who is close to the writer (User).
Personality: skilled, polite, a little playful, encouraging, and deeply knowledgeable about fiction.

Story context under discussion (Context):
{{.Context}}

Message from the writer:
"{{.Query}}"

Reply rules:
1. Avoid heavy Markdown (no #, *, -); keep it readable like a chat message.
2. Keep it short (3-4 sentences at most), like a chat.
3. Use a casual, friendly tone.
4. If there is story context: answer from it, help analyse or suggest ideas.
5. If there is no context: talk about writing craft or offer general encouragement.

Start your reply:`

const draftPromptEN = `Role: You are a professional "Ghostwriter". Your job is to draft novel prose (First Draft) from the outline below.

Scene Structure:
- Scene title: {{.Title}}
- Point-of-view character (POV): {{.POV}}{{with .POVDetail}} ({{.}}){{end}}
- Location: {{.Location}}{{with .LocationDetail}} ({{.}}){{end}}
- Other characters in the scene: {{.Others}}

Scene goal (Goal): {{.Goal}}
Obstacle (Conflict): {{.Conflict}}
Scene result (Outcome): {{.Outcome}}

Writing instructions:
1. Write narrative prose in third person (or first person if it suits the POV).
2. Open by describing the setting so the reader can picture it.
3. Include dialogue and action that reflect the characters' personalities.
4. Show the obstacle the characters face and end on the stated outcome.
5. Keep it brief, a rough draft of about 300-500 words for the writer to polish.
6. Use fluent English suited to fiction.

Begin the draft:`

// LocaleThai is the default locale.
var LocaleThai = newLocale(Locale{
	Code:            "th",
	CharacterHeader: "[ข้อมูลตัวละคร]",
	CharacterLabels: CharacterLabels{
		Name:        "ชื่อ",
		Alias:       "นามแฝง",
		Role:        "บทบาท",
		Personality: "นิสัย",
		Background:  "ปูมหลัง",
		Strengths:   "จุดแข็ง",
		Weaknesses:  "จุดอ่อน",
		Skills:      "ทักษะ",
	},
	ChapterHeader: "[เนื้อเรื่อง บทที่ %d]",
	ChapterLabels: ChapterLabels{
		Title:   "ชื่อตอน",
		Content: "เนื้อหา",
	},
	SceneHeader: "[ข้อมูลฉาก]",
	SceneLabels: SceneLabels{
		Title:    "ชื่อฉาก",
		Order:    "ลำดับที่",
		Status:   "สถานะ",
		Location: "สถานที่",
		POV:      "ตัวละครดำเนินเรื่อง (POV)",
		Others:   "ตัวละครประกอบ",
		Goal:     "เป้าหมาย (Goal)",
		Conflict: "อุปสรรค (Conflict)",
		Outcome:  "ผลลัพธ์ (Outcome)",
		Excerpt:  "เนื้อหาบางส่วน",
	},
	StatusLabels: map[models.SceneStatus]string{
		models.SceneStatusPlanned:  "วางแผน",
		models.SceneStatusDrafting: "กำลังเขียน",
		models.SceneStatusRevising: "กำลังแก้ไข",
		models.SceneStatusDone:     "เสร็จสมบูรณ์",
	},
	DraftLabels: DraftLabels{
		Appearance: "รูปลักษณ์",
		Terrain:    "สภาพแวดล้อม",
		Climate:    "บรรยากาศ",
	},
	Unspecified:      "ไม่ระบุ",
	None:             "ไม่มี",
	Blank:            "-",
	NoContent:        "ยังไม่มีเนื้อหา",
	NoContext:        "ไม่ได้ระบุ หรือคุยเรื่องทั่วไป",
	ChatUnavailable:  ChatUnavailableTH,
	DraftUnavailable: DraftUnavailableTH,
	ChatFailure:      "โทษที พี่มึนหัวนิดหน่อย (Error: %v)",
	DraftFailure:     "เกิดข้อผิดพลาดในการร่าง: %v",
}, chatPromptTH, draftPromptTH)

var LocaleEnglish = newLocale(Locale{
	Code:            "en",
	CharacterHeader: "[Character]",
	CharacterLabels: CharacterLabels{
		Name:        "Name",
		Alias:       "Alias",
		Role:        "Role",
		Personality: "Personality",
		Background:  "Background",
		Strengths:   "Strengths",
		Weaknesses:  "Weaknesses",
		Skills:      "Skills",
	},
	ChapterHeader: "[Story, chapter %d]",
	ChapterLabels: ChapterLabels{
		Title:   "Chapter title",
		Content: "Content",
	},
	SceneHeader: "[Scene]",
	SceneLabels: SceneLabels{
		Title:    "Scene title",
		Order:    "order",
		Status:   "Status",
		Location: "Location",
		POV:      "Point of view (POV)",
		Others:   "Supporting characters",
		Goal:     "Goal",
		Conflict: "Conflict",
		Outcome:  "Outcome",
		Excerpt:  "Excerpt",
	},
	StatusLabels: map[models.SceneStatus]string{
		models.SceneStatusPlanned:  "Planned",
		models.SceneStatusDrafting: "Drafting",
		models.SceneStatusRevising: "Revising",
		models.SceneStatusDone:     "Done",
	},
	DraftLabels: DraftLabels{
		Appearance: "Appearance",
		Terrain:    "Terrain",
		Climate:    "Atmosphere",
	},
	Unspecified:      "unspecified",
	None:             "none",
	Blank:            "-",
	NoContent:        "no content yet",
	NoContext:        "not specified, or a general conversation",
	ChatUnavailable:  ChatUnavailableEN,
	DraftUnavailable: DraftUnavailableEN,
	ChatFailure:      "Sorry, I'm a bit dizzy right now (Error: %v)",
	DraftFailure:     "Draft generation failed: %v",
}, chatPromptEN, draftPromptEN)

func newLocale(l Locale, chat, draft string) *Locale {
	l.chatPrompt = template.Must(template.New(l.Code + "-chat").Parse(chat))
	l.draftPrompt = template.Must(template.New(l.Code + "-draft").Parse(draft))
	return &l
}

// LocaleFor returns the locale for code, defaulting to Thai.
func LocaleFor(code string) *Locale {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "en":
		return LocaleEnglish
	default:
		return LocaleThai
	}
}
