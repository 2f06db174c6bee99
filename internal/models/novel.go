package models

import (
	"time"
)

// User is the minimal account record entities are attributed to.
type User struct {
	UserID     uint      `gorm:"primaryKey;column:user_id" json:"user_id"`
	Username   string    `gorm:"size:100;not null;unique" json:"username"`
	Email      string    `gorm:"size:255;not null;unique" json:"email"`
	CreateTime time.Time `gorm:"column:create_time;autoCreateTime" json:"create_time"`
	UpdateTime time.Time `gorm:"column:update_time;autoUpdateTime" json:"update_time"`
}

func (User) TableName() string {
	return "users"
}

// Novel is a writing project. Characters, locations and scenes reference it as
// their project; chapters belong to it directly.
type Novel struct {
	NovelID    uint      `gorm:"primaryKey;column:novel_id" json:"novel_id"`
	Title      string    `gorm:"size:200;not null" json:"title"`
	Synopsis   string    `gorm:"type:text" json:"synopsis"`
	AuthorID   uint      `gorm:"column:author_id;not null;index" json:"author_id"`
	Author     User      `gorm:"foreignKey:AuthorID;references:UserID" json:"-"`
	CreateTime time.Time `gorm:"column:create_time;autoCreateTime" json:"create_time"`
	UpdateTime time.Time `gorm:"column:update_time;autoUpdateTime" json:"update_time"`
}

func (Novel) TableName() string {
	return "novels"
}

type Chapter struct {
	ChapterID  uint      `gorm:"primaryKey;column:chapter_id" json:"chapter_id"`
	NovelID    uint      `gorm:"column:novel_id;not null;index" json:"novel_id"`
	Novel      Novel     `gorm:"foreignKey:NovelID;references:NovelID" json:"-"`
	Title      string    `gorm:"size:200;not null" json:"title"`
	Content    string    `gorm:"type:text" json:"content"`
	Order      int       `gorm:"column:chapter_order;not null;default:1" json:"order"`
	Status     string    `gorm:"size:20;default:draft" json:"status"`
	CreateTime time.Time `gorm:"column:create_time;autoCreateTime" json:"create_time"`
	UpdateTime time.Time `gorm:"column:update_time;autoUpdateTime" json:"update_time"`
}

func (Chapter) TableName() string {
	return "chapters"
}

type Character struct {
	CharacterID uint      `gorm:"primaryKey;column:character_id" json:"character_id"`
	ProjectID   *uint     `gorm:"column:project_id;index" json:"project_id"`
	Project     *Novel    `gorm:"foreignKey:ProjectID;references:NovelID" json:"-"`
	CreatedByID *uint     `gorm:"column:created_by_id;index" json:"created_by_id"`
	CreatedBy   *User     `gorm:"foreignKey:CreatedByID;references:UserID" json:"-"`
	Name        string    `gorm:"size:200;not null" json:"name"`
	Alias       string    `gorm:"size:200" json:"alias"`
	Role        string    `gorm:"size:100" json:"role"`
	Personality string    `gorm:"type:text" json:"personality"`
	Appearance  string    `gorm:"type:text" json:"appearance"`
	Background  string    `gorm:"type:text" json:"background"`
	Strengths   string    `gorm:"type:text" json:"strengths"`
	Weaknesses  string    `gorm:"type:text" json:"weaknesses"`
	Skills      string    `gorm:"type:text" json:"skills"`
	CreateTime  time.Time `gorm:"column:create_time;autoCreateTime" json:"create_time"`
	UpdateTime  time.Time `gorm:"column:update_time;autoUpdateTime" json:"update_time"`
}

func (Character) TableName() string {
	return "characters"
}

type Location struct {
	LocationID  uint      `gorm:"primaryKey;column:location_id" json:"location_id"`
	ProjectID   *uint     `gorm:"column:project_id;index" json:"project_id"`
	CreatedByID *uint     `gorm:"column:created_by_id;index" json:"created_by_id"`
	Name        string    `gorm:"size:200;not null" json:"name"`
	Terrain     string    `gorm:"type:text" json:"terrain"`
	Climate     string    `gorm:"type:text" json:"climate"`
	Description string    `gorm:"type:text" json:"description"`
	CreateTime  time.Time `gorm:"column:create_time;autoCreateTime" json:"create_time"`
	UpdateTime  time.Time `gorm:"column:update_time;autoUpdateTime" json:"update_time"`
}

func (Location) TableName() string {
	return "locations"
}

// SceneStatus tracks how far a scene has been written.
type SceneStatus string

const (
	SceneStatusPlanned  SceneStatus = "planned"
	SceneStatusDrafting SceneStatus = "drafting"
	SceneStatusRevising SceneStatus = "revising"
	SceneStatusDone     SceneStatus = "done"
)

type Scene struct {
	SceneID        uint        `gorm:"primaryKey;column:scene_id" json:"scene_id"`
	ProjectID      *uint       `gorm:"column:project_id;index" json:"project_id"`
	Project        *Novel      `gorm:"foreignKey:ProjectID;references:NovelID" json:"-"`
	CreatedByID    *uint       `gorm:"column:created_by_id;index" json:"created_by_id"`
	CreatedBy      *User       `gorm:"foreignKey:CreatedByID;references:UserID" json:"-"`
	Title          string      `gorm:"size:200;not null" json:"title"`
	Order          int         `gorm:"column:scene_order;not null;default:1" json:"order"`
	Status         SceneStatus `gorm:"size:20;default:planned" json:"status"`
	Goal           string      `gorm:"type:text" json:"goal"`
	Conflict       string      `gorm:"type:text" json:"conflict"`
	Outcome        string      `gorm:"type:text" json:"outcome"`
	Content        string      `gorm:"type:text" json:"content"`
	POVCharacterID *uint       `gorm:"column:pov_character_id" json:"pov_character_id"`
	POVCharacter   *Character  `gorm:"foreignKey:POVCharacterID;references:CharacterID" json:"-"`
	LocationID     *uint       `gorm:"column:location_id" json:"location_id"`
	Location       *Location   `gorm:"foreignKey:LocationID;references:LocationID" json:"-"`
	Characters     []Character `gorm:"many2many:scene_characters;joinForeignKey:SceneID;joinReferences:CharacterID" json:"-"`
	CreateTime     time.Time   `gorm:"column:create_time;autoCreateTime" json:"create_time"`
	UpdateTime     time.Time   `gorm:"column:update_time;autoUpdateTime" json:"update_time"`
}

func (Scene) TableName() string {
	return "scenes"
}
