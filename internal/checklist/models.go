package checklist

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrCreatureNotFound is returned when an id matches no record.
	ErrCreatureNotFound = errors.New("creature not found")

	// ErrUnknownType is returned when a slug matches no creature type.
	ErrUnknownType = errors.New("unknown creature type")
)

// CreatureType is one of the fixed checklist categories. The set is seeded
// once during Init and referenced by Creature.TypeID; it is never edited
// through any handler.
type CreatureType struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"not null" json:"name"`
	URLText string `gorm:"uniqueIndex;not null" json:"url_text"`
}

// Creature is a checklist entry. OwnerID is set on creation and immutable;
// only the owning identity may edit or delete the record.
type Creature struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	NameCommon string         `gorm:"not null" json:"name_common"`
	NameLatin  string         `json:"name_latin"`
	PhotoAttr  string         `json:"photo_attr"`
	PhotoURL   string         `json:"photo_url"`
	WikiURL    string         `json:"wiki_url"`
	Habitats   pq.StringArray `gorm:"type:text[]" json:"habitats"`
	OwnerID    uint           `gorm:"not null" json:"owner_id"`
	TypeID     uint           `gorm:"not null" json:"type_id"`
}

func (CreatureType) TableName() string { return "checklist.creature_types" }
func (Creature) TableName() string     { return "checklist.creatures" }

// CreatureInput carries submitted form values for create and edit.
type CreatureInput struct {
	NameCommon string
	NameLatin  string
	PhotoAttr  string
	PhotoURL   string
	WikiURL    string
	Habitats   []string
	TypeID     uint
}

// MergedWith applies an edit to an existing record. Empty incoming fields
// keep the previous values, and the owner is never touched.
func (c Creature) MergedWith(in CreatureInput) Creature {
	merged := c
	if in.NameCommon != "" {
		merged.NameCommon = in.NameCommon
	}
	if in.NameLatin != "" {
		merged.NameLatin = in.NameLatin
	}
	if in.PhotoAttr != "" {
		merged.PhotoAttr = in.PhotoAttr
	}
	if in.PhotoURL != "" {
		merged.PhotoURL = in.PhotoURL
	}
	if in.WikiURL != "" {
		merged.WikiURL = in.WikiURL
	}
	if len(in.Habitats) > 0 {
		merged.Habitats = pq.StringArray(in.Habitats)
	}
	if in.TypeID != 0 {
		merged.TypeID = in.TypeID
	}
	return merged
}
