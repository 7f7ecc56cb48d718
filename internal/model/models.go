package model

import (
	"encoding/json"
	"strings"
	"time"
)

// ObjectType classifies an Object. The set is fixed.
type ObjectType string

const (
	TypePlace  ObjectType = "Place"
	TypePerson ObjectType = "Person"
	TypeLore   ObjectType = "Lore"
	TypeOther  ObjectType = "Other"
)

// ObjectTypes lists every valid ObjectType in display order.
var ObjectTypes = []ObjectType{TypePlace, TypePerson, TypeLore, TypeOther}

// ParseObjectType matches s case-insensitively against the fixed set.
// ok is false when s is not a known type.
func ParseObjectType(s string) (ObjectType, bool) {
	s = strings.TrimSpace(s)
	for _, t := range ObjectTypes {
		if strings.EqualFold(string(t), s) {
			return t, true
		}
	}
	return "", false
}

// Campaign is the top-level namespace for one set of Objects.
type Campaign struct {
	ID        string // UUID, preserved across export/import
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Object is a node in a campaign's content tree.
type Object struct {
	ID          string // random prefix + slug of the name
	CampaignID  string
	Name        string
	Type        ObjectType
	ParentID    *string // nil for the campaign root
	Description string  // rich text, may contain [[Label|tagId]] tokens
	Locked      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// IsRoot reports whether o is the campaign root.
func (o *Object) IsRoot() bool {
	return o.ParentID == nil
}

// LinkTag is the identity of one inline reference token.
type LinkTag struct {
	ID         string
	CampaignID string
	ObjectID   string // owner; empty for legacy rows awaiting backfill
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  *time.Time
}

// TagLink is one resolved target of a LinkTag.
type TagLink struct {
	TagID     string
	ObjectID  string // target
	CreatedAt time.Time
	DeletedAt *time.Time
}

// Image is a picture attached to an Object.
type Image struct {
	ID        string
	ObjectID  string
	FilePath  string
	ThumbPath string
	Name      string
	IsDefault bool
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Setting is a named JSON value in the project-wide settings store.
type Setting struct {
	ID        string
	Name      string
	Value     json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Note is a free-form note attached to an Object.
type Note struct {
	ID        string
	ObjectID  string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Label is a campaign-scoped category that can be attached to Objects.
type Label struct {
	ID         string
	CampaignID string
	Name       string
	CreatedAt  time.Time
	DeletedAt  *time.Time
}

// ObjectLabel attaches a Label to an Object.
type ObjectLabel struct {
	ObjectID  string
	LabelID   string
	CreatedAt time.Time
}

// LogEntry is a session log owned by a campaign.
type LogEntry struct {
	ID         string
	CampaignID string
	Title      string
	Body       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  *time.Time
}

// OwnedLinkTag pairs a live LinkTag with its owner's current description.
// Owner fields are empty when the owner row is missing or deleted.
type OwnedLinkTag struct {
	Tag              LinkTag
	OwnerLive        bool
	OwnerDescription string
}

// CampaignBundle is every row belonging to one campaign, in insert order.
// It is what export reads and import writes.
type CampaignBundle struct {
	Campaign     Campaign
	Objects      []Object // parents before children
	LinkTags     []LinkTag
	TagLinks     []TagLink
	Images       []Image
	Notes        []Note
	Labels       []Label
	ObjectLabels []ObjectLabel
	Logs         []LogEntry
}
