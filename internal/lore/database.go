package lore

import (
	"time"

	"lorebook/internal/model"
)

// Database provides typed access to the campaign tables.
// Find* methods return (nil, nil) when no live row matches.
// "Live" always means deleted_at IS NULL.
type Database interface {
	// Campaign operations

	CreateCampaign(c *model.Campaign) error
	FindCampaign(id string) (*model.Campaign, error)

	// FindCampaignAnyState also returns soft-deleted campaigns.
	FindCampaignAnyState(id string) (*model.Campaign, error)
	ListCampaigns() ([]*model.Campaign, error)
	UpdateCampaignName(id, name string, at time.Time) error
	SoftDeleteCampaign(id string, at time.Time) error

	// Object operations

	CreateObject(o *model.Object) error
	FindObject(id string) (*model.Object, error)

	// FindRoot returns the oldest live object with no parent.
	FindRoot(campaignID string) (*model.Object, error)

	// ListChildren returns live children ordered by case-insensitive name.
	// A nil parentID lists the root-level objects.
	ListChildren(campaignID string, parentID *string) ([]*model.Object, error)
	ListObjects(campaignID string) ([]*model.Object, error)
	FindObjectsByName(campaignID, name string) ([]*model.Object, error)

	// FindObjectsReferencingTag returns live objects whose description
	// contains "|tagID]", oldest first.
	FindObjectsReferencingTag(campaignID, tagID string) ([]*model.Object, error)

	// UpdateObject writes name, type, parent, description, locked and updated_at.
	UpdateObject(o *model.Object) error

	// SoftDeleteObjects marks the objects deleted and removes every TagLink
	// targeting them in one transaction. Returns the number of objects changed.
	SoftDeleteObjects(ids []string, at time.Time) (int, error)

	// LinkTag operations

	CreateLinkTag(t *model.LinkTag) error
	FindLinkTag(id string) (*model.LinkTag, error)
	ListLinkTagsByOwner(objectID string) ([]*model.LinkTag, error)
	ListLinkTagsWithoutOwner() ([]*model.LinkTag, error)
	SetLinkTagOwner(tagID, objectID string, at time.Time) error

	// ListOwnedLinkTags returns every live LinkTag with its owner's description.
	ListOwnedLinkTags() ([]*model.OwnedLinkTag, error)

	// DeleteLinkTags soft-deletes the tags and all of their TagLinks.
	DeleteLinkTags(ids []string, at time.Time) (int, error)

	// TagLink operations

	// CreateTagLink inserts the link, reviving it if a deleted row exists.
	CreateTagLink(l *model.TagLink) error
	ListTagLinks(tagID string) ([]*model.TagLink, error)
	ListTagLinksTargeting(objectID string) ([]*model.TagLink, error)
	DeleteTagLink(tagID, objectID string, at time.Time) error

	// Reconciliation sweeps. Each returns the number of rows deleted.

	DeleteTagLinksWithoutTag(at time.Time) (int, error)
	DeleteTagLinksToDeadObjects(at time.Time) (int, error)
	DeleteLinkTagsWithoutLinks(at time.Time) (int, error)

	// Image operations

	CreateImage(img *model.Image) error
	FindImage(id string) (*model.Image, error)
	ListImages(objectID string) ([]*model.Image, error)

	// SetDefaultImage clears the default flag on the object's images and
	// sets it on imageID, in one transaction.
	SetDefaultImage(objectID, imageID string, at time.Time) error
	SoftDeleteImage(id string, at time.Time) error

	// Setting operations

	FindSetting(name string) (*model.Setting, error)

	// UpsertSetting updates the live row with s.Name or inserts s.
	UpsertSetting(s *model.Setting) error
	ListSettings() ([]*model.Setting, error)
	SoftDeleteSetting(name string, at time.Time) error

	// Note operations

	CreateNote(n *model.Note) error
	FindNote(id string) (*model.Note, error)
	ListNotes(objectID string) ([]*model.Note, error)
	UpdateNote(id, body string, at time.Time) error
	SoftDeleteNote(id string, at time.Time) error

	// Label operations

	CreateLabel(l *model.Label) error
	FindLabel(id string) (*model.Label, error)
	FindLabelByName(campaignID, name string) (*model.Label, error)
	ListLabels(campaignID string) ([]*model.Label, error)
	AttachLabel(objectID, labelID string, at time.Time) error
	DetachLabel(objectID, labelID string) error
	ListObjectLabels(objectID string) ([]*model.Label, error)

	// Log operations

	CreateLog(e *model.LogEntry) error
	FindLog(id string) (*model.LogEntry, error)
	ListLogs(campaignID string) ([]*model.LogEntry, error)
	SoftDeleteLog(id string, at time.Time) error

	// Bundle operations

	// LoadCampaignBundle returns every live row of the campaign with objects
	// ordered parents first.
	LoadCampaignBundle(campaignID string) (*model.CampaignBundle, error)

	// ReplaceCampaign hard-deletes all rows of b.Campaign.ID and inserts b,
	// in one transaction. Nothing is written if any step fails.
	ReplaceCampaign(b *model.CampaignBundle) error

	// Close closes the database connection.
	Close() error
}
