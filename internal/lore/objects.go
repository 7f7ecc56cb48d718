package lore

import (
	"fmt"
	"strings"

	"lorebook/internal/model"
)

// createRoot inserts the root object of a campaign, named after it.
func (s *Service) createRoot(c *model.Campaign) (*model.Object, error) {
	now := s.clock.Now()
	root := &model.Object{
		ID:         s.idgen.NewID(c.Name),
		CampaignID: c.ID,
		Name:       c.Name,
		Type:       model.TypeOther,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.database.CreateObject(root); err != nil {
		return nil, fmt.Errorf("creating campaign root: %w", err)
	}
	return root, nil
}

// EnsureRoot returns the campaign root, creating it for legacy campaigns
// that lack one.
func (s *Service) EnsureRoot(campaignID string) (*model.Object, error) {
	root, err := s.database.FindRoot(campaignID)
	if err != nil {
		return nil, fmt.Errorf("finding campaign root: %w", err)
	}
	if root != nil {
		return root, nil
	}

	c, err := s.GetCampaign(campaignID)
	if err != nil {
		return nil, err
	}
	root, err = s.createRoot(c)
	if err != nil {
		return nil, err
	}
	s.logger.Warn("backfilled missing campaign root", "campaign", campaignID, "root", root.ID)
	return root, nil
}

// GetObject returns a live object or ErrNotFound.
func (s *Service) GetObject(id string) (*model.Object, error) {
	o, err := s.database.FindObject(id)
	if err != nil {
		return nil, fmt.Errorf("finding object: %w", err)
	}
	if o == nil {
		return nil, notFound("object", id)
	}
	return o, nil
}

// ListObjects returns every live object of a campaign, parents first.
func (s *Service) ListObjects(campaignID string) ([]*model.Object, error) {
	if _, err := s.GetCampaign(campaignID); err != nil {
		return nil, err
	}
	objects, err := s.database.ListObjects(campaignID)
	if err != nil {
		return nil, fmt.Errorf("listing objects: %w", err)
	}
	return objects, nil
}

// CreateObject inserts a new object under parentID. An empty parentID puts
// the object directly under the campaign root. Unknown or empty types fall
// back to Other. A live sibling with the same name (ignoring case) is an
// ErrDuplicateName and nothing is created.
func (s *Service) CreateObject(campaignID, parentID, name, objectType string) (*model.Object, error) {
	name, err := cleanName("name", name)
	if err != nil {
		return nil, err
	}
	t, ok := model.ParseObjectType(objectType)
	if !ok {
		t = model.TypeOther
	}

	if _, err := s.GetCampaign(campaignID); err != nil {
		return nil, err
	}
	parent, err := s.resolveParent(campaignID, parentID)
	if err != nil {
		return nil, err
	}
	if err := s.checkSiblingName(campaignID, parent.ID, name, ""); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	parentRef := parent.ID
	o := &model.Object{
		ID:         s.idgen.NewID(name),
		CampaignID: campaignID,
		Name:       name,
		Type:       t,
		ParentID:   &parentRef,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.database.CreateObject(o); err != nil {
		return nil, fmt.Errorf("creating object: %w", err)
	}

	s.logger.Debug("object created", "object", o.ID, "parent", parent.ID, "type", string(t))
	return o, nil
}

// resolveParent maps an empty parent id to the campaign root and checks that
// any other parent is live and in the same campaign.
func (s *Service) resolveParent(campaignID, parentID string) (*model.Object, error) {
	if parentID == "" {
		return s.EnsureRoot(campaignID)
	}
	parent, err := s.GetObject(parentID)
	if err != nil {
		return nil, err
	}
	if parent.CampaignID != campaignID {
		return nil, notFound("object", parentID)
	}
	return parent, nil
}

// checkSiblingName rejects name if a live child of parentID other than
// excludeID already uses it, ignoring case.
func (s *Service) checkSiblingName(campaignID, parentID, name, excludeID string) error {
	siblings, err := s.database.ListChildren(campaignID, &parentID)
	if err != nil {
		return fmt.Errorf("listing siblings: %w", err)
	}
	for _, sib := range siblings {
		if sib.ID != excludeID && strings.EqualFold(sib.Name, name) {
			return duplicate(name)
		}
	}
	return nil
}

// ListChildren returns live children ordered by case-insensitive name. An
// empty parentID returns the root-level node, creating it if missing.
func (s *Service) ListChildren(campaignID, parentID string) ([]*model.Object, error) {
	if _, err := s.GetCampaign(campaignID); err != nil {
		return nil, err
	}

	var parentRef *string
	if parentID == "" {
		if _, err := s.EnsureRoot(campaignID); err != nil {
			return nil, err
		}
	} else {
		parent, err := s.GetObject(parentID)
		if err != nil {
			return nil, err
		}
		if parent.CampaignID != campaignID {
			return nil, notFound("object", parentID)
		}
		parentRef = &parentID
	}

	children, err := s.database.ListChildren(campaignID, parentRef)
	if err != nil {
		return nil, fmt.Errorf("listing children: %w", err)
	}
	return children, nil
}

// Rename changes an object's name. Empty names and sibling clashes are rejected.
// Renaming the root renames its campaign.
func (s *Service) Rename(objectID, name string) error {
	name, err := cleanName("name", name)
	if err != nil {
		return err
	}
	o, err := s.GetObject(objectID)
	if err != nil {
		return err
	}
	if o.IsRoot() {
		return s.RenameCampaign(o.CampaignID, name)
	}
	if err := s.checkSiblingName(o.CampaignID, *o.ParentID, name, o.ID); err != nil {
		return err
	}

	o.Name = name
	o.UpdatedAt = s.clock.Now()
	if err := s.database.UpdateObject(o); err != nil {
		return fmt.Errorf("renaming object: %w", err)
	}
	return nil
}

// SetType changes an object's type. Values outside the fixed set are rejected.
func (s *Service) SetType(objectID, objectType string) error {
	t, ok := model.ParseObjectType(objectType)
	if !ok {
		return invalid("type %q is not one of Place, Person, Lore, Other", objectType)
	}
	o, err := s.GetObject(objectID)
	if err != nil {
		return err
	}

	o.Type = t
	o.UpdatedAt = s.clock.Now()
	if err := s.database.UpdateObject(o); err != nil {
		return fmt.Errorf("setting object type: %w", err)
	}
	return nil
}

// SetLocked toggles the advisory lock flag. Nothing else enforces it.
func (s *Service) SetLocked(objectID string, locked bool) error {
	o, err := s.GetObject(objectID)
	if err != nil {
		return err
	}

	o.Locked = locked
	o.UpdatedAt = s.clock.Now()
	if err := s.database.UpdateObject(o); err != nil {
		return fmt.Errorf("setting object lock: %w", err)
	}
	return nil
}

// Move re-parents an object. The root cannot move, and an object cannot be
// moved beneath itself.
func (s *Service) Move(objectID, newParentID string) error {
	o, err := s.GetObject(objectID)
	if err != nil {
		return err
	}
	if o.IsRoot() {
		return invalid("the campaign root cannot be moved")
	}
	parent, err := s.resolveParent(o.CampaignID, newParentID)
	if err != nil {
		return err
	}

	// Walk up from the new parent; meeting o means a cycle.
	for p := parent; p != nil; {
		if p.ID == o.ID {
			return invalid("cannot move %q beneath itself", o.Name)
		}
		if p.ParentID == nil {
			break
		}
		if p, err = s.GetObject(*p.ParentID); err != nil {
			return err
		}
	}
	if err := s.checkSiblingName(o.CampaignID, parent.ID, o.Name, o.ID); err != nil {
		return err
	}

	parentRef := parent.ID
	o.ParentID = &parentRef
	o.UpdatedAt = s.clock.Now()
	if err := s.database.UpdateObject(o); err != nil {
		return fmt.Errorf("moving object: %w", err)
	}
	return nil
}

// DeleteCascade soft-deletes an object and all of its descendants, removes
// links pointing at them, and reconciles link data. Returns the number of
// objects deleted.
func (s *Service) DeleteCascade(objectID string) (int, error) {
	o, err := s.GetObject(objectID)
	if err != nil {
		return 0, err
	}
	if o.IsRoot() {
		return 0, invalid("the campaign root cannot be deleted")
	}

	all, err := s.database.ListObjects(o.CampaignID)
	if err != nil {
		return 0, fmt.Errorf("listing objects: %w", err)
	}
	children := make(map[string][]string)
	for _, obj := range all {
		if obj.ParentID != nil {
			children[*obj.ParentID] = append(children[*obj.ParentID], obj.ID)
		}
	}

	// Breadth-first from o; seen guards against corrupt parent cycles.
	ids := []string{o.ID}
	seen := map[string]bool{o.ID: true}
	for i := 0; i < len(ids); i++ {
		for _, child := range children[ids[i]] {
			if !seen[child] {
				seen[child] = true
				ids = append(ids, child)
			}
		}
	}

	n, err := s.database.SoftDeleteObjects(ids, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("deleting objects: %w", err)
	}
	if _, err := s.CleanupLinkData(); err != nil {
		return n, err
	}

	s.logger.Info("objects deleted", "object", objectID, "count", n)
	return n, nil
}

// UpdateDescription stores new description text, then drops LinkTags whose
// tokens are gone from it and runs the global link cleanup.
func (s *Service) UpdateDescription(objectID, text string) error {
	o, err := s.GetObject(objectID)
	if err != nil {
		return err
	}

	o.Description = text
	o.UpdatedAt = s.clock.Now()
	if err := s.database.UpdateObject(o); err != nil {
		return fmt.Errorf("updating description: %w", err)
	}

	if _, err := s.CleanupTagsForObject(objectID); err != nil {
		return err
	}
	if _, err := s.CleanupLinkData(); err != nil {
		return err
	}
	return nil
}

// Preview is the compact read model shown when hovering a reference.
type Preview struct {
	ObjectID    string
	Name        string
	Type        model.ObjectType
	Description string
	Thumbnail   string
	BlurHash    string // placeholder for the thumbnail; empty when unavailable
}

// Preview returns a summary of an object. A missing object yields an empty
// Preview rather than an error.
func (s *Service) Preview(objectID string) (*Preview, error) {
	o, err := s.database.FindObject(objectID)
	if err != nil {
		return nil, fmt.Errorf("finding object: %w", err)
	}
	if o == nil {
		return &Preview{}, nil
	}

	p := &Preview{
		ObjectID:    o.ID,
		Name:        o.Name,
		Type:        o.Type,
		Description: o.Description,
	}
	img, err := s.DefaultImage(o.ID)
	if err != nil {
		return nil, err
	}
	if img != nil {
		p.Thumbnail = img.ThumbPath
		if hash, err := s.images.BlurHash(img.ThumbPath); err == nil {
			p.BlurHash = hash
		} else {
			s.logger.Debug("blurhash unavailable", "image", img.ID, "error", err)
		}
	}
	return p, nil
}
