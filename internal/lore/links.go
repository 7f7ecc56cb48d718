package lore

import (
	"fmt"
	"strings"

	"lorebook/internal/model"
)

// CleanupReport counts the rows removed by each global reconciliation sweep.
type CleanupReport struct {
	OrphanedLinks    int // TagLinks whose LinkTag is gone
	DeadTargetLinks  int // TagLinks whose target object is gone
	EmptyTags        int // LinkTags with no TagLinks left
	UnreferencedTags int // LinkTags whose token is missing from the owner's text
}

// Total is the number of rows removed across all sweeps.
func (r *CleanupReport) Total() int {
	return r.OrphanedLinks + r.DeadTargetLinks + r.EmptyTags + r.UnreferencedTags
}

// CleanupTagsForObject deletes every LinkTag owned by the object whose id no
// longer appears as a token in its description. Returns the number removed.
func (s *Service) CleanupTagsForObject(objectID string) (int, error) {
	o, err := s.GetObject(objectID)
	if err != nil {
		return 0, err
	}
	owned, err := s.database.ListLinkTagsByOwner(objectID)
	if err != nil {
		return 0, fmt.Errorf("listing owned tags: %w", err)
	}

	present := ExtractTagIDs(o.Description)
	var stale []string
	for _, t := range owned {
		if _, ok := present[t.ID]; !ok {
			stale = append(stale, t.ID)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	n, err := s.database.DeleteLinkTags(stale, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("deleting stale tags: %w", err)
	}
	s.logger.Debug("removed stale tags", "object", objectID, "count", n)
	return n, nil
}

// CleanupLinkData runs the four global sweeps in order. It is idempotent:
// a second run right after the first removes nothing.
func (s *Service) CleanupLinkData() (*CleanupReport, error) {
	now := s.clock.Now()
	report := &CleanupReport{}
	var err error

	if report.OrphanedLinks, err = s.database.DeleteTagLinksWithoutTag(now); err != nil {
		return nil, fmt.Errorf("removing orphaned links: %w", err)
	}
	if report.DeadTargetLinks, err = s.database.DeleteTagLinksToDeadObjects(now); err != nil {
		return nil, fmt.Errorf("removing links to deleted objects: %w", err)
	}
	if report.EmptyTags, err = s.database.DeleteLinkTagsWithoutLinks(now); err != nil {
		return nil, fmt.Errorf("removing empty tags: %w", err)
	}

	owned, err := s.database.ListOwnedLinkTags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	var stale []string
	for _, ot := range owned {
		if !ot.OwnerLive || !ReferencesTag(ot.OwnerDescription, ot.Tag.ID) {
			stale = append(stale, ot.Tag.ID)
		}
	}
	if len(stale) > 0 {
		if report.UnreferencedTags, err = s.database.DeleteLinkTags(stale, now); err != nil {
			return nil, fmt.Errorf("removing unreferenced tags: %w", err)
		}
	}

	if report.Total() > 0 {
		s.logger.Info("link data reconciled",
			"orphaned_links", report.OrphanedLinks,
			"dead_target_links", report.DeadTargetLinks,
			"empty_tags", report.EmptyTags,
			"unreferenced_tags", report.UnreferencedTags,
		)
	}
	return report, nil
}

// BackfillLinkTagOwners assigns an owner to legacy LinkTags that have none,
// using the first object whose description carries the tag's token.
// Failures are logged and skipped. Returns the number of tags updated.
func (s *Service) BackfillLinkTagOwners() int {
	tags, err := s.database.ListLinkTagsWithoutOwner()
	if err != nil {
		s.logger.Warn("owner backfill skipped", "error", err)
		return 0
	}

	updated := 0
	for _, t := range tags {
		owners, err := s.database.FindObjectsReferencingTag(t.CampaignID, t.ID)
		if err != nil {
			s.logger.Warn("owner backfill failed", "tag", t.ID, "error", err)
			continue
		}
		if len(owners) == 0 {
			continue
		}
		if err := s.database.SetLinkTagOwner(t.ID, owners[0].ID, s.clock.Now()); err != nil {
			s.logger.Warn("owner backfill failed", "tag", t.ID, "error", err)
			continue
		}
		updated++
	}
	if updated > 0 {
		s.logger.Info("backfilled tag owners", "count", updated)
	}
	return updated
}

// CreateLinkTag creates a LinkTag owned by ownerID and links it to each
// target. The caller is responsible for placing the token in the owner's text;
// until then the tag is removed by the next reconciliation.
func (s *Service) CreateLinkTag(ownerID string, targetIDs ...string) (*model.LinkTag, error) {
	owner, err := s.GetObject(ownerID)
	if err != nil {
		return nil, err
	}
	if len(targetIDs) == 0 {
		return nil, invalid("a link needs at least one target")
	}
	for _, id := range targetIDs {
		target, err := s.GetObject(id)
		if err != nil {
			return nil, err
		}
		if target.CampaignID != owner.CampaignID {
			return nil, notFound("object", id)
		}
	}

	now := s.clock.Now()
	t := &model.LinkTag{
		ID:         "tag_" + s.idgen.NewPrefix(),
		CampaignID: owner.CampaignID,
		ObjectID:   owner.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.database.CreateLinkTag(t); err != nil {
		return nil, fmt.Errorf("creating link tag: %w", err)
	}
	for _, id := range targetIDs {
		if err := s.database.CreateTagLink(&model.TagLink{TagID: t.ID, ObjectID: id, CreatedAt: now}); err != nil {
			return nil, fmt.Errorf("linking tag: %w", err)
		}
	}
	return t, nil
}

// AppendLink links every live object named label (ignoring case) in the
// owner's campaign and appends the token to the owner's description.
func (s *Service) AppendLink(ownerID, label string) (*model.LinkTag, error) {
	label, err := cleanName("label", label)
	if err != nil {
		return nil, err
	}
	owner, err := s.GetObject(ownerID)
	if err != nil {
		return nil, err
	}
	targets, err := s.database.FindObjectsByName(owner.CampaignID, label)
	if err != nil {
		return nil, fmt.Errorf("finding link targets: %w", err)
	}
	if len(targets) == 0 {
		return nil, notFound("object named", label)
	}

	ids := make([]string, len(targets))
	for i, t := range targets {
		ids[i] = t.ID
	}
	tag, err := s.CreateLinkTag(ownerID, ids...)
	if err != nil {
		return nil, err
	}

	text := owner.Description
	if text != "" && !strings.HasSuffix(text, " ") && !strings.HasSuffix(text, "\n") {
		text += " "
	}
	text += FormatToken(label, tag.ID)
	if err := s.UpdateDescription(ownerID, text); err != nil {
		return nil, err
	}
	return tag, nil
}

// AddTagLink adds a target to an existing LinkTag.
func (s *Service) AddTagLink(tagID, targetID string) error {
	tag, err := s.getLinkTag(tagID)
	if err != nil {
		return err
	}
	target, err := s.GetObject(targetID)
	if err != nil {
		return err
	}
	if target.CampaignID != tag.CampaignID {
		return notFound("object", targetID)
	}
	if err := s.database.CreateTagLink(&model.TagLink{TagID: tagID, ObjectID: targetID, CreatedAt: s.clock.Now()}); err != nil {
		return fmt.Errorf("linking tag: %w", err)
	}
	return nil
}

// RemoveTagLink removes one target from a LinkTag. A tag left without
// targets disappears at the next reconciliation.
func (s *Service) RemoveTagLink(tagID, targetID string) error {
	if _, err := s.getLinkTag(tagID); err != nil {
		return err
	}
	if err := s.database.DeleteTagLink(tagID, targetID, s.clock.Now()); err != nil {
		return fmt.Errorf("unlinking tag: %w", err)
	}
	return nil
}

func (s *Service) getLinkTag(tagID string) (*model.LinkTag, error) {
	tag, err := s.database.FindLinkTag(tagID)
	if err != nil {
		return nil, fmt.Errorf("finding link tag: %w", err)
	}
	if tag == nil {
		return nil, notFound("link tag", tagID)
	}
	return tag, nil
}

// ResolveTag reconciles link data and returns the live targets of a tag.
func (s *Service) ResolveTag(tagID string) ([]*model.Object, error) {
	if _, err := s.CleanupLinkData(); err != nil {
		return nil, err
	}
	if _, err := s.getLinkTag(tagID); err != nil {
		return nil, err
	}
	return s.tagTargets(tagID)
}

func (s *Service) tagTargets(tagID string) ([]*model.Object, error) {
	links, err := s.database.ListTagLinks(tagID)
	if err != nil {
		return nil, fmt.Errorf("listing tag links: %w", err)
	}
	targets := make([]*model.Object, 0, len(links))
	for _, l := range links {
		o, err := s.database.FindObject(l.ObjectID)
		if err != nil {
			return nil, fmt.Errorf("finding link target: %w", err)
		}
		if o != nil {
			targets = append(targets, o)
		}
	}
	return targets, nil
}

// ResolvedLink is one token of an object's description with its targets.
type ResolvedLink struct {
	Label   string
	Tag     *model.LinkTag
	Targets []*model.Object
}

// OutgoingLinks reconciles link data and returns the tokens of an object's
// description that resolve to live targets, in text order.
func (s *Service) OutgoingLinks(objectID string) ([]*ResolvedLink, error) {
	if _, err := s.CleanupLinkData(); err != nil {
		return nil, err
	}
	o, err := s.GetObject(objectID)
	if err != nil {
		return nil, err
	}
	owned, err := s.database.ListLinkTagsByOwner(objectID)
	if err != nil {
		return nil, fmt.Errorf("listing owned tags: %w", err)
	}
	byID := make(map[string]*model.LinkTag, len(owned))
	for _, t := range owned {
		byID[t.ID] = t
	}

	var links []*ResolvedLink
	seen := make(map[string]bool)
	for _, tok := range ParseTokens(o.Description) {
		tag, ok := byID[tok.TagID]
		if !ok || seen[tok.TagID] {
			continue
		}
		seen[tok.TagID] = true
		targets, err := s.tagTargets(tag.ID)
		if err != nil {
			return nil, err
		}
		links = append(links, &ResolvedLink{Label: tok.Label, Tag: tag, Targets: targets})
	}
	return links, nil
}

// Backlinks reconciles link data and returns the live objects whose text
// links to objectID, without duplicates.
func (s *Service) Backlinks(objectID string) ([]*model.Object, error) {
	if _, err := s.CleanupLinkData(); err != nil {
		return nil, err
	}
	if _, err := s.GetObject(objectID); err != nil {
		return nil, err
	}
	links, err := s.database.ListTagLinksTargeting(objectID)
	if err != nil {
		return nil, fmt.Errorf("listing backlinks: %w", err)
	}

	var owners []*model.Object
	seen := make(map[string]bool)
	for _, l := range links {
		tag, err := s.database.FindLinkTag(l.TagID)
		if err != nil {
			return nil, fmt.Errorf("finding link tag: %w", err)
		}
		if tag == nil || tag.ObjectID == "" || seen[tag.ObjectID] {
			continue
		}
		owner, err := s.database.FindObject(tag.ObjectID)
		if err != nil {
			return nil, fmt.Errorf("finding link owner: %w", err)
		}
		if owner != nil {
			seen[owner.ID] = true
			owners = append(owners, owner)
		}
	}
	return owners, nil
}
