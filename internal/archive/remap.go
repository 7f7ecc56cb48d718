package archive

import (
	"slices"
	"strings"
	"time"

	"lorebook/internal/lore"
	"lorebook/internal/model"
)

// Plan is a manifest translated into rows ready for insertion.
type Plan struct {
	Bundle *model.CampaignBundle

	// ImageFiles maps new image ids to their archive-relative file.
	// Images whose file was not exported are absent.
	ImageFiles map[string]string

	// ObjectIDs and TagIDs map manifest ids to new ids.
	ObjectIDs map[string]string
	TagIDs    map[string]string
}

// Remap gives every manifest row a new id made by prepending prefix, and
// repairs the data so the result satisfies the tree and link invariants:
//
//   - the first parentless object is the root; further roots, orphans and
//     members of parent cycles are re-parented under it
//   - objects are ordered parents before children
//   - link tags referenced by descriptions but missing from the manifest are
//     synthesized, owned by the first object that references them
//   - tags without an owner get the first object that references them
//   - every object with images has exactly one default
//
// The campaign id is kept as is. Image file paths are left empty; the
// importer fills them once files are in place.
func Remap(m *Manifest, prefix string, now time.Time) *Plan {
	r := &remapper{
		m:      m,
		prefix: prefix,
		now:    now,
		plan: &Plan{
			ImageFiles: make(map[string]string),
			ObjectIDs:  make(map[string]string),
			TagIDs:     make(map[string]string),
		},
	}

	name := strings.TrimSpace(m.Game.Name)
	if name == "" {
		name = "Imported campaign"
	}
	r.plan.Bundle = &model.CampaignBundle{
		Campaign: model.Campaign{ID: m.Game.ID, Name: name, CreatedAt: now, UpdatedAt: now},
	}

	r.objects()
	r.tags()
	r.images()
	r.records()
	return r.plan
}

type remapper struct {
	m      *Manifest
	prefix string
	now    time.Time
	plan   *Plan
}

func (r *remapper) newID(old string) string {
	return r.prefix + "_" + old
}

func (r *remapper) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return r.now
	}
	return t
}

func (r *remapper) objects() {
	var list []*ObjectRecord
	byID := make(map[string]*ObjectRecord, len(r.m.Objects))
	for i := range r.m.Objects {
		o := &r.m.Objects[i]
		if _, dup := byID[o.ID]; dup || o.ID == "" {
			continue
		}
		byID[o.ID] = o
		list = append(list, o)
		r.plan.ObjectIDs[o.ID] = r.newID(o.ID)
	}

	var rootID string
	for _, o := range list {
		if o.ParentID == nil {
			rootID = o.ID
			break
		}
	}
	if rootID == "" {
		// No root survived export; make one so the tree has somewhere to hang.
		rootID = "root"
		for byID[rootID] != nil {
			rootID += "_"
		}
		root := &ObjectRecord{ID: rootID, Name: r.plan.Bundle.Campaign.Name, Type: string(model.TypeOther)}
		byID[rootID] = root
		list = append([]*ObjectRecord{root}, list...)
		r.plan.ObjectIDs[rootID] = r.newID(rootID)
	}

	// parent holds the repaired manifest parent of each object; "" marks the root.
	parent := make(map[string]string, len(byID))
	for id, o := range byID {
		switch {
		case id == rootID:
			parent[id] = ""
		case o.ParentID == nil || byID[*o.ParentID] == nil || *o.ParentID == id:
			parent[id] = rootID
		default:
			parent[id] = *o.ParentID
		}
	}

	const visiting = -1
	depth := make(map[string]int, len(byID))
	var depthOf func(id string) int
	depthOf = func(id string) int {
		if d, ok := depth[id]; ok {
			if d == visiting {
				return visiting
			}
			return d
		}
		if parent[id] == "" {
			depth[id] = 0
			return 0
		}
		depth[id] = visiting
		d := depthOf(parent[id])
		if d == visiting {
			// Part of a cycle: break it here.
			parent[id] = rootID
			d = 0
		}
		depth[id] = d + 1
		return d + 1
	}

	for _, o := range list {
		depthOf(o.ID)
	}
	ordered := slices.Clone(list)
	slices.SortStableFunc(ordered, func(a, b *ObjectRecord) int { return depth[a.ID] - depth[b.ID] })

	campaignID := r.plan.Bundle.Campaign.ID
	for _, o := range ordered {
		typ, ok := model.ParseObjectType(o.Type)
		if !ok {
			typ = model.TypeOther
		}
		name := strings.TrimSpace(o.Name)
		if name == "" {
			name = "Untitled"
		}
		obj := model.Object{
			ID:          r.plan.ObjectIDs[o.ID],
			CampaignID:  campaignID,
			Name:        name,
			Type:        typ,
			Description: o.Description,
			Locked:      o.Locked,
			CreatedAt:   r.stamp(o.CreatedAt),
			UpdatedAt:   r.stamp(o.UpdatedAt),
		}
		if p := parent[o.ID]; p != "" {
			pid := r.plan.ObjectIDs[p]
			obj.ParentID = &pid
		}
		r.plan.Bundle.Objects = append(r.plan.Bundle.Objects, obj)
	}
}

func (r *remapper) tags() {
	b := r.plan.Bundle

	// Tags referenced from each description, in object order.
	firstRef := make(map[string]string)
	var referenced []string
	labelOf := make(map[string]string)
	for _, o := range b.Objects {
		for _, tok := range lore.ParseTokens(o.Description) {
			if _, ok := firstRef[tok.TagID]; !ok {
				firstRef[tok.TagID] = o.ID
				labelOf[tok.TagID] = tok.Label
				referenced = append(referenced, tok.TagID)
			}
		}
	}

	targets := make(map[string][]string)
	for _, l := range r.m.TagLinks {
		if obj, ok := r.plan.ObjectIDs[l.ObjectID]; ok {
			targets[l.TagID] = append(targets[l.TagID], obj)
		}
	}

	addTag := func(old, owner string, created time.Time) {
		id := r.newID(old)
		r.plan.TagIDs[old] = id
		b.LinkTags = append(b.LinkTags, model.LinkTag{
			ID:         id,
			CampaignID: b.Campaign.ID,
			ObjectID:   owner,
			CreatedAt:  r.stamp(created),
			UpdatedAt:  r.now,
		})
		seen := make(map[string]bool)
		for _, t := range targets[old] {
			if seen[t] {
				continue
			}
			seen[t] = true
			b.TagLinks = append(b.TagLinks, model.TagLink{TagID: id, ObjectID: t, CreatedAt: r.now})
		}
	}

	for _, t := range r.m.LinkTags {
		if t.ID == "" {
			continue
		}
		if _, done := r.plan.TagIDs[t.ID]; done {
			continue
		}
		owner, ok := r.plan.ObjectIDs[t.ObjectID]
		if !ok {
			owner = firstRef[t.ID]
		}
		if owner == "" {
			// Nobody references it and nobody owns it.
			continue
		}
		addTag(t.ID, owner, t.CreatedAt)
	}

	for _, old := range referenced {
		if _, done := r.plan.TagIDs[old]; done {
			continue
		}
		if len(targets[old]) == 0 {
			targets[old] = r.objectsNamed(labelOf[old])
		}
		addTag(old, firstRef[old], time.Time{})
	}

	for i := range b.Objects {
		b.Objects[i].Description = lore.RewriteTagIDs(b.Objects[i].Description, r.plan.TagIDs)
	}
}

// objectsNamed finds new object ids whose name matches label.
func (r *remapper) objectsNamed(label string) []string {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil
	}
	var ids []string
	for _, o := range r.plan.Bundle.Objects {
		if strings.EqualFold(o.Name, label) {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

func (r *remapper) images() {
	b := r.plan.Bundle
	hasDefault := make(map[string]bool)
	seen := make(map[string]bool)
	for _, img := range r.m.Images {
		obj, ok := r.plan.ObjectIDs[img.ObjectID]
		if !ok || img.ID == "" || seen[img.ID] {
			continue
		}
		seen[img.ID] = true
		id := r.newID(img.ID)
		isDefault := img.IsDefault && !hasDefault[obj]
		if isDefault {
			hasDefault[obj] = true
		}
		b.Images = append(b.Images, model.Image{
			ID:        id,
			ObjectID:  obj,
			Name:      img.Name,
			IsDefault: isDefault,
			CreatedAt: r.now,
			UpdatedAt: r.now,
		})
		if img.File != "" {
			r.plan.ImageFiles[id] = img.File
		}
	}
	FixDefaultImages(b.Images)
}

// FixDefaultImages leaves exactly one default per object that has images,
// preferring an existing default and otherwise the first image.
func FixDefaultImages(images []model.Image) {
	first := make(map[string]int)
	has := make(map[string]bool)
	for i := range images {
		obj := images[i].ObjectID
		if _, ok := first[obj]; !ok {
			first[obj] = i
		}
		if images[i].IsDefault {
			if has[obj] {
				images[i].IsDefault = false
			}
			has[obj] = true
		}
	}
	for obj, i := range first {
		if !has[obj] {
			images[i].IsDefault = true
		}
	}
}

func (r *remapper) records() {
	b := r.plan.Bundle

	for _, n := range r.m.Notes {
		obj, ok := r.plan.ObjectIDs[n.ObjectID]
		if !ok || n.ID == "" {
			continue
		}
		b.Notes = append(b.Notes, model.Note{
			ID:        r.newID(n.ID),
			ObjectID:  obj,
			Body:      n.Body,
			CreatedAt: r.stamp(n.CreatedAt),
			UpdatedAt: r.stamp(n.UpdatedAt),
		})
	}

	// Label names are unique per campaign; duplicates fold into the first.
	labelIDs := make(map[string]string)
	byName := make(map[string]string)
	for _, l := range r.m.Labels {
		name := strings.TrimSpace(l.Name)
		if l.ID == "" || name == "" {
			continue
		}
		key := strings.ToLower(name)
		if id, ok := byName[key]; ok {
			labelIDs[l.ID] = id
			continue
		}
		id := r.newID(l.ID)
		byName[key] = id
		labelIDs[l.ID] = id
		b.Labels = append(b.Labels, model.Label{
			ID: id, CampaignID: b.Campaign.ID, Name: name, CreatedAt: r.now,
		})
	}

	attached := make(map[[2]string]bool)
	for _, ol := range r.m.ObjectLabels {
		obj, ok1 := r.plan.ObjectIDs[ol.ObjectID]
		label, ok2 := labelIDs[ol.LabelID]
		key := [2]string{obj, label}
		if !ok1 || !ok2 || attached[key] {
			continue
		}
		attached[key] = true
		b.ObjectLabels = append(b.ObjectLabels, model.ObjectLabel{ObjectID: obj, LabelID: label, CreatedAt: r.now})
	}

	for _, e := range r.m.Logs {
		if e.ID == "" {
			continue
		}
		b.Logs = append(b.Logs, model.LogEntry{
			ID:         r.newID(e.ID),
			CampaignID: b.Campaign.ID,
			Title:      e.Title,
			Body:       e.Body,
			CreatedAt:  r.stamp(e.CreatedAt),
			UpdatedAt:  r.stamp(e.UpdatedAt),
		})
	}
}
