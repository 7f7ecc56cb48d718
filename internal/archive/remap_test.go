package archive

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lorebook/internal/lore"
	"lorebook/internal/model"
)

var remapNow = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func ptr(s string) *string { return &s }

func parentsOf(b *model.CampaignBundle) map[string]string {
	out := make(map[string]string)
	for _, o := range b.Objects {
		if o.ParentID == nil {
			out[o.ID] = ""
		} else {
			out[o.ID] = *o.ParentID
		}
	}
	return out
}

// assertParentsFirst checks insertion order: every parent precedes its children.
func assertParentsFirst(t *testing.T, b *model.CampaignBundle) {
	t.Helper()
	seen := make(map[string]bool)
	for _, o := range b.Objects {
		if o.ParentID != nil && !seen[*o.ParentID] {
			t.Errorf("object %s inserted before its parent %s", o.ID, *o.ParentID)
		}
		seen[o.ID] = true
	}
}

func TestRemap_IDsAndOrder(t *testing.T) {
	m := &Manifest{
		Version: FormatVersion,
		Game:    Game{ID: "c-1", Name: " Saga "},
		Objects: []ObjectRecord{
			{ID: "bob", Name: "Bob", Type: "person", ParentID: ptr("tavern")},
			{ID: "tavern", Name: "Tavern", Type: "Place", ParentID: ptr("town")},
			{ID: "root", Name: "Saga", Type: "Other"},
			{ID: "town", Name: "Town", Type: "Place", ParentID: ptr("root")},
		},
	}

	plan := Remap(m, "abcd1234", remapNow)
	b := plan.Bundle

	assert.Equal(t, "c-1", b.Campaign.ID)
	assert.Equal(t, "Saga", b.Campaign.Name)
	assert.Equal(t, "abcd1234_bob", plan.ObjectIDs["bob"])
	assertParentsFirst(t, b)
	assert.Equal(t, map[string]string{
		"abcd1234_root":   "",
		"abcd1234_town":   "abcd1234_root",
		"abcd1234_tavern": "abcd1234_town",
		"abcd1234_bob":    "abcd1234_tavern",
	}, parentsOf(b))

	for _, o := range b.Objects {
		assert.Equal(t, "c-1", o.CampaignID)
		assert.Equal(t, remapNow, o.CreatedAt, "missing timestamps default to now")
	}
	assert.Equal(t, model.TypePerson, b.Objects[3].Type)
}

func TestRemap_RepairsTree(t *testing.T) {
	tests := []struct {
		name    string
		objects []ObjectRecord
		want    map[string]string
	}{
		{
			name: "orphan goes under the root",
			objects: []ObjectRecord{
				{ID: "root", Name: "R"},
				{ID: "lost", Name: "Lost", ParentID: ptr("deleted")},
			},
			want: map[string]string{"p_root": "", "p_lost": "p_root"},
		},
		{
			name: "extra roots go under the first",
			objects: []ObjectRecord{
				{ID: "a", Name: "A"},
				{ID: "b", Name: "B"},
				{ID: "c", Name: "C", ParentID: ptr("b")},
			},
			want: map[string]string{"p_a": "", "p_b": "p_a", "p_c": "p_b"},
		},
		{
			name: "cycle is broken",
			objects: []ObjectRecord{
				{ID: "root", Name: "R"},
				{ID: "x", Name: "X", ParentID: ptr("y")},
				{ID: "y", Name: "Y", ParentID: ptr("x")},
			},
			want: map[string]string{"p_root": "", "p_y": "p_root", "p_x": "p_y"},
		},
		{
			name: "self parent",
			objects: []ObjectRecord{
				{ID: "root", Name: "R"},
				{ID: "x", Name: "X", ParentID: ptr("x")},
			},
			want: map[string]string{"p_root": "", "p_x": "p_root"},
		},
		{
			name: "no root at all",
			objects: []ObjectRecord{
				{ID: "x", Name: "X", ParentID: ptr("y")},
				{ID: "y", Name: "Y", ParentID: ptr("x")},
			},
			want: map[string]string{"p_root": "", "p_y": "p_root", "p_x": "p_y"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Manifest{Version: FormatVersion, Game: Game{ID: "c", Name: "Saga"}, Objects: tt.objects}
			plan := Remap(m, "p", remapNow)

			assert.Equal(t, tt.want, parentsOf(plan.Bundle))
			assertParentsFirst(t, plan.Bundle)
		})
	}
}

func TestRemap_Tags(t *testing.T) {
	m := &Manifest{
		Version: FormatVersion,
		Game:    Game{ID: "c", Name: "Saga"},
		Objects: []ObjectRecord{
			{ID: "root", Name: "Saga"},
			{ID: "town", Name: "Town", ParentID: ptr("root"),
				Description: "See [[Tavern|tag_a]] and [[Bob|tag_b]]."},
			{ID: "tavern", Name: "Tavern", ParentID: ptr("town")},
			{ID: "bob", Name: "Bob", ParentID: ptr("tavern"),
				Description: "Lives in [[Tavern|tag_a]]."},
		},
		LinkTags: []LinkTagRecord{
			{ID: "tag_a"},                         // owner lost
			{ID: "tag_unused", ObjectID: "ghost"}, // nobody owns or references it
		},
		TagLinks: []TagLinkRecord{
			{TagID: "tag_a", ObjectID: "tavern"},
			{TagID: "tag_a", ObjectID: "tavern"},
		},
	}

	plan := Remap(m, "p", remapNow)
	b := plan.Bundle

	owners := make(map[string]string)
	for _, tag := range b.LinkTags {
		owners[tag.ID] = tag.ObjectID
	}
	assert.Equal(t, map[string]string{
		"p_tag_a": "p_town", // inferred from the first description that uses it
		"p_tag_b": "p_town", // synthesized from the token
	}, owners)

	assert.ElementsMatch(t, []model.TagLink{
		{TagID: "p_tag_a", ObjectID: "p_tavern", CreatedAt: remapNow},
		{TagID: "p_tag_b", ObjectID: "p_bob", CreatedAt: remapNow},
	}, b.TagLinks)

	town := b.Objects[1]
	require.Equal(t, "p_town", town.ID)
	assert.Equal(t, "See [[Tavern|p_tag_a]] and [[Bob|p_tag_b]].", town.Description)
	assert.Equal(t, "Lives in [[Tavern|p_tag_a]].", b.Objects[3].Description)
	for _, o := range b.Objects {
		for id := range lore.ExtractTagIDs(o.Description) {
			assert.True(t, strings.HasPrefix(id, "p_"), "token %s was not rewritten", id)
		}
	}
}

func TestRemap_Images(t *testing.T) {
	m := &Manifest{
		Version: FormatVersion,
		Game:    Game{ID: "c", Name: "Saga"},
		Objects: []ObjectRecord{
			{ID: "root", Name: "Saga"},
			{ID: "a", Name: "A", ParentID: ptr("root")},
			{ID: "b", Name: "B", ParentID: ptr("root")},
		},
		Images: []ImageRecord{
			{ID: "a1", ObjectID: "a", Name: "one", IsDefault: true, File: "images/a1.png"},
			{ID: "a2", ObjectID: "a", Name: "two", IsDefault: true, File: "images/a2.png"},
			{ID: "b1", ObjectID: "b", Name: "three", File: "images/b1.jpg"},
			{ID: "b2", ObjectID: "b", Name: "four"},
			{ID: "x1", ObjectID: "gone", Name: "orphan", File: "images/x1.png"},
		},
	}

	plan := Remap(m, "p", remapNow)

	defaults := make(map[string]bool)
	for _, img := range plan.Bundle.Images {
		defaults[img.ID] = img.IsDefault
	}
	assert.Equal(t, map[string]bool{"p_a1": true, "p_a2": false, "p_b1": true, "p_b2": false}, defaults)
	assert.Equal(t, map[string]string{
		"p_a1": "images/a1.png",
		"p_a2": "images/a2.png",
		"p_b1": "images/b1.jpg",
	}, plan.ImageFiles)
}

func TestFixDefaultImages(t *testing.T) {
	images := []model.Image{
		{ID: "1", ObjectID: "a"},
		{ID: "2", ObjectID: "a", IsDefault: true},
		{ID: "3", ObjectID: "a", IsDefault: true},
		{ID: "4", ObjectID: "b"},
	}
	FixDefaultImages(images)

	var got []bool
	for _, img := range images {
		got = append(got, img.IsDefault)
	}
	assert.Equal(t, []bool{false, true, false, true}, got)
}

func TestRemap_Records(t *testing.T) {
	m := &Manifest{
		Version: FormatVersion,
		Game:    Game{ID: "c", Name: "Saga"},
		Objects: []ObjectRecord{{ID: "root", Name: "Saga"}, {ID: "a", Name: "A", ParentID: ptr("root")}},
		Notes: []NoteRecord{
			{ID: "n1", ObjectID: "a", Body: "kept"},
			{ID: "n2", ObjectID: "gone", Body: "dropped"},
		},
		Labels: []LabelRecord{{ID: "l1", Name: "Ally"}, {ID: "l2", Name: "ally"}},
		ObjectLabels: []ObjectLabelRecord{
			{ObjectID: "a", LabelID: "l1"},
			{ObjectID: "a", LabelID: "l2"},
		},
		Logs: []LogRecord{{ID: "s1", Title: "Session 1"}},
	}

	b := Remap(m, "p", remapNow).Bundle

	require.Len(t, b.Notes, 1)
	assert.Equal(t, "p_a", b.Notes[0].ObjectID)
	require.Len(t, b.Labels, 1, "labels differing only in case fold together")
	assert.Equal(t, "Ally", b.Labels[0].Name)
	assert.Equal(t, []model.ObjectLabel{{ObjectID: "p_a", LabelID: "p_l1", CreatedAt: remapNow}}, b.ObjectLabels)
	require.Len(t, b.Logs, 1)
	assert.Equal(t, "c", b.Logs[0].CampaignID)
}
