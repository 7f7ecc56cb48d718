package lore_test

import (
	"testing"

	"lorebook/internal/lore"
	"lorebook/internal/model"
	"lorebook/internal/testutil"
)

// newCampaign creates a campaign and returns it with its root object.
func newCampaign(t *testing.T, ts *testutil.TestService, name string) (*model.Campaign, *model.Object) {
	t.Helper()
	c, err := ts.CreateCampaign(name)
	if err != nil {
		t.Fatalf("CreateCampaign(%q) error = %v", name, err)
	}
	root, err := ts.EnsureRoot(c.ID)
	if err != nil {
		t.Fatalf("EnsureRoot() error = %v", err)
	}
	return c, root
}

func mustCreate(t *testing.T, ts *testutil.TestService, campaignID, parentID, name, objectType string) *model.Object {
	t.Helper()
	o, err := ts.CreateObject(campaignID, parentID, name, objectType)
	if err != nil {
		t.Fatalf("CreateObject(%q) error = %v", name, err)
	}
	return o
}

func mustDescribe(t *testing.T, ts *testutil.TestService, objectID, text string) {
	t.Helper()
	if err := ts.UpdateDescription(objectID, text); err != nil {
		t.Fatalf("UpdateDescription(%s) error = %v", objectID, err)
	}
}

// assertTree checks that every live object has a live parent in the same
// campaign and that the campaign has exactly one root.
func assertTree(t *testing.T, ts *testutil.TestService, campaignID string) {
	t.Helper()
	objects, err := ts.ListObjects(campaignID)
	if err != nil {
		t.Fatalf("ListObjects() error = %v", err)
	}
	live := make(map[string]*model.Object, len(objects))
	for _, o := range objects {
		live[o.ID] = o
	}
	roots := 0
	for _, o := range objects {
		if o.ParentID == nil {
			roots++
			continue
		}
		p, ok := live[*o.ParentID]
		if !ok {
			t.Errorf("object %s has dead or missing parent %s", o.ID, *o.ParentID)
			continue
		}
		if p.CampaignID != o.CampaignID {
			t.Errorf("object %s has parent %s in another campaign", o.ID, p.ID)
		}
	}
	if roots != 1 {
		t.Errorf("campaign %s has %d roots, want 1", campaignID, roots)
	}
}

// assertLinksConsistent checks the post-reconciliation guarantee: every live
// LinkTag has a live owner whose text references it, and every live TagLink
// points at a live tag and a live target.
func assertLinksConsistent(t *testing.T, ts *testutil.TestService) {
	t.Helper()
	owned, err := ts.DB.ListOwnedLinkTags()
	if err != nil {
		t.Fatalf("ListOwnedLinkTags() error = %v", err)
	}
	for _, ot := range owned {
		if !ot.OwnerLive {
			t.Errorf("tag %s has no live owner", ot.Tag.ID)
		}
		if !lore.ReferencesTag(ot.OwnerDescription, ot.Tag.ID) {
			t.Errorf("tag %s not referenced by its owner's text", ot.Tag.ID)
		}
		links, err := ts.DB.ListTagLinks(ot.Tag.ID)
		if err != nil {
			t.Fatalf("ListTagLinks() error = %v", err)
		}
		for _, l := range links {
			target, err := ts.DB.FindObject(l.ObjectID)
			if err != nil {
				t.Fatalf("FindObject() error = %v", err)
			}
			if target == nil {
				t.Errorf("tag %s links to dead object %s", ot.Tag.ID, l.ObjectID)
			}
		}
	}
}

func names(objects []*model.Object) []string {
	out := make([]string, len(objects))
	for i, o := range objects {
		out[i] = o.Name
	}
	return out
}
