package database

import (
	"context"
	"fmt"

	"lorebook/internal/model"
)

// LoadCampaignBundle reads every live row of a campaign. It returns
// (nil, nil) when the campaign does not exist.
func (s *SQLiteDatabase) LoadCampaignBundle(campaignID string) (*model.CampaignBundle, error) {
	ctx := context.Background()

	// One read transaction gives a consistent snapshot.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	c, err := findOne(ctx, tx, scanCampaign,
		"SELECT "+campaignColumns+" FROM campaigns WHERE id = ? AND deleted_at IS NULL", campaignID)
	if err != nil {
		return nil, fmt.Errorf("loading campaign: %w", err)
	}
	if c == nil {
		return nil, nil
	}
	b := &model.CampaignBundle{Campaign: *c}

	objects, err := s.listObjects(ctx, tx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("loading objects: %w", err)
	}
	b.Objects = deref(objects)

	tags, err := findAll(ctx, tx, scanLinkTag,
		"SELECT "+linkTagColumns+` FROM link_tags
		WHERE campaign_id = ? AND deleted_at IS NULL
		ORDER BY created_at, id`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("loading link tags: %w", err)
	}
	b.LinkTags = deref(tags)

	links, err := findAll(ctx, tx, scanTagLink, `SELECT
		l.tag_id, l.object_id, l.created_at, l.deleted_at
		FROM tag_links l
		JOIN link_tags t ON t.id = l.tag_id
		WHERE t.campaign_id = ? AND l.deleted_at IS NULL AND t.deleted_at IS NULL
		ORDER BY l.created_at, l.tag_id, l.object_id`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("loading tag links: %w", err)
	}
	b.TagLinks = deref(links)

	images, err := findAll(ctx, tx, scanImage, `SELECT
		i.id, i.object_id, i.file_path, i.thumb_path, i.name, i.is_default, i.created_at, i.updated_at, i.deleted_at
		FROM images i
		JOIN objects o ON o.id = i.object_id
		WHERE o.campaign_id = ? AND i.deleted_at IS NULL AND o.deleted_at IS NULL
		ORDER BY i.created_at, i.id`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("loading images: %w", err)
	}
	b.Images = deref(images)

	notes, err := findAll(ctx, tx, scanNote, `SELECT
		n.id, n.object_id, n.body, n.created_at, n.updated_at, n.deleted_at
		FROM notes n
		JOIN objects o ON o.id = n.object_id
		WHERE o.campaign_id = ? AND n.deleted_at IS NULL AND o.deleted_at IS NULL
		ORDER BY n.created_at, n.id`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("loading notes: %w", err)
	}
	b.Notes = deref(notes)

	labels, err := findAll(ctx, tx, scanLabel,
		"SELECT "+labelColumns+` FROM labels
		WHERE campaign_id = ? AND deleted_at IS NULL
		ORDER BY created_at, id`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("loading labels: %w", err)
	}
	b.Labels = deref(labels)

	rows, err := tx.QueryContext(ctx, `SELECT ol.object_id, ol.label_id, ol.created_at
		FROM object_labels ol
		JOIN labels l ON l.id = ol.label_id
		JOIN objects o ON o.id = ol.object_id
		WHERE l.campaign_id = ? AND l.deleted_at IS NULL AND o.deleted_at IS NULL
		ORDER BY ol.created_at, ol.object_id, ol.label_id`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("loading object labels: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ol model.ObjectLabel
		if err := rows.Scan(&ol.ObjectID, &ol.LabelID, &ol.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning object label: %w", err)
		}
		b.ObjectLabels = append(b.ObjectLabels, ol)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading object labels: %w", err)
	}

	logs, err := findAll(ctx, tx, scanLog,
		"SELECT "+logColumns+` FROM logs
		WHERE campaign_id = ? AND deleted_at IS NULL
		ORDER BY created_at, id`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("loading logs: %w", err)
	}
	b.Logs = deref(logs)

	return b, nil
}

// ReplaceCampaign drops every row of the bundle's campaign, live or not, and
// inserts the bundle in its place.
func (s *SQLiteDatabase) ReplaceCampaign(b *model.CampaignBundle) error {
	ctx := context.Background()
	id := b.Campaign.ID

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	const campaignObjects = "SELECT id FROM objects WHERE campaign_id = ?"
	purge := []struct {
		what  string
		query string
		args  int
	}{
		{"images", "DELETE FROM images WHERE object_id IN (" + campaignObjects + ")", 1},
		{"object labels", "DELETE FROM object_labels WHERE object_id IN (" + campaignObjects +
			") OR label_id IN (SELECT id FROM labels WHERE campaign_id = ?)", 2},
		{"labels", "DELETE FROM labels WHERE campaign_id = ?", 1},
		{"notes", "DELETE FROM notes WHERE object_id IN (" + campaignObjects + ")", 1},
		{"logs", "DELETE FROM logs WHERE campaign_id = ?", 1},
		{"tag links", "DELETE FROM tag_links WHERE object_id IN (" + campaignObjects +
			") OR tag_id IN (SELECT id FROM link_tags WHERE campaign_id = ?)", 2},
		{"link tags", "DELETE FROM link_tags WHERE campaign_id = ?", 1},
		{"objects", "DELETE FROM objects WHERE campaign_id = ?", 1},
		{"campaign", "DELETE FROM campaigns WHERE id = ?", 1},
	}
	for _, p := range purge {
		args := make([]any, p.args)
		for i := range args {
			args[i] = id
		}
		if _, err := tx.ExecContext(ctx, p.query, args...); err != nil {
			return fmt.Errorf("clearing %s: %w", p.what, err)
		}
	}

	if err := insertCampaign(ctx, tx, &b.Campaign); err != nil {
		return fmt.Errorf("inserting campaign: %w", err)
	}
	for i := range b.Objects {
		if err := insertObject(ctx, tx, &b.Objects[i]); err != nil {
			return fmt.Errorf("inserting object %s: %w", b.Objects[i].ID, err)
		}
	}
	for i := range b.LinkTags {
		if err := insertLinkTag(ctx, tx, &b.LinkTags[i]); err != nil {
			return fmt.Errorf("inserting link tag %s: %w", b.LinkTags[i].ID, err)
		}
	}
	for i := range b.TagLinks {
		l := &b.TagLinks[i]
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tag_links (tag_id, object_id, created_at, deleted_at) VALUES (?, ?, ?, ?)",
			l.TagID, l.ObjectID, l.CreatedAt, nullTime(l.DeletedAt)); err != nil {
			return fmt.Errorf("inserting tag link %s -> %s: %w", l.TagID, l.ObjectID, err)
		}
	}
	for i := range b.Images {
		if err := insertImage(ctx, tx, &b.Images[i]); err != nil {
			return fmt.Errorf("inserting image %s: %w", b.Images[i].ID, err)
		}
	}
	for i := range b.Notes {
		if err := insertNote(ctx, tx, &b.Notes[i]); err != nil {
			return fmt.Errorf("inserting note %s: %w", b.Notes[i].ID, err)
		}
	}
	for i := range b.Labels {
		if err := insertLabel(ctx, tx, &b.Labels[i]); err != nil {
			return fmt.Errorf("inserting label %s: %w", b.Labels[i].ID, err)
		}
	}
	for _, ol := range b.ObjectLabels {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO object_labels (object_id, label_id, created_at) VALUES (?, ?, ?)",
			ol.ObjectID, ol.LabelID, ol.CreatedAt); err != nil {
			return fmt.Errorf("inserting object label: %w", err)
		}
	}
	for i := range b.Logs {
		if err := insertLog(ctx, tx, &b.Logs[i]); err != nil {
			return fmt.Errorf("inserting log %s: %w", b.Logs[i].ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func deref[T any](in []*T) []T {
	if len(in) == 0 {
		return nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = *v
	}
	return out
}

// Row inserts shared by the Create* methods and ReplaceCampaign.

func insertCampaign(ctx context.Context, q querier, c *model.Campaign) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO campaigns ("+campaignColumns+") VALUES (?, ?, ?, ?, ?)",
		c.ID, c.Name, c.CreatedAt, c.UpdatedAt, nullTime(c.DeletedAt))
	return err
}

func insertObject(ctx context.Context, q querier, o *model.Object) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO objects ("+objectColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		o.ID, o.CampaignID, o.Name, string(o.Type), nullStringPtr(o.ParentID), o.Description, o.Locked,
		o.CreatedAt, o.UpdatedAt, nullTime(o.DeletedAt))
	return err
}

func insertLinkTag(ctx context.Context, q querier, t *model.LinkTag) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO link_tags ("+linkTagColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		t.ID, t.CampaignID, nullString(t.ObjectID), t.CreatedAt, t.UpdatedAt, nullTime(t.DeletedAt))
	return err
}

func insertImage(ctx context.Context, q querier, img *model.Image) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO images ("+imageColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		img.ID, img.ObjectID, img.FilePath, img.ThumbPath, img.Name, img.IsDefault,
		img.CreatedAt, img.UpdatedAt, nullTime(img.DeletedAt))
	return err
}

func insertNote(ctx context.Context, q querier, n *model.Note) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO notes ("+noteColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		n.ID, n.ObjectID, n.Body, n.CreatedAt, n.UpdatedAt, nullTime(n.DeletedAt))
	return err
}

func insertLabel(ctx context.Context, q querier, l *model.Label) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO labels ("+labelColumns+") VALUES (?, ?, ?, ?, ?)",
		l.ID, l.CampaignID, l.Name, l.CreatedAt, nullTime(l.DeletedAt))
	return err
}

func insertLog(ctx context.Context, q querier, e *model.LogEntry) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO logs ("+logColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.CampaignID, e.Title, e.Body, e.CreatedAt, e.UpdatedAt, nullTime(e.DeletedAt))
	return err
}
