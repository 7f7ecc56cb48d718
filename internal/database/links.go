package database

import (
	"context"
	"fmt"
	"time"

	"lorebook/internal/model"
)

// LinkTag operations

func (s *SQLiteDatabase) CreateLinkTag(t *model.LinkTag) error {
	if err := insertLinkTag(context.Background(), s.db, t); err != nil {
		return fmt.Errorf("inserting link tag: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) FindLinkTag(id string) (*model.LinkTag, error) {
	t, err := findOne(context.Background(), s.db, scanLinkTag,
		"SELECT "+linkTagColumns+" FROM link_tags WHERE id = ? AND deleted_at IS NULL", id)
	if err != nil {
		return nil, fmt.Errorf("finding link tag: %w", err)
	}
	return t, nil
}

func (s *SQLiteDatabase) ListLinkTagsByOwner(objectID string) ([]*model.LinkTag, error) {
	tags, err := findAll(context.Background(), s.db, scanLinkTag,
		"SELECT "+linkTagColumns+` FROM link_tags
		WHERE object_id = ? AND deleted_at IS NULL
		ORDER BY created_at, id`, objectID)
	if err != nil {
		return nil, fmt.Errorf("listing link tags: %w", err)
	}
	return tags, nil
}

func (s *SQLiteDatabase) ListLinkTagsWithoutOwner() ([]*model.LinkTag, error) {
	tags, err := findAll(context.Background(), s.db, scanLinkTag,
		"SELECT "+linkTagColumns+` FROM link_tags
		WHERE object_id IS NULL AND deleted_at IS NULL
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing unowned link tags: %w", err)
	}
	return tags, nil
}

func (s *SQLiteDatabase) SetLinkTagOwner(tagID, objectID string, at time.Time) error {
	_, err := s.db.ExecContext(context.Background(),
		"UPDATE link_tags SET object_id = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		nullString(objectID), at, tagID)
	if err != nil {
		return fmt.Errorf("setting link tag owner: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListOwnedLinkTags() ([]*model.OwnedLinkTag, error) {
	rows, err := s.db.QueryContext(context.Background(), `SELECT
		t.id, t.campaign_id, t.object_id, t.created_at, t.updated_at, t.deleted_at,
		o.id IS NOT NULL, COALESCE(o.description, '')
		FROM link_tags t
		LEFT JOIN objects o ON o.id = t.object_id AND o.deleted_at IS NULL
		WHERE t.deleted_at IS NULL
		ORDER BY t.created_at, t.id`)
	if err != nil {
		return nil, fmt.Errorf("listing owned link tags: %w", err)
	}
	defer rows.Close()

	var out []*model.OwnedLinkTag
	for rows.Next() {
		var owned model.OwnedLinkTag
		tag, err := scanLinkTag(scanFunc(func(dest ...any) error {
			return rows.Scan(append(dest, &owned.OwnerLive, &owned.OwnerDescription)...)
		}))
		if err != nil {
			return nil, fmt.Errorf("scanning owned link tag: %w", err)
		}
		owned.Tag = *tag
		out = append(out, &owned)
	}
	return out, rows.Err()
}

// scanFunc adapts a closure to scanner so a row with extra columns can
// reuse the per-table scan helpers.
type scanFunc func(dest ...any) error

func (f scanFunc) Scan(dest ...any) error { return f(dest...) }

func (s *SQLiteDatabase) DeleteLinkTags(ids []string, at time.Time) (int, error) {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	deleted := 0
	for _, id := range ids {
		n, err := execCount(ctx, tx,
			"UPDATE link_tags SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL", at, at, id)
		if err != nil {
			return 0, fmt.Errorf("deleting link tag %s: %w", id, err)
		}
		deleted += n
		if _, err := tx.ExecContext(ctx,
			"UPDATE tag_links SET deleted_at = ? WHERE tag_id = ? AND deleted_at IS NULL", at, id); err != nil {
			return 0, fmt.Errorf("deleting links of %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return deleted, nil
}

// TagLink operations

func (s *SQLiteDatabase) CreateTagLink(l *model.TagLink) error {
	_, err := s.db.ExecContext(context.Background(), `INSERT INTO tag_links (tag_id, object_id, created_at, deleted_at)
		VALUES (?, ?, ?, NULL)
		ON CONFLICT (tag_id, object_id) DO UPDATE SET deleted_at = NULL, created_at = excluded.created_at
		WHERE tag_links.deleted_at IS NOT NULL`,
		l.TagID, l.ObjectID, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting tag link: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListTagLinks(tagID string) ([]*model.TagLink, error) {
	links, err := findAll(context.Background(), s.db, scanTagLink,
		"SELECT "+tagLinkColumns+` FROM tag_links
		WHERE tag_id = ? AND deleted_at IS NULL
		ORDER BY created_at, object_id`, tagID)
	if err != nil {
		return nil, fmt.Errorf("listing tag links: %w", err)
	}
	return links, nil
}

func (s *SQLiteDatabase) ListTagLinksTargeting(objectID string) ([]*model.TagLink, error) {
	links, err := findAll(context.Background(), s.db, scanTagLink,
		"SELECT "+tagLinkColumns+` FROM tag_links
		WHERE object_id = ? AND deleted_at IS NULL
		ORDER BY created_at, tag_id`, objectID)
	if err != nil {
		return nil, fmt.Errorf("listing tag links: %w", err)
	}
	return links, nil
}

func (s *SQLiteDatabase) DeleteTagLink(tagID, objectID string, at time.Time) error {
	_, err := s.db.ExecContext(context.Background(),
		"UPDATE tag_links SET deleted_at = ? WHERE tag_id = ? AND object_id = ? AND deleted_at IS NULL",
		at, tagID, objectID)
	if err != nil {
		return fmt.Errorf("deleting tag link: %w", err)
	}
	return nil
}

// Reconciliation sweeps

func (s *SQLiteDatabase) DeleteTagLinksWithoutTag(at time.Time) (int, error) {
	n, err := execCount(context.Background(), s.db, `UPDATE tag_links SET deleted_at = ?
		WHERE deleted_at IS NULL
		AND tag_id NOT IN (SELECT id FROM link_tags WHERE deleted_at IS NULL)`, at)
	if err != nil {
		return 0, fmt.Errorf("sweeping orphaned tag links: %w", err)
	}
	return n, nil
}

func (s *SQLiteDatabase) DeleteTagLinksToDeadObjects(at time.Time) (int, error) {
	n, err := execCount(context.Background(), s.db, `UPDATE tag_links SET deleted_at = ?
		WHERE deleted_at IS NULL
		AND object_id NOT IN (SELECT id FROM objects WHERE deleted_at IS NULL)`, at)
	if err != nil {
		return 0, fmt.Errorf("sweeping dead-target tag links: %w", err)
	}
	return n, nil
}

func (s *SQLiteDatabase) DeleteLinkTagsWithoutLinks(at time.Time) (int, error) {
	n, err := execCount(context.Background(), s.db, `UPDATE link_tags SET deleted_at = ?, updated_at = ?
		WHERE deleted_at IS NULL
		AND id NOT IN (SELECT tag_id FROM tag_links WHERE deleted_at IS NULL)`, at, at)
	if err != nil {
		return 0, fmt.Errorf("sweeping empty link tags: %w", err)
	}
	return n, nil
}
