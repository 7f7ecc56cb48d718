package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"lorebook/internal/model"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

const (
	campaignColumns = "id, name, created_at, updated_at, deleted_at"
	objectColumns   = "id, campaign_id, name, type, parent_id, description, locked, created_at, updated_at, deleted_at"
	linkTagColumns  = "id, campaign_id, object_id, created_at, updated_at, deleted_at"
	tagLinkColumns  = "tag_id, object_id, created_at, deleted_at"
	imageColumns    = "id, object_id, file_path, thumb_path, name, is_default, created_at, updated_at, deleted_at"
	settingColumns  = "id, setting_name, setting_value, created_at, updated_at, deleted_at"
	noteColumns     = "id, object_id, body, created_at, updated_at, deleted_at"
	labelColumns    = "id, campaign_id, name, created_at, deleted_at"
	logColumns      = "id, campaign_id, title, body, created_at, updated_at, deleted_at"
)

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func scanCampaign(row scanner) (*model.Campaign, error) {
	var c model.Campaign
	var deleted sql.NullTime
	if err := row.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt, &deleted); err != nil {
		return nil, err
	}
	c.DeletedAt = timePtr(deleted)
	return &c, nil
}

func scanObject(row scanner) (*model.Object, error) {
	var o model.Object
	var typ string
	var parent sql.NullString
	var deleted sql.NullTime
	err := row.Scan(&o.ID, &o.CampaignID, &o.Name, &typ, &parent, &o.Description, &o.Locked,
		&o.CreatedAt, &o.UpdatedAt, &deleted)
	if err != nil {
		return nil, err
	}
	o.Type = model.ObjectType(typ)
	if parent.Valid {
		p := parent.String
		o.ParentID = &p
	}
	o.DeletedAt = timePtr(deleted)
	return &o, nil
}

func scanLinkTag(row scanner) (*model.LinkTag, error) {
	var t model.LinkTag
	var owner sql.NullString
	var deleted sql.NullTime
	if err := row.Scan(&t.ID, &t.CampaignID, &owner, &t.CreatedAt, &t.UpdatedAt, &deleted); err != nil {
		return nil, err
	}
	t.ObjectID = owner.String
	t.DeletedAt = timePtr(deleted)
	return &t, nil
}

func scanTagLink(row scanner) (*model.TagLink, error) {
	var l model.TagLink
	var deleted sql.NullTime
	if err := row.Scan(&l.TagID, &l.ObjectID, &l.CreatedAt, &deleted); err != nil {
		return nil, err
	}
	l.DeletedAt = timePtr(deleted)
	return &l, nil
}

func scanImage(row scanner) (*model.Image, error) {
	var img model.Image
	var deleted sql.NullTime
	err := row.Scan(&img.ID, &img.ObjectID, &img.FilePath, &img.ThumbPath, &img.Name, &img.IsDefault,
		&img.CreatedAt, &img.UpdatedAt, &deleted)
	if err != nil {
		return nil, err
	}
	img.DeletedAt = timePtr(deleted)
	return &img, nil
}

func scanSetting(row scanner) (*model.Setting, error) {
	var st model.Setting
	var value string
	var deleted sql.NullTime
	if err := row.Scan(&st.ID, &st.Name, &value, &st.CreatedAt, &st.UpdatedAt, &deleted); err != nil {
		return nil, err
	}
	st.Value = json.RawMessage(value)
	st.DeletedAt = timePtr(deleted)
	return &st, nil
}

func scanNote(row scanner) (*model.Note, error) {
	var n model.Note
	var deleted sql.NullTime
	if err := row.Scan(&n.ID, &n.ObjectID, &n.Body, &n.CreatedAt, &n.UpdatedAt, &deleted); err != nil {
		return nil, err
	}
	n.DeletedAt = timePtr(deleted)
	return &n, nil
}

func scanLabel(row scanner) (*model.Label, error) {
	var l model.Label
	var deleted sql.NullTime
	if err := row.Scan(&l.ID, &l.CampaignID, &l.Name, &l.CreatedAt, &deleted); err != nil {
		return nil, err
	}
	l.DeletedAt = timePtr(deleted)
	return &l, nil
}

func scanLog(row scanner) (*model.LogEntry, error) {
	var e model.LogEntry
	var deleted sql.NullTime
	if err := row.Scan(&e.ID, &e.CampaignID, &e.Title, &e.Body, &e.CreatedAt, &e.UpdatedAt, &deleted); err != nil {
		return nil, err
	}
	e.DeletedAt = timePtr(deleted)
	return &e, nil
}

// findOne runs a single-row query. A missing row yields (nil, nil).
func findOne[T any](ctx context.Context, q querier, scan func(scanner) (*T, error), query string, args ...any) (*T, error) {
	v, err := scan(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// findAll runs a query and scans every row.
func findAll[T any](ctx context.Context, q querier, scan func(scanner) (*T, error), query string, args ...any) ([]*T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// execCount runs a statement and returns the number of rows it changed.
func execCount(ctx context.Context, q querier, query string, args ...any) (int, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// parentsFirst orders objects so every parent precedes its children.
// Objects whose parent is outside the slice count as top level; among equal
// depths the input order is kept.
func parentsFirst(objects []*model.Object) []*model.Object {
	byID := make(map[string]*model.Object, len(objects))
	for _, o := range objects {
		byID[o.ID] = o
	}

	depth := make(map[string]int, len(objects))
	var depthOf func(o *model.Object, guard int) int
	depthOf = func(o *model.Object, guard int) int {
		if d, ok := depth[o.ID]; ok {
			return d
		}
		d := 0
		if o.ParentID != nil && guard < len(objects) {
			if p, ok := byID[*o.ParentID]; ok {
				d = depthOf(p, guard+1) + 1
			}
		}
		depth[o.ID] = d
		return d
	}

	buckets := make(map[int][]*model.Object)
	maxDepth := 0
	for _, o := range objects {
		d := depthOf(o, 0)
		buckets[d] = append(buckets[d], o)
		if d > maxDepth {
			maxDepth = d
		}
	}
	ordered := make([]*model.Object, 0, len(objects))
	for d := 0; d <= maxDepth; d++ {
		ordered = append(ordered, buckets[d]...)
	}
	return ordered
}
