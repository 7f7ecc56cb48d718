package database

import (
	"context"
	"fmt"
	"time"

	"lorebook/internal/model"
)

// Image operations

func (s *SQLiteDatabase) CreateImage(img *model.Image) error {
	if err := insertImage(context.Background(), s.db, img); err != nil {
		return fmt.Errorf("inserting image: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) FindImage(id string) (*model.Image, error) {
	img, err := findOne(context.Background(), s.db, scanImage,
		"SELECT "+imageColumns+" FROM images WHERE id = ? AND deleted_at IS NULL", id)
	if err != nil {
		return nil, fmt.Errorf("finding image: %w", err)
	}
	return img, nil
}

func (s *SQLiteDatabase) ListImages(objectID string) ([]*model.Image, error) {
	images, err := findAll(context.Background(), s.db, scanImage,
		"SELECT "+imageColumns+` FROM images
		WHERE object_id = ? AND deleted_at IS NULL
		ORDER BY created_at, id`, objectID)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	return images, nil
}

func (s *SQLiteDatabase) SetDefaultImage(objectID, imageID string, at time.Time) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE images SET is_default = 0, updated_at = ?
		WHERE object_id = ? AND is_default = 1 AND deleted_at IS NULL`, at, objectID); err != nil {
		return fmt.Errorf("clearing default image: %w", err)
	}
	n, err := execCount(ctx, tx, `UPDATE images SET is_default = 1, updated_at = ?
		WHERE id = ? AND object_id = ? AND deleted_at IS NULL`, at, imageID, objectID)
	if err != nil {
		return fmt.Errorf("setting default image: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("image %s not found on object %s", imageID, objectID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) SoftDeleteImage(id string, at time.Time) error {
	_, err := s.db.ExecContext(context.Background(),
		"UPDATE images SET deleted_at = ?, updated_at = ?, is_default = 0 WHERE id = ? AND deleted_at IS NULL",
		at, at, id)
	if err != nil {
		return fmt.Errorf("deleting image: %w", err)
	}
	return nil
}

// Setting operations

func (s *SQLiteDatabase) FindSetting(name string) (*model.Setting, error) {
	st, err := findOne(context.Background(), s.db, scanSetting,
		"SELECT "+settingColumns+" FROM settings WHERE setting_name = ? AND deleted_at IS NULL", name)
	if err != nil {
		return nil, fmt.Errorf("finding setting: %w", err)
	}
	return st, nil
}

func (s *SQLiteDatabase) UpsertSetting(st *model.Setting) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	n, err := execCount(ctx, tx, `UPDATE settings SET setting_value = ?, updated_at = ?
		WHERE setting_name = ? AND deleted_at IS NULL`, string(st.Value), st.UpdatedAt, st.Name)
	if err != nil {
		return fmt.Errorf("updating setting: %w", err)
	}
	if n == 0 {
		if _, err := tx.ExecContext(ctx, `INSERT INTO settings
			(id, setting_name, setting_value, created_at, updated_at, deleted_at)
			VALUES (?, ?, ?, ?, ?, NULL)`,
			st.ID, st.Name, string(st.Value), st.CreatedAt, st.UpdatedAt); err != nil {
			return fmt.Errorf("inserting setting: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListSettings() ([]*model.Setting, error) {
	settings, err := findAll(context.Background(), s.db, scanSetting,
		"SELECT "+settingColumns+" FROM settings WHERE deleted_at IS NULL ORDER BY setting_name")
	if err != nil {
		return nil, fmt.Errorf("listing settings: %w", err)
	}
	return settings, nil
}

func (s *SQLiteDatabase) SoftDeleteSetting(name string, at time.Time) error {
	_, err := s.db.ExecContext(context.Background(),
		"UPDATE settings SET deleted_at = ?, updated_at = ? WHERE setting_name = ? AND deleted_at IS NULL",
		at, at, name)
	if err != nil {
		return fmt.Errorf("deleting setting: %w", err)
	}
	return nil
}

// Note operations

func (s *SQLiteDatabase) CreateNote(n *model.Note) error {
	if err := insertNote(context.Background(), s.db, n); err != nil {
		return fmt.Errorf("inserting note: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) FindNote(id string) (*model.Note, error) {
	n, err := findOne(context.Background(), s.db, scanNote,
		"SELECT "+noteColumns+" FROM notes WHERE id = ? AND deleted_at IS NULL", id)
	if err != nil {
		return nil, fmt.Errorf("finding note: %w", err)
	}
	return n, nil
}

func (s *SQLiteDatabase) ListNotes(objectID string) ([]*model.Note, error) {
	notes, err := findAll(context.Background(), s.db, scanNote,
		"SELECT "+noteColumns+` FROM notes
		WHERE object_id = ? AND deleted_at IS NULL
		ORDER BY created_at, id`, objectID)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	return notes, nil
}

func (s *SQLiteDatabase) UpdateNote(id, body string, at time.Time) error {
	_, err := s.db.ExecContext(context.Background(),
		"UPDATE notes SET body = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL", body, at, id)
	if err != nil {
		return fmt.Errorf("updating note: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) SoftDeleteNote(id string, at time.Time) error {
	_, err := s.db.ExecContext(context.Background(),
		"UPDATE notes SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL", at, at, id)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	return nil
}

// Label operations

func (s *SQLiteDatabase) CreateLabel(l *model.Label) error {
	if err := insertLabel(context.Background(), s.db, l); err != nil {
		return fmt.Errorf("inserting label: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) FindLabel(id string) (*model.Label, error) {
	l, err := findOne(context.Background(), s.db, scanLabel,
		"SELECT "+labelColumns+" FROM labels WHERE id = ? AND deleted_at IS NULL", id)
	if err != nil {
		return nil, fmt.Errorf("finding label: %w", err)
	}
	return l, nil
}

func (s *SQLiteDatabase) FindLabelByName(campaignID, name string) (*model.Label, error) {
	l, err := findOne(context.Background(), s.db, scanLabel,
		"SELECT "+labelColumns+` FROM labels
		WHERE campaign_id = ? AND name = ? COLLATE NOCASE AND deleted_at IS NULL`, campaignID, name)
	if err != nil {
		return nil, fmt.Errorf("finding label: %w", err)
	}
	return l, nil
}

func (s *SQLiteDatabase) ListLabels(campaignID string) ([]*model.Label, error) {
	labels, err := findAll(context.Background(), s.db, scanLabel,
		"SELECT "+labelColumns+` FROM labels
		WHERE campaign_id = ? AND deleted_at IS NULL
		ORDER BY name COLLATE NOCASE`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("listing labels: %w", err)
	}
	return labels, nil
}

func (s *SQLiteDatabase) AttachLabel(objectID, labelID string, at time.Time) error {
	_, err := s.db.ExecContext(context.Background(),
		"INSERT OR IGNORE INTO object_labels (object_id, label_id, created_at) VALUES (?, ?, ?)",
		objectID, labelID, at)
	if err != nil {
		return fmt.Errorf("attaching label: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) DetachLabel(objectID, labelID string) error {
	_, err := s.db.ExecContext(context.Background(),
		"DELETE FROM object_labels WHERE object_id = ? AND label_id = ?", objectID, labelID)
	if err != nil {
		return fmt.Errorf("detaching label: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListObjectLabels(objectID string) ([]*model.Label, error) {
	labels, err := findAll(context.Background(), s.db, scanLabel, `SELECT
		l.id, l.campaign_id, l.name, l.created_at, l.deleted_at
		FROM object_labels ol
		JOIN labels l ON l.id = ol.label_id
		WHERE ol.object_id = ? AND l.deleted_at IS NULL
		ORDER BY l.name COLLATE NOCASE`, objectID)
	if err != nil {
		return nil, fmt.Errorf("listing object labels: %w", err)
	}
	return labels, nil
}

// Log operations

func (s *SQLiteDatabase) CreateLog(e *model.LogEntry) error {
	if err := insertLog(context.Background(), s.db, e); err != nil {
		return fmt.Errorf("inserting log: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) FindLog(id string) (*model.LogEntry, error) {
	e, err := findOne(context.Background(), s.db, scanLog,
		"SELECT "+logColumns+" FROM logs WHERE id = ? AND deleted_at IS NULL", id)
	if err != nil {
		return nil, fmt.Errorf("finding log: %w", err)
	}
	return e, nil
}

func (s *SQLiteDatabase) ListLogs(campaignID string) ([]*model.LogEntry, error) {
	logs, err := findAll(context.Background(), s.db, scanLog,
		"SELECT "+logColumns+` FROM logs
		WHERE campaign_id = ? AND deleted_at IS NULL
		ORDER BY created_at DESC, id`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("listing logs: %w", err)
	}
	return logs, nil
}

func (s *SQLiteDatabase) SoftDeleteLog(id string, at time.Time) error {
	_, err := s.db.ExecContext(context.Background(),
		"UPDATE logs SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL", at, at, id)
	if err != nil {
		return fmt.Errorf("deleting log: %w", err)
	}
	return nil
}
