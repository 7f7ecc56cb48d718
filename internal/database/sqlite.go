package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lorebook/internal/database/migrations"
	"lorebook/internal/lore"
	"lorebook/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements lore.Database on top of SQLite.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// NewSQLiteDatabase opens a SQLite database.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteDatabase{db: db, path: path}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing connection.
// The caller is responsible for configuring it with OpenConnection.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{db: db}
}

// OpenConnection opens a SQLite connection with foreign keys enforced.
// The pragmas travel in the DSN so every pooled connection gets them.
// An in-memory database is pinned to a single connection, otherwise each
// connection would see its own empty database.
func OpenConnection(path string) (*sql.DB, error) {
	dsn := path + "?_foreign_keys=on&_busy_timeout=5000"
	if path != ":memory:" {
		dsn += "&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Campaign operations

func (s *SQLiteDatabase) CreateCampaign(c *model.Campaign) error {
	if err := insertCampaign(context.Background(), s.db, c); err != nil {
		return fmt.Errorf("inserting campaign: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) FindCampaign(id string) (*model.Campaign, error) {
	c, err := findOne(context.Background(), s.db, scanCampaign,
		"SELECT "+campaignColumns+" FROM campaigns WHERE id = ? AND deleted_at IS NULL", id)
	if err != nil {
		return nil, fmt.Errorf("finding campaign: %w", err)
	}
	return c, nil
}

func (s *SQLiteDatabase) FindCampaignAnyState(id string) (*model.Campaign, error) {
	c, err := findOne(context.Background(), s.db, scanCampaign,
		"SELECT "+campaignColumns+" FROM campaigns WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("finding campaign: %w", err)
	}
	return c, nil
}

func (s *SQLiteDatabase) ListCampaigns() ([]*model.Campaign, error) {
	cs, err := findAll(context.Background(), s.db, scanCampaign,
		"SELECT "+campaignColumns+" FROM campaigns WHERE deleted_at IS NULL ORDER BY name COLLATE NOCASE, id")
	if err != nil {
		return nil, fmt.Errorf("listing campaigns: %w", err)
	}
	return cs, nil
}

func (s *SQLiteDatabase) UpdateCampaignName(id, name string, at time.Time) error {
	_, err := s.db.ExecContext(context.Background(),
		"UPDATE campaigns SET name = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL", name, at, id)
	if err != nil {
		return fmt.Errorf("renaming campaign: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) SoftDeleteCampaign(id string, at time.Time) error {
	_, err := s.db.ExecContext(context.Background(),
		"UPDATE campaigns SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL", at, at, id)
	if err != nil {
		return fmt.Errorf("deleting campaign: %w", err)
	}
	return nil
}

// Object operations

func (s *SQLiteDatabase) CreateObject(o *model.Object) error {
	if err := insertObject(context.Background(), s.db, o); err != nil {
		return fmt.Errorf("inserting object: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) FindObject(id string) (*model.Object, error) {
	o, err := findOne(context.Background(), s.db, scanObject,
		"SELECT "+objectColumns+" FROM objects WHERE id = ? AND deleted_at IS NULL", id)
	if err != nil {
		return nil, fmt.Errorf("finding object: %w", err)
	}
	return o, nil
}

func (s *SQLiteDatabase) FindRoot(campaignID string) (*model.Object, error) {
	o, err := findOne(context.Background(), s.db, scanObject,
		"SELECT "+objectColumns+` FROM objects
		WHERE campaign_id = ? AND parent_id IS NULL AND deleted_at IS NULL
		ORDER BY created_at, id LIMIT 1`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("finding root: %w", err)
	}
	return o, nil
}

func (s *SQLiteDatabase) ListChildren(campaignID string, parentID *string) ([]*model.Object, error) {
	ctx := context.Background()
	var objects []*model.Object
	var err error
	if parentID == nil {
		objects, err = findAll(ctx, s.db, scanObject,
			"SELECT "+objectColumns+` FROM objects
			WHERE campaign_id = ? AND parent_id IS NULL AND deleted_at IS NULL
			ORDER BY name COLLATE NOCASE, id`, campaignID)
	} else {
		objects, err = findAll(ctx, s.db, scanObject,
			"SELECT "+objectColumns+` FROM objects
			WHERE campaign_id = ? AND parent_id = ? AND deleted_at IS NULL
			ORDER BY name COLLATE NOCASE, id`, campaignID, *parentID)
	}
	if err != nil {
		return nil, fmt.Errorf("listing children: %w", err)
	}
	return objects, nil
}

func (s *SQLiteDatabase) ListObjects(campaignID string) ([]*model.Object, error) {
	objects, err := s.listObjects(context.Background(), s.db, campaignID)
	if err != nil {
		return nil, fmt.Errorf("listing objects: %w", err)
	}
	return objects, nil
}

func (s *SQLiteDatabase) listObjects(ctx context.Context, q querier, campaignID string) ([]*model.Object, error) {
	objects, err := findAll(ctx, q, scanObject,
		"SELECT "+objectColumns+` FROM objects
		WHERE campaign_id = ? AND deleted_at IS NULL
		ORDER BY created_at, id`, campaignID)
	if err != nil {
		return nil, err
	}
	return parentsFirst(objects), nil
}

func (s *SQLiteDatabase) FindObjectsByName(campaignID, name string) ([]*model.Object, error) {
	objects, err := findAll(context.Background(), s.db, scanObject,
		"SELECT "+objectColumns+` FROM objects
		WHERE campaign_id = ? AND name = ? COLLATE NOCASE AND deleted_at IS NULL
		ORDER BY created_at, id`, campaignID, name)
	if err != nil {
		return nil, fmt.Errorf("finding objects by name: %w", err)
	}
	return objects, nil
}

func (s *SQLiteDatabase) FindObjectsReferencingTag(campaignID, tagID string) ([]*model.Object, error) {
	objects, err := findAll(context.Background(), s.db, scanObject,
		"SELECT "+objectColumns+` FROM objects
		WHERE campaign_id = ? AND deleted_at IS NULL AND instr(description, ?) > 0
		ORDER BY created_at, id`, campaignID, "|"+tagID+"]")
	if err != nil {
		return nil, fmt.Errorf("finding objects referencing tag: %w", err)
	}
	return objects, nil
}

func (s *SQLiteDatabase) UpdateObject(o *model.Object) error {
	_, err := s.db.ExecContext(context.Background(), `UPDATE objects
		SET name = ?, type = ?, parent_id = ?, description = ?, locked = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		o.Name, string(o.Type), nullStringPtr(o.ParentID), o.Description, o.Locked, o.UpdatedAt, o.ID)
	if err != nil {
		return fmt.Errorf("updating object: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) SoftDeleteObjects(ids []string, at time.Time) (int, error) {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	deleted := 0
	for _, id := range ids {
		n, err := execCount(ctx, tx,
			"UPDATE objects SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL", at, at, id)
		if err != nil {
			return 0, fmt.Errorf("deleting object %s: %w", id, err)
		}
		deleted += n
		if _, err := tx.ExecContext(ctx,
			"UPDATE tag_links SET deleted_at = ? WHERE object_id = ? AND deleted_at IS NULL", at, id); err != nil {
			return 0, fmt.Errorf("deleting links to %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return deleted, nil
}

// Path returns the database file path, empty for wrapped connections.
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// MigrateUp applies any pending schema migrations.
func (s *SQLiteDatabase) MigrateUp() error {
	return migrations.MigrateUp(s.db)
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// BackupTo writes a consistent copy of the database to destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var _ lore.Database = (*SQLiteDatabase)(nil)
