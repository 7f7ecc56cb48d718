package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"lorebook/internal/archive"
	"lorebook/internal/config"
	"lorebook/internal/database"
	"lorebook/internal/encryption"
	"lorebook/internal/images"
	"lorebook/internal/lore"
	"lorebook/internal/model"
	"lorebook/internal/vault"
)

// LoreApp is the application layer between the CLI and lore.Service.
// It constructs all dependencies from config, exposes the operations that
// need more than one component, and manages the DB lifecycle on Close.
type LoreApp struct {
	cfg     *config.Config
	db      *database.SQLiteDatabase
	images  lore.ImagePipeline
	service *lore.Service
	vault   lore.Vault
	logger  *slog.Logger
	level   *slog.LevelVar
	logFile *os.File
	op      *Operation
}

// NewLoreApp creates a fully wired LoreApp from the given config.
// operation names the CLI command being run (e.g. "ExportCampaign").
// The caller must call Close when done.
func NewLoreApp(cfg *config.Config, operation string) (*LoreApp, error) {
	if cfg == nil || cfg.ProjectRoot == "" {
		return nil, lore.ErrNoProject
	}
	if err := os.MkdirAll(cfg.ProjectRoot, 0755); err != nil {
		return nil, fmt.Errorf("creating project root: %w", err)
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}
	if err := db.MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	op := NewOperation(operation, lore.RealClock{})
	level := new(slog.LevelVar)
	logger, logFile, err := newLogger(cfg.LogDir, op.ID, level, os.Stderr)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	pipeline := images.NewPipeline(cfg.ThumbnailSize)
	svc, err := lore.NewService(db, pipeline, cfg.ProjectRoot, &slogAdapter{l: logger},
		lore.RealClock{}, lore.NanoIDGenerator{})
	if err != nil {
		db.Close()
		logFile.Close()
		return nil, err
	}

	a := &LoreApp{
		cfg:     cfg,
		db:      db,
		images:  pipeline,
		service: svc,
		logger:  logger,
		level:   level,
		logFile: logFile,
		op:      op,
	}
	a.applyLogLevel()
	svc.BackfillLinkTagOwners()
	return a, nil
}

// applyLogLevel reads the logging setting. A missing or bad setting keeps Info.
func (a *LoreApp) applyLogLevel() {
	var s lore.LoggingSetting
	found, err := a.service.GetSetting(lore.LoggingSettingName, &s)
	if err != nil {
		a.logger.Warn("reading logging setting", "error", err)
		return
	}
	if !found || s.Level == "" {
		return
	}
	lvl, err := ParseLevel(s.Level)
	if err != nil {
		a.logger.Warn("ignoring logging setting", "error", err)
		return
	}
	a.level.Set(lvl)
}

// Service returns the domain service for single-component operations.
func (a *LoreApp) Service() *lore.Service {
	return a.service
}

// Operation returns the operation this app instance was created for.
func (a *LoreApp) Operation() *Operation {
	return a.op
}

// ResolveCampaign finds a live campaign by id or, failing that, by name
// (ignoring case). An ambiguous name is a validation error.
func (a *LoreApp) ResolveCampaign(ref string) (*model.Campaign, error) {
	ref = strings.TrimSpace(ref)
	campaigns, err := a.service.ListCampaigns()
	if err != nil {
		return nil, err
	}
	var matches []*model.Campaign
	for _, c := range campaigns {
		if c.ID == ref {
			return c, nil
		}
		if strings.EqualFold(c.Name, ref) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: campaign %q", lore.ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %d campaigns are named %q, use the id", lore.ErrValidation, len(matches), ref)
	}
}

// ResolveObject finds a live object of the campaign by id, by a
// slash-separated path of names below the root ("Town/Tavern"), or by a
// unique name. "/" is the root.
func (a *LoreApp) ResolveObject(campaignID, ref string) (*model.Object, error) {
	ref = strings.TrimSpace(ref)
	if o, err := a.service.GetObject(ref); err == nil && o.CampaignID == campaignID {
		return o, nil
	}

	root, err := a.service.EnsureRoot(campaignID)
	if err != nil {
		return nil, err
	}
	path := strings.Trim(ref, "/")
	if path == "" {
		return root, nil
	}

	parentID := root.ID
	var current *model.Object
	for _, part := range strings.Split(path, "/") {
		children, err := a.service.ListChildren(campaignID, parentID)
		if err != nil {
			return nil, err
		}
		current = nil
		for _, c := range children {
			if strings.EqualFold(c.Name, strings.TrimSpace(part)) {
				current = c
				break
			}
		}
		if current == nil {
			break
		}
		parentID = current.ID
	}
	if current != nil {
		return current, nil
	}

	// Fall back to a unique name anywhere in the tree.
	objects, err := a.service.ListObjects(campaignID)
	if err != nil {
		return nil, err
	}
	var matches []*model.Object
	for _, o := range objects {
		if strings.EqualFold(o.Name, ref) {
			matches = append(matches, o)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: object %q", lore.ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %d objects are named %q, use a path or id", lore.ErrValidation, len(matches), ref)
	}
}

// encryptorFor returns nil for an empty passphrase.
func encryptorFor(passphrase string) (lore.Encryptor, error) {
	if passphrase == "" {
		return nil, nil
	}
	return encryption.NewAgeEncryptor(passphrase)
}

// Export writes the campaign to outPath, or to a timestamped file in the
// current directory when outPath is empty. A passphrase enables encryption.
func (a *LoreApp) Export(campaignRef, outPath, passphrase string) (*archive.ExportResult, error) {
	c, err := a.ResolveCampaign(campaignRef)
	if err != nil {
		return nil, err
	}
	enc, err := encryptorFor(passphrase)
	if err != nil {
		return nil, err
	}
	if outPath == "" {
		outPath = archive.ArchiveName(c, a.service.Clock(), enc != nil)
	}
	if outPath, err = filepath.Abs(outPath); err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	a.op.Parameters = outPath
	return archive.NewExporter(a.service, &slogAdapter{l: a.logger}).ExportFile(c.ID, outPath, enc)
}

// Import loads an archive. The database is snapshotted first so a bad
// import can be undone by hand. confirm is asked before replacing a live
// campaign.
func (a *LoreApp) Import(path, passphrase string, confirm func(*model.Campaign) bool) (*archive.ImportResult, error) {
	dec, err := encryptorFor(passphrase)
	if err != nil {
		return nil, err
	}
	a.op.Parameters = path
	if _, err := a.Snapshot(); err != nil {
		return nil, err
	}
	imp := archive.NewImporter(a.service, a.images, &slogAdapter{l: a.logger}, "")
	return imp.ImportFile(path, archive.ImportOptions{Confirm: confirm, Decryptor: dec})
}

// Snapshot copies the database to <project>/backups before a destructive
// operation. In-memory databases are not snapshotted; the path is empty then.
func (a *LoreApp) Snapshot() (string, error) {
	if p := a.db.Path(); p == "" || p == ":memory:" {
		return "", nil
	}
	dir := filepath.Join(a.cfg.ProjectRoot, "backups")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}
	dest := filepath.Join(dir, "lorebook-"+a.op.ID+".db")
	os.Remove(dest) // VACUUM INTO refuses to overwrite
	if err := a.db.BackupTo(dest); err != nil {
		return "", err
	}
	a.logger.Info("database snapshot written", "path", dest)
	return dest, nil
}

func (a *LoreApp) getVault() (lore.Vault, error) {
	if a.vault != nil {
		return a.vault, nil
	}
	v, err := vault.NewVaultFromConfig(a.cfg.Vault)
	if err != nil {
		return nil, fmt.Errorf("creating vault: %w", err)
	}
	a.vault = v
	return v, nil
}

// Push exports the campaign and stores the archive in the configured vault.
// It returns the archive name.
func (a *LoreApp) Push(campaignRef, passphrase string) (string, error) {
	v, err := a.getVault()
	if err != nil {
		return "", err
	}
	c, err := a.ResolveCampaign(campaignRef)
	if err != nil {
		return "", err
	}

	tmpDir, err := os.MkdirTemp("", "lorebook-push-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	name := archive.ArchiveName(c, a.service.Clock(), passphrase != "")
	res, err := a.Export(c.ID, filepath.Join(tmpDir, name), passphrase)
	if err != nil {
		return "", err
	}

	f, err := os.Open(res.Path)
	if err != nil {
		return "", fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()
	if err := v.PutArchive(name, f, res.Size); err != nil {
		return "", fmt.Errorf("uploading archive: %w", err)
	}
	a.logger.Info("archive pushed", "campaign", c.ID, "archive", name, "size", res.Size, "sha256", res.Checksum)
	return name, nil
}

// Pull fetches an archive from the vault and imports it.
func (a *LoreApp) Pull(name, passphrase string, confirm func(*model.Campaign) bool) (*archive.ImportResult, error) {
	v, err := a.getVault()
	if err != nil {
		return nil, err
	}
	if err := vault.ValidateArchiveName(name); err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp("", "lorebook-pull-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, name)
	if err := fetchArchive(v, name, path); err != nil {
		return nil, err
	}
	return a.Import(path, passphrase, confirm)
}

func fetchArchive(v lore.Vault, name, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating archive file: %w", err)
	}
	if err := v.GetArchive(name, f); err != nil {
		f.Close()
		return fmt.Errorf("downloading archive: %w", err)
	}
	return f.Close()
}

// ListArchives returns the archive names stored in the vault.
func (a *LoreApp) ListArchives() ([]string, error) {
	v, err := a.getVault()
	if err != nil {
		return nil, err
	}
	return v.ListArchives()
}

// RenderMap writes the campaign's place map as tab-separated rows.
func (a *LoreApp) RenderMap(w io.Writer, campaignRef string) error {
	c, err := a.ResolveCampaign(campaignRef)
	if err != nil {
		return err
	}
	m, err := a.service.PlaceMap(c.ID)
	if err != nil {
		return err
	}
	for _, n := range m.Nodes {
		parent := "-"
		if n.ParentID != "" {
			parent = n.ParentID
		}
		fmt.Fprintf(w, "node\t%s\t%s\t%s\tdepth=%d\tsize=%d\tx=%.1f\ty=%.1f\n",
			n.ID, n.Name, parent, n.Depth, n.SubtreeSize, n.X, n.Y)
	}
	for _, e := range m.Edges {
		style := "solid"
		if e.Dashed {
			style = "dashed"
		}
		fmt.Fprintf(w, "edge\t%s\t%s\t%s\n", e.From, e.To, style)
	}
	return nil
}

// Close finalizes the operation and closes all resources.
func (a *LoreApp) Close() error {
	var firstErr error

	a.logger.Debug("operation finished", "operation", a.op.Name, "parameters", a.op.Parameters, "status", a.op.Status)
	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
