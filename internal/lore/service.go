package lore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lorebook/internal/model"
)

// Logger provides structured logging for the service layer.
// The args follow slog conventions: alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NopLogger discards all output. Use in tests.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}

// Service implements the campaign operations on top of a Database.
// It holds no cached rows: every call reads the current state, so two
// services on the same file behave as last-write-wins.
type Service struct {
	database    Database
	images      ImagePipeline
	projectRoot string
	logger      Logger
	clock       Clock
	idgen       IDGenerator
}

// NewService creates a Service. projectRoot is where per-campaign image
// folders are allocated; an empty root is rejected with ErrNoProject.
func NewService(database Database, images ImagePipeline, projectRoot string, logger Logger, clock Clock, idgen IDGenerator) (*Service, error) {
	if projectRoot == "" {
		return nil, ErrNoProject
	}
	return &Service{
		database:    database,
		images:      images,
		projectRoot: projectRoot,
		logger:      logger,
		clock:       clock,
		idgen:       idgen,
	}, nil
}

// IDs exposes the id generator for collaborators such as the importer.
func (s *Service) IDs() IDGenerator { return s.idgen }

// Clock exposes the service clock.
func (s *Service) Clock() Clock { return s.clock }

// CampaignDir is the on-disk folder of a campaign. It is keyed by the
// immutable campaign id so renames never move image files.
func (s *Service) CampaignDir(campaignID string) string {
	return filepath.Join(s.projectRoot, "campaigns", campaignID)
}

// ImageDir holds original image files of a campaign.
func (s *Service) ImageDir(campaignID string) string {
	return filepath.Join(s.CampaignDir(campaignID), "images")
}

// ThumbDir holds generated thumbnails of a campaign.
func (s *Service) ThumbDir(campaignID string) string {
	return filepath.Join(s.CampaignDir(campaignID), "thumbs")
}

// CheckCampaignID rejects ids that cannot be used as a single folder name.
func CheckCampaignID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || filepath.Base(id) != id {
		return invalid("campaign id %q is not a plain name", id)
	}
	return nil
}

// EnsureCampaignDirs creates the images/ and thumbs/ folders of a campaign.
func (s *Service) EnsureCampaignDirs(campaignID string) error {
	if err := CheckCampaignID(campaignID); err != nil {
		return err
	}
	for _, dir := range []string{s.ImageDir(campaignID), s.ThumbDir(campaignID)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating campaign folder: %w", err)
		}
	}
	return nil
}

// CreateCampaign creates a campaign, its folders and its root object.
func (s *Service) CreateCampaign(name string) (*model.Campaign, error) {
	name, err := cleanName("campaign name", name)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	c := &model.Campaign{
		ID:        s.idgen.NewCampaignID(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.database.CreateCampaign(c); err != nil {
		return nil, fmt.Errorf("creating campaign: %w", err)
	}
	if err := s.EnsureCampaignDirs(c.ID); err != nil {
		return nil, err
	}
	if _, err := s.createRoot(c); err != nil {
		return nil, err
	}

	s.logger.Info("campaign created", "campaign", c.ID, "name", c.Name)
	return c, nil
}

// GetCampaign returns a live campaign or ErrNotFound.
func (s *Service) GetCampaign(id string) (*model.Campaign, error) {
	c, err := s.database.FindCampaign(id)
	if err != nil {
		return nil, fmt.Errorf("finding campaign: %w", err)
	}
	if c == nil {
		return nil, notFound("campaign", id)
	}
	return c, nil
}

// FindCampaignAnyState returns a campaign even if it was soft-deleted,
// or nil when the id was never used.
func (s *Service) FindCampaignAnyState(id string) (*model.Campaign, error) {
	c, err := s.database.FindCampaignAnyState(id)
	if err != nil {
		return nil, fmt.Errorf("finding campaign: %w", err)
	}
	return c, nil
}

// ListCampaigns returns live campaigns ordered by name.
func (s *Service) ListCampaigns() ([]*model.Campaign, error) {
	campaigns, err := s.database.ListCampaigns()
	if err != nil {
		return nil, fmt.Errorf("listing campaigns: %w", err)
	}
	return campaigns, nil
}

// RenameCampaign renames a campaign and its root object.
func (s *Service) RenameCampaign(id, name string) error {
	name, err := cleanName("campaign name", name)
	if err != nil {
		return err
	}
	if _, err := s.GetCampaign(id); err != nil {
		return err
	}

	now := s.clock.Now()
	if err := s.database.UpdateCampaignName(id, name, now); err != nil {
		return fmt.Errorf("renaming campaign: %w", err)
	}

	root, err := s.EnsureRoot(id)
	if err != nil {
		return err
	}
	root.Name = name
	root.UpdatedAt = now
	if err := s.database.UpdateObject(root); err != nil {
		return fmt.Errorf("renaming campaign root: %w", err)
	}

	s.logger.Info("campaign renamed", "campaign", id, "name", name)
	return nil
}

// DeleteCampaign soft-deletes a campaign. Its rows and files stay in place.
func (s *Service) DeleteCampaign(id string) error {
	if _, err := s.GetCampaign(id); err != nil {
		return err
	}
	if err := s.database.SoftDeleteCampaign(id, s.clock.Now()); err != nil {
		return fmt.Errorf("deleting campaign: %w", err)
	}
	s.logger.Info("campaign deleted", "campaign", id)
	return nil
}

// CampaignBundle reconciles link data and returns every live row of the
// campaign, ready for export.
func (s *Service) CampaignBundle(campaignID string) (*model.CampaignBundle, error) {
	if _, err := s.GetCampaign(campaignID); err != nil {
		return nil, err
	}
	if _, err := s.CleanupLinkData(); err != nil {
		return nil, err
	}
	b, err := s.database.LoadCampaignBundle(campaignID)
	if err != nil {
		return nil, fmt.Errorf("loading campaign: %w", err)
	}
	return b, nil
}

// ReplaceCampaign writes an imported bundle over any existing rows with the
// same campaign id, then restores the tree and link invariants.
func (s *Service) ReplaceCampaign(b *model.CampaignBundle) error {
	if err := s.EnsureCampaignDirs(b.Campaign.ID); err != nil {
		return err
	}
	if err := s.database.ReplaceCampaign(b); err != nil {
		return fmt.Errorf("replacing campaign: %w", err)
	}
	if _, err := s.EnsureRoot(b.Campaign.ID); err != nil {
		return err
	}
	if _, err := s.CleanupLinkData(); err != nil {
		return err
	}
	s.logger.Info("campaign replaced", "campaign", b.Campaign.ID, "objects", len(b.Objects))
	return nil
}
