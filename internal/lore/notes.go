package lore

import (
	"fmt"
	"strings"

	"lorebook/internal/model"
)

// Notes

func (s *Service) AddNote(objectID, body string) (*model.Note, error) {
	if err := checkInput("note", textInput{Body: strings.TrimSpace(body)}); err != nil {
		return nil, err
	}
	if _, err := s.GetObject(objectID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	n := &model.Note{
		ID:        s.idgen.NewID("note"),
		ObjectID:  objectID,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.database.CreateNote(n); err != nil {
		return nil, fmt.Errorf("creating note: %w", err)
	}
	return n, nil
}

func (s *Service) ListNotes(objectID string) ([]*model.Note, error) {
	if _, err := s.GetObject(objectID); err != nil {
		return nil, err
	}
	notes, err := s.database.ListNotes(objectID)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	return notes, nil
}

func (s *Service) UpdateNote(noteID, body string) error {
	if err := checkInput("note", textInput{Body: strings.TrimSpace(body)}); err != nil {
		return err
	}
	if _, err := s.getNote(noteID); err != nil {
		return err
	}
	if err := s.database.UpdateNote(noteID, body, s.clock.Now()); err != nil {
		return fmt.Errorf("updating note: %w", err)
	}
	return nil
}

func (s *Service) DeleteNote(noteID string) error {
	if _, err := s.getNote(noteID); err != nil {
		return err
	}
	if err := s.database.SoftDeleteNote(noteID, s.clock.Now()); err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	return nil
}

func (s *Service) getNote(id string) (*model.Note, error) {
	n, err := s.database.FindNote(id)
	if err != nil {
		return nil, fmt.Errorf("finding note: %w", err)
	}
	if n == nil {
		return nil, notFound("note", id)
	}
	return n, nil
}

// Labels

// CreateLabel adds a category label to a campaign. Label names are unique per
// campaign, ignoring case.
func (s *Service) CreateLabel(campaignID, name string) (*model.Label, error) {
	name, err := cleanName("label name", name)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetCampaign(campaignID); err != nil {
		return nil, err
	}
	existing, err := s.database.FindLabelByName(campaignID, name)
	if err != nil {
		return nil, fmt.Errorf("finding label: %w", err)
	}
	if existing != nil {
		return nil, duplicate(name)
	}

	l := &model.Label{
		ID:         s.idgen.NewID(name),
		CampaignID: campaignID,
		Name:       name,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.database.CreateLabel(l); err != nil {
		return nil, fmt.Errorf("creating label: %w", err)
	}
	return l, nil
}

func (s *Service) ListLabels(campaignID string) ([]*model.Label, error) {
	if _, err := s.GetCampaign(campaignID); err != nil {
		return nil, err
	}
	labels, err := s.database.ListLabels(campaignID)
	if err != nil {
		return nil, fmt.Errorf("listing labels: %w", err)
	}
	return labels, nil
}

// AttachLabel attaches a label to an object of the same campaign.
// Attaching twice is a no-op.
func (s *Service) AttachLabel(objectID, labelID string) error {
	o, err := s.GetObject(objectID)
	if err != nil {
		return err
	}
	l, err := s.database.FindLabel(labelID)
	if err != nil {
		return fmt.Errorf("finding label: %w", err)
	}
	if l == nil || l.CampaignID != o.CampaignID {
		return notFound("label", labelID)
	}
	if err := s.database.AttachLabel(objectID, labelID, s.clock.Now()); err != nil {
		return fmt.Errorf("attaching label: %w", err)
	}
	return nil
}

func (s *Service) DetachLabel(objectID, labelID string) error {
	o, err := s.GetObject(objectID)
	if err != nil {
		return err
	}
	l, err := s.database.FindLabel(labelID)
	if err != nil {
		return fmt.Errorf("finding label: %w", err)
	}
	if l == nil || l.CampaignID != o.CampaignID {
		return notFound("label", labelID)
	}
	if err := s.database.DetachLabel(objectID, labelID); err != nil {
		return fmt.Errorf("detaching label: %w", err)
	}
	return nil
}

func (s *Service) ObjectLabels(objectID string) ([]*model.Label, error) {
	if _, err := s.GetObject(objectID); err != nil {
		return nil, err
	}
	labels, err := s.database.ListObjectLabels(objectID)
	if err != nil {
		return nil, fmt.Errorf("listing object labels: %w", err)
	}
	return labels, nil
}

// Session logs

func (s *Service) AddLog(campaignID, title, body string) (*model.LogEntry, error) {
	title, err := cleanName("log title", title)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetCampaign(campaignID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	e := &model.LogEntry{
		ID:         s.idgen.NewID(title),
		CampaignID: campaignID,
		Title:      title,
		Body:       body,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.database.CreateLog(e); err != nil {
		return nil, fmt.Errorf("creating log: %w", err)
	}
	return e, nil
}

// ListLogs returns the campaign's session logs, newest first.
func (s *Service) ListLogs(campaignID string) ([]*model.LogEntry, error) {
	if _, err := s.GetCampaign(campaignID); err != nil {
		return nil, err
	}
	logs, err := s.database.ListLogs(campaignID)
	if err != nil {
		return nil, fmt.Errorf("listing logs: %w", err)
	}
	return logs, nil
}

func (s *Service) DeleteLog(logID string) error {
	e, err := s.database.FindLog(logID)
	if err != nil {
		return fmt.Errorf("finding log: %w", err)
	}
	if e == nil {
		return notFound("log entry", logID)
	}
	if err := s.database.SoftDeleteLog(logID, s.clock.Now()); err != nil {
		return fmt.Errorf("deleting log: %w", err)
	}
	return nil
}
