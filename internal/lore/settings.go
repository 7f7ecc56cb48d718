package lore

import (
	"encoding/json"
	"fmt"

	"lorebook/internal/model"
)

// LoggingSettingName holds the logging configuration, e.g. {"level":"debug"}.
const LoggingSettingName = "logging"

// LoggingSetting is the value stored under LoggingSettingName.
type LoggingSetting struct {
	Level string `json:"level"`
}

// GetSetting decodes the named setting into out. found is false when the
// setting has never been written; out is left untouched in that case.
func (s *Service) GetSetting(name string, out any) (found bool, err error) {
	st, err := s.database.FindSetting(name)
	if err != nil {
		return false, fmt.Errorf("finding setting: %w", err)
	}
	if st == nil {
		return false, nil
	}
	if err := json.Unmarshal(st.Value, out); err != nil {
		return true, fmt.Errorf("decoding setting %q: %w", name, err)
	}
	return true, nil
}

// SetSetting stores value as JSON under name.
func (s *Service) SetSetting(name string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding setting %q: %w", name, err)
	}
	return s.SetRawSetting(name, raw)
}

// SetRawSetting stores an already-encoded JSON value under name.
func (s *Service) SetRawSetting(name string, raw json.RawMessage) error {
	if err := checkInput("setting", settingInput{Name: name, Value: raw}); err != nil {
		return err
	}
	if !json.Valid(raw) {
		return invalid("setting %q is not valid JSON", name)
	}

	now := s.clock.Now()
	st := &model.Setting{
		ID:        s.idgen.NewID(name),
		Name:      name,
		Value:     raw,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.database.UpsertSetting(st); err != nil {
		return fmt.Errorf("writing setting: %w", err)
	}
	return nil
}

// DeleteSetting removes a live setting. Unknown names are ErrNotFound.
func (s *Service) DeleteSetting(name string) error {
	st, err := s.database.FindSetting(name)
	if err != nil {
		return fmt.Errorf("finding setting: %w", err)
	}
	if st == nil {
		return notFound("setting", name)
	}
	if err := s.database.SoftDeleteSetting(name, s.clock.Now()); err != nil {
		return fmt.Errorf("deleting setting: %w", err)
	}
	return nil
}

// ListSettings returns live settings ordered by name.
func (s *Service) ListSettings() ([]*model.Setting, error) {
	settings, err := s.database.ListSettings()
	if err != nil {
		return nil, fmt.Errorf("listing settings: %w", err)
	}
	return settings, nil
}
