// Package archive exports campaigns to portable zip archives and imports
// them back under fresh ids.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"lorebook/internal/lore"
)

// FormatVersion is the manifest version written by Export. Import accepts
// this version only.
const FormatVersion = 1

const (
	manifestName = "manifest.json"
	imagePrefix  = "images/"
)

var (
	// ErrInvalidManifest means manifest.json is missing or malformed.
	ErrInvalidManifest = errors.New("invalid or missing manifest")

	// ErrVersionMismatch means the archive was written by an unsupported version.
	ErrVersionMismatch = errors.New("archive version not supported")

	// ErrUnsafePath means an archive entry would extract outside the scratch folder.
	ErrUnsafePath = errors.New("unsafe path in archive")

	// ErrImportDeclined means an overwrite was not confirmed.
	ErrImportDeclined = errors.New("import declined")

	// ErrPassphraseRequired means the archive is encrypted and no decryptor was given.
	ErrPassphraseRequired = errors.New("archive is encrypted; a passphrase is required")
)

// Manifest is the JSON document at the root of every archive.
type Manifest struct {
	Version    int       `json:"version"`
	ExportedAt time.Time `json:"exportedAt"`
	Game       Game      `json:"game"`

	Objects  []ObjectRecord  `json:"objects"`
	LinkTags []LinkTagRecord `json:"linkTags"`
	TagLinks []TagLinkRecord `json:"tagLinks"`
	Images   []ImageRecord   `json:"images"`

	Notes        []NoteRecord        `json:"notes,omitempty"`
	Labels       []LabelRecord       `json:"labels,omitempty"`
	ObjectLabels []ObjectLabelRecord `json:"objectLabels,omitempty"`
	Logs         []LogRecord         `json:"logs,omitempty"`
}

// Game identifies the exported campaign.
type Game struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ObjectRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	ParentID    *string   `json:"parent_id"`
	Description string    `json:"description"`
	Locked      bool      `json:"locked,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type LinkTagRecord struct {
	ID        string    `json:"id"`
	ObjectID  string    `json:"object_id,omitempty"` // owner
	CreatedAt time.Time `json:"created_at"`
}

type TagLinkRecord struct {
	TagID    string `json:"tag_id"`
	ObjectID string `json:"object_id"` // target
}

type ImageRecord struct {
	ID        string `json:"id"`
	ObjectID  string `json:"object_id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
	File      string `json:"file"` // archive-relative, empty if the file was unavailable
}

type NoteRecord struct {
	ID        string    `json:"id"`
	ObjectID  string    `json:"object_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type LabelRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ObjectLabelRecord struct {
	ObjectID string `json:"object_id"`
	LabelID  string `json:"label_id"`
}

type LogRecord struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReadManifest decodes and checks a manifest.
func ReadManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if m.Version != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, m.Version, FormatVersion)
	}
	if m.Game.ID == "" {
		return nil, fmt.Errorf("%w: game id is empty", ErrInvalidManifest)
	}
	if err := lore.CheckCampaignID(m.Game.ID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	return &m, nil
}

func writeManifest(w io.Writer, m *Manifest) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}
