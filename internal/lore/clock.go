package lore

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/text/unicode/norm"
)

// Clock abstracts time retrieval so business logic is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// IDGenerator abstracts identifier generation so tests are deterministic.
type IDGenerator interface {
	// NewID returns a random prefix joined to a slug of name.
	NewID(name string) string

	// NewPrefix returns a fresh random prefix of PrefixLength characters.
	NewPrefix() string

	// NewCampaignID returns a globally unique campaign identifier.
	NewCampaignID() string
}

// PrefixLength is the number of random characters in an id prefix.
const PrefixLength = 8

const prefixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// maxSlugLength bounds the slug half of generated ids.
const maxSlugLength = 40

// NanoIDGenerator produces nanoid prefixes and UUID campaign ids.
type NanoIDGenerator struct{}

func (NanoIDGenerator) NewPrefix() string {
	return gonanoid.MustGenerate(prefixAlphabet, PrefixLength)
}

func (g NanoIDGenerator) NewID(name string) string {
	slug := Slugify(name)
	if slug == "" {
		return g.NewPrefix()
	}
	return g.NewPrefix() + "_" + slug
}

func (NanoIDGenerator) NewCampaignID() string { return uuid.New().String() }

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	multipleHyphens = regexp.MustCompile(`-+`)
)

// Slugify converts a name to a lowercase ASCII slug.
// "The Rusty Flagon" -> "the-rusty-flagon", "Café Noir" -> "cafe-noir".
func Slugify(s string) string {
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)
	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = multipleHyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLength {
		s = strings.TrimRight(s[:maxSlugLength], "-")
	}
	return s
}
