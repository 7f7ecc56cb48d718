package testutil

import (
	"fmt"
	"sync"
	"time"

	"lorebook/internal/lore"
)

// StubClock returns a fixed time. Safe for concurrent use.
type StubClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewStubClock creates a StubClock set to the given time.
func NewStubClock(t time.Time) *StubClock {
	return &StubClock{now: t}
}

// FixedClock returns a StubClock set to 2024-01-15 10:30:00 UTC.
func FixedClock() *StubClock {
	return NewStubClock(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))
}

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *StubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// StubIDGenerator returns sequential ids. Prefixes are "p0000001",
// "p0000002", ...; campaign ids are "campaign-1", "campaign-2", ...
type StubIDGenerator struct {
	mu        sync.Mutex
	prefixes  int
	campaigns int
}

func NewStubIDGenerator() *StubIDGenerator {
	return &StubIDGenerator{}
}

func (g *StubIDGenerator) NewPrefix() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prefixes++
	return fmt.Sprintf("p%07d", g.prefixes)
}

func (g *StubIDGenerator) NewID(name string) string {
	prefix := g.NewPrefix()
	if slug := lore.Slugify(name); slug != "" {
		return prefix + "_" + slug
	}
	return prefix
}

func (g *StubIDGenerator) NewCampaignID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.campaigns++
	return fmt.Sprintf("campaign-%d", g.campaigns)
}

var (
	_ lore.Clock       = (*StubClock)(nil)
	_ lore.IDGenerator = (*StubIDGenerator)(nil)
)
