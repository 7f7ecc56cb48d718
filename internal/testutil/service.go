package testutil

import (
	"testing"

	"lorebook/internal/lore"
)

// TestService bundles a Service with the stubs it was built from.
type TestService struct {
	*lore.Service
	DB          lore.Database
	Time        *StubClock
	IDGen       *StubIDGenerator
	ProjectRoot string
}

// NewTestService creates a Service over an in-memory database and a temp
// project directory, using the real image pipeline.
func NewTestService(t *testing.T) *TestService {
	return NewTestServiceWithImages(t, NewTestImagePipeline())
}

// NewTestServiceWithImages is NewTestService with a custom image pipeline.
func NewTestServiceWithImages(t *testing.T, pipeline lore.ImagePipeline) *TestService {
	t.Helper()

	db := NewTestDatabase(t)
	clock := FixedClock()
	ids := NewStubIDGenerator()
	root := t.TempDir()

	svc, err := lore.NewService(db, pipeline, root, lore.NopLogger{}, clock, ids)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return &TestService{Service: svc, DB: db, Time: clock, IDGen: ids, ProjectRoot: root}
}
