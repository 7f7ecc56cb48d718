package app

import (
	"errors"
	"testing"
	"time"

	"lorebook/internal/testutil"
)

func TestNewOperation(t *testing.T) {
	tests := []struct {
		name   string
		opName string
		at     time.Time
		wantID string
	}{
		{
			name:   "utc clock",
			opName: "ExportCampaign",
			at:     time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
			wantID: "20240115T103000Z",
		},
		{
			name:   "non-utc clock is normalized",
			opName: "ImportCampaign",
			at:     time.Date(2024, 1, 15, 12, 30, 0, 0, time.FixedZone("CEST", 2*60*60)),
			wantID: "20240115T103000Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := NewOperation(tt.opName, testutil.NewStubClock(tt.at))

			if op.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", op.ID, tt.wantID)
			}
			if op.Name != tt.opName {
				t.Errorf("Name = %q, want %q", op.Name, tt.opName)
			}
			if op.Status != "success" {
				t.Errorf("Status = %q, want %q", op.Status, "success")
			}
		})
	}
}

func TestOperation_Fail(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error keeps success", err: nil, want: false},
		{name: "error marks failure", err: errors.New("boom"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := NewOperation("AddImage", testutil.FixedClock())
			op.Fail(tt.err)
			if got := op.Failed(); got != tt.want {
				t.Errorf("Failed() = %v, want %v", got, tt.want)
			}
		})
	}
}
