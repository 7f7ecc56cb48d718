package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func allLevels(w *bytes.Buffer) []sink {
	return []sink{{w: w, level: slog.LevelDebug}}
}

func TestLineHandler_Handle(t *testing.T) {
	ts := time.Date(2024, 6, 15, 14, 30, 45, 0, time.UTC)

	tests := []struct {
		name    string
		opID    string
		level   slog.Level
		message string
		attrs   []slog.Attr
		want    string
	}{
		{
			name:    "basic info message",
			opID:    "20240615T143045Z",
			level:   slog.LevelInfo,
			message: "campaign created",
			want:    "2024-06-15T14:30:45Z\tINFO\t20240615T143045Z\tcampaign created\n",
		},
		{
			name:    "debug level",
			opID:    "op-456",
			level:   slog.LevelDebug,
			message: "operation finished",
			want:    "2024-06-15T14:30:45Z\tDEBUG\top-456\toperation finished\n",
		},
		{
			name:    "with record attrs",
			opID:    "op-789",
			level:   slog.LevelInfo,
			message: "image added",
			attrs:   []slog.Attr{slog.String("object", "p0000001_town"), slog.Int("count", 42)},
			want:    "2024-06-15T14:30:45Z\tINFO\top-789\timage added\tobject=p0000001_town\tcount=42\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &lineHandler{sinks: allLevels(&buf), opID: tt.opID}

			r := slog.NewRecord(ts, tt.level, tt.message, 0)
			for _, a := range tt.attrs {
				r.AddAttrs(a)
			}

			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}

			if got := buf.String(); got != tt.want {
				t.Errorf("Handle() output =\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestLineHandler_SinkLevels(t *testing.T) {
	var file, console bytes.Buffer
	level := new(slog.LevelVar)
	h := &lineHandler{sinks: []sink{{w: &file, level: level}, {w: &console, level: slog.LevelWarn}}}
	logger := slog.New(h)

	logger.Debug("hidden")
	logger.Info("to file")
	logger.Warn("everywhere")

	if strings.Contains(file.String(), "hidden") {
		t.Errorf("debug line written at info level: %q", file.String())
	}
	if !strings.Contains(file.String(), "to file") || !strings.Contains(file.String(), "everywhere") {
		t.Errorf("file output = %q, want info and warn lines", file.String())
	}
	if strings.Contains(console.String(), "to file") || !strings.Contains(console.String(), "everywhere") {
		t.Errorf("console output = %q, want only the warn line", console.String())
	}

	level.Set(slog.LevelDebug)
	logger.Debug("now visible")
	if !strings.Contains(file.String(), "now visible") {
		t.Errorf("debug line missing after level change: %q", file.String())
	}
}

func TestLineHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := &lineHandler{sinks: allLevels(&buf), opID: "op-1"}

	// Add pre-set attrs
	h2 := h.WithAttrs([]slog.Attr{slog.String("component", "archive")}).(*lineHandler)

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := slog.NewRecord(ts, slog.LevelInfo, "export", 0)
	r.AddAttrs(slog.String("campaign", "abc"))

	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "component=archive") {
		t.Errorf("expected pre-set attr component=archive, got: %q", got)
	}
	if !strings.Contains(got, "campaign=abc") {
		t.Errorf("expected record attr campaign=abc, got: %q", got)
	}
}

func TestLineHandler_WithAttrs_doesNotMutateOriginal(t *testing.T) {
	h := &lineHandler{opID: "op-1", attrs: []slog.Attr{slog.String("a", "1")}}

	h2 := h.WithAttrs([]slog.Attr{slog.String("b", "2")}).(*lineHandler)

	if len(h.attrs) != 1 {
		t.Errorf("original handler attrs modified: got %d, want 1", len(h.attrs))
	}
	if len(h2.attrs) != 2 {
		t.Errorf("new handler attrs: got %d, want 2", len(h2.attrs))
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")
	var console bytes.Buffer

	logger, f, err := newLogger(dir, "test-op", slog.LevelInfo, &console)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	logger.Info("hello", "k", "v")
	f.Close()

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "\ttest-op\thello\tk=v\n") {
		t.Errorf("log file = %q", data)
	}
	if console.Len() != 0 {
		t.Errorf("info line reached the console: %q", console.String())
	}
}
