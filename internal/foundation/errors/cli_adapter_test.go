package errors

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad flag").Build(), expected: 2},
		{name: "render", err: RenderError("page failed").Build(), expected: 3},
		{name: "not found", err: NotFoundError("missing symbol").Build(), expected: 4},
		{name: "config", err: ConfigError("bad config").Build(), expected: 7},
		{name: "library", err: LibraryError("parse failed").Build(), expected: 8},
		{name: "collision", err: CollisionError("same path").Build(), expected: 11},
		{name: "wrapped classified", err: fmt.Errorf("run: %w", ConfigError("bad").Build()), expected: 7},
		{name: "unclassified error", err: errors.New("unknown error"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, nil)
	if got := quiet.FormatError(InternalError("boom").Build()); !strings.Contains(got, "use -v") {
		t.Errorf("expected internal errors to be hidden without -v, got %q", got)
	}
	if got := quiet.FormatError(ConfigError("missing dirname").Build()); !strings.Contains(got, "missing dirname") {
		t.Errorf("expected config error message, got %q", got)
	}

	verbose := NewCLIErrorAdapter(true, nil)
	if got := verbose.FormatError(InternalError("boom").Build()); !strings.Contains(got, "boom") {
		t.Errorf("expected verbose output to include message, got %q", got)
	}
	if quiet.FormatError(nil) != "" {
		t.Error("expected empty string for nil error")
	}
}

func TestCLIErrorAdapter_LogsContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	adapter := NewCLIErrorAdapter(false, logger)

	adapter.logError(NotFoundError("symbol not found").WithContext("symbol", "Run").Build())

	out := buf.String()
	if !strings.Contains(out, "category=not_found") || !strings.Contains(out, "symbol=Run") {
		t.Errorf("expected category and context in log output, got %q", out)
	}
}
