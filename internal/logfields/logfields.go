package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeySection    = "section"
	KeySymbol     = "symbol"
	KeyNamespace  = "namespace"
	KeyKind       = "kind"
	KeyPath       = "path"
	KeyDirectory  = "directory"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr        { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Section(s string) slog.Attr       { return slog.String(KeySection, s) }
func Symbol(s string) slog.Attr        { return slog.String(KeySymbol, s) }
func Namespace(ns string) slog.Attr    { return slog.String(KeyNamespace, ns) }
func Kind(k string) slog.Attr          { return slog.String(KeyKind, k) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Directory(d string) slog.Attr     { return slog.String(KeyDirectory, d) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
