package viewmodel

import "fmt"

type WarningKind string

const (
	WarningTimestamp WarningKind = "timestamp"
	WarningJSON      WarningKind = "json"
	WarningNumber    WarningKind = "number"
)

// ParseWarning records a malformed upstream value that was replaced by a safe default.
type ParseWarning struct {
	Field string      `json:"field"`
	Kind  WarningKind `json:"kind"`
	Raw   string      `json:"raw"`
}

func (w ParseWarning) String() string {
	return fmt.Sprintf("%s: unparsable %s %q", w.Field, w.Kind, w.Raw)
}

// Result carries a converted value together with the fallbacks applied while converting it.
type Result[T any] struct {
	Value    T              `json:"value"`
	Warnings []ParseWarning `json:"warnings,omitempty"`
}

// Incomplete reports whether any field of the value was substituted with a default.
func (r Result[T]) Incomplete() bool {
	return len(r.Warnings) > 0
}

type warnings struct {
	list []ParseWarning
}

func (w *warnings) add(field string, warning *ParseWarning) {
	if warning == nil {
		return
	}
	warning.Field = field
	w.list = append(w.list, *warning)
}

func (w *warnings) addf(field string, kind WarningKind, raw interface{}) {
	w.list = append(w.list, ParseWarning{Field: field, Kind: kind, Raw: rawString(raw)})
}

func newResult[T any](value T, w *warnings) Result[T] {
	return Result[T]{Value: value, Warnings: w.list}
}
