package deck

import "fmt"

// GenerationError reports metadata that cannot back a usable module:
// missing metadata, or an archetype binding that points outside the
// layout sequence. Generation is all-or-nothing; no partial descriptor
// is left behind.
type GenerationError struct {
	Reason string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("module generation failed: %s", e.Reason)
}

// ValidationError reports a generated operation called with input that
// violates its contract (empty required field).
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
