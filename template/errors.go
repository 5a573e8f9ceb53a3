package template

import "fmt"

// TemplateReadError reports a template file that is missing, is not a
// valid presentation container, or whose parts cannot be read.
type TemplateReadError struct {
	Path string
	Err  error
}

func (e *TemplateReadError) Error() string {
	return fmt.Sprintf("cannot read template %s: %v", e.Path, e.Err)
}

func (e *TemplateReadError) Unwrap() error {
	return e.Err
}

// StructuralError reports a template whose layout or placeholder
// structure violates the extraction invariants (duplicate placeholder
// names, unknown placeholder types, unparseable geometry). Extraction
// fails as a whole rather than dropping the offending entry.
type StructuralError struct {
	Layout string
	Reason string
}

func (e *StructuralError) Error() string {
	if e.Layout == "" {
		return fmt.Sprintf("template structure invalid: %s", e.Reason)
	}
	return fmt.Sprintf("template structure invalid in layout %q: %s", e.Layout, e.Reason)
}

func readErr(path string, format string, args ...interface{}) error {
	return &TemplateReadError{Path: path, Err: fmt.Errorf(format, args...)}
}
