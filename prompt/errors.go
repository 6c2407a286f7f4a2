package prompt

import "fmt"

// MissingVariableError is returned when a template references a variable that
// is absent from the supplied values.
type MissingVariableError struct {
	Name string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("prompt: missing variable %q", e.Name)
}

// MalformedRoleError is returned when a role tuple uses a role string that
// does not match any known alias. Custom roles must be constructed explicitly
// via NewCustomRoleTemplate.
type MalformedRoleError struct {
	Role string
}

func (e *MalformedRoleError) Error() string {
	return fmt.Sprintf("prompt: unrecognized message role %q", e.Role)
}

// UnsupportedContentError is returned when a content block has no
// recognizable shape.
type UnsupportedContentError struct {
	Detail string
}

func (e *UnsupportedContentError) Error() string {
	return "prompt: unsupported content: " + e.Detail
}

// FileReadError is returned when an image path block references an unreadable
// file.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("prompt: cannot read image file %q: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error {
	return e.Err
}

// InputShapeError is returned when a bare message list is passed to a
// template that does not have exactly one placeholder to bind it to.
type InputShapeError struct {
	Placeholders int
}

func (e *InputShapeError) Error() string {
	return fmt.Sprintf("prompt: message list input requires exactly one placeholder, template has %d", e.Placeholders)
}
