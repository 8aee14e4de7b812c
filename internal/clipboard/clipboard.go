package clipboard

import (
	"github.com/atotto/clipboard"
)

// Clipboard is the system clipboard as seen by sensclip.
type Clipboard interface {
	// Write replaces the primary clipboard content with text.
	Write(text string) error
	// Read returns the current clipboard text.
	Read() (string, error)
	// Clear empties the clipboard.
	Clear() error
}

// SensitiveWriter is implemented by clipboards that can flag content as
// private so clipboard managers and previews skip it.
type SensitiveWriter interface {
	WriteSensitive(text string) error
}

// System is the OS clipboard. It cannot tag content as sensitive, so callers
// fall back to a plain Write.
type System struct{}

// NewSystem returns the OS clipboard.
func NewSystem() *System {
	return &System{}
}

// Unsupported reports whether no clipboard utility is available on this host.
func (System) Unsupported() bool {
	return clipboard.Unsupported
}

func (System) Write(text string) error {
	return clipboard.WriteAll(text)
}

func (System) Read() (string, error) {
	return clipboard.ReadAll()
}

// Clear overwrites the clipboard with empty text; there is no portable
// dedicated clear primitive.
func (System) Clear() error {
	return clipboard.WriteAll("")
}
