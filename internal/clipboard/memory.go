package clipboard

import "sync"

// Memory is an in-process clipboard. It backs tests and the "memory" backend.
type Memory struct {
	mu        sync.Mutex
	text      string
	sensitive bool
	writes    int
	clears    int
}

// NewMemory returns an empty in-process clipboard. When sensitiveCapable is
// true the returned value also implements SensitiveWriter.
func NewMemory(sensitiveCapable bool) Clipboard {
	m := &Memory{}
	if sensitiveCapable {
		return &SensitiveMemory{Memory: m}
	}
	return m
}

func (m *Memory) Write(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	m.sensitive = false
	m.writes++
	return nil
}

func (m *Memory) Read() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = ""
	m.sensitive = false
	m.clears++
	return nil
}

// Sensitive reports whether the live content was written as sensitive.
func (m *Memory) Sensitive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sensitive
}

// Stats returns how many writes and clears the clipboard has seen.
func (m *Memory) Stats() (writes, clears int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes, m.clears
}

// SensitiveMemory is a Memory that supports sensitivity tagging.
type SensitiveMemory struct {
	*Memory
}

func (m *SensitiveMemory) WriteSensitive(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	m.sensitive = true
	m.writes++
	return nil
}
