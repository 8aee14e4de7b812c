package clipboard

import "testing"

func TestMemoryWriteReadClear(t *testing.T) {
	cb := NewMemory(false)

	if err := cb.Write("hunter2"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got, err := cb.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != "hunter2" {
		t.Errorf("Read() = %q, want %q", got, "hunter2")
	}

	// Clearing twice leaves the clipboard empty both times.
	for i := 0; i < 2; i++ {
		if err := cb.Clear(); err != nil {
			t.Fatalf("Clear() #%d error = %v", i+1, err)
		}
		got, _ = cb.Read()
		if got != "" {
			t.Errorf("Read() after Clear() #%d = %q, want empty", i+1, got)
		}
	}

	writes, clears := cb.(*Memory).Stats()
	if writes != 1 || clears != 2 {
		t.Errorf("Stats() = (%d, %d), want (1, 2)", writes, clears)
	}
}

func TestNewMemorySensitiveCapability(t *testing.T) {
	tests := []struct {
		name    string
		capable bool
	}{
		{name: "plain", capable: false},
		{name: "sensitive capable", capable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := NewMemory(tt.capable)
			_, ok := cb.(SensitiveWriter)
			if ok != tt.capable {
				t.Errorf("implements SensitiveWriter = %v, want %v", ok, tt.capable)
			}
		})
	}
}

func TestSensitiveMemoryTagging(t *testing.T) {
	cb := NewMemory(true).(*SensitiveMemory)

	if err := cb.WriteSensitive("secret"); err != nil {
		t.Fatalf("WriteSensitive() error = %v", err)
	}
	if !cb.Sensitive() {
		t.Error("Sensitive() = false after WriteSensitive")
	}

	if err := cb.Write("public"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if cb.Sensitive() {
		t.Error("Sensitive() = true after plain Write")
	}

	_ = cb.WriteSensitive("secret")
	_ = cb.Clear()
	if cb.Sensitive() {
		t.Error("Sensitive() = true after Clear")
	}
}

func TestSystemImplementsClipboard(t *testing.T) {
	var _ Clipboard = NewSystem()
	if _, ok := interface{}(NewSystem()).(SensitiveWriter); ok {
		t.Error("System must not claim sensitivity tagging")
	}
}
