package clock

import (
	"testing"
	"time"
)

func TestFakeAdvanceFiresInDueOrder(t *testing.T) {
	c := NewFake(time.Unix(0, 0))

	var fired []string
	c.AfterFunc(3*time.Second, func() { fired = append(fired, "c") })
	c.AfterFunc(1*time.Second, func() { fired = append(fired, "a") })
	c.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })

	c.Advance(time.Second)
	if len(fired) != 1 || fired[0] != "a" {
		t.Fatalf("after 1s fired = %v, want [a]", fired)
	}

	c.Advance(5 * time.Second)
	want := []string{"a", "b", "c"}
	if len(fired) != len(want) {
		t.Fatalf("fired = %v, want %v", fired, want)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Fatalf("fired = %v, want %v", fired, want)
		}
	}
	if c.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", c.Pending())
	}
}

func TestFakeStop(t *testing.T) {
	c := NewFake(time.Unix(0, 0))

	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	if !timer.Stop() {
		t.Fatal("Stop() = false on a pending timer, want true")
	}
	if timer.Stop() {
		t.Error("second Stop() = true, want false")
	}

	c.Advance(time.Minute)
	if fired {
		t.Error("stopped timer fired")
	}
}

func TestFakeNonPositiveDelayFiresOnNextAdvance(t *testing.T) {
	tests := []struct {
		name  string
		delay time.Duration
	}{
		{name: "zero", delay: 0},
		{name: "negative", delay: -5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewFake(time.Unix(100, 0))
			fired := false
			c.AfterFunc(tt.delay, func() { fired = true })
			if fired {
				t.Fatalf("AfterFunc(%v) fired before Advance", tt.delay)
			}
			c.Advance(0)
			if !fired {
				t.Errorf("AfterFunc(%v) did not fire on Advance(0)", tt.delay)
			}
			if got := c.Now(); !got.Equal(time.Unix(100, 0)) {
				t.Errorf("Now() = %v, clock should not move", got)
			}
		})
	}
}
