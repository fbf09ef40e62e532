package backoff

import (
	"testing"
	"time"
)

func TestFixedDelay(t *testing.T) {
	p := Fixed{Base: time.Second, Max: 30 * time.Second}
	for attempt := 1; attempt <= 10; attempt++ {
		if got := p.Delay(attempt); got != time.Second {
			t.Errorf("Delay(%d) = %v, want 1s", attempt, got)
		}
	}
}

func TestFixedClampedToMax(t *testing.T) {
	p := Fixed{Base: time.Minute, Max: 5 * time.Second}
	if got := p.Delay(1); got != 5*time.Second {
		t.Errorf("Delay(1) = %v, want 5s", got)
	}
}

func TestExponentialGrowth(t *testing.T) {
	p := Exponential{Base: time.Second, Max: time.Hour}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
	}

	for _, tt := range tests {
		if got := p.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestExponentialMonotonicUnderCap(t *testing.T) {
	p := Exponential{Base: 500 * time.Millisecond, Max: 10 * time.Second}

	prev := time.Duration(0)
	for attempt := 1; attempt <= 20; attempt++ {
		d := p.Delay(attempt)
		if d < prev {
			t.Fatalf("Delay(%d) = %v decreased from %v", attempt, d, prev)
		}
		if d > p.Max {
			t.Fatalf("Delay(%d) = %v exceeds max %v", attempt, d, p.Max)
		}
		prev = d
	}

	if prev != p.Max {
		t.Errorf("delay never reached max, got %v", prev)
	}
}

func TestExponentialAttemptBelowOne(t *testing.T) {
	p := Exponential{Base: time.Second, Max: time.Minute}
	if got := p.Delay(0); got != time.Second {
		t.Errorf("Delay(0) = %v, want base", got)
	}
}
