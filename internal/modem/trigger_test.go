package modem

import "testing"

func TestMovingSumF64TracksWindow(t *testing.T) {
	var m movingSumF64
	var last float64
	for i := 0; i < matchLength; i++ {
		last = m.push(1)
	}
	if last != float64(matchLength) {
		t.Fatalf("sum of %d ones = %v, want %v", matchLength, last, matchLength)
	}
	// one more push should displace the oldest 1, sum unchanged
	if got := m.push(1); got != float64(matchLength) {
		t.Fatalf("steady-state sum = %v, want %v", got, matchLength)
	}
	if got := m.push(0); got != float64(matchLength-1) {
		t.Fatalf("sum after pushing 0 = %v, want %v", got, matchLength-1)
	}
}

func TestSchmittTriggerHysteresis(t *testing.T) {
	s := newSchmittTrigger(1, 2)
	if s.push(0) {
		t.Fatal("should start low")
	}
	if !s.push(3) {
		t.Fatal("should go high above the high threshold")
	}
	if !s.push(1.5) {
		t.Fatal("should stay high between thresholds")
	}
	if s.push(0.5) {
		t.Fatal("should go low below the low threshold")
	}
}

func TestFallingEdgeTriggerFiresOnce(t *testing.T) {
	var f fallingEdgeTrigger
	if f.push(true) {
		t.Fatal("rising edge should not fire")
	}
	if !f.push(false) {
		t.Fatal("falling edge should fire")
	}
	if f.push(false) {
		t.Fatal("should not re-fire while staying low")
	}
}

func TestDelayLineDelaysByCapacity(t *testing.T) {
	var d delayLineF64
	n := len(d.window)
	for i := 0; i < n; i++ {
		if got := d.push(float64(i)); got != 0 {
			t.Fatalf("push %d: got %v before buffer primed, want 0", i, got)
		}
	}
	if got := d.push(float64(n)); got != 0 {
		t.Fatalf("push %d: got %v, want 0 (the first pushed sample)", n, got)
	}
}
