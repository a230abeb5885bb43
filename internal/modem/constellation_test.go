package modem

import "testing"

func TestQPSKMapDemapRoundTrip(t *testing.T) {
	for idx := 0; idx < 4; idx++ {
		symbol := mapHard(idx)
		got := demapHard(symbol)
		if got != idx {
			t.Errorf("QPSK index %d: demapped to %d", idx, got)
		}
	}
}

func TestQPSKPointsUnitAveragePower(t *testing.T) {
	var avg float64
	for _, p := range qpskPoints {
		avg += real(p)*real(p) + imag(p)*imag(p)
	}
	avg /= float64(len(qpskPoints))
	if avg < 0.99 || avg > 1.01 {
		t.Errorf("average constellation power = %v, want ~1.0", avg)
	}
}

func TestDemapSoftSign(t *testing.T) {
	b0, b1 := demapSoft(mapHard(0), 1.0)
	if b0 <= 0 || b1 <= 0 {
		t.Errorf("point 0 soft bits should both be positive, got (%d, %d)", b0, b1)
	}
	b0, b1 = demapSoft(mapHard(2), 1.0)
	if b0 >= 0 || b1 >= 0 {
		t.Errorf("point 2 soft bits should both be negative, got (%d, %d)", b0, b1)
	}
}

func TestQuantizeSoftClamps(t *testing.T) {
	if got := quantizeSoft(1000); got != 127 {
		t.Errorf("quantizeSoft(1000) = %d, want 127", got)
	}
	if got := quantizeSoft(-1000); got != -127 {
		t.Errorf("quantizeSoft(-1000) = %d, want -127", got)
	}
}
