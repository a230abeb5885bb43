package modem

import "testing"

func TestRingBufferFillsAndViewsInOrder(t *testing.T) {
	var r RingBuffer
	if r.Full() {
		t.Fatal("empty ring buffer reports Full")
	}
	for i := 0; i < BufferLength; i++ {
		r.Push(complex(float64(i), 0))
	}
	if !r.Full() {
		t.Fatal("ring buffer should be full after BufferLength pushes")
	}
	view := r.View()
	for i, v := range view {
		if real(v) != float64(i) {
			t.Fatalf("view[%d] = %v, want %v", i, v, i)
		}
	}
}

func TestRingBufferSlidesWindow(t *testing.T) {
	var r RingBuffer
	for i := 0; i < BufferLength+5; i++ {
		r.Push(complex(float64(i), 0))
	}
	view := r.View()
	if real(view[0]) != 5 {
		t.Fatalf("oldest sample in view = %v, want 5", real(view[0]))
	}
	if real(view[len(view)-1]) != float64(BufferLength+4) {
		t.Fatalf("newest sample in view = %v, want %v", real(view[len(view)-1]), BufferLength+4)
	}
}
