package modem

// RingBuffer is a fixed-capacity sliding window of recent complex
// samples ("bip buffer"): once full it exposes a contiguous view of
// the most recent BufferLength samples anchored at the current head.
// The backing array is allocated once; Push never allocates.
type RingBuffer struct {
	samples [BufferLength]complex128
	scratch [BufferLength]complex128
	head    int
	count   int
}

// Push admits one complex sample, overwriting the oldest once full.
func (r *RingBuffer) Push(c complex128) {
	r.samples[r.head] = c
	r.head = (r.head + 1) % BufferLength
	if r.count < BufferLength {
		r.count++
	}
}

// Full reports whether at least BufferLength samples have been pushed.
func (r *RingBuffer) Full() bool {
	return r.count == BufferLength
}

// View returns a contiguous ordered slice of the most recent
// BufferLength samples, oldest first. It is only meaningful once Full
// reports true. The returned slice aliases r.samples (when the head is
// at index 0) or r.scratch, and is only valid until the next Push or
// View call.
func (r *RingBuffer) View() []complex128 {
	if r.head == 0 {
		return r.samples[:]
	}
	n := copy(r.scratch[:], r.samples[r.head:])
	copy(r.scratch[n:], r.samples[:r.head])
	return r.scratch[:]
}
