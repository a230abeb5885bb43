package modem

import "math"

// SamplesToFloat32 converts float64 samples to float32 for audio output.
func SamplesToFloat32(samples []float64) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s)
	}
	return out
}

// Float32ToSamples converts float32 audio input to float64 for processing.
func Float32ToSamples(samples []float32) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s)
	}
	return out
}

// ApplyAGC applies Automatic Gain Control to normalize signal level.
// Host-side pre-conditioning, independent of the decoder's own
// per-sample block-DC removal in Frontend.
func ApplyAGC(samples []float64, targetRMS float64) []float64 {
	if len(samples) == 0 {
		return samples
	}

	var sumSq float64
	for _, s := range samples {
		sumSq += s * s
	}
	rms := math.Sqrt(sumSq / float64(len(samples)))

	if rms < 1e-10 {
		return samples
	}

	gain := targetRMS / rms
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s * gain
	}
	return out
}
