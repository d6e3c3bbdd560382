package filter

import (
	"github.com/tphakala/simd/f64"
)

// Apply filters x causally with FIR kernel h and writes the result to dst.
// The signal history before x[0] is taken as zero, so the output has the
// same length as the input and carries the filter's full group delay.
//
// dst and x must have equal length; dst may not alias x.
func Apply(dst, x, h []float64) {
	m := len(h)
	if m == 0 || len(x) == 0 {
		copy(dst, x)
		return
	}

	// f64.ConvolveValid computes y[n] = Σ x[n+k]·h[k] (correlation form).
	// Zero-padding the front of the signal by m-1 samples and reversing the
	// kernel turns it into the causal convolution y[n] = Σ h[k]·x[n-k].
	padded := make([]float64, len(x)+m-1)
	copy(padded[m-1:], x)

	reversed := make([]float64, m)
	for i := range m {
		reversed[i] = h[m-1-i]
	}

	convolveValid(dst[:len(x)], padded, reversed)
}

// ZeroPhase filters x forward then backward with FIR kernel h, writing the
// result to dst. The two passes cancel each other's group delay, so the net
// phase shift is zero and the effective magnitude response is |H|².
//
// dst and x must have equal length; dst may not alias x.
func ZeroPhase(dst, x, h []float64) {
	n := len(x)
	forward := make([]float64, n)
	Apply(forward, x, h)
	reverse(forward)

	Apply(dst, forward, h)
	reverse(dst[:n])
}

// GroupDelay returns the group delay in samples of a symmetric
// linear-phase FIR filter: half the filter order.
func GroupDelay(h []float64) int {
	if len(h) == 0 {
		return 0
	}
	return (len(h) - 1) / 2
}

// ShiftLeft shifts x left by delay samples in place, repeating the last
// value into the vacated tail. Used to compensate causal filtering lag on
// derived gain sequences; the repeated tail is an accepted approximation.
func ShiftLeft(x []float64, delay int) {
	n := len(x)
	if n == 0 || delay <= 0 {
		return
	}
	if delay >= n {
		delay = n - 1
	}
	copy(x, x[delay:])
	last := x[n-delay-1]
	for i := n - delay; i < n; i++ {
		x[i] = last
	}
}

// MovingAverage smooths x with a centered moving average of the given window
// and writes the result to dst. Window is clamped to [1, len(x)]. This is the
// fallback smoother when FIR design fails for a requested band.
func MovingAverage(dst, x []float64, window int) {
	n := len(x)
	if window < 1 {
		window = 1
	}
	if window > n {
		window = n
	}
	half := window / 2

	// Running sum over a sliding window with clamped edges.
	sum := 0.0
	count := 0
	for i := 0; i < half && i < n; i++ {
		sum += x[i]
		count++
	}
	for i := range n {
		if i+half < n {
			sum += x[i+half]
			count++
		}
		dst[i] = sum / float64(count)
		if i-half >= 0 {
			sum -= x[i-half]
			count--
		}
	}
}

// convolveValid computes the valid correlation of signal with kernel,
// dispatching to FFT convolution for long kernels where O(N log N)
// beats direct SIMD convolution.
func convolveValid(dst, signal, kernel []float64) {
	if len(kernel) < minKernelForFFT {
		f64.ConvolveValid(dst, signal, kernel)
		return
	}

	conv := newFFTConvolver(kernel)
	if conv != nil {
		conv.convolve(dst, signal)
	}
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
