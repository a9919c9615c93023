package dct

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Fast computes the DCT-II of each row and column with a single real FFT
// of the same length (Makhoul's reordering), O(n^2 log n) per block.
//
// For a length-n signal s, the even samples are placed in order at the
// front and the odd samples reversed at the back:
//
//	v[k] = s[2k], v[n-1-k] = s[2k+1]
//
// and then
//
//	X[k] = scale(k) * Re(exp(-i*pi*k/(2n)) * V[k]),  V = DFT(v)
//
// The inverse rebuilds V[k] = exp(i*pi*k/(2n)) * (Y[k] - i*Y[n-k]) and
// undoes the reordering after the inverse FFT.
type Fast struct {
	mu    sync.Mutex
	pools map[int]*sync.Pool
}

// NewFast returns a Fast transform with an empty plan cache.
func NewFast() *Fast {
	return &Fast{pools: make(map[int]*sync.Pool)}
}

func (f *Fast) Name() string {
	return "fast"
}

// Forward2D transforms rows then columns.
func (f *Fast) Forward2D(dst, src []float64, n int) []float64 {
	checkBlock(src, n)
	dst = alloc(dst, n*n)
	p := f.acquire(n)
	defer f.release(p)

	for y := 0; y < n; y++ {
		offset := y * n
		p.forward(dst[offset:offset+n], src[offset:offset+n])
	}
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			p.col[y] = dst[y*n+x]
		}
		p.forward(p.out, p.col)
		for y := 0; y < n; y++ {
			dst[y*n+x] = p.out[y]
		}
	}
	return dst
}

// Inverse2D undoes Forward2D: columns first, then rows.
func (f *Fast) Inverse2D(dst, src []float64, n int) []float64 {
	checkBlock(src, n)
	dst = alloc(dst, n*n)
	p := f.acquire(n)
	defer f.release(p)

	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			p.col[y] = src[y*n+x]
		}
		p.inverse(p.out, p.col)
		for y := 0; y < n; y++ {
			dst[y*n+x] = p.out[y]
		}
	}
	for y := 0; y < n; y++ {
		offset := y * n
		copy(p.col, dst[offset:offset+n])
		p.inverse(dst[offset:offset+n], p.col)
	}
	return dst
}

// acquire returns a plan for length n. gonum FFT values keep work buffers,
// so each plan is used by one goroutine at a time.
func (f *Fast) acquire(n int) *fastPlan {
	f.mu.Lock()
	pool, ok := f.pools[n]
	if !ok {
		pool = &sync.Pool{New: func() any { return newFastPlan(n) }}
		f.pools[n] = pool
	}
	f.mu.Unlock()
	return pool.Get().(*fastPlan)
}

func (f *Fast) release(p *fastPlan) {
	f.mu.Lock()
	pool := f.pools[p.n]
	f.mu.Unlock()
	pool.Put(p)
}

// fastPlan holds the FFT, twiddles and scratch space for one length.
type fastPlan struct {
	n     int
	fft   *fourier.FFT // nil when n == 1
	scale []float64    // sqrt(2/n) * alpha(k)
	cos   []float64    // cos(pi*k/(2n))
	sin   []float64    // sin(pi*k/(2n))
	v     []float64
	freq  []complex128
	col   []float64
	out   []float64
}

func newFastPlan(n int) *fastPlan {
	p := &fastPlan{
		n:     n,
		scale: make([]float64, n),
		cos:   make([]float64, n),
		sin:   make([]float64, n),
		v:     make([]float64, n),
		freq:  make([]complex128, n/2+1),
		col:   make([]float64, n),
		out:   make([]float64, n),
	}
	if n > 1 {
		p.fft = fourier.NewFFT(n)
	}
	norm := math.Sqrt(2 / float64(n))
	for k := 0; k < n; k++ {
		p.scale[k] = norm * alpha(k)
		theta := math.Pi * float64(k) / float64(2*n)
		p.cos[k] = math.Cos(theta)
		p.sin[k] = math.Sin(theta)
	}
	return p
}

func (p *fastPlan) forward(dst, src []float64) {
	n := p.n
	if n == 1 {
		dst[0] = src[0]
		return
	}
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			p.v[i/2] = src[i]
		} else {
			p.v[n-1-i/2] = src[i]
		}
	}
	p.fft.Coefficients(p.freq, p.v)

	half := n / 2
	for k := 0; k < n; k++ {
		// V[k] for k > n/2 follows from conjugate symmetry of a real input.
		re, im := 0.0, 0.0
		if k <= half {
			re, im = real(p.freq[k]), imag(p.freq[k])
		} else {
			re, im = real(p.freq[n-k]), -imag(p.freq[n-k])
		}
		dst[k] = p.scale[k] * (re*p.cos[k] + im*p.sin[k])
	}
}

func (p *fastPlan) inverse(dst, src []float64) {
	n := p.n
	if n == 1 {
		dst[0] = src[0]
		return
	}
	for k := 0; k <= n/2; k++ {
		yk := src[k] / p.scale[k]
		ynk := 0.0
		if k > 0 {
			ynk = src[n-k] / p.scale[n-k]
		}
		p.freq[k] = complex(yk, -ynk) * complex(p.cos[k], p.sin[k])
	}
	p.fft.Sequence(p.v, p.freq)

	inv := 1 / float64(n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			dst[i] = p.v[i/2] * inv
		} else {
			dst[i] = p.v[n-1-i/2] * inv
		}
	}
}
