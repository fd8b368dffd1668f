package domain

import "time"

// WindowSize is the number of recent samples the dashboard retains.
const WindowSize = 20

// Sample is one synthetic sensor reading.
type Sample struct {
	Timestamp   time.Time `json:"timestamp"`
	Vibration   float64   `json:"vibration"`   // g
	Stress      float64   `json:"stress"`      // MPa
	Temperature float64   `json:"temperature"` // °C
	Humidity    float64   `json:"humidity"`    // %
}

// SampleWindow is a fixed-capacity FIFO ring of the most recent samples.
// It is a value type: copying a window copies its contents.
type SampleWindow struct {
	buf   [WindowSize]Sample
	start int
	n     int
}

// Push appends s, evicting the oldest sample once the window is full.
func (w *SampleWindow) Push(s Sample) {
	if w.n < WindowSize {
		w.buf[(w.start+w.n)%WindowSize] = s
		w.n++
		return
	}
	w.buf[w.start] = s
	w.start = (w.start + 1) % WindowSize
}

// Len returns the number of retained samples.
func (w SampleWindow) Len() int { return w.n }

// Samples returns the retained samples, oldest first.
func (w SampleWindow) Samples() []Sample {
	out := make([]Sample, w.n)
	for i := range w.n {
		out[i] = w.buf[(w.start+i)%WindowSize]
	}
	return out
}

// Latest returns the newest sample, if any.
func (w SampleWindow) Latest() (Sample, bool) {
	if w.n == 0 {
		return Sample{}, false
	}
	return w.buf[(w.start+w.n-1)%WindowSize], true
}
