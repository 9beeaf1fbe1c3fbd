// Package timing records how long named steps take and prints a summary.
package timing

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Entry is one recorded step.
type Entry struct {
	Name     string
	Duration time.Duration
}

// Recorder collects step durations. The zero value is ready to use and safe
// for concurrent use. Recording a name again replaces its duration but keeps
// its original position.
type Recorder struct {
	mu      sync.Mutex
	order   []string
	entries map[string]time.Duration
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record stores d under name. A nil recorder ignores the call.
func (r *Recorder) Record(name string, d time.Duration) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = make(map[string]time.Duration)
	}
	if _, ok := r.entries[name]; !ok {
		r.order = append(r.order, name)
	}
	r.entries[name] = d
}

// Track starts timing name and returns the function that stops it:
//
//	defer rec.Track("batch.Run")()
func (r *Recorder) Track(name string) func() {
	start := time.Now()
	return func() { r.Record(name, time.Since(start)) }
}

// Entries returns the recorded steps in first-record order.
func (r *Recorder) Entries() []Entry {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, Entry{Name: name, Duration: r.entries[name]})
	}
	return out
}

// Flush writes one "name(): 12.34 ms" line per step to w.
func (r *Recorder) Flush(w io.Writer) error {
	for _, e := range r.Entries() {
		ms := float64(e.Duration) / float64(time.Millisecond)
		if _, err := fmt.Fprintf(w, "%s(): %.2f ms\n", e.Name, ms); err != nil {
			return err
		}
	}
	return nil
}
