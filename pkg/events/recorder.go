package events

import (
	"context"
	"encoding/json"
	"sync"
)

// Recorder keeps published events in memory. Used by tests and by the
// memory-backed server to expose what would have been sent.
type Recorder struct {
	mu     sync.Mutex
	events []Envelope
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, subject string, key string, payload any) error {
	data, err := encode(subject, key, payload)
	if err != nil {
		return err
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	r.mu.Lock()
	r.events = append(r.events, env)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Close() error { return nil }

// Subjects lists recorded subjects in publish order.
func (r *Recorder) Subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Subject
	}
	return out
}

func (r *Recorder) Events() []Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Envelope(nil), r.events...)
}
