package events

import (
	"context"
	"encoding/json"
	"sync"
)

type Message struct {
	Topic string
	Key   string
	Value map[string]any
}

// Recorder keeps published events in memory. Handy for tests and local runs.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
}

func (r *Recorder) PublishEvent(_ context.Context, topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	var v map[string]any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, Message{Topic: topic, Key: key, Value: v})
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Messages(topic string) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Message, 0, len(r.msgs))
	for _, m := range r.msgs {
		if topic == "" || m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}
