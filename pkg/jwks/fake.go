package jwks

import (
	"context"
	"sync"
)

// Compile-time check that FakeSource implements KeySource
var _ KeySource = (*FakeSource)(nil)

// FakeResponse is one canned answer of a FakeSource
type FakeResponse struct {
	Keys []Key
	Err  error
}

// FakeSource is a KeySource for tests. It replays its responses in order and
// keeps returning the last one once the queue is exhausted.
type FakeSource struct {
	mu        sync.Mutex
	responses []FakeResponse
	calls     int

	// OnFetch, if set, runs at the start of every FetchKeys call
	OnFetch func(ctx context.Context)
}

// NewFakeSource creates a fake source replaying responses
func NewFakeSource(responses ...FakeResponse) *FakeSource {
	return &FakeSource{responses: responses}
}

// NewFakeSourceWithKeys creates a fake source that always returns keys
func NewFakeSourceWithKeys(keys ...Key) *FakeSource {
	return NewFakeSource(FakeResponse{Keys: keys})
}

// Push appends responses to the replay queue
func (f *FakeSource) Push(responses ...FakeResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, responses...)
}

// Calls reports how many times FetchKeys was called
func (f *FakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// FetchKeys returns the next canned response
func (f *FakeSource) FetchKeys(ctx context.Context) ([]Key, error) {
	if f.OnFetch != nil {
		f.OnFetch(ctx)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if len(f.responses) == 0 {
		return nil, ErrKeyLookupFailed
	}

	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp.Keys, resp.Err
}
