package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// DefaultGracePeriod is how long a resolved entry lingers so that a burst
// of near-simultaneous callers still coalesces onto it.
const DefaultGracePeriod = 5 * time.Second

// pendingEntry is one in-flight (or recently resolved) request shared by
// every caller with the same key.
type pendingEntry struct {
	done      chan struct{}
	resp      *Response
	err       error
	createdAt time.Time
}

// Deduplicator wraps a Client so concurrent identical read requests share
// a single network call. Write requests always pass straight through.
type Deduplicator struct {
	client *Client
	grace  time.Duration

	mu      sync.Mutex
	pending map[string]*pendingEntry
}

// NewDeduplicator wraps client with request coalescing. grace <= 0 uses
// DefaultGracePeriod.
func NewDeduplicator(client *Client, grace time.Duration) *Deduplicator {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	return &Deduplicator{
		client:  client,
		grace:   grace,
		pending: make(map[string]*pendingEntry),
	}
}

// Key derives the deduplication identity for a descriptor.
func Key(d Descriptor) string {
	body := ""
	if d.Body != nil {
		if data, err := json.Marshal(d.Body); err == nil {
			body = string(data)
		}
	}
	return fmt.Sprintf("%s %s %s", d.Method, d.Path, body)
}

// dedupable reports whether the request has no side effects and may be
// coalesced.
func dedupable(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

// Do executes the descriptor, joining an existing in-flight call when one
// exists for the same key. All joiners observe the identical outcome. A
// joiner whose own ctx is canceled leaves early without disturbing the
// shared call.
func (dd *Deduplicator) Do(ctx context.Context, d Descriptor) (*Response, error) {
	if !dedupable(d.Method) {
		return dd.client.Do(ctx, d)
	}

	key := Key(d)

	dd.mu.Lock()
	if entry, ok := dd.pending[key]; ok {
		dd.mu.Unlock()
		return dd.wait(ctx, entry)
	}

	entry := &pendingEntry{done: make(chan struct{}), createdAt: time.Now()}
	dd.pending[key] = entry
	dd.mu.Unlock()

	// Detach the shared call from the first caller's cancellation so a
	// single impatient caller cannot fail everyone else.
	go func() {
		resp, err := dd.client.Do(context.WithoutCancel(ctx), d)
		entry.resp = resp
		entry.err = err
		close(entry.done)

		// Keep the resolved entry around for the grace window, then
		// drop it so stale outcomes are not served indefinitely.
		time.AfterFunc(dd.grace, func() {
			dd.mu.Lock()
			if dd.pending[key] == entry {
				delete(dd.pending, key)
			}
			dd.mu.Unlock()
		})
	}()

	return dd.wait(ctx, entry)
}

func (dd *Deduplicator) wait(ctx context.Context, entry *pendingEntry) (*Response, error) {
	select {
	case <-ctx.Done():
		return nil, &Error{Code: CodeCanceled, Message: ctx.Err().Error()}
	case <-entry.done:
		return entry.resp, entry.err
	}
}

// DoJSON executes the descriptor through the deduplicator and decodes the
// response body into out.
func (dd *Deduplicator) DoJSON(ctx context.Context, d Descriptor, out any) error {
	resp, err := dd.Do(ctx, d)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &Error{Code: CodeUnknown, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

// PendingCount reports how many entries are currently tracked. Used by
// diagnostics and tests.
func (dd *Deduplicator) PendingCount() int {
	dd.mu.Lock()
	defer dd.mu.Unlock()
	return len(dd.pending)
}
