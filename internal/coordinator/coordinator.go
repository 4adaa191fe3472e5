// Package coordinator is the Download Coordinator (C4): it deduplicates
// concurrent requests for the same video id, owns each id's progress
// broadcast, and drives the extractor/credential retry chain.
package coordinator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"kingo/internal/apperror"
	"kingo/internal/cachestore"
	"kingo/internal/constants"
	"kingo/internal/credential"
	"kingo/internal/extractor"
	"kingo/internal/history"
)

// Event is a single progress update delivered to subscribers; it reuses the
// extractor's wire shape since C1's events pass through C4 largely as-is,
// with the terminal completed/already-exists/error events added by the
// coordinator itself.
type Event = extractor.Progress

// fetcher is the slice of *extractor.Client the coordinator needs. Declaring
// it here (rather than depending on the concrete type) lets tests drive the
// state machine with a fake that never shells out to a real binary.
type fetcher interface {
	Fetch(ctx context.Context, videoID string, cred credential.Credential, onProgress func(extractor.Progress)) (string, error)
}

// credentialSource is the slice of *credential.Resolver the coordinator
// needs.
type credentialSource interface {
	OrderedCredentials() []credential.Credential
}

// notifier is the slice of *notify.Notifier the coordinator needs. Declared
// as a nil-friendly interface: SetNotifier is optional, and a nil notifier
// is never called.
type notifier interface {
	Completed(videoID, url string)
	Failed(videoID, message string)
}

// Coordinator implements the in-flight registry and state machine described
// in §4.4: Idle -> Launching -> Running -> Idle, with concurrent requests
// for a Running id folded into the same broadcast.
type Coordinator struct {
	mu   sync.Mutex
	hubs map[string]*hub
	sf   singleflight.Group

	extractor   fetcher
	credentials credentialSource
	cache       *cachestore.Store
	history     *history.Ledger
	notify      notifier
	baseURL     func() string
	log         zerolog.Logger
}

// New builds a Coordinator. baseURL returns the current "http://host:port"
// prefix used to build the completed event's public file URL; it is a func
// rather than a string so a future config-driven port change is picked up
// without reconstructing the coordinator.
func New(ext *extractor.Client, creds *credential.Resolver, cache *cachestore.Store, hist *history.Ledger, baseURL func() string, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		hubs:        make(map[string]*hub),
		extractor:   ext,
		credentials: creds,
		cache:       cache,
		history:     hist,
		baseURL:     baseURL,
		log:         log,
	}
}

// SetNotifier wires a desktop-toast sink for terminal acquisition events.
// Optional: a Coordinator with no notifier set simply skips the toast.
func (c *Coordinator) SetNotifier(n notifier) {
	c.notify = n
}

// Subscription is a live handle on an id's progress stream.
type Subscription struct {
	Events <-chan Event
	Close  func()
}

// StartOrSubscribe implements the registry transition described in §4.4: a
// cache miss on a fresh id spawns exactly one acquisition task regardless of
// how many callers race in; every caller for the same id while it is
// Running receives a subscription to the same broadcast. A subscription
// created mid-stream may miss earlier events — callers must tolerate that.
func (c *Coordinator) StartOrSubscribe(id string) Subscription {
	c.mu.Lock()
	h, exists := c.hubs[id]
	if !exists {
		h = newHub()
		c.hubs[id] = h
	}
	sub := h.subscribe()
	shouldLaunch := !exists
	c.mu.Unlock()

	if shouldLaunch {
		go c.run(id, h)
	}

	return Subscription{Events: sub.ch, Close: func() { h.unsubscribe(sub.id) }}
}

// run executes the acquisition task for id and tears down its registry
// entry on any terminal outcome. It never receives the HTTP request's
// context: per §4.4 there is no cancellation of an in-flight acquisition,
// so the child process always runs to completion once launched.
func (c *Coordinator) run(id string, h *hub) {
	defer func() {
		c.mu.Lock()
		delete(c.hubs, id)
		c.mu.Unlock()
		h.closeAll()
	}()

	requestedAt := time.Now()
	ctx := context.Background()

	// singleflight.Do keys acquire by id: a second run for the same id that
	// entered Do while this call is still inside it would share this call's
	// result instead of launching another child process. The hub-presence
	// check in StartOrSubscribe is what prevents a second run in the first
	// place; this Do returns before the deferred registry removal above.
	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		return c.acquire(ctx, id, h)
	})

	finishedAt := time.Now()

	if err != nil {
		ae := apperror.CodeOf(err)
		h.publish(Event{VideoID: id, Status: constants.StatusError, Message: strPtr(err.Error())})
		c.history.Record(history.Attempt{
			VideoID:     id,
			RequestedAt: requestedAt,
			FinishedAt:  finishedAt,
			Outcome:     string(ae),
			ErrorText:   err.Error(),
		})
		if c.notify != nil {
			c.notify.Failed(id, err.Error())
		}
		return
	}

	path := result.(string)

	// Best-effort eviction pass; a failure here never affects the
	// acquisition's own success.
	if pruneErr := c.cache.Prune(); pruneErr != nil {
		c.log.Warn().Err(pruneErr).Msg("coordinator: prune after acquisition failed")
	}

	var size int64
	if info, statErr := os.Stat(path); statErr == nil {
		size = info.Size()
	}

	url := c.fileURL(path)
	h.publish(Event{VideoID: id, Status: constants.StatusCompleted, Message: strPtr(url)})
	c.history.Record(history.Attempt{
		VideoID:     id,
		RequestedAt: requestedAt,
		FinishedAt:  finishedAt,
		Outcome:     constants.StatusCompleted,
		Bytes:       size,
	})
	if c.notify != nil {
		c.notify.Completed(id, url)
	}
}

// acquire drives the C1 -> C2 -> C1 retry chain: a bare attempt first, then
// each credential from the resolver in order on age-restriction failure.
func (c *Coordinator) acquire(ctx context.Context, id string, h *hub) (string, error) {
	h.publish(Event{VideoID: id, Status: constants.StatusChecking, Message: strPtr("starting")})

	path, err := c.extractor.Fetch(ctx, id, credential.None(), func(p extractor.Progress) {
		h.publish(p)
	})
	if err == nil {
		return path, nil
	}
	if !apperror.IsAgeRestricted(err) {
		return "", err
	}

	chain := c.credentials.OrderedCredentials()
	for _, cred := range chain {
		h.publish(Event{VideoID: id, Status: constants.StatusChecking, Message: strPtr("retrying with " + cred.String())})

		path, err = c.extractor.Fetch(ctx, id, cred, func(p extractor.Progress) {
			h.publish(p)
		})
		if err == nil {
			return path, nil
		}
		if !apperror.IsAgeRestricted(err) {
			return "", err
		}
	}

	return "", apperror.NewWithCode("coordinator.acquire", apperror.ErrCredentialsExhausted,
		apperror.CodeAgeRestrictedExhaust,
		"this video is age-restricted and no configured credential could unlock it; configure a cookies file")
}

func (c *Coordinator) fileURL(path string) string {
	return fmt.Sprintf("%s/video/files/%s", c.baseURL(), filepath.Base(path))
}

func strPtr(s string) *string { return &s }
