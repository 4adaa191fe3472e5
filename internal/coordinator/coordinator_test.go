package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"kingo/internal/apperror"
	"kingo/internal/cachestore"
	"kingo/internal/constants"
	"kingo/internal/credential"
	"kingo/internal/extractor"
	"kingo/internal/history"
)

type fakeFetcher struct {
	fn func(ctx context.Context, id string, cred credential.Credential, onProgress func(extractor.Progress)) (string, error)
}

func (f *fakeFetcher) Fetch(ctx context.Context, id string, cred credential.Credential, onProgress func(extractor.Progress)) (string, error) {
	return f.fn(ctx, id, cred, onProgress)
}

type fakeCredentialSource struct{ chain []credential.Credential }

func (f *fakeCredentialSource) OrderedCredentials() []credential.Credential { return f.chain }

func newTestCoordinator(t *testing.T, ext fetcher, creds credentialSource) *Coordinator {
	t.Helper()
	if creds == nil {
		creds = &fakeCredentialSource{}
	}
	return &Coordinator{
		hubs:        make(map[string]*hub),
		extractor:   ext,
		credentials: creds,
		cache:       cachestore.New(t.TempDir(), 10, zerolog.Nop()),
		history:     history.Open(t.TempDir()+"/history.db", zerolog.Nop()),
		baseURL:     func() string { return "http://127.0.0.1:15123" },
		log:         zerolog.Nop(),
	}
}

func drainEvents(sub Subscription, timeout time.Duration) []Event {
	var events []Event
	deadline := time.After(timeout)
	for {
		select {
		case e, ok := <-sub.Events:
			if !ok {
				return events
			}
			events = append(events, e)
		case <-deadline:
			return events
		}
	}
}

func TestStartOrSubscribe_SingleLaunchFanOut(t *testing.T) {
	calls := 0
	ext := &fakeFetcher{fn: func(ctx context.Context, id string, cred credential.Credential, onProgress func(extractor.Progress)) (string, error) {
		calls++
		onProgress(extractor.Progress{VideoID: id, Status: constants.StatusDownloading})
		return "/cache/" + id + ".webm", nil
	}}

	c := newTestCoordinator(t, ext, nil)

	sub1 := c.StartOrSubscribe("vid1")
	sub2 := c.StartOrSubscribe("vid1")

	events1 := drainEvents(sub1, 2*time.Second)
	events2 := drainEvents(sub2, 2*time.Second)

	if calls != 1 {
		t.Fatalf("extractor invoked %d times, want 1 (registry dedup)", calls)
	}
	if len(events1) == 0 || events1[len(events1)-1].Status != constants.StatusCompleted {
		t.Fatalf("sub1 terminal event = %+v, want completed", events1)
	}
	if len(events2) == 0 || events2[len(events2)-1].Status != constants.StatusCompleted {
		t.Fatalf("sub2 terminal event = %+v, want completed", events2)
	}
}

func TestAcquire_RetriesOnAgeRestriction(t *testing.T) {
	var attempts []string
	ext := &fakeFetcher{fn: func(ctx context.Context, id string, cred credential.Credential, onProgress func(extractor.Progress)) (string, error) {
		attempts = append(attempts, cred.String())
		if cred.Kind == credential.KindNone {
			return "", apperror.NewWithCode("fake", apperror.ErrAgeRestricted, apperror.CodeAgeRestrictedExhaust, "age restricted")
		}
		return "/cache/" + id + ".webm", nil
	}}
	creds := &fakeCredentialSource{chain: []credential.Credential{credential.Browser("chrome")}}

	c := newTestCoordinator(t, ext, creds)
	sub := c.StartOrSubscribe("vid2")
	events := drainEvents(sub, 2*time.Second)

	if len(attempts) < 2 {
		t.Fatalf("attempts = %v, want at least 2 (bare + one credential)", attempts)
	}
	if len(events) == 0 || events[len(events)-1].Status != constants.StatusCompleted {
		t.Fatalf("terminal event = %+v, want completed after retry", events)
	}
}

func TestAcquire_ExhaustsCredentials(t *testing.T) {
	ext := &fakeFetcher{fn: func(ctx context.Context, id string, cred credential.Credential, onProgress func(extractor.Progress)) (string, error) {
		return "", apperror.NewWithCode("fake", apperror.ErrAgeRestricted, apperror.CodeAgeRestrictedExhaust, "age restricted")
	}}
	creds := &fakeCredentialSource{chain: []credential.Credential{credential.Browser("chrome")}}

	c := newTestCoordinator(t, ext, creds)
	sub := c.StartOrSubscribe("vid3")
	events := drainEvents(sub, 2*time.Second)

	if len(events) == 0 {
		t.Fatal("expected at least one event")
	}
	last := events[len(events)-1]
	if last.Status != constants.StatusError {
		t.Fatalf("terminal event = %+v, want error after exhausting credentials", last)
	}
}

func TestAcquire_NonAgeRestrictedFailureStopsImmediately(t *testing.T) {
	calls := 0
	ext := &fakeFetcher{fn: func(ctx context.Context, id string, cred credential.Credential, onProgress func(extractor.Progress)) (string, error) {
		calls++
		return "", apperror.NewWithCode("fake", apperror.ErrExtractorFailed, apperror.CodeNetwork, "network blip")
	}}
	creds := &fakeCredentialSource{chain: []credential.Credential{credential.Browser("chrome")}}

	c := newTestCoordinator(t, ext, creds)
	sub := c.StartOrSubscribe("vid4")
	events := drainEvents(sub, 2*time.Second)

	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on a non-age-restriction failure)", calls)
	}
	if len(events) == 0 || events[len(events)-1].Status != constants.StatusError {
		t.Fatalf("terminal event = %+v, want error", events)
	}
}
