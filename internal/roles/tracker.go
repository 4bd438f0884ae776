package roles

import (
	"context"
	"sync"
	"time"

	"github.com/marketingreboot/reboot-api/internal/models"
)

// ProfileFetcher materializes the profile for an identity. Implementations
// return nil on any failure instead of an error.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, identity *models.Identity) *models.Profile
}

// State is a snapshot of the tracked session. While Loading is true the
// facts are the restrictive defaults and consumers must not act on them.
type State struct {
	Identity *models.Identity
	Profile  *models.Profile
	Facts    Facts
	Loading  bool
}

// Tracker recomputes facts whenever the session identity changes. Each
// change starts a fetch tagged with a sequence number; a result is applied
// only if no later change (or Close) has happened since it started.
type Tracker struct {
	fetcher ProfileFetcher
	seeds   Seeds
	timeout time.Duration

	// pubMu serializes state changes with their delivery so subscribers
	// observe snapshots in the order they were applied.
	pubMu  sync.Mutex
	mu     sync.Mutex
	seq    uint64
	closed bool
	state  State
	subs   map[int]func(State)
	nextID int
}

func NewTracker(fetcher ProfileFetcher, seeds Seeds, timeout time.Duration) *Tracker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Tracker{
		fetcher: fetcher,
		seeds:   seeds,
		timeout: timeout,
		subs:    make(map[int]func(State)),
	}
}

// State returns the current snapshot.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Subscribe registers fn to receive every new snapshot. The returned func
// removes the subscription. fn must not call HandleIdentity or Close.
func (t *Tracker) Subscribe(fn func(State)) func() {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

// HandleIdentity is the session change handler. A nil identity settles
// immediately; otherwise the tracker enters the loading state and fetches
// the profile in the background.
func (t *Tracker) HandleIdentity(identity *models.Identity) {
	t.pubMu.Lock()
	defer t.pubMu.Unlock()

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.seq++
	seq := t.seq

	if identity == nil {
		t.state = State{}
		subs := t.snapshotSubs()
		state := t.state
		t.mu.Unlock()
		publish(subs, state)
		return
	}

	t.state = State{
		Identity: identity,
		Facts:    Resolve(identity, nil, t.seeds),
		Loading:  true,
	}
	subs := t.snapshotSubs()
	state := t.state
	t.mu.Unlock()
	publish(subs, state)

	go t.fetch(seq, identity)
}

func (t *Tracker) fetch(seq uint64, identity *models.Identity) {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	profile := t.fetcher.FetchProfile(ctx, identity)

	var access *models.ProfileAccess
	if profile != nil {
		access = profile.Access()
	}

	t.pubMu.Lock()
	defer t.pubMu.Unlock()

	t.mu.Lock()
	if t.closed || seq != t.seq {
		t.mu.Unlock()
		return
	}
	t.state = State{
		Identity: identity,
		Profile:  profile,
		Facts:    Resolve(identity, access, t.seeds),
		Loading:  false,
	}
	subs := t.snapshotSubs()
	state := t.state
	t.mu.Unlock()
	publish(subs, state)
}

// Close discards any in-flight fetch and stops delivering updates.
func (t *Tracker) Close() {
	t.pubMu.Lock()
	defer t.pubMu.Unlock()

	t.mu.Lock()
	t.closed = true
	t.seq++
	t.subs = make(map[int]func(State))
	t.mu.Unlock()
}

func (t *Tracker) snapshotSubs() []func(State) {
	subs := make([]func(State), 0, len(t.subs))
	for _, fn := range t.subs {
		subs = append(subs, fn)
	}
	return subs
}

func publish(subs []func(State), state State) {
	for _, fn := range subs {
		fn(state)
	}
}
