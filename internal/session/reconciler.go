package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SnapshotStore is the fast local blob store, keyed per (test, user). Load
// returns nil for absent or corrupt blobs; corruption is never an error the
// attempt should see.
type SnapshotStore interface {
	Load(ctx context.Context, testID uint, userID string) (*PersistedState, error)
	Save(ctx context.Context, testID uint, userID string, st *PersistedState) error
	Delete(ctx context.Context, testID uint, userID string) error
}

// ActiveAttempt is the server's view of an unfinished attempt.
type ActiveAttempt struct {
	SubmissionID int64
	Answers      State
	ExpiresAt    int64
	Finished     bool
}

// AutosaveRequest carries the answer snapshot taken at send time.
type AutosaveRequest struct {
	TestID       uint
	UserID       string
	SubmissionID int64
	Answers      State
	ExpiresAt    int64
}

// AutosaveResult deliberately excludes answers: a stale autosave echo must
// never overwrite fresher local edits, so only the submission id and save
// time ever flow back.
type AutosaveResult struct {
	SubmissionID int64
	SavedAt      time.Time
}

// Remote is the authoritative server boundary for attempt state.
type Remote interface {
	Active(ctx context.Context, testID uint, submissionID int64, userID string) (*ActiveAttempt, error)
	Autosave(ctx context.Context, req AutosaveRequest) (*AutosaveResult, error)
	Cleanup(ctx context.Context, testID uint, userID string) error
}

const (
	defaultLocalDelay  = 500 * time.Millisecond
	defaultRemoteDelay = 700 * time.Millisecond
	defaultHeartbeat   = 30 * time.Second

	debounceLocalKey  = "local"
	debounceRemoteKey = "remote"
)

// ReconcilerConfig wires a Reconciler. Zero delays get the standard values.
type ReconcilerConfig struct {
	TestID uint
	UserID string

	Store  *AnswerStore
	Timer  *ExpiryController
	Local  SnapshotStore
	Remote Remote
	Logger *slog.Logger

	LocalDelay  time.Duration
	RemoteDelay time.Duration
	Heartbeat   time.Duration
	Now         func() time.Time
}

// Reconciler mirrors the answer store into local and remote persistence and
// reconciles stored state back into the store on load. All cross-render
// mutable state of an attempt (submission id, started/audio flags, pending
// save bookkeeping) lives here, behind one lock.
type Reconciler struct {
	cfg ReconcilerConfig
	deb *Debouncer
	now func() time.Time

	mu           sync.Mutex
	submissionID int64
	started      bool
	audioPlayed  map[int]bool
	submitting   bool
	submitted    bool

	heartbeatStop chan struct{}
	heartbeatOnce sync.Once
	closeOnce     sync.Once
}

func NewReconciler(cfg ReconcilerConfig) *Reconciler {
	if cfg.LocalDelay <= 0 {
		cfg.LocalDelay = defaultLocalDelay
	}
	if cfg.RemoteDelay <= 0 {
		cfg.RemoteDelay = defaultRemoteDelay
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = defaultHeartbeat
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	r := &Reconciler{
		cfg:           cfg,
		deb:           NewDebouncer(),
		now:           cfg.Now,
		audioPlayed:   map[int]bool{},
		heartbeatStop: make(chan struct{}),
	}
	cfg.Store.OnDirty(r.scheduleSaves)
	return r
}

// Hydrate restores attempt state. The local snapshot is read synchronously
// first; the server's active-submission view is applied after it, so when the
// server reports an unfinished attempt its answers and expiry win over local
// state. The merged result is written back to the local store.
func (r *Reconciler) Hydrate(ctx context.Context) error {
	local, err := r.cfg.Local.Load(ctx, r.cfg.TestID, r.cfg.UserID)
	if err != nil {
		r.cfg.Logger.Warn("local snapshot load failed, starting fresh",
			"test_id", r.cfg.TestID, "error", err)
		local = nil
	}
	if local != nil {
		r.cfg.Store.Restore(local.Answers)
		r.cfg.Timer.Adopt(local.ExpiresAt)
		r.mu.Lock()
		r.submissionID = local.SubmissionID
		r.started = local.Started
		for k, v := range local.AudioPlayed {
			r.audioPlayed[k] = v
		}
		r.mu.Unlock()
	}

	r.mu.Lock()
	submissionID := r.submissionID
	r.mu.Unlock()
	if submissionID == 0 && r.cfg.UserID == "" {
		return nil
	}

	active, err := r.cfg.Remote.Active(ctx, r.cfg.TestID, submissionID, r.cfg.UserID)
	if err != nil {
		// Silent fallback: local storage remains the durability floor.
		r.cfg.Logger.Warn("active submission fetch failed",
			"test_id", r.cfg.TestID, "error", err)
		return nil
	}
	if active == nil || active.Finished {
		return nil
	}

	// Server is authoritative for cross-device resume.
	r.cfg.Store.Restore(active.Answers)
	r.cfg.Timer.Adopt(active.ExpiresAt)
	r.mu.Lock()
	r.submissionID = active.SubmissionID
	r.started = true
	r.mu.Unlock()

	if err := r.cfg.Local.Save(ctx, r.cfg.TestID, r.cfg.UserID, r.persistedState()); err != nil {
		r.cfg.Logger.Warn("failed to write merged snapshot", "test_id", r.cfg.TestID, "error", err)
	}
	return nil
}

// StartAttempt marks the attempt running and fixes the absolute expiry. The
// expiry is persisted immediately rather than debounced: losing it would let
// a reload restart the clock.
func (r *Reconciler) StartAttempt(duration time.Duration) time.Time {
	expiresAt := r.cfg.Timer.Start(duration)
	r.mu.Lock()
	r.started = true
	r.mu.Unlock()
	r.saveLocal()
	r.scheduleSaves()
	return expiresAt
}

// MarkAudioPlayed records the one-play gate for a part.
func (r *Reconciler) MarkAudioPlayed(partIndex int) {
	r.mu.Lock()
	r.audioPlayed[partIndex] = true
	r.mu.Unlock()
	r.scheduleSaves()
}

// AudioPlayed reports whether a part's audio has been consumed.
func (r *Reconciler) AudioPlayed(partIndex int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.audioPlayed[partIndex]
}

// SubmissionID returns the server attempt id, zero when none exists yet.
func (r *Reconciler) SubmissionID() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.submissionID
}

// Started reports whether the student has consented to start.
func (r *Reconciler) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// scheduleSaves is the dirty hook: every mutation reschedules the debounced
// local and remote writers. The remote save is skipped entirely while there
// are no answers and no submission id, so empty attempt records are never
// created.
func (r *Reconciler) scheduleSaves() {
	r.deb.Schedule(debounceLocalKey, r.cfg.LocalDelay, r.saveLocal)
	r.mu.Lock()
	hasAttempt := r.submissionID != 0
	r.mu.Unlock()
	if hasAttempt || r.cfg.Store.Len() > 0 {
		r.deb.Schedule(debounceRemoteKey, r.cfg.RemoteDelay, r.saveRemote)
	}
}

func (r *Reconciler) persistedState() *PersistedState {
	r.mu.Lock()
	audio := make(map[int]bool, len(r.audioPlayed))
	for k, v := range r.audioPlayed {
		audio[k] = v
	}
	st := &PersistedState{
		AudioPlayed:  audio,
		Started:      r.started,
		SubmissionID: r.submissionID,
		LastSavedAt:  r.now().UnixMilli(),
	}
	r.mu.Unlock()
	st.Answers = r.cfg.Store.Snapshot()
	st.ExpiresAt = r.cfg.Timer.ExpiresAt()
	return st
}

func (r *Reconciler) saveLocal() {
	if err := r.cfg.Local.Save(context.Background(), r.cfg.TestID, r.cfg.UserID, r.persistedState()); err != nil {
		r.cfg.Logger.Warn("local snapshot save failed", "test_id", r.cfg.TestID, "error", err)
	}
}

func (r *Reconciler) saveRemote() {
	// Snapshot tagged at send time; the response can only contribute the
	// submission id, never answers, so a slow autosave cannot clobber edits
	// made while it was in flight.
	r.mu.Lock()
	if r.submitted {
		r.mu.Unlock()
		return
	}
	req := AutosaveRequest{
		TestID:       r.cfg.TestID,
		UserID:       r.cfg.UserID,
		SubmissionID: r.submissionID,
	}
	r.mu.Unlock()
	req.Answers = r.cfg.Store.Snapshot()
	req.ExpiresAt = r.cfg.Timer.ExpiresAt()
	if len(req.Answers) == 0 && req.SubmissionID == 0 {
		return
	}

	res, err := r.cfg.Remote.Autosave(context.Background(), req)
	if err != nil {
		r.cfg.Logger.Warn("autosave failed", "test_id", r.cfg.TestID, "error", err)
		return
	}
	if res != nil && res.SubmissionID != 0 {
		r.mu.Lock()
		r.submissionID = res.SubmissionID
		r.mu.Unlock()
	}
}

// StartHeartbeat forces both writes on a fixed cadence regardless of
// dirtiness, capturing timer-only state. Safe to call once per attempt.
func (r *Reconciler) StartHeartbeat() {
	r.heartbeatOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(r.cfg.Heartbeat)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					r.saveLocal()
					r.saveRemote()
				case <-r.heartbeatStop:
					return
				}
			}
		}()
	})
}

// Flush performs the best-effort synchronous save used on tab unload: the
// local write plus a fire-and-forget remote send.
func (r *Reconciler) Flush() {
	r.deb.Cancel(debounceLocalKey)
	r.deb.Cancel(debounceRemoteKey)
	r.saveLocal()
	go r.saveRemote()
}

// ApplyExternal adopts a blob written by another tab. Last write wins as a
// whole: answers, expiry and submission id are replaced, not merged field by
// field.
func (r *Reconciler) ApplyExternal(st *PersistedState) {
	if st == nil {
		return
	}
	r.cfg.Store.Restore(st.Answers)
	r.cfg.Timer.Adopt(st.ExpiresAt)
	r.mu.Lock()
	if st.SubmissionID != 0 {
		r.submissionID = st.SubmissionID
	}
	if st.Started {
		r.started = true
	}
	for k, v := range st.AudioPlayed {
		r.audioPlayed[k] = v
	}
	r.mu.Unlock()
}

// BeginSubmit claims the single submit slot. It returns false when a submit
// is already in flight or done; callers must stop immediately in that case.
func (r *Reconciler) BeginSubmit() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.submitting || r.submitted {
		return false
	}
	r.submitting = true
	return true
}

// FinishSubmit ends a submit claimed by BeginSubmit. On success the local
// blob is deleted, leftover unfinished server autosaves are cleaned up and
// the submission id is cleared; on failure the attempt stays live so the
// student can retry.
func (r *Reconciler) FinishSubmit(ctx context.Context, success bool) {
	r.mu.Lock()
	r.submitting = false
	if !success {
		r.mu.Unlock()
		return
	}
	r.submitted = true
	r.submissionID = 0
	r.mu.Unlock()

	r.cfg.Store.MarkSubmitted()
	r.deb.Cancel(debounceLocalKey)
	r.deb.Cancel(debounceRemoteKey)
	if err := r.cfg.Local.Delete(ctx, r.cfg.TestID, r.cfg.UserID); err != nil {
		r.cfg.Logger.Warn("failed to delete local snapshot", "test_id", r.cfg.TestID, "error", err)
	}
	if err := r.cfg.Remote.Cleanup(ctx, r.cfg.TestID, r.cfg.UserID); err != nil {
		r.cfg.Logger.Warn("cleanup call failed", "test_id", r.cfg.TestID, "error", err)
	}
}

// ExpireEmpty short-circuits the time-expiry auto-submit for an attempt with
// no answers and no server record: it marks the attempt locally submitted and
// drops the blob without ever creating a server submission. Returns true when
// the short-circuit applied.
func (r *Reconciler) ExpireEmpty(ctx context.Context) bool {
	r.mu.Lock()
	empty := r.submissionID == 0
	r.mu.Unlock()
	if !empty || r.cfg.Store.Len() > 0 {
		return false
	}
	if !r.BeginSubmit() {
		return true
	}
	r.FinishSubmit(ctx, true)
	return true
}

// Close releases every timer and goroutine; no save may fire afterwards.
func (r *Reconciler) Close() {
	r.deb.Stop()
	r.closeOnce.Do(func() { close(r.heartbeatStop) })
}
