package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"internmatch/profile-builder/internal/models"
)

const (
	defaultSessionIdleTTL      = 30 * time.Minute
	defaultSessionSweep        = time.Minute
	defaultMaxSessionsPerOwner = 5
)

// SessionManager keeps the open wizard sessions. A session belongs to the
// owner that opened it and is invisible to everyone else. Sessions nobody
// touched for IdleTTL are closed by the sweeper, since a server cannot see
// the student navigating away.
type SessionManager struct {
	profiles    ProfileService
	generator   DocumentGenerator
	bus         PreviewPublisher
	debounce    time.Duration
	idleTTL     time.Duration
	sweepEvery  time.Duration
	maxPerOwner int
	now         func() time.Time
	logger      *slog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*ProfileWizard

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type SessionManagerOptions struct {
	PreviewDebounce time.Duration
	IdleTTL         time.Duration
	SweepInterval   time.Duration
	// MaxPerOwner caps open sessions per owner; opening one more closes the
	// owner's least recently used session.
	MaxPerOwner int
	Now         func() time.Time
	Logger      *slog.Logger
}

func NewSessionManager(profiles ProfileService, generator DocumentGenerator, bus PreviewPublisher, opts SessionManagerOptions) *SessionManager {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = defaultSessionIdleTTL
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = defaultSessionSweep
	}
	if opts.MaxPerOwner <= 0 {
		opts.MaxPerOwner = defaultMaxSessionsPerOwner
	}
	return &SessionManager{
		profiles:    profiles,
		generator:   generator,
		bus:         bus,
		debounce:    opts.PreviewDebounce,
		idleTTL:     opts.IdleTTL,
		sweepEvery:  opts.SweepInterval,
		maxPerOwner: opts.MaxPerOwner,
		now:         opts.Now,
		logger:      opts.Logger,
		sessions:    make(map[uuid.UUID]*ProfileWizard),
		stopChan:    make(chan struct{}),
	}
}

// Start runs the idle-session sweeper until ctx is done or CloseAll is called.
func (m *SessionManager) Start(ctx context.Context) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.sweepEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stopChan:
				return
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					m.logger.Info("🧹 Closed idle wizard sessions", slog.Int("count", n))
				}
			}
		}
	}()
}

// Sweep closes and forgets every session idle for longer than the TTL and
// returns how many it removed.
func (m *SessionManager) Sweep() int {
	cutoff := m.now().Add(-m.idleTTL)

	m.mu.Lock()
	var expired []*ProfileWizard
	for id, w := range m.sessions {
		if w.LastTouched().Before(cutoff) {
			expired = append(expired, w)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, w := range expired {
		w.Close()
	}
	sessionsExpired.Add(float64(len(expired)))
	return len(expired)
}

// Open starts a session. Edit mode hydrates from the saved profile and
// falls back to an empty one when the student has never saved.
func (m *SessionManager) Open(ctx context.Context, ownerID string, mode SessionMode) (*ProfileWizard, error) {
	if mode == "" {
		mode = ModeNew
	}

	initial := models.NewEmptyProfile()
	if mode == ModeEdit {
		saved, err := m.profiles.GetProfile(ctx, ownerID)
		switch {
		case errors.Is(err, ErrProfileNotFound):
			m.logger.Info("no saved profile, starting empty", slog.String("owner_id", ownerID))
		case err != nil:
			return nil, fmt.Errorf("failed to load profile: %w", err)
		default:
			initial = saved
		}
	}

	id := uuid.New()
	var preview PreviewScheduler
	if m.bus != nil {
		preview = NewPreviewSynchronizer(m.bus, PreviewChannel(id.String()), m.debounce, m.logger)
	}

	w := NewProfileWizard(id, ownerID, mode, initial, WizardDeps{
		Store:     m.profiles,
		Generator: m.generator,
		Preview:   preview,
		Now:       m.now,
		Logger:    m.logger,
	})

	m.mu.Lock()
	evicted := m.evictForOwnerLocked(ownerID)
	m.sessions[id] = w
	m.mu.Unlock()

	if evicted != nil {
		evicted.Close()
		m.logger.Info("wizard session evicted",
			slog.String("session_id", evicted.ID().String()),
			slog.String("owner_id", ownerID),
		)
	}

	m.logger.Info("wizard session opened",
		slog.String("session_id", id.String()),
		slog.String("mode", string(mode)),
	)
	return w, nil
}

func (m *SessionManager) Get(id uuid.UUID, ownerID string) (*ProfileWizard, error) {
	m.mu.RLock()
	w, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok || w.OwnerID() != ownerID {
		return nil, ErrSessionNotFound
	}
	return w, nil
}

// Submit runs the wizard's submit and forgets the session once the
// profile is saved.
func (m *SessionManager) Submit(ctx context.Context, id uuid.UUID, ownerID string) (*SubmitOutcome, error) {
	w, err := m.Get(id, ownerID)
	if err != nil {
		return nil, err
	}

	outcome, err := w.Submit(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return outcome, nil
}

func (m *SessionManager) Discard(id uuid.UUID, ownerID string) error {
	m.mu.Lock()
	w, ok := m.sessions[id]
	if !ok || w.OwnerID() != ownerID {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	m.mu.Unlock()

	w.Close()
	return nil
}

// evictForOwnerLocked removes the owner's least recently touched session
// when the owner is at the cap.
func (m *SessionManager) evictForOwnerLocked(ownerID string) *ProfileWizard {
	var (
		count  int
		oldest *ProfileWizard
		at     time.Time
	)
	for _, w := range m.sessions {
		if w.OwnerID() != ownerID {
			continue
		}
		count++
		if touched := w.LastTouched(); oldest == nil || touched.Before(at) {
			oldest, at = w, touched
		}
	}
	if count < m.maxPerOwner || oldest == nil {
		return nil
	}
	delete(m.sessions, oldest.ID())
	return oldest
}

// CloseAll stops the sweeper and every session's background work. Used on
// shutdown.
func (m *SessionManager) CloseAll() {
	m.stopOnce.Do(func() { close(m.stopChan) })
	m.wg.Wait()

	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[uuid.UUID]*ProfileWizard)
	m.mu.Unlock()

	for _, w := range sessions {
		w.Close()
	}
}

func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
