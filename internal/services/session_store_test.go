package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internmatch/profile-builder/internal/models"
)

type memoryProfiles struct {
	fakeStore
	existing map[string]models.Profile
}

func (m *memoryProfiles) GetProfile(_ context.Context, ownerID string) (models.Profile, error) {
	p, ok := m.existing[ownerID]
	if !ok {
		return models.Profile{}, ErrProfileNotFound
	}
	return p, nil
}

func newTestManager(t *testing.T, profiles *memoryProfiles, bus PreviewPublisher) *SessionManager {
	t.Helper()
	m := NewSessionManager(profiles, &fakeGenerator{}, bus, SessionManagerOptions{
		PreviewDebounce: 5 * time.Millisecond,
		Now:             func() time.Time { return fixedNow },
	})
	t.Cleanup(m.CloseAll)
	return m
}

func TestSessionManager_OpenModes(t *testing.T) {
	t.Parallel()
	saved := completeProfile()
	profiles := &memoryProfiles{existing: map[string]models.Profile{"owner-1": saved}}
	m := newTestManager(t, profiles, nil)
	ctx := context.Background()

	w, err := m.Open(ctx, "owner-1", ModeEdit)
	require.NoError(t, err)
	assert.Equal(t, "Asha", w.State().Profile.FirstName)
	assert.Equal(t, ModeEdit, w.State().Mode)

	w, err = m.Open(ctx, "owner-2", ModeEdit)
	require.NoError(t, err)
	assert.Equal(t, models.NewEmptyProfile(), w.State().Profile)

	w, err = m.Open(ctx, "owner-1", "")
	require.NoError(t, err)
	assert.Equal(t, ModeNew, w.State().Mode)
	assert.Equal(t, models.NewEmptyProfile(), w.State().Profile)

	assert.Equal(t, 3, m.Len())
}

func TestSessionManager_SessionsAreOwnerScoped(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, &memoryProfiles{}, nil)

	w, err := m.Open(context.Background(), "owner-1", ModeNew)
	require.NoError(t, err)

	_, err = m.Get(w.ID(), "owner-2")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.Discard(w.ID(), "owner-2"), ErrSessionNotFound)

	got, err := m.Get(w.ID(), "owner-1")
	require.NoError(t, err)
	assert.Same(t, w, got)

	require.NoError(t, m.Discard(w.ID(), "owner-1"))
	_, err = m.Get(w.ID(), "owner-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, w.SetField("firstName", "X"), ErrSessionClosed)
}

func TestSessionManager_SubmitForgetsSession(t *testing.T) {
	t.Parallel()
	profiles := &memoryProfiles{existing: map[string]models.Profile{"owner-1": completeProfile()}}
	m := newTestManager(t, profiles, nil)

	w, err := m.Open(context.Background(), "owner-1", ModeEdit)
	require.NoError(t, err)
	advanceTo(t, w, TotalSteps)

	out, err := m.Submit(context.Background(), w.ID(), "owner-1")
	require.NoError(t, err)
	assert.True(t, out.Saved)
	assert.Len(t, profiles.saved, 1)
	assert.Zero(t, m.Len())
}

func TestSessionManager_SubmitFailureKeepsSession(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, &memoryProfiles{}, nil)

	w, err := m.Open(context.Background(), "owner-1", ModeNew)
	require.NoError(t, err)

	_, err = m.Submit(context.Background(), w.ID(), "owner-1")
	assert.ErrorIs(t, err, ErrNotLastStep)
	assert.Equal(t, 1, m.Len())
}

func TestSessionManager_PreviewIsPublishedOnSessionChannel(t *testing.T) {
	t.Parallel()
	bus := NewMemoryPreviewBus()
	m := newTestManager(t, &memoryProfiles{}, bus)

	w, err := m.Open(context.Background(), "owner-1", ModeNew)
	require.NoError(t, err)

	received := make(chan models.PreviewMessage, 16)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	_, err = bus.Subscribe(ctx, PreviewChannel(w.ID().String()), func(payload []byte) {
		var msg models.PreviewMessage
		if json.Unmarshal(payload, &msg) == nil {
			select {
			case received <- msg:
			default:
			}
		}
	})
	require.NoError(t, err)

	require.NoError(t, w.SetField("firstName", "Meera"))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-received:
			if msg.Payload.Profile.Name == "Meera" {
				assert.Equal(t, models.PreviewMessageType, msg.Type)
				return
			}
		case <-deadline:
			t.Fatal("no preview carrying the edit")
		}
	}
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestSessionManager_SweepClosesIdleSessions(t *testing.T) {
	t.Parallel()
	clock := &testClock{now: fixedNow}
	m := NewSessionManager(&memoryProfiles{}, &fakeGenerator{}, nil, SessionManagerOptions{
		IdleTTL: 10 * time.Minute,
		Now:     clock.Now,
	})
	t.Cleanup(m.CloseAll)
	ctx := context.Background()

	idle, err := m.Open(ctx, "owner-1", ModeNew)
	require.NoError(t, err)
	active, err := m.Open(ctx, "owner-2", ModeNew)
	require.NoError(t, err)

	clock.Advance(8 * time.Minute)
	require.NoError(t, active.SetField("firstName", "Meera"))
	assert.Zero(t, m.Sweep())

	clock.Advance(5 * time.Minute)
	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())

	_, err = m.Get(idle.ID(), "owner-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, idle.SetField("firstName", "X"), ErrSessionClosed)
	select {
	case <-idle.Done():
	default:
		t.Fatal("idle session not closed")
	}

	_, err = m.Get(active.ID(), "owner-2")
	require.NoError(t, err)
}

func TestSessionManager_ManySessionsStayBounded(t *testing.T) {
	t.Parallel()
	clock := &testClock{now: fixedNow}
	m := NewSessionManager(&memoryProfiles{}, &fakeGenerator{}, nil, SessionManagerOptions{
		IdleTTL:     time.Minute,
		MaxPerOwner: 3,
		Now:         clock.Now,
	})
	t.Cleanup(m.CloseAll)
	ctx := context.Background()

	var first *ProfileWizard
	for i := range 1000 {
		w, err := m.Open(ctx, "owner-1", ModeNew)
		require.NoError(t, err)
		if i == 0 {
			first = w
		}
		clock.Advance(time.Second)
	}
	assert.Equal(t, 3, m.Len())
	_, err := m.Get(first.ID(), "owner-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	for range 50 {
		_, err := m.Open(ctx, "owner-2", ModeNew)
		require.NoError(t, err)
	}
	assert.Equal(t, 6, m.Len())

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 6, m.Sweep())
	assert.Zero(t, m.Len())
}

func TestSessionManager_StartStopsOnCloseAll(t *testing.T) {
	t.Parallel()
	m := NewSessionManager(&memoryProfiles{}, &fakeGenerator{}, nil, SessionManagerOptions{
		IdleTTL:       time.Nanosecond,
		SweepInterval: 5 * time.Millisecond,
	})
	m.Start(context.Background())

	_, err := m.Open(context.Background(), "owner-1", ModeNew)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)

	m.CloseAll()
	m.CloseAll()
}
