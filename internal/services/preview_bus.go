package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/valkey-io/valkey-go"
)

// PreviewPublisher sends one encoded preview message to a channel.
type PreviewPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// PreviewBus carries preview messages from the synchronizer to whatever
// surface renders them. Delivery is best effort with no acknowledgement.
type PreviewBus interface {
	PreviewPublisher
	// Subscribe returns once the subscription is live. handler is called for
	// each message until ctx is done; the returned channel is closed after
	// delivery has stopped.
	Subscribe(ctx context.Context, channel string, handler func(payload []byte)) (<-chan struct{}, error)
	Close()
}

func PreviewChannel(sessionID string) string {
	return "preview:" + sessionID
}

// NewPreviewBus returns a valkey-backed bus, or an in-process one when
// valkeyURL is empty.
func NewPreviewBus(valkeyURL string) (PreviewBus, error) {
	if valkeyURL == "" {
		return NewMemoryPreviewBus(), nil
	}

	opt, err := valkey.ParseURL(valkeyURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse valkey url: %w", err)
	}
	opt.DisableCache = true

	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey: %w", err)
	}
	return &valkeyPreviewBus{client: client}, nil
}

type valkeyPreviewBus struct {
	client valkey.Client
}

func (b *valkeyPreviewBus) Publish(ctx context.Context, channel string, payload []byte) error {
	cmd := b.client.B().Publish().Channel(channel).Message(valkey.BinaryString(payload)).Build()
	if err := b.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to publish preview: %w", err)
	}
	return nil
}

func (b *valkeyPreviewBus) Subscribe(ctx context.Context, channel string, handler func([]byte)) (<-chan struct{}, error) {
	conn, release := b.client.Dedicate()
	disconnected := conn.SetPubSubHooks(valkey.PubSubHooks{
		OnMessage: func(msg valkey.PubSubMessage) {
			handler([]byte(msg.Message))
		},
	})
	if err := conn.Do(ctx, conn.B().Subscribe().Channel(channel).Build()).Error(); err != nil {
		release()
		return nil, fmt.Errorf("failed to subscribe to preview: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer release()
		select {
		case <-ctx.Done():
			conn.SetPubSubHooks(valkey.PubSubHooks{})
		case <-disconnected:
		}
	}()
	return done, nil
}

func (b *valkeyPreviewBus) Close() {
	b.client.Close()
}

type memoryPreviewBus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string]map[uint64]func([]byte)
}

func NewMemoryPreviewBus() PreviewBus {
	return &memoryPreviewBus{subs: make(map[string]map[uint64]func([]byte))}
}

func (b *memoryPreviewBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, handler := range b.subs[channel] {
		handler(payload)
	}
	return nil
}

func (b *memoryPreviewBus) Subscribe(ctx context.Context, channel string, handler func([]byte)) (<-chan struct{}, error) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[uint64]func([]byte))
	}
	b.subs[channel][id] = handler
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()

		b.mu.Lock()
		delete(b.subs[channel], id)
		if len(b.subs[channel]) == 0 {
			delete(b.subs, channel)
		}
		b.mu.Unlock()
	}()
	return done, nil
}

func (b *memoryPreviewBus) Close() {}
