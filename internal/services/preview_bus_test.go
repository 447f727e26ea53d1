package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestValkeyPreviewBus_PublishSubscribe(t *testing.T) {
	mini := miniredis.RunT(t)

	bus, err := NewPreviewBus("redis://" + mini.Addr())
	require.NoError(t, err)
	t.Cleanup(bus.Close)

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan []byte, 4)
	done, err := bus.Subscribe(ctx, PreviewChannel("abc"), func(payload []byte) {
		select {
		case got <- payload:
		default:
		}
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), PreviewChannel("other"), []byte("ignored")))
	require.Eventually(t, func() bool {
		if bus.Publish(context.Background(), PreviewChannel("abc"), []byte(`{"type":"UPDATE_RESUME"}`)) != nil {
			return false
		}
		return len(got) > 0
	}, 2*time.Second, 20*time.Millisecond)
	require.Equal(t, `{"type":"UPDATE_RESUME"}`, string(<-got))

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not stop")
	}
}

func TestNewPreviewBus_InvalidURL(t *testing.T) {
	_, err := NewPreviewBus("ftp://nowhere")
	require.Error(t, err)
}

func TestMemoryPreviewBus_DeliversUntilCancelled(t *testing.T) {
	t.Parallel()

	bus := NewMemoryPreviewBus()
	ctx, cancel := context.WithCancel(context.Background())

	got := make(chan []byte, 4)
	done, err := bus.Subscribe(ctx, "preview:1", func(b []byte) {
		select {
		case got <- b:
		default:
		}
	})
	require.NoError(t, err)

	// registered before Subscribe returned
	require.NoError(t, bus.Publish(context.Background(), "preview:1", []byte("x")))
	require.NoError(t, bus.Publish(context.Background(), "preview:2", []byte("other")))
	require.Len(t, got, 1)
	require.Equal(t, []byte("x"), <-got)

	cancel()
	<-done
	require.NoError(t, bus.Publish(context.Background(), "preview:1", []byte("late")))
	require.Empty(t, got)
}
