package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"deaddrop/internal/domain"
)

func TestMemorySessions_SweepDropsExpired(t *testing.T) {
	m := NewMemorySessions()
	t0 := time.Unix(1_700_000_000, 0)
	require.NoError(t, m.Put(Session{ID: "a", CreatedAt: t0, ExpiresAt: t0.Add(time.Second)}))
	require.NoError(t, m.Put(Session{ID: "b", CreatedAt: t0, ExpiresAt: t0.Add(time.Minute)}))

	require.Equal(t, 1, m.Sweep(t0.Add(2*time.Second)))
	require.Equal(t, 1, m.Len())

	_, err := m.Take("a", t0.Add(2*time.Second))
	require.ErrorIs(t, err, domain.ErrSessionExpiredOrUnknown)
	_, err = m.Take("b", t0.Add(2*time.Second))
	require.NoError(t, err)
}

func TestMemorySessions_TombstoneExpires(t *testing.T) {
	m := NewMemorySessions()
	t0 := time.Unix(1_700_000_000, 0)
	require.NoError(t, m.Put(Session{ID: "a", CreatedAt: t0, ExpiresAt: t0.Add(time.Minute)}))

	_, err := m.Take("a", t0)
	require.NoError(t, err)
	_, err = m.Take("a", t0.Add(time.Second))
	require.ErrorIs(t, err, domain.ErrSessionReplay)

	m.Sweep(t0.Add(2 * time.Minute))
	_, err = m.Take("a", t0.Add(2*time.Minute))
	require.ErrorIs(t, err, domain.ErrSessionExpiredOrUnknown)
	require.NotErrorIs(t, err, domain.ErrSessionReplay)
}

func TestMemorySessions_RunSweeps(t *testing.T) {
	m := NewMemorySessions()
	t0 := time.Unix(1_700_000_000, 0)
	require.NoError(t, m.Put(Session{ID: "a", CreatedAt: t0, ExpiresAt: t0.Add(time.Second)}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Millisecond, func() time.Time { return t0.Add(time.Hour) })
		close(done)
	}()
	require.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, time.Millisecond)
	cancel()
	<-done
}
