package lobby

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DoyleJ11/liujiatong-server/internal/phase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvChange(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a registry change")
	}
}

func fill(t *testing.T, r *Registry) []string {
	t.Helper()
	cookies := make([]string, Seats)
	for i := range cookies {
		c, err := r.Join(fmt.Sprintf("p%d", i))
		require.NoError(t, err)
		cookies[i] = c
	}
	return cookies
}

func TestGenerateCookie(t *testing.T) {
	seen := map[string]bool{}
	for rep := 0; rep < 50; rep++ {
		c, err := GenerateCookie()
		require.NoError(t, err)
		assert.Len(t, c, cookieLen)
		assert.Regexp(t, `^[a-zA-Z0-9]+$`, c)
		seen[c] = true
	}
	assert.Greater(t, len(seen), 45)
}

func TestJoin_FillsHallAndNotifies(t *testing.T) {
	r := New()
	hall, changed := r.Hall()
	assert.Empty(t, hall.Names)

	cookies := fill(t, r)
	recvChange(t, changed)

	hall, _ = r.Hall()
	assert.True(t, hall.Full())
	assert.Equal(t, []string{"p0", "p1", "p2", "p3", "p4", "p5"}, hall.Names)
	assert.True(t, r.Full())
	assert.True(t, r.Known(cookies[3]))
	assert.False(t, r.Known("nope"))

	_, err := r.Join("late")
	assert.ErrorIs(t, err, ErrHallFull)
}

func TestDrop_BeforeSeating(t *testing.T) {
	r := New()
	c, err := r.Join("a")
	require.NoError(t, err)
	r.Drop(c)
	assert.False(t, r.Known(c))
	hall, _ := r.Hall()
	assert.Empty(t, hall.Names)
}

func TestSeat_StaticAndShuffled(t *testing.T) {
	r := New()
	cookies := fill(t, r)
	require.NoError(t, r.Seat(nil))
	for i, c := range cookies {
		seat, ok := r.SeatOf(c)
		require.True(t, ok)
		assert.Equal(t, i, seat)
	}
	assert.ErrorIs(t, r.Seat(nil), ErrSeated)

	r2 := New()
	cookies = fill(t, r2)
	reverse := func(n int, swap func(i, j int)) {
		for i := 0; i < n/2; i++ {
			swap(i, n-1-i)
		}
	}
	require.NoError(t, r2.Seat(reverse))
	seat, ok := r2.SeatOf(cookies[0])
	require.True(t, ok)
	assert.Equal(t, 5, seat)
	names, _ := r2.Names()
	assert.Equal(t, "p5", names[0])
}

func TestSeatOf_BeforeSeating(t *testing.T) {
	r := New()
	c, err := r.Join("a")
	require.NoError(t, err)
	seat, ok := r.SeatOf(c)
	assert.False(t, ok)
	assert.Equal(t, NoSeat, seat)
}

func TestReclaim_Rules(t *testing.T) {
	r := New()
	cookies := fill(t, r)
	require.NoError(t, r.Seat(nil))

	_, err := r.Reclaim("missing")
	assert.ErrorIs(t, err, ErrUnknownCookie)

	_, err = r.Reclaim(cookies[2])
	assert.ErrorIs(t, err, ErrRecoveryRejected, "live seat cannot be reclaimed")

	r.MarkOffline(cookies[2])
	_, offline := r.Names()
	assert.True(t, offline[2])
	assert.False(t, r.Claimed(cookies[2]))

	claim, err := r.Reclaim(cookies[2])
	require.NoError(t, err)
	assert.True(t, r.Claimed(cookies[2]))

	_, err = r.Reclaim(cookies[2])
	assert.ErrorIs(t, err, ErrRecoveryRejected, "only one reconnection per seat")

	require.NoError(t, r.AwaitClaim(context.Background(), cookies[2]))
	r.HandOff(cookies[2], phase.SendRoundInfo)

	got, err := claim.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, phase.SendRoundInfo, got)
	assert.False(t, r.Claimed(cookies[2]))

	views := r.Entries()
	assert.Equal(t, "SendRoundInfo", views[2].Phase)
	assert.False(t, views[2].Offline)
}

func TestAwaitClaim_Blocks(t *testing.T) {
	r := New()
	cookies := fill(t, r)
	r.MarkOffline(cookies[0])

	done := make(chan error, 1)
	go func() { done <- r.AwaitClaim(context.Background(), cookies[0]) }()

	select {
	case <-done:
		t.Fatal("AwaitClaim returned before any reconnection")
	case <-time.After(50 * time.Millisecond):
	}

	_, err := r.Reclaim(cookies[0])
	require.NoError(t, err)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("AwaitClaim not released")
	}
}

func TestReset_ResolvesPendingClaims(t *testing.T) {
	r := New()
	cookies := fill(t, r)
	r.MarkOffline(cookies[4])
	claim, err := r.Reclaim(cookies[4])
	require.NoError(t, err)

	game := r.Game()
	r.Reset()

	got, err := claim.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, phase.GameOver, got)
	assert.False(t, r.Known(cookies[4]))
	assert.False(t, r.Full())
	assert.Equal(t, game+1, r.Game())
}

func TestRecord(t *testing.T) {
	r := New()
	c, err := r.Join("a")
	require.NoError(t, err)
	r.Record(c, phase.InitSync)
	assert.Equal(t, "InitSync", r.Entries()[0].Phase)
}
