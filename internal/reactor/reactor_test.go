//go:build linux

package reactor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func socketpair(t *testing.T) (a, b int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestWaitReportsReadable(t *testing.T) {
	r, err := New(8)
	require.NoError(t, err)
	defer r.Close()

	a, b := socketpair(t)
	require.NoError(t, r.Add(a, Readable|EdgeTriggered))

	_, err = unix.Write(b, []byte("hello"))
	require.NoError(t, err)

	n, err := r.Wait(1000)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, a, r.EventFd(0))
	require.True(t, r.EventMask(0).Has(Readable))
}

func TestWaitTimesOutWithNoEvents(t *testing.T) {
	r, err := New(8)
	require.NoError(t, err)
	defer r.Close()

	a, _ := socketpair(t)
	require.NoError(t, r.Add(a, Readable))

	start := time.Now()
	n, err := r.Wait(50)
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestOneShotRequiresRearm(t *testing.T) {
	r, err := New(8)
	require.NoError(t, err)
	defer r.Close()

	a, b := socketpair(t)
	require.NoError(t, r.Add(a, Readable|OneShot))

	_, err = unix.Write(b, []byte("x"))
	require.NoError(t, err)

	n, err := r.Wait(1000)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// Without rearming, the registration is disabled: a second write
	// produces no further event.
	_, err = unix.Write(b, []byte("y"))
	require.NoError(t, err)
	n, err = r.Wait(50)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	require.NoError(t, r.Modify(a, Readable|OneShot))
	n, err = r.Wait(1000)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestRemoveStopsDelivery(t *testing.T) {
	r, err := New(8)
	require.NoError(t, err)
	defer r.Close()

	a, b := socketpair(t)
	require.NoError(t, r.Add(a, Readable))
	require.NoError(t, r.Remove(a))

	_, err = unix.Write(b, []byte("z"))
	require.NoError(t, err)

	n, err := r.Wait(50)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}
