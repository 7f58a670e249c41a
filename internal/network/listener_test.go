package network

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/motion.report/internal/monitoring"
	"github.com/banshee-data/motion.report/internal/skeleton"
)

func itoa(n int) string { return strconv.Itoa(n) }

func mustEncode(t *testing.T, f *skeleton.SkeletonFrame) []byte {
	t.Helper()
	data, err := Encode(f)
	require.NoError(t, err)
	return data
}

func TestSkeletonListener_DecodesAndSkipsGarbage(t *testing.T) {
	monitoring.SetLogger(nil)
	defer monitoring.SetLogger(nil)

	sender := &net.UDPAddr{IP: net.IPv4(10, 0, 0, 2), Port: 40000}
	socket := NewMockUDPSocket(
		MockUDPPacket{Data: mustEncode(t, sampleFrame()), Addr: sender},
		MockUDPPacket{Data: []byte("{garbage"), Addr: sender},
		MockUDPPacket{Data: mustEncode(t, skeleton.NewSkeletonFrame(8, 0)), Addr: sender},
	)
	l := NewSkeletonListener(socket)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []uint64
	err := l.Listen(ctx, func(f *skeleton.SkeletonFrame, from *net.UDPAddr) {
		assert.Equal(t, sender, from)
		got = append(got, f.FrameIndex)
		if len(got) == 2 {
			cancel()
		}
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []uint64{7, 8}, got)
	assert.Equal(t, uint64(2), l.Received)
	assert.Equal(t, uint64(1), l.Invalid)
	assert.True(t, socket.Closed)
}

func TestSkeletonListener_ReturnsSocketErrors(t *testing.T) {
	monitoring.SetLogger(nil)
	defer monitoring.SetLogger(nil)

	boom := errors.New("boom")
	socket := NewMockUDPSocket()
	socket.ReadError = boom

	err := NewSkeletonListener(socket).Listen(context.Background(), func(*skeleton.SkeletonFrame, *net.UDPAddr) {
		t.Fatal("handler must not run")
	})
	assert.ErrorIs(t, err, boom)
	assert.True(t, socket.Closed)
}

func TestListenUDP_RealSocket(t *testing.T) {
	monitoring.SetLogger(nil)
	defer monitoring.SetLogger(nil)

	socket, err := ListenUDP("127.0.0.1:0")
	require.NoError(t, err)
	port := socket.LocalAddr().(*net.UDPAddr).Port

	out, err := net.Dial("udp", net.JoinHostPort("127.0.0.1", itoa(port)))
	require.NoError(t, err)
	defer out.Close()
	_, err = out.Write(mustEncode(t, sampleFrame()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var frame *skeleton.SkeletonFrame
	err = NewSkeletonListener(socket).Listen(ctx, func(f *skeleton.SkeletonFrame, _ *net.UDPAddr) {
		frame = f
		cancel()
	})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, frame)
	assert.Equal(t, uint64(7), frame.FrameIndex)
}
