package masterclient

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	mastergrpc "regionserver/internal/masterservice/grpc"
	"regionserver/internal/masterservice"
	"regionserver/pkg/api"
)

func startTestMaster(t *testing.T) (string, *masterservice.Service) {
	t.Helper()
	svc, err := masterservice.New(t.TempDir(), map[string]string{"rootDir": "/data/rs"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := grpc.NewServer()
	mastergrpc.Register(s, svc)
	go s.Serve(lis)
	t.Cleanup(s.Stop)

	return lis.Addr().String(), svc
}

func TestClient_StartupReturnsMasterConfig(t *testing.T) {
	addr, _ := startTestMaster(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	c, err := Dial(ctx, addr)
	require.NoError(t, err)
	defer c.Close()

	cfg, err := c.Startup(context.Background(), "10.0.0.1:60020", 100, 60030)
	require.NoError(t, err)
	assert.Equal(t, "/data/rs", cfg["rootDir"])
}

func TestClient_StartupOlderGenerationReturnsLeaseStillHeld(t *testing.T) {
	addr, _ := startTestMaster(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	c, err := Dial(ctx, addr)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Startup(context.Background(), "10.0.0.1:60020", 200, 60030)
	require.NoError(t, err)

	_, err = c.Startup(context.Background(), "10.0.0.1:60020", 100, 60030)
	assert.ErrorIs(t, err, LeaseStillHeld)
}

func TestClient_ReportRoundTripsInstructions(t *testing.T) {
	addr, svc := startTestMaster(t)
	svc.Enqueue("10.0.0.1:60020", masterservice.QueuedInstruction{Kind: 1, RegionName: "r1"})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	c, err := Dial(ctx, addr)
	require.NoError(t, err)
	defer c.Close()

	instructions, err := c.Report(context.Background(), "10.0.0.1:60020", 100, 60030, []*api.OutboundMessage{})
	require.NoError(t, err)
	require.Len(t, instructions, 1)
	assert.Equal(t, "r1", instructions[0].RegionName)
}
