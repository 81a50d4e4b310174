package api

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func TestUnimplementedMasterServer_BothMethodsReturnError(t *testing.T) {
	var srv UnimplementedMasterServer
	ctx := context.Background()

	_, err := srv.Startup(ctx, &StartupRequest{})
	assert.Error(t, err)
	_, err = srv.Report(ctx, &ReportRequest{})
	assert.Error(t, err)
}

type fakeMasterServer struct {
	UnimplementedMasterServer
}

func (fakeMasterServer) Startup(_ context.Context, req *StartupRequest) (*StartupResponse, error) {
	return &StartupResponse{Config: map[string]string{"rootDir": "/data/rs", "who": req.Identity.Address}}, nil
}

func (fakeMasterServer) Report(context.Context, *ReportRequest) (*ReportResponse, error) {
	return &ReportResponse{Instructions: []*InstructionMessage{{Kind: 1, RegionName: "r1"}}}, nil
}

func dialFakeMasterServer(t *testing.T) MasterClient {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := grpc.NewServer()
	RegisterMasterServer(s, fakeMasterServer{})
	go s.Serve(lis)
	t.Cleanup(s.Stop)

	dialCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	conn, err := grpc.DialContext(dialCtx, lis.Addr().String(),
		grpc.WithTransportCredentials(insecure.NewCredentials()), grpc.WithBlock())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewMasterClient(conn)
}

func TestMasterClient_StartupRoundTripsOverRealGRPC(t *testing.T) {
	client := dialFakeMasterServer(t)
	resp, err := client.Startup(context.Background(), &StartupRequest{
		Identity: &Identity{Address: "10.0.0.1:60020", StartCode: 100, InfoPort: 60030},
	})
	require.NoError(t, err)
	assert.Equal(t, "/data/rs", resp.Config["rootDir"])
	assert.Equal(t, "10.0.0.1:60020", resp.Config["who"])
}

func TestMasterClient_ReportReturnsInstructions(t *testing.T) {
	client := dialFakeMasterServer(t)
	resp, err := client.Report(context.Background(), &ReportRequest{
		Identity: &Identity{Address: "10.0.0.1:60020", StartCode: 100, InfoPort: 60030},
	})
	require.NoError(t, err)
	require.Len(t, resp.Instructions, 1)
	assert.Equal(t, "r1", resp.Instructions[0].RegionName)
}

func TestErrUnimplemented_MessageNamesMethod(t *testing.T) {
	err := errUnimplemented("Master.Startup")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Master.Startup")
}
