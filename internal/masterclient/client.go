// Package masterclient implements the region server's outgoing half of
// the master-facing RPC of spec.md §6: startup(identity) -> config map,
// report(identity, outbound[]) -> instruction[].
package masterclient

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"regionserver/pkg/api"
)

// LeaseStillHeld is returned by Startup when the master reports that a
// previous generation of this identity has not yet timed out (spec §4.1
// step 1, §4.6).
var LeaseStillHeld = fmt.Errorf("masterclient: lease still held")

// Client dials a master and exposes its two RPCs.
type Client struct {
	conn   *grpc.ClientConn
	client api.MasterClient
}

// Dial connects to target, following internal/layers/pd/grpc/client.go's
// grpc.DialContext-with-insecure-transport pattern.
func Dial(ctx context.Context, target string) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	conn, err := grpc.DialContext(ctx, target, grpc.WithTransportCredentials(insecure.NewCredentials()), grpc.WithBlock())
	if err != nil {
		return nil, fmt.Errorf("masterclient: dial %s: %w", target, err)
	}
	return &Client{conn: conn, client: api.NewMasterClient(conn)}, nil
}

// Startup calls the master's startup RPC once (the caller supplies the
// retry loop, spec §4.1 step 1).
func (c *Client) Startup(ctx context.Context, address string, startCode int64, infoPort int32) (map[string]string, error) {
	resp, err := c.client.Startup(ctx, &api.StartupRequest{
		Identity: &api.Identity{Address: address, StartCode: startCode, InfoPort: infoPort},
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, LeaseStillHeld
		}
		return nil, err
	}
	return resp.Config, nil
}

// Report sends one heartbeat and returns the instructions the master
// issued in response (spec §4.1 step 3).
func (c *Client) Report(ctx context.Context, address string, startCode int64, infoPort int32, messages []*api.OutboundMessage) ([]*api.InstructionMessage, error) {
	resp, err := c.client.Report(ctx, &api.ReportRequest{
		Identity: &api.Identity{Address: address, StartCode: startCode, InfoPort: infoPort},
		Messages: messages,
	})
	if err != nil {
		return nil, err
	}
	return resp.Instructions, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

// dialTimeout bounds the initial connection attempt so ReportForDuty's
// retry loop in the region server does not block indefinitely on a
// single dial.
const dialTimeout = 5 * time.Second
