// Package grpc adapts masterservice.Service to the api.MasterServer
// contract, following internal/layers/pd/grpc/server.go's thin
// Server-wraps-Service-and-Register pattern.
package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"regionserver/internal/masterservice"
	"regionserver/pkg/api"
)

// Server implements api.MasterServer by delegating to a masterservice.Service.
type Server struct {
	api.UnimplementedMasterServer
	service *masterservice.Service
}

// NewServer wraps service for gRPC registration.
func NewServer(service *masterservice.Service) *Server {
	return &Server{service: service}
}

// Register binds a Server for service onto s, mirroring the teacher's
// package-level Register(server, service) helper.
func Register(s *grpc.Server, service *masterservice.Service) {
	api.RegisterMasterServer(s, NewServer(service))
}

func (s *Server) Startup(ctx context.Context, req *api.StartupRequest) (*api.StartupResponse, error) {
	id := req.Identity
	cfg, err := s.service.Startup(id.Address, id.StartCode, id.InfoPort)
	if err != nil {
		if err == masterservice.ErrLeaseStillHeld {
			return nil, status.Error(codes.AlreadyExists, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &api.StartupResponse{Config: cfg}, nil
}

func (s *Server) Report(ctx context.Context, req *api.ReportRequest) (*api.ReportResponse, error) {
	id := req.Identity
	queued := s.service.Report(id.Address)
	instructions := make([]*api.InstructionMessage, 0, len(queued))
	for _, q := range queued {
		instructions = append(instructions, &api.InstructionMessage{
			Kind:       q.Kind,
			RegionName: q.RegionName,
			Descriptor: &api.RegionDescriptor{
				Table:       q.Table,
				StartKey:    q.StartKey,
				EndKey:      q.EndKey,
				IsMetaTable: q.IsMeta,
				IsRootTable: q.IsRoot,
				Families:    q.Families,
			},
		})
	}
	return &api.ReportResponse{Instructions: instructions}, nil
}
