package regionserver

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"regionserver/internal/region"
	"regionserver/internal/store"
	"regionserver/pkg/api"
)

// RPCServer adapts FrontEnd to the api.RegionServer gRPC contract,
// translating this core's typed errors into grpc/status codes at the
// boundary (SPEC_FULL.md AMBIENT STACK: error handling).
type RPCServer struct {
	api.UnimplementedRegionServer
	fe *FrontEnd
}

// NewRPCServer wraps a FrontEnd for gRPC registration.
func NewRPCServer(fe *FrontEnd) *RPCServer { return &RPCServer{fe: fe} }

func toStatus(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case isKind(err, ErrNotServingRegion):
		return status.Error(codes.NotFound, err.Error())
	case isKind(err, ErrUnknownScanner):
		return status.Error(codes.NotFound, err.Error())
	case isKind(err, ErrServerNotRunning):
		return status.Error(codes.Unavailable, err.Error())
	case isKind(err, ErrFilesystemUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func isKind(err, target error) bool {
	for e := err; e != nil; {
		if e == target {
			return true
		}
		unwrap, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = unwrap.Unwrap()
	}
	return false
}

func cellsToAPI(cells []store.Cell) []*api.Cell {
	out := make([]*api.Cell, 0, len(cells))
	for _, c := range cells {
		out = append(out, &api.Cell{Family: c.Family, Qualifier: c.Qualifier, Timestamp: c.Timestamp, Value: c.Value})
	}
	return out
}

func descriptorToAPI(d region.Descriptor) *api.RegionDescriptor {
	return &api.RegionDescriptor{
		Table: d.Table, StartKey: d.StartKey, EndKey: d.EndKey,
		IsMetaTable: d.IsMetaTable, IsRootTable: d.IsRootTable, Families: d.Families,
	}
}

func (s *RPCServer) GetRegionInfo(ctx context.Context, req *api.GetRegionInfoRequest) (*api.GetRegionInfoResponse, error) {
	d, err := s.fe.GetRegionInfo(req.RegionName)
	if err != nil {
		return nil, toStatus(err)
	}
	return &api.GetRegionInfoResponse{Descriptor: descriptorToAPI(d)}, nil
}

func (s *RPCServer) Get(ctx context.Context, req *api.GetRequest) (*api.GetResponse, error) {
	cells, err := s.fe.Get(req.RegionName, req.Row, []byte(req.Family), req.Qualifier, int(req.Versions), req.Timestamp)
	if err != nil {
		return nil, toStatus(err)
	}
	return &api.GetResponse{Cells: cellsToAPI(cells)}, nil
}

func (s *RPCServer) GetRow(ctx context.Context, req *api.GetRowRequest) (*api.GetRowResponse, error) {
	byFamily, err := s.fe.GetRow(req.RegionName, req.Row, req.Timestamp)
	if err != nil {
		return nil, toStatus(err)
	}
	out := make(map[string]*api.CellList, len(byFamily))
	for fam, cells := range byFamily {
		out[fam] = &api.CellList{Cells: cellsToAPI(cells)}
	}
	return &api.GetRowResponse{FamilyCells: out}, nil
}

func (s *RPCServer) GetClosestRowBefore(ctx context.Context, req *api.GetClosestRowBeforeRequest) (*api.GetClosestRowBeforeResponse, error) {
	row, cells, err := s.fe.GetClosestRowBefore(req.RegionName, req.Row, []byte(req.Family))
	if err != nil {
		return nil, toStatus(err)
	}
	return &api.GetClosestRowBeforeResponse{Row: row, Cells: cellsToAPI(cells)}, nil
}

func (s *RPCServer) BatchUpdate(ctx context.Context, req *api.BatchUpdateRequest) (*api.BatchUpdateResponse, error) {
	updates := make([]Update, 0, len(req.Updates))
	for _, u := range req.Updates {
		updates = append(updates, Update{Family: u.Family, Qualifier: u.Qualifier, Value: u.Value})
	}
	if err := s.fe.BatchUpdate(req.RegionName, req.Row, req.Timestamp, updates); err != nil {
		return nil, toStatus(err)
	}
	return &api.BatchUpdateResponse{}, nil
}

func (s *RPCServer) DeleteAll(ctx context.Context, req *api.DeleteAllRequest) (*api.DeleteAllResponse, error) {
	if err := s.fe.DeleteAll(req.RegionName, req.Row, req.Family, req.Qualifier, req.Timestamp); err != nil {
		return nil, toStatus(err)
	}
	return &api.DeleteAllResponse{}, nil
}

func (s *RPCServer) DeleteFamily(ctx context.Context, req *api.DeleteFamilyRequest) (*api.DeleteFamilyResponse, error) {
	if err := s.fe.DeleteFamily(req.RegionName, req.Row, req.Family, req.Timestamp); err != nil {
		return nil, toStatus(err)
	}
	return &api.DeleteFamilyResponse{}, nil
}

func (s *RPCServer) OpenScanner(ctx context.Context, req *api.OpenScannerRequest) (*api.OpenScannerResponse, error) {
	id, err := s.fe.OpenScanner(req.RegionName, req.Columns, req.FirstRow, req.Timestamp)
	if err != nil {
		return nil, toStatus(err)
	}
	return &api.OpenScannerResponse{ScannerId: id}, nil
}

func (s *RPCServer) Next(ctx context.Context, req *api.NextRequest) (*api.NextResponse, error) {
	row, ok, err := s.fe.Next(req.ScannerId)
	if err != nil {
		return nil, toStatus(err)
	}
	return &api.NextResponse{Row: row.Row, Cells: cellsToAPI(row.Cells), HasNext: ok}, nil
}

func (s *RPCServer) CloseScanner(ctx context.Context, req *api.CloseScannerRequest) (*api.CloseScannerResponse, error) {
	if err := s.fe.CloseScanner(req.ScannerId); err != nil {
		return nil, toStatus(err)
	}
	return &api.CloseScannerResponse{}, nil
}

func (s *RPCServer) GetProtocolVersion(ctx context.Context, req *api.GetProtocolVersionRequest) (*api.GetProtocolVersionResponse, error) {
	v, err := s.fe.GetProtocolVersion(req.Protocol, req.ClientVersion)
	if err != nil {
		return nil, toStatus(err)
	}
	return &api.GetProtocolVersionResponse{Version: v}, nil
}
