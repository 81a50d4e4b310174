package api

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
)

// --- Client-facing region server RPC (spec.md §6) ---
//
// Same hand-bound proto.Message technique as master.go: Reset/String/
// ProtoMessage plus `protobuf:"..."` struct tags on every message, so
// grpc's default codec can marshal these without protoc.

type Cell struct {
	Family    string `protobuf:"bytes,1,opt,name=family"`
	Qualifier []byte `protobuf:"bytes,2,opt,name=qualifier"`
	Timestamp int64  `protobuf:"varint,3,opt,name=timestamp"`
	Value     []byte `protobuf:"bytes,4,opt,name=value"`
}

func (m *Cell) Reset()         { *m = Cell{} }
func (m *Cell) String() string { return fmt.Sprintf("%+v", *m) }
func (*Cell) ProtoMessage()    {}

type GetRegionInfoRequest struct {
	RegionName string `protobuf:"bytes,1,opt,name=region_name"`
}

func (m *GetRegionInfoRequest) Reset()         { *m = GetRegionInfoRequest{} }
func (m *GetRegionInfoRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*GetRegionInfoRequest) ProtoMessage()    {}

type GetRegionInfoResponse struct {
	Descriptor *RegionDescriptor `protobuf:"bytes,1,opt,name=descriptor"`
}

func (m *GetRegionInfoResponse) Reset()         { *m = GetRegionInfoResponse{} }
func (m *GetRegionInfoResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*GetRegionInfoResponse) ProtoMessage()    {}

type GetRequest struct {
	RegionName string `protobuf:"bytes,1,opt,name=region_name"`
	Row        []byte `protobuf:"bytes,2,opt,name=row"`
	Family     string `protobuf:"bytes,3,opt,name=family"`
	Qualifier  []byte `protobuf:"bytes,4,opt,name=qualifier"`
	Versions   int32  `protobuf:"varint,5,opt,name=versions"`
	Timestamp  int64  `protobuf:"varint,6,opt,name=timestamp"`
}

func (m *GetRequest) Reset()         { *m = GetRequest{} }
func (m *GetRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*GetRequest) ProtoMessage()    {}

type GetResponse struct {
	Cells []*Cell `protobuf:"bytes,1,rep,name=cells"`
}

func (m *GetResponse) Reset()         { *m = GetResponse{} }
func (m *GetResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*GetResponse) ProtoMessage()    {}

type GetRowRequest struct {
	RegionName string `protobuf:"bytes,1,opt,name=region_name"`
	Row        []byte `protobuf:"bytes,2,opt,name=row"`
	Timestamp  int64  `protobuf:"varint,3,opt,name=timestamp"`
}

func (m *GetRowRequest) Reset()         { *m = GetRowRequest{} }
func (m *GetRowRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*GetRowRequest) ProtoMessage()    {}

type CellList struct {
	Cells []*Cell `protobuf:"bytes,1,rep,name=cells"`
}

func (m *CellList) Reset()         { *m = CellList{} }
func (m *CellList) String() string { return fmt.Sprintf("%+v", *m) }
func (*CellList) ProtoMessage()    {}

type GetRowResponse struct {
	FamilyCells map[string]*CellList `protobuf:"bytes,1,rep,name=family_cells" protobuf_key:"bytes,1,opt,name=key" protobuf_val:"bytes,2,opt,name=value"`
}

func (m *GetRowResponse) Reset()         { *m = GetRowResponse{} }
func (m *GetRowResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*GetRowResponse) ProtoMessage()    {}

type GetClosestRowBeforeRequest struct {
	RegionName string `protobuf:"bytes,1,opt,name=region_name"`
	Row        []byte `protobuf:"bytes,2,opt,name=row"`
	Family     string `protobuf:"bytes,3,opt,name=family"`
}

func (m *GetClosestRowBeforeRequest) Reset()         { *m = GetClosestRowBeforeRequest{} }
func (m *GetClosestRowBeforeRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*GetClosestRowBeforeRequest) ProtoMessage()    {}

type GetClosestRowBeforeResponse struct {
	Row   []byte  `protobuf:"bytes,1,opt,name=row"`
	Cells []*Cell `protobuf:"bytes,2,rep,name=cells"`
}

func (m *GetClosestRowBeforeResponse) Reset()         { *m = GetClosestRowBeforeResponse{} }
func (m *GetClosestRowBeforeResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*GetClosestRowBeforeResponse) ProtoMessage()    {}

type Mutation struct {
	Family    string `protobuf:"bytes,1,opt,name=family"`
	Qualifier []byte `protobuf:"bytes,2,opt,name=qualifier"`
	Value     []byte `protobuf:"bytes,3,opt,name=value"`
}

func (m *Mutation) Reset()         { *m = Mutation{} }
func (m *Mutation) String() string { return fmt.Sprintf("%+v", *m) }
func (*Mutation) ProtoMessage()    {}

type BatchUpdateRequest struct {
	RegionName string      `protobuf:"bytes,1,opt,name=region_name"`
	Row        []byte      `protobuf:"bytes,2,opt,name=row"`
	Timestamp  int64       `protobuf:"varint,3,opt,name=timestamp"`
	Updates    []*Mutation `protobuf:"bytes,4,rep,name=updates"`
}

func (m *BatchUpdateRequest) Reset()         { *m = BatchUpdateRequest{} }
func (m *BatchUpdateRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*BatchUpdateRequest) ProtoMessage()    {}

type BatchUpdateResponse struct{}

func (m *BatchUpdateResponse) Reset()         { *m = BatchUpdateResponse{} }
func (m *BatchUpdateResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*BatchUpdateResponse) ProtoMessage()    {}

type DeleteAllRequest struct {
	RegionName string `protobuf:"bytes,1,opt,name=region_name"`
	Row        []byte `protobuf:"bytes,2,opt,name=row"`
	Family     []byte `protobuf:"bytes,3,opt,name=family"`
	Qualifier  []byte `protobuf:"bytes,4,opt,name=qualifier"`
	Timestamp  int64  `protobuf:"varint,5,opt,name=timestamp"`
}

func (m *DeleteAllRequest) Reset()         { *m = DeleteAllRequest{} }
func (m *DeleteAllRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*DeleteAllRequest) ProtoMessage()    {}

type DeleteAllResponse struct{}

func (m *DeleteAllResponse) Reset()         { *m = DeleteAllResponse{} }
func (m *DeleteAllResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*DeleteAllResponse) ProtoMessage()    {}

type DeleteFamilyRequest struct {
	RegionName string `protobuf:"bytes,1,opt,name=region_name"`
	Row        []byte `protobuf:"bytes,2,opt,name=row"`
	Family     []byte `protobuf:"bytes,3,opt,name=family"`
	Timestamp  int64  `protobuf:"varint,4,opt,name=timestamp"`
}

func (m *DeleteFamilyRequest) Reset()         { *m = DeleteFamilyRequest{} }
func (m *DeleteFamilyRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*DeleteFamilyRequest) ProtoMessage()    {}

type DeleteFamilyResponse struct{}

func (m *DeleteFamilyResponse) Reset()         { *m = DeleteFamilyResponse{} }
func (m *DeleteFamilyResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*DeleteFamilyResponse) ProtoMessage()    {}

type OpenScannerRequest struct {
	RegionName string   `protobuf:"bytes,1,opt,name=region_name"`
	Columns    []string `protobuf:"bytes,2,rep,name=columns"`
	FirstRow   []byte   `protobuf:"bytes,3,opt,name=first_row"`
	Timestamp  int64    `protobuf:"varint,4,opt,name=timestamp"`
}

func (m *OpenScannerRequest) Reset()         { *m = OpenScannerRequest{} }
func (m *OpenScannerRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*OpenScannerRequest) ProtoMessage()    {}

type OpenScannerResponse struct {
	ScannerId uint64 `protobuf:"varint,1,opt,name=scanner_id"`
}

func (m *OpenScannerResponse) Reset()         { *m = OpenScannerResponse{} }
func (m *OpenScannerResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*OpenScannerResponse) ProtoMessage()    {}

type NextRequest struct {
	ScannerId uint64 `protobuf:"varint,1,opt,name=scanner_id"`
}

func (m *NextRequest) Reset()         { *m = NextRequest{} }
func (m *NextRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*NextRequest) ProtoMessage()    {}

type NextResponse struct {
	Row     []byte  `protobuf:"bytes,1,opt,name=row"`
	Cells   []*Cell `protobuf:"bytes,2,rep,name=cells"`
	HasNext bool    `protobuf:"varint,3,opt,name=has_next"`
}

func (m *NextResponse) Reset()         { *m = NextResponse{} }
func (m *NextResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*NextResponse) ProtoMessage()    {}

type CloseScannerRequest struct {
	ScannerId uint64 `protobuf:"varint,1,opt,name=scanner_id"`
}

func (m *CloseScannerRequest) Reset()         { *m = CloseScannerRequest{} }
func (m *CloseScannerRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*CloseScannerRequest) ProtoMessage()    {}

type CloseScannerResponse struct{}

func (m *CloseScannerResponse) Reset()         { *m = CloseScannerResponse{} }
func (m *CloseScannerResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*CloseScannerResponse) ProtoMessage()    {}

type GetProtocolVersionRequest struct {
	Protocol      string `protobuf:"bytes,1,opt,name=protocol"`
	ClientVersion int64  `protobuf:"varint,2,opt,name=client_version"`
}

func (m *GetProtocolVersionRequest) Reset()         { *m = GetProtocolVersionRequest{} }
func (m *GetProtocolVersionRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*GetProtocolVersionRequest) ProtoMessage()    {}

type GetProtocolVersionResponse struct {
	Version int64 `protobuf:"varint,1,opt,name=version"`
}

func (m *GetProtocolVersionResponse) Reset()         { *m = GetProtocolVersionResponse{} }
func (m *GetProtocolVersionResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*GetProtocolVersionResponse) ProtoMessage()    {}

// RegionServer is the client-facing contract of spec §4.8/§6.
type RegionServer interface {
	GetRegionInfo(context.Context, *GetRegionInfoRequest) (*GetRegionInfoResponse, error)
	Get(context.Context, *GetRequest) (*GetResponse, error)
	GetRow(context.Context, *GetRowRequest) (*GetRowResponse, error)
	GetClosestRowBefore(context.Context, *GetClosestRowBeforeRequest) (*GetClosestRowBeforeResponse, error)
	BatchUpdate(context.Context, *BatchUpdateRequest) (*BatchUpdateResponse, error)
	DeleteAll(context.Context, *DeleteAllRequest) (*DeleteAllResponse, error)
	DeleteFamily(context.Context, *DeleteFamilyRequest) (*DeleteFamilyResponse, error)
	OpenScanner(context.Context, *OpenScannerRequest) (*OpenScannerResponse, error)
	Next(context.Context, *NextRequest) (*NextResponse, error)
	CloseScanner(context.Context, *CloseScannerRequest) (*CloseScannerResponse, error)
	GetProtocolVersion(context.Context, *GetProtocolVersionRequest) (*GetProtocolVersionResponse, error)
}

type UnimplementedRegionServer struct{}

func (UnimplementedRegionServer) GetRegionInfo(context.Context, *GetRegionInfoRequest) (*GetRegionInfoResponse, error) {
	return nil, errUnimplemented("GetRegionInfo")
}
func (UnimplementedRegionServer) Get(context.Context, *GetRequest) (*GetResponse, error) {
	return nil, errUnimplemented("Get")
}
func (UnimplementedRegionServer) GetRow(context.Context, *GetRowRequest) (*GetRowResponse, error) {
	return nil, errUnimplemented("GetRow")
}
func (UnimplementedRegionServer) GetClosestRowBefore(context.Context, *GetClosestRowBeforeRequest) (*GetClosestRowBeforeResponse, error) {
	return nil, errUnimplemented("GetClosestRowBefore")
}
func (UnimplementedRegionServer) BatchUpdate(context.Context, *BatchUpdateRequest) (*BatchUpdateResponse, error) {
	return nil, errUnimplemented("BatchUpdate")
}
func (UnimplementedRegionServer) DeleteAll(context.Context, *DeleteAllRequest) (*DeleteAllResponse, error) {
	return nil, errUnimplemented("DeleteAll")
}
func (UnimplementedRegionServer) DeleteFamily(context.Context, *DeleteFamilyRequest) (*DeleteFamilyResponse, error) {
	return nil, errUnimplemented("DeleteFamily")
}
func (UnimplementedRegionServer) OpenScanner(context.Context, *OpenScannerRequest) (*OpenScannerResponse, error) {
	return nil, errUnimplemented("OpenScanner")
}
func (UnimplementedRegionServer) Next(context.Context, *NextRequest) (*NextResponse, error) {
	return nil, errUnimplemented("Next")
}
func (UnimplementedRegionServer) CloseScanner(context.Context, *CloseScannerRequest) (*CloseScannerResponse, error) {
	return nil, errUnimplemented("CloseScanner")
}
func (UnimplementedRegionServer) GetProtocolVersion(context.Context, *GetProtocolVersionRequest) (*GetProtocolVersionResponse, error) {
	return nil, errUnimplemented("GetProtocolVersion")
}

var regionServiceDesc = grpc.ServiceDesc{
	ServiceName: "regionserver.api.RegionServer",
	HandlerType: (*RegionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetRegionInfo", Handler: _Region_GetRegionInfo_Handler},
		{MethodName: "Get", Handler: _Region_Get_Handler},
		{MethodName: "GetRow", Handler: _Region_GetRow_Handler},
		{MethodName: "GetClosestRowBefore", Handler: _Region_GetClosestRowBefore_Handler},
		{MethodName: "BatchUpdate", Handler: _Region_BatchUpdate_Handler},
		{MethodName: "DeleteAll", Handler: _Region_DeleteAll_Handler},
		{MethodName: "DeleteFamily", Handler: _Region_DeleteFamily_Handler},
		{MethodName: "OpenScanner", Handler: _Region_OpenScanner_Handler},
		{MethodName: "Next", Handler: _Region_Next_Handler},
		{MethodName: "CloseScanner", Handler: _Region_CloseScanner_Handler},
		{MethodName: "GetProtocolVersion", Handler: _Region_GetProtocolVersion_Handler},
	},
}

// RegisterRegionServer registers srv on s.
func RegisterRegionServer(s *grpc.Server, srv RegionServer) {
	s.RegisterService(&regionServiceDesc, srv)
}

func _Region_GetRegionInfo_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetRegionInfoRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RegionServer).GetRegionInfo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/regionserver.api.RegionServer/GetRegionInfo"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RegionServer).GetRegionInfo(ctx, req.(*GetRegionInfoRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Region_Get_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RegionServer).Get(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/regionserver.api.RegionServer/Get"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RegionServer).Get(ctx, req.(*GetRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Region_GetRow_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetRowRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RegionServer).GetRow(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/regionserver.api.RegionServer/GetRow"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RegionServer).GetRow(ctx, req.(*GetRowRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Region_GetClosestRowBefore_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetClosestRowBeforeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RegionServer).GetClosestRowBefore(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/regionserver.api.RegionServer/GetClosestRowBefore"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RegionServer).GetClosestRowBefore(ctx, req.(*GetClosestRowBeforeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Region_BatchUpdate_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(BatchUpdateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RegionServer).BatchUpdate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/regionserver.api.RegionServer/BatchUpdate"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RegionServer).BatchUpdate(ctx, req.(*BatchUpdateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Region_DeleteAll_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(DeleteAllRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RegionServer).DeleteAll(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/regionserver.api.RegionServer/DeleteAll"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RegionServer).DeleteAll(ctx, req.(*DeleteAllRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Region_DeleteFamily_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(DeleteFamilyRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RegionServer).DeleteFamily(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/regionserver.api.RegionServer/DeleteFamily"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RegionServer).DeleteFamily(ctx, req.(*DeleteFamilyRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Region_OpenScanner_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(OpenScannerRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RegionServer).OpenScanner(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/regionserver.api.RegionServer/OpenScanner"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RegionServer).OpenScanner(ctx, req.(*OpenScannerRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Region_Next_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(NextRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RegionServer).Next(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/regionserver.api.RegionServer/Next"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RegionServer).Next(ctx, req.(*NextRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Region_CloseScanner_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CloseScannerRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RegionServer).CloseScanner(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/regionserver.api.RegionServer/CloseScanner"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RegionServer).CloseScanner(ctx, req.(*CloseScannerRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Region_GetProtocolVersion_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetProtocolVersionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RegionServer).GetProtocolVersion(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/regionserver.api.RegionServer/GetProtocolVersion"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RegionServer).GetProtocolVersion(ctx, req.(*GetProtocolVersionRequest))
	}
	return interceptor(ctx, in, info, handler)
}
