package api

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
)

// --- Master-facing RPC (spec.md §6): startup, report ---
//
// Every message below implements proto.Message the same way
// internal/catalog/descriptor.go does: hand-written Reset/String/
// ProtoMessage plus `protobuf:"..."` struct tags, so grpc's default
// codec (google.golang.org/protobuf/proto, via its legacy-message
// support for the Reset/String/ProtoMessage trio) can marshal them
// without a protoc-generated .pb.go file.

type Identity struct {
	Address   string `protobuf:"bytes,1,opt,name=address"`
	StartCode int64  `protobuf:"varint,2,opt,name=start_code"`
	InfoPort  int32  `protobuf:"varint,3,opt,name=info_port"`
}

func (m *Identity) Reset()         { *m = Identity{} }
func (m *Identity) String() string { return fmt.Sprintf("%+v", *m) }
func (*Identity) ProtoMessage()    {}

type StartupRequest struct {
	Identity *Identity `protobuf:"bytes,1,opt,name=identity"`
}

func (m *StartupRequest) Reset()         { *m = StartupRequest{} }
func (m *StartupRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*StartupRequest) ProtoMessage()    {}

type StartupResponse struct {
	Config map[string]string `protobuf:"bytes,1,rep,name=config" protobuf_key:"bytes,1,opt,name=key" protobuf_val:"bytes,2,opt,name=value"`
}

func (m *StartupResponse) Reset()         { *m = StartupResponse{} }
func (m *StartupResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*StartupResponse) ProtoMessage()    {}

type OutboundMessage struct {
	Kind       int32  `protobuf:"varint,1,opt,name=kind"`
	RegionName string `protobuf:"bytes,2,opt,name=region_name"`
}

func (m *OutboundMessage) Reset()         { *m = OutboundMessage{} }
func (m *OutboundMessage) String() string { return fmt.Sprintf("%+v", *m) }
func (*OutboundMessage) ProtoMessage()    {}

type ReportRequest struct {
	Identity *Identity          `protobuf:"bytes,1,opt,name=identity"`
	Messages []*OutboundMessage `protobuf:"bytes,2,rep,name=messages"`
}

func (m *ReportRequest) Reset()         { *m = ReportRequest{} }
func (m *ReportRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*ReportRequest) ProtoMessage()    {}

type RegionDescriptor struct {
	Table       string   `protobuf:"bytes,1,opt,name=table"`
	StartKey    []byte   `protobuf:"bytes,2,opt,name=start_key"`
	EndKey      []byte   `protobuf:"bytes,3,opt,name=end_key"`
	IsMetaTable bool     `protobuf:"varint,4,opt,name=is_meta_table"`
	IsRootTable bool     `protobuf:"varint,5,opt,name=is_root_table"`
	Families    []string `protobuf:"bytes,6,rep,name=families"`
}

func (m *RegionDescriptor) Reset()         { *m = RegionDescriptor{} }
func (m *RegionDescriptor) String() string { return fmt.Sprintf("%+v", *m) }
func (*RegionDescriptor) ProtoMessage()    {}

type InstructionMessage struct {
	Kind       int32             `protobuf:"varint,1,opt,name=kind"`
	RegionName string            `protobuf:"bytes,2,opt,name=region_name"`
	Descriptor *RegionDescriptor `protobuf:"bytes,3,opt,name=descriptor"`
}

func (m *InstructionMessage) Reset()         { *m = InstructionMessage{} }
func (m *InstructionMessage) String() string { return fmt.Sprintf("%+v", *m) }
func (*InstructionMessage) ProtoMessage()    {}

type ReportResponse struct {
	Instructions []*InstructionMessage `protobuf:"bytes,1,rep,name=instructions"`
}

func (m *ReportResponse) Reset()         { *m = ReportResponse{} }
func (m *ReportResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*ReportResponse) ProtoMessage()    {}

// MasterServer is the master-side contract the region server dials into.
type MasterServer interface {
	Startup(context.Context, *StartupRequest) (*StartupResponse, error)
	Report(context.Context, *ReportRequest) (*ReportResponse, error)
}

type UnimplementedMasterServer struct{}

func (UnimplementedMasterServer) Startup(context.Context, *StartupRequest) (*StartupResponse, error) {
	return nil, errUnimplemented("Startup")
}

func (UnimplementedMasterServer) Report(context.Context, *ReportRequest) (*ReportResponse, error) {
	return nil, errUnimplemented("Report")
}

// MasterClient is the region server's view of the master, hand-bound the
// same way protoc-gen-go-grpc would generate it: each method invokes the
// service method by its wire path over a grpc.ClientConnInterface.
type MasterClient interface {
	Startup(ctx context.Context, in *StartupRequest, opts ...grpc.CallOption) (*StartupResponse, error)
	Report(ctx context.Context, in *ReportRequest, opts ...grpc.CallOption) (*ReportResponse, error)
}

type masterClient struct {
	cc grpc.ClientConnInterface
}

// NewMasterClient wraps an established connection.
func NewMasterClient(cc grpc.ClientConnInterface) MasterClient {
	return &masterClient{cc: cc}
}

func (c *masterClient) Startup(ctx context.Context, in *StartupRequest, opts ...grpc.CallOption) (*StartupResponse, error) {
	out := new(StartupResponse)
	if err := c.cc.Invoke(ctx, "/regionserver.api.Master/Startup", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *masterClient) Report(ctx context.Context, in *ReportRequest, opts ...grpc.CallOption) (*ReportResponse, error) {
	out := new(ReportResponse)
	if err := c.cc.Invoke(ctx, "/regionserver.api.Master/Report", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

var masterServiceDesc = grpc.ServiceDesc{
	ServiceName: "regionserver.api.Master",
	HandlerType: (*MasterServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Startup", Handler: _Master_Startup_Handler},
		{MethodName: "Report", Handler: _Master_Report_Handler},
	},
}

// RegisterMasterServer registers srv on s.
func RegisterMasterServer(s *grpc.Server, srv MasterServer) {
	s.RegisterService(&masterServiceDesc, srv)
}

func _Master_Startup_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(StartupRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MasterServer).Startup(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/regionserver.api.Master/Startup"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MasterServer).Startup(ctx, req.(*StartupRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Master_Report_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ReportRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MasterServer).Report(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/regionserver.api.Master/Report"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MasterServer).Report(ctx, req.(*ReportRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func errUnimplemented(method string) error {
	return &unimplementedError{method: method}
}

type unimplementedError struct{ method string }

func (e *unimplementedError) Error() string { return "api: " + e.method + " not implemented" }
