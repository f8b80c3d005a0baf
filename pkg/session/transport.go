package session

import (
	"bytes"
	"context"
	"io"

	"github.com/go-faster/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"

	"github.com/TFMV/deltabox/pkg/proto"
)

// Engine service wire surface, maintained by hand against engine.proto.
const (
	engineServiceName   = "delta.connect.Engine"
	engineExecuteMethod = "/delta.connect.Engine/Execute"
)

var engineExecuteStreamDesc = grpc.StreamDesc{
	StreamName:    "Execute",
	ServerStreams: true,
}

// grpcExecutor submits plans over a gRPC connection and reassembles the
// streamed Arrow IPC chunks.
type grpcExecutor struct {
	conn *grpc.ClientConn
}

func dialExecutor(_ context.Context, opts *Options) (*grpcExecutor, error) {
	conn, err := grpc.NewClient(opts.Addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithConnectParams(grpc.ConnectParams{
			Backoff:           backoff.DefaultConfig,
			MinConnectTimeout: opts.DialTimeout,
		}),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(wireCodec{})),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create engine connection")
	}
	return &grpcExecutor{conn: conn}, nil
}

// NewGRPCExecutor wraps an existing connection, e.g. one dialed over
// bufconn in tests or with custom credentials.
func NewGRPCExecutor(conn *grpc.ClientConn) Executor {
	return &grpcExecutor{conn: conn}
}

func (e *grpcExecutor) Execute(ctx context.Context, sessionID string, plan *proto.Relation) (*Rows, error) {
	stream, err := e.conn.NewStream(ctx, &engineExecuteStreamDesc, engineExecuteMethod, grpc.ForceCodec(wireCodec{}))
	if err != nil {
		return nil, errors.Wrap(err, "open execute stream")
	}
	req := &proto.ExecuteRequest{SessionID: sessionID, Plan: plan}
	if err := stream.SendMsg(req); err != nil {
		return nil, errors.Wrap(err, "send plan")
	}
	if err := stream.CloseSend(); err != nil {
		return nil, errors.Wrap(err, "close send")
	}

	var buf bytes.Buffer
	for {
		resp := &proto.ExecuteResponse{}
		err := stream.RecvMsg(resp)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "receive result chunk")
		}
		buf.Write(resp.Data)
	}
	return RowsFromIPC(buf.Bytes())
}

func (e *grpcExecutor) Close() error {
	return e.conn.Close()
}

// EngineServer is the server half of the Execute call. Go engines (and the
// fakes in this repo's tests) implement it and register with
// RegisterEngineServer.
type EngineServer interface {
	Execute(req *proto.ExecuteRequest, stream EngineExecuteStream) error
}

// EngineExecuteStream sends result chunks back to the client.
type EngineExecuteStream interface {
	Send(*proto.ExecuteResponse) error
	grpc.ServerStream
}

type engineExecuteStream struct {
	grpc.ServerStream
}

func (s *engineExecuteStream) Send(resp *proto.ExecuteResponse) error {
	return s.ServerStream.SendMsg(resp)
}

func engineExecuteHandler(srv interface{}, stream grpc.ServerStream) error {
	req := &proto.ExecuteRequest{}
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(EngineServer).Execute(req, &engineExecuteStream{stream})
}

var engineServiceDesc = grpc.ServiceDesc{
	ServiceName: engineServiceName,
	HandlerType: (*EngineServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Execute",
			Handler:       engineExecuteHandler,
			ServerStreams: true,
		},
	},
	Metadata: "delta/connect/engine.proto",
}

// RegisterEngineServer registers srv on a gRPC server. The server must be
// created with grpc.ForceServerCodec(WireCodec()) since the messages are
// not generated-stub types.
func RegisterEngineServer(s grpc.ServiceRegistrar, srv EngineServer) {
	s.RegisterService(&engineServiceDesc, srv)
}

// WireCodec returns the codec understood by RegisterEngineServer and the
// client side of this package.
func WireCodec() encoding.Codec {
	return wireCodec{}
}
