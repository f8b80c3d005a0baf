package session

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/TFMV/deltabox/pkg/proto"
)

// fakeEngine answers every plan with a canned IPC payload, split into
// chunks to exercise stream reassembly.
type fakeEngine struct {
	payload []byte
	fail    bool

	lastReq *proto.ExecuteRequest
}

func (e *fakeEngine) Execute(req *proto.ExecuteRequest, stream EngineExecuteStream) error {
	e.lastReq = req
	if e.fail {
		return status.Error(codes.NotFound, "table not found")
	}
	mid := len(e.payload) / 2
	if err := stream.Send(&proto.ExecuteResponse{Data: e.payload[:mid]}); err != nil {
		return err
	}
	return stream.Send(&proto.ExecuteResponse{Data: e.payload[mid:]})
}

func startEngine(t *testing.T, engine *fakeEngine) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ForceServerCodec(WireCodec()))
	RegisterEngineServer(srv, engine)
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return lis.Dial()
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestGRPCExecutorRoundTrip(t *testing.T) {
	engine := &fakeEngine{payload: detailIPC(t)}
	conn := startEngine(t, engine)

	s := New(NewGRPCExecutor(conn), nil)
	ds := s.Relation(func(r *proto.Relation) {
		require.NoError(t, r.PackExtension(&proto.DeltaRelation{
			DescribeDetail: &proto.DescribeDetail{Table: proto.NewNamedTable("sales.orders")},
		}))
	})

	rows, err := ds.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rows.NumRows())

	format, err := rows.String(0, rows.ColumnIndex("format"))
	require.NoError(t, err)
	assert.Equal(t, "delta", format)

	// the plan arrived intact on the server side
	require.NotNil(t, engine.lastReq)
	assert.Equal(t, s.ID(), engine.lastReq.SessionID)
	d, err := engine.lastReq.Plan.UnpackExtension()
	require.NoError(t, err)
	require.NotNil(t, d.DescribeDetail)
	assert.Equal(t, "sales.orders", d.DescribeDetail.Table.TableOrViewName)
}

func TestGRPCExecutorRemoteFailure(t *testing.T) {
	engine := &fakeEngine{fail: true}
	conn := startEngine(t, engine)

	s := New(NewGRPCExecutor(conn), nil)
	_, err := s.Relation(func(*proto.Relation) {}).Collect(context.Background())
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(errorCause(err)))
}

// errorCause walks to the innermost error for status inspection.
func errorCause(err error) error {
	for {
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return err
		}
		inner := u.Unwrap()
		if inner == nil {
			return err
		}
		err = inner
	}
}
