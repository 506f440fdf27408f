package server

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ppiankov/threadshift/internal/bodymap"
	"github.com/ppiankov/threadshift/internal/bodymap/bodymaptest"
	"github.com/ppiankov/threadshift/internal/config"
	"github.com/ppiankov/threadshift/internal/core"
	"github.com/ppiankov/threadshift/internal/model"
	"github.com/ppiankov/threadshift/internal/ratelimit"
	"github.com/ppiankov/threadshift/internal/reciprocal"
	"github.com/ppiankov/threadshift/internal/settings"
)

func startCore(t *testing.T) *core.Core {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Store.Backend = settings.BackendMemory
	c := core.New(cfg)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() { c.Close() })
	return c
}

// testServer spins up an in-process gRPC server on a random port and
// returns a connection to it.
func testServer(t *testing.T, cfg Config) (*Server, *grpc.ClientConn) {
	t.Helper()

	srv, err := New(startCore(t), cfg, nil)
	require.NoError(t, err)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.ServeOn(lis)

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		srv.GracefulStop()
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		srv.GracefulStop()
	})
	return srv, conn
}

func invoke(t *testing.T, conn *grpc.ClientConn, method string, req, resp any) error {
	t.Helper()
	in, err := ToStruct(req)
	require.NoError(t, err)
	out := new(structpb.Struct)
	if err := conn.Invoke(context.Background(), FullMethod(method), in, out); err != nil {
		return err
	}
	require.NoError(t, FromStruct(out, resp))
	return nil
}

func TestNewRequiresStartedCore(t *testing.T) {
	_, err := New(core.New(nil), Config{}, nil)
	assert.ErrorIs(t, err, core.ErrNotStarted)
}

func TestValidateRPC(t *testing.T) {
	_, conn := testServer(t, Config{})

	body := bodymaptest.Valid("a")
	body["torso"] = map[string]any{}

	var res bodymap.Result
	require.NoError(t, invoke(t, conn, MethodValidate, ValidateRequest{Body: body}, &res))
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Errors)

	var empty bodymap.Result
	require.NoError(t, invoke(t, conn, MethodValidate, struct{}{}, &empty))
	assert.False(t, empty.Valid, "a missing body is invalid")
}

func TestSwapRPCThenReverse(t *testing.T) {
	_, conn := testServer(t, Config{})

	req := SwapRequest{
		Source:  &model.Character{ID: "alice", Body: bodymaptest.Valid("alice")},
		Target:  &model.Character{ID: "bob", Body: bodymaptest.Valid("bob")},
		Garment: "char_alice.01001",
	}
	var res SwapResponse
	require.NoError(t, invoke(t, conn, MethodSwap, req, &res))
	assert.Equal(t, res.SwapID, res.Record.ID)
	assert.Equal(t, []string{"genitals"}, res.Record.Zones)
	assert.Equal(t, model.GarmentPanties, res.Record.Garment.Type)

	var rev ReverseResponse
	require.NoError(t, invoke(t, conn, MethodReverse, ReverseRequest{SwapID: res.SwapID}, &rev))
	assert.Equal(t, model.SwapReversed, rev.Status)
	assert.Equal(t, "bob", rev.Target.ID)

	err := invoke(t, conn, MethodReverse, ReverseRequest{SwapID: "swap_unknown"}, &rev)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestSwapRPCValidationFailure(t *testing.T) {
	_, conn := testServer(t, Config{})

	src := bodymaptest.Valid("alice")
	delete(src, "face")
	req := SwapRequest{
		Source:  &model.Character{ID: "alice", Body: src},
		Target:  &model.Character{ID: "bob", Body: bodymaptest.Valid("bob")},
		Garment: "char_alice.02001",
	}
	var res SwapResponse
	err := invoke(t, conn, MethodSwap, req, &res)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestReciprocalRPC(t *testing.T) {
	_, conn := testServer(t, Config{})

	a, b := bodymaptest.Valid("a"), bodymaptest.Valid("b")
	delete(a, "waist")

	var res reciprocal.Result
	require.NoError(t, invoke(t, conn, MethodReciprocal, reciprocal.Pair{A: a, B: b, Garments: []string{"jacket"}}, &res))
	assert.True(t, res.Success)
	assert.Equal(t, []string{"chest"}, res.ZonesSwapped)

	var p reciprocal.Preview
	require.NoError(t, invoke(t, conn, MethodPreview, reciprocal.Pair{A: a, B: b, Garments: []string{"jacket"}}, &p))
	assert.Equal(t, 1, p.SwappableZones)
	require.Len(t, p.Entries, 2)

	bad := bodymaptest.Valid("x")
	bad["height"] = map[string]any{}
	err := invoke(t, conn, MethodReciprocal, reciprocal.Pair{A: bad, B: b, Garments: []string{"jacket"}}, &res)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestStatusRPC(t *testing.T) {
	_, conn := testServer(t, Config{})

	var st core.Status
	require.NoError(t, invoke(t, conn, MethodStatus, struct{}{}, &st))
	assert.True(t, st.Initialized)
	assert.True(t, st.ReciprocalHandler)
	assert.Equal(t, core.APIVersion, st.APIVersion)
}

func TestRateLimitedRPC(t *testing.T) {
	_, conn := testServer(t, Config{RateLimits: ratelimit.Config{
		MethodStatus: {MaxRequests: 2, Window: time.Hour},
	}})

	var st core.Status
	require.NoError(t, invoke(t, conn, MethodStatus, struct{}{}, &st))
	require.NoError(t, invoke(t, conn, MethodStatus, struct{}{}, &st))
	err := invoke(t, conn, MethodStatus, struct{}{}, &st)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))

	var res bodymap.Result
	require.NoError(t, invoke(t, conn, MethodValidate, ValidateRequest{Body: bodymaptest.Valid("a")}, &res), "other methods are not limited")
}

func TestFullMethod(t *testing.T) {
	assert.Equal(t, "/threadshift.v1.Threadshift/Swap", FullMethod(MethodSwap))
	assert.Len(t, ServiceDesc.Methods, 6)
}

func writeProfile(t *testing.T, path, shirtZones string) {
	t.Helper()
	content := "name: watched\nzone_mappings:\n  shirt: " + shirtZones + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestReloadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watched.yaml")
	writeProfile(t, path, "[chest, arms]")

	srv, _ := testServer(t, Config{ProfilePath: path})
	require.NoError(t, srv.ReloadProfile())
	assert.Equal(t, []string{"chest", "arms"}, srv.core.Mapper().ZonesForGarmentType("shirt"))

	writeProfile(t, path, "[tail]")
	assert.Error(t, srv.ReloadProfile(), "invalid zones are rejected")
	assert.Equal(t, []string{"chest", "arms"}, srv.core.Mapper().ZonesForGarmentType("shirt"))
}

type countingReloader struct {
	calls atomic.Int32
}

func (c *countingReloader) ReloadProfile() error {
	c.calls.Add(1)
	return nil
}

func TestReloaderDebouncesWrites(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	path := filepath.Join(t.TempDir(), "watched.yaml")
	writeProfile(t, path, "[chest]")

	target := &countingReloader{}
	r, err := NewReloader(target, []string{path, "", filepath.Join(t.TempDir(), "missing.yaml")}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, r.Paths())
	r.SetDebounce(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	for i := 0; i < 3; i++ {
		writeProfile(t, path, "[chest, arms]")
	}
	assert.Eventually(t, func() bool { return target.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), target.calls.Load(), "burst of writes reloads once")

	cancel()
	require.NoError(t, <-done)
}

func TestReloaderWithServer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watched.yaml")
	writeProfile(t, path, "[chest]")

	srv, _ := testServer(t, Config{ProfilePath: path})
	r, err := NewReloader(srv, []string{path}, nil)
	require.NoError(t, err)
	r.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	writeProfile(t, path, "[chest, neck]")
	assert.Eventually(t, func() bool {
		got := srv.core.Mapper().ZonesForGarmentType("shirt")
		return len(got) == 2 && got[1] == "neck"
	}, 2*time.Second, 10*time.Millisecond)
}
