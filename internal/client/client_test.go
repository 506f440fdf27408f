package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ppiankov/threadshift/internal/bodymap/bodymaptest"
	"github.com/ppiankov/threadshift/internal/config"
	"github.com/ppiankov/threadshift/internal/core"
	"github.com/ppiankov/threadshift/internal/model"
	"github.com/ppiankov/threadshift/internal/server"
	"github.com/ppiankov/threadshift/internal/settings"
)

// startTestServer starts a core-backed server and returns a client for it.
func startTestServer(t *testing.T) *Client {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Store.Backend = settings.BackendMemory
	c := core.New(cfg)
	require.NoError(t, c.Start(context.Background()))

	srv, err := server.New(c, server.Config{}, nil)
	require.NoError(t, err)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.ServeOn(lis)

	cl, err := New(lis.Addr().String())
	require.NoError(t, err)

	t.Cleanup(func() {
		cl.Close()
		srv.GracefulStop()
		c.Close()
	})
	return cl
}

func TestClientValidate(t *testing.T) {
	cl := startTestServer(t)
	ctx := context.Background()

	res, err := cl.Validate(ctx, bodymaptest.Valid("a"), false)
	require.NoError(t, err)
	assert.True(t, res.Valid, res.Errors)

	body := bodymaptest.Valid("a")
	delete(body, "hair")
	res, err = cl.Validate(ctx, body, false)
	require.NoError(t, err)
	assert.False(t, res.Valid)

	res, err = cl.Validate(ctx, body, true)
	require.NoError(t, err)
	assert.True(t, res.Valid, "partial validation ignores missing required zones")
}

func TestClientSwapAndReverse(t *testing.T) {
	cl := startTestServer(t)
	ctx := context.Background()

	src := &model.Character{ID: "alice", Body: bodymaptest.Valid("alice")}
	tgt := &model.Character{ID: "bob", Body: bodymaptest.Valid("bob")}

	res, err := cl.Swap(ctx, src, tgt, "char_alice.02001")
	require.NoError(t, err)
	require.NotEmpty(t, res.SwapID)
	assert.Equal(t, "alice chest", res.Target.Body["chest"].(map[string]any)["descriptor"])
	assert.Equal(t, "bob chest", res.Source.Body["chest"].(map[string]any)["descriptor"], "bidirectional by default")
	assert.Equal(t, []string{"chest"}, res.Record.Zones)

	rev, err := cl.Reverse(ctx, res.SwapID)
	require.NoError(t, err)
	assert.Equal(t, model.SwapReversed, rev.Status)
	require.NotNil(t, rev.Target)
	assert.Equal(t, "bob chest", rev.Target.Body["chest"].(map[string]any)["descriptor"])
	assert.Equal(t, "alice chest", rev.Source.Body["chest"].(map[string]any)["descriptor"])

	_, err = cl.Reverse(ctx, res.SwapID)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestClientSwapErrors(t *testing.T) {
	cl := startTestServer(t)
	ctx := context.Background()

	src := &model.Character{ID: "alice", Body: bodymaptest.Valid("alice")}
	tgt := &model.Character{ID: "bob", Body: bodymaptest.Valid("bob")}

	_, err := cl.Swap(ctx, src, tgt, "not-a-ref")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = cl.Swap(ctx, nil, tgt, "char_alice.02001")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestClientReciprocalAndPreview(t *testing.T) {
	cl := startTestServer(t)
	ctx := context.Background()

	a, b := bodymaptest.Valid("a"), bodymaptest.Valid("b")
	garments := []string{"jacket"}

	p, err := cl.Preview(ctx, a, b, garments)
	require.NoError(t, err)
	assert.Equal(t, 2, p.TotalZones)
	assert.Equal(t, 2, p.SwappableZones)

	res, err := cl.Reciprocal(ctx, a, b, garments)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.ElementsMatch(t, []string{"chest", "waist"}, res.ZonesSwapped)
	assert.Equal(t, "b chest", res.UpdatedA["chest"].(map[string]any)["descriptor"])
}

func TestClientStatus(t *testing.T) {
	cl := startTestServer(t)

	st, err := cl.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.PluginName, st.PluginName)
	assert.True(t, st.Initialized)
	assert.Equal(t, settings.Namespace, st.Storage.Namespace)
}

func TestClientUnreachableServer(t *testing.T) {
	cl, err := New("127.0.0.1:1")
	require.NoError(t, err)
	defer cl.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_, err = cl.Status(ctx)
	assert.Error(t, err)
}
