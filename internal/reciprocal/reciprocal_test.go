package reciprocal

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/threadshift/internal/bodymap"
	"github.com/ppiankov/threadshift/internal/bodymap/bodymaptest"
	"github.com/ppiankov/threadshift/internal/model"
	"github.com/ppiankov/threadshift/internal/swap"
)

func descriptor(t *testing.T, b model.BodyMap, z string) string {
	t.Helper()
	d, ok := bodymap.Descriptor(b, z)
	require.True(t, ok, "zone %s has no descriptor", z)
	return d
}

func orchestrators() map[string]*Orchestrator {
	eng := swap.New()
	eng.Initialize()
	return map[string]*Orchestrator{
		"engine":   New(WithEngine(eng)),
		"fallback": New(),
	}
}

func TestSwapMissingZoneIsSkipped(t *testing.T) {
	for name, o := range orchestrators() {
		t.Run(name, func(t *testing.T) {
			a, b := bodymaptest.Valid("a"), bodymaptest.Valid("b")
			delete(a, "waist")
			origA, origB := bodymap.CopyBody(a), bodymap.CopyBody(b)

			res, err := o.Swap(a, b, []string{"jacket"})
			require.NoError(t, err)

			assert.True(t, res.Success)
			assert.Equal(t, []string{"chest"}, res.ZonesSwapped)
			assert.Equal(t, []string{"waist"}, res.ZonesSkipped)
			assert.Equal(t, "b chest", descriptor(t, res.UpdatedA, "chest"))
			assert.Equal(t, "a chest", descriptor(t, res.UpdatedB, "chest"))
			assert.NotContains(t, res.UpdatedA, "waist")
			assert.Equal(t, "b waist", descriptor(t, res.UpdatedB, "waist"))

			assert.Empty(t, cmp.Diff(origA, a), "input A mutated")
			assert.Empty(t, cmp.Diff(origB, b), "input B mutated")
		})
	}
}

func TestSwapNoValidZones(t *testing.T) {
	for name, o := range orchestrators() {
		t.Run(name, func(t *testing.T) {
			a, b := bodymaptest.Valid("a"), bodymaptest.Valid("b")
			res, err := o.Swap(a, b, []string{"cape", "unknown"})
			require.NoError(t, err)
			assert.True(t, res.Success)
			assert.Empty(t, res.ZonesSwapped)
			assert.Equal(t, "No valid zones to swap", res.Message)
			assert.Empty(t, cmp.Diff(a, res.UpdatedA))
		})
	}
}

func TestSwapInvalidInputs(t *testing.T) {
	o := New()
	_, err := o.Swap(nil, bodymaptest.Valid("b"), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	b := bodymaptest.Valid("b")
	b["torso"] = map[string]any{}
	a := bodymaptest.Valid("a")
	orig := bodymap.CopyBody(a)

	_, err = o.Swap(a, b, []string{"bra"})
	require.ErrorIs(t, err, ErrInvalidBodyMap)
	assert.Contains(t, err.Error(), "character B")
	assert.Contains(t, err.Error(), "Invalid zone 'torso' must not be present")
	assert.Empty(t, cmp.Diff(orig, a))
}

func TestSwapMultipleGarmentsUnion(t *testing.T) {
	for name, o := range orchestrators() {
		t.Run(name, func(t *testing.T) {
			a, b := bodymaptest.Valid("a"), bodymaptest.Valid("b")
			res, err := o.Swap(a, b, []string{"gloves", "socks", "1.0201"})
			require.NoError(t, err)
			assert.Equal(t, []string{"hands", "feet", "chest"}, res.ZonesSwapped)
			for _, z := range res.ZonesSwapped {
				assert.Equal(t, "b "+z, descriptor(t, res.UpdatedA, z))
				assert.Equal(t, "a "+z, descriptor(t, res.UpdatedB, z))
			}
		})
	}
}

func TestSwapFallbackMessage(t *testing.T) {
	res, err := New().Swap(bodymaptest.Valid("a"), bodymaptest.Valid("b"), []string{"hat"})
	require.NoError(t, err)
	assert.Equal(t, "Successfully swapped 1 zones using fallback method", res.Message)
}

func TestIsSwappableZone(t *testing.T) {
	assert.True(t, IsSwappableZone("arms"))
	assert.True(t, IsSwappableZone("hips"))
	assert.False(t, IsSwappableZone("head"))
	assert.False(t, IsSwappableZone("butt"))
}

func TestHandleReciprocal(t *testing.T) {
	o := New()
	src := &model.Character{ID: "a", Body: bodymaptest.Valid("a")}

	err := o.HandleReciprocal(context.Background(), swap.ReciprocalRequest{
		SwapID: "swap_1",
		Source: src,
		Zones:  []string{"chest", "waist"},
		Displaced: map[string]any{
			"chest": map[string]any{"descriptor": "b chest"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "b chest", descriptor(t, src.Body, "chest"))
	assert.Equal(t, "a waist", descriptor(t, src.Body, "waist"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, o.HandleReciprocal(ctx, swap.ReciprocalRequest{Source: src}), context.Canceled)
	assert.ErrorIs(t, o.HandleReciprocal(context.Background(), swap.ReciprocalRequest{}), ErrInvalidInput)
}

func TestEngineBidirectionalWithOrchestrator(t *testing.T) {
	eng := swap.New()
	o := New(WithEngine(eng))
	eng.AttachReciprocator(o)
	eng.Initialize()

	src := &model.Character{ID: "a", Body: bodymaptest.Valid("a")}
	tgt := &model.Character{ID: "b", Body: bodymaptest.Valid("b")}

	_, err := eng.PerformSwap(context.Background(), src, tgt, "1.0501")
	require.NoError(t, err)
	for _, z := range []string{"chest", "waist"} {
		assert.Equal(t, "b "+z, descriptor(t, src.Body, z))
		assert.Equal(t, "a "+z, descriptor(t, tgt.Body, z))
	}
}
