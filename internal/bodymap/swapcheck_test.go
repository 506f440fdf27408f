package bodymap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/threadshift/internal/bodymap/bodymaptest"
)

func TestValidateSwapAcceptsValidPair(t *testing.T) {
	v := NewValidator()
	err := v.ValidateSwap(bodymaptest.Valid("a"), bodymaptest.Valid("b"), []string{"chest"})
	assert.NoError(t, err)
}

func TestValidateSwapPrefixesSide(t *testing.T) {
	target := bodymaptest.Valid("b")
	delete(target, "feet")

	err := NewValidator().ValidateSwap(bodymaptest.Valid("a"), target, []string{"chest"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"target: Missing zone: feet"}, ve.Errors)
}

func TestValidateSwapNilBody(t *testing.T) {
	err := NewValidator().ValidateSwap(nil, bodymaptest.Valid("b"), []string{"chest"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source: Body map must be a valid object")
}

func TestValidateSwapZoneChecks(t *testing.T) {
	v := NewValidator()
	err := v.ValidateSwap(bodymaptest.Valid("a"), bodymaptest.Valid("b"), []string{"head", "tail"})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{
		"zone 'head' cannot be swapped",
		"source carries none of the zones: head, tail",
	}, ve.Errors)

	v.ZoneValidation = false
	assert.NoError(t, v.ValidateSwap(bodymaptest.Valid("a"), bodymaptest.Valid("b"), []string{"head"}))
}

func TestCopyBodyIsDeep(t *testing.T) {
	orig := bodymaptest.Valid("a")
	orig["face"].(map[string]any)["marks"] = []any{bodymaptest.Mark("scar", "low")}

	cp := CopyBody(orig)
	if diff := cmp.Diff(orig, cp); diff != "" {
		t.Fatalf("copy differs (-orig +copy):\n%s", diff)
	}

	cp["face"].(map[string]any)["marks"].([]any)[0].(map[string]any)["type"] = "tattoo"
	assert.Equal(t, "scar", orig["face"].(map[string]any)["marks"].([]any)[0].(map[string]any)["type"])
	assert.Nil(t, CopyBody(nil))
}

func TestDescriptor(t *testing.T) {
	b := bodymaptest.Valid("a")
	d, ok := Descriptor(b, "chest")
	assert.True(t, ok)
	assert.Equal(t, "a chest", d)

	_, ok = Descriptor(b, "genitals")
	assert.False(t, ok)
	_, ok = Descriptor(b, "tail")
	assert.False(t, ok)
}

func TestHasZone(t *testing.T) {
	b := bodymaptest.Valid("a")
	b["tail"] = nil
	assert.True(t, HasZone(b, "chest"))
	assert.False(t, HasZone(b, "tail"))
	assert.False(t, HasZone(b, "arms"))
}
