// Package threadshift embeds the garment-driven zone swap engine in a Go
// program. It validates character body maps, swaps the zones a garment
// covers from one character onto another, reverses swaps and runs
// reciprocal exchanges between two body maps.
//
// Usage:
//
//	ts, err := threadshift.New(threadshift.WithMemoryStore(), threadshift.WithProfile("swimwear"))
//	defer ts.Close()
//	id, err := ts.Swap(ctx, alice, bob, "char_alice.02001")
//	err = ts.Reverse(id)
//
// Dial connects to a running "threadshift serve" instead of starting an
// engine in-process. Handler exposes an embedded engine as a JSON HTTP API.
//
// The SDK links directly against internal packages. External users import
// github.com/ppiankov/threadshift/sdk/go/threadshift.
package threadshift
