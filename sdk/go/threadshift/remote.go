package threadshift

import (
	"context"

	"github.com/ppiankov/threadshift/internal/client"
	"github.com/ppiankov/threadshift/internal/model"
)

// Remote talks to a "threadshift serve" process over gRPC. Swaps stay
// reversible for the lifetime of that server.
type Remote struct {
	cl *client.Client
}

// Dial connects to a threadshift server at addr (host:port). The
// connection is lazy; an unreachable server fails the first call.
func Dial(addr string) (*Remote, error) {
	cl, err := client.New(addr)
	if err != nil {
		return nil, err
	}
	return &Remote{cl: cl}, nil
}

// Validate checks a body map on the server.
func (r *Remote) Validate(ctx context.Context, body BodyMap, partial bool) (ValidationResult, error) {
	return r.cl.Validate(ctx, body, partial)
}

// Swap performs a swap on the server. source and target are replaced with
// the updated characters the server returns. Returns the swap id.
func (r *Remote) Swap(ctx context.Context, source, target *Character, garmentRef string) (string, error) {
	resp, err := r.cl.Swap(ctx, source, target, garmentRef)
	if err != nil {
		return "", err
	}
	copyInto(source, resp.Source)
	copyInto(target, resp.Target)
	return resp.SwapID, nil
}

// Reverse reverses a swap on the server and returns the restored
// characters.
func (r *Remote) Reverse(ctx context.Context, id string) (source, target *Character, err error) {
	resp, err := r.cl.Reverse(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return resp.Source, resp.Target, nil
}

// Preview reports what a reciprocal swap would exchange.
func (r *Remote) Preview(ctx context.Context, a, b BodyMap, garments []string) (Preview, error) {
	return r.cl.Preview(ctx, a, b, garments)
}

// Reciprocal runs a reciprocal swap on the server.
func (r *Remote) Reciprocal(ctx context.Context, a, b BodyMap, garments []string) (ReciprocalResult, error) {
	return r.cl.Reciprocal(ctx, a, b, garments)
}

// Status returns the server's status.
func (r *Remote) Status(ctx context.Context) (Status, error) {
	return r.cl.Status(ctx)
}

// Close closes the connection.
func (r *Remote) Close() error {
	return r.cl.Close()
}

func copyInto(dst, src *model.Character) {
	if dst == nil || src == nil {
		return
	}
	*dst = *src
}
