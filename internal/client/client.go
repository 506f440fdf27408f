// Package client talks to a threadshift gRPC server.
package client

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ppiankov/threadshift/internal/bodymap"
	"github.com/ppiankov/threadshift/internal/core"
	"github.com/ppiankov/threadshift/internal/model"
	"github.com/ppiankov/threadshift/internal/reciprocal"
	"github.com/ppiankov/threadshift/internal/server"
)

// DefaultTimeout bounds each call when the caller's context has no deadline.
const DefaultTimeout = 5 * time.Second

// Client connects to a threadshift gRPC server.
type Client struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

// New creates a gRPC client for the given address. The connection is lazy:
// an unreachable server surfaces as an error on the first call.
func New(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to threadshift server: %w", err)
	}
	return &Client{conn: conn, timeout: DefaultTimeout}, nil
}

func (c *Client) call(ctx context.Context, method string, req, resp any) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	in, err := server.ToStruct(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, server.FullMethod(method), in, out); err != nil {
		return err
	}
	return server.FromStruct(out, resp)
}

// Validate checks a body map remotely.
func (c *Client) Validate(ctx context.Context, body model.BodyMap, partial bool) (bodymap.Result, error) {
	var res bodymap.Result
	err := c.call(ctx, server.MethodValidate, server.ValidateRequest{Body: body, Partial: partial}, &res)
	return res, err
}

// Swap performs a one-garment swap and returns the updated characters.
func (c *Client) Swap(ctx context.Context, source, target *model.Character, garmentRef string) (server.SwapResponse, error) {
	var res server.SwapResponse
	err := c.call(ctx, server.MethodSwap, server.SwapRequest{Source: source, Target: target, Garment: garmentRef}, &res)
	return res, err
}

// Reverse reverses an active swap held by the server.
func (c *Client) Reverse(ctx context.Context, swapID string) (server.ReverseResponse, error) {
	var res server.ReverseResponse
	err := c.call(ctx, server.MethodReverse, server.ReverseRequest{SwapID: swapID}, &res)
	return res, err
}

// Preview reports what a reciprocal swap would exchange.
func (c *Client) Preview(ctx context.Context, a, b model.BodyMap, garments []string) (reciprocal.Preview, error) {
	var res reciprocal.Preview
	err := c.call(ctx, server.MethodPreview, reciprocal.Pair{A: a, B: b, Garments: garments}, &res)
	return res, err
}

// Reciprocal exchanges garment zones between two body maps.
func (c *Client) Reciprocal(ctx context.Context, a, b model.BodyMap, garments []string) (reciprocal.Result, error) {
	var res reciprocal.Result
	err := c.call(ctx, server.MethodReciprocal, reciprocal.Pair{A: a, B: b, Garments: garments}, &res)
	return res, err
}

// Status returns the server core's status.
func (c *Client) Status(ctx context.Context) (core.Status, error) {
	var res core.Status
	err := c.call(ctx, server.MethodStatus, struct{}{}, &res)
	return res, err
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
