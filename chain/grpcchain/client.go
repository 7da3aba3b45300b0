// Package grpcchain exposes a chain.Caller over gRPC, client and server.
package grpcchain

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/plasmavault/fusebus/chain"
	"github.com/plasmavault/fusebus/word"
)

// Client implements chain.Caller over the Chain gRPC service.
type Client struct {
	cc     *grpc.ClientConn
	client ChainClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int
}

func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc, client: NewChainClient(cc), Timeout: 0}, nil
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) Call(ctx context.Context, target word.Address, payload []byte) ([]byte, error) {
	if c == nil || c.client == nil {
		return nil, chain.ErrNoContract
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	req := make([]byte, 0, word.AddressSize+len(payload))
	req = append(req, target[:]...)
	req = append(req, payload...)

	reply, err := c.client.Call(ctx, wrapperspb.Bytes(req))
	if err != nil {
		return nil, fromStatus(err)
	}
	return reply.GetValue(), nil
}
