package grpcchain

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/plasmavault/fusebus/chain"
	"github.com/plasmavault/fusebus/word"
)

// Server exposes a chain.Caller over the Chain gRPC service.
type Server struct {
	UnimplementedChainServer
	Backend chain.Caller
}

func (s *Server) Call(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Backend == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing chain backend")
	}
	req := in.GetValue()
	if len(req) < word.AddressSize {
		return nil, status.Error(codes.InvalidArgument, "request shorter than a target address")
	}
	var target word.Address
	copy(target[:], req[:word.AddressSize])

	resp, err := s.Backend.Call(ctx, target, req[word.AddressSize:])
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bytes(resp), nil
}
