package grpcchain

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/plasmavault/fusebus/chain"
)

func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case chain.IsNoContract(err):
		return status.Error(codes.NotFound, chain.ErrNoContract.Error())
	default:
		// Reverts and every other backend failure surface as Aborted;
		// the message carries whatever the backend reported.
		return status.Error(codes.Aborted, err.Error())
	}
}

func fromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.NotFound:
		return chain.ErrNoContract
	case codes.Aborted:
		return fmt.Errorf("%w: %s", chain.ErrCallFailed, st.Message())
	default:
		return err
	}
}
