package testkit

import (
	"testing"

	"github.com/plasmavault/fusebus/chain"
)

func TestSim_Conformance(t *testing.T) {
	RunCallerConformance(t, func(t *testing.T, backend chain.Caller) chain.Caller {
		return backend
	})
}
