package databus

import (
	"fmt"

	"github.com/plasmavault/fusebus/fuse"
	"github.com/plasmavault/fusebus/word"
)

func init() {
	fuse.MustRegister(fuse.Definition{
		Name:        "mapper",
		Description: "Maps stored values between modules with kind/scale conversion",
		New: func(self word.Address, env fuse.Env) (fuse.Fuse, error) {
			return NewMapper(), nil
		},
	})
	fuse.MustRegister(fuse.Definition{
		Name:        "splitter",
		Description: "Splits one stored scalar across modules by integer ratios",
		New: func(self word.Address, env fuse.Env) (fuse.Fuse, error) {
			return NewSplitter(), nil
		},
	})
	fuse.MustRegister(fuse.Definition{
		Name:        "chain-reader",
		Description: "Decodes read-only external call responses into typed outputs",
		New: func(self word.Address, env fuse.Env) (fuse.Fuse, error) {
			if env.Caller == nil {
				return nil, fmt.Errorf("databus: chain-reader at %s requires a chain caller", self)
			}
			return NewReader(self, env.Caller), nil
		},
	})
	fuse.MustRegister(fuse.Definition{
		Name:        "loader",
		Description: "Loads raw value sequences into module inputs verbatim",
		New: func(self word.Address, env fuse.Env) (fuse.Fuse, error) {
			return NewLoader(), nil
		},
	})
}
