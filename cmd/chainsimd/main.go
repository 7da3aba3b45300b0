package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"
	"sync"

	"google.golang.org/grpc"

	"github.com/plasmavault/fusebus/chain"
	"github.com/plasmavault/fusebus/chain/grpcchain"
	"github.com/plasmavault/fusebus/model"
	"github.com/plasmavault/fusebus/word"
)

func main() {
	fs := flag.NewFlagSet("chainsimd", flag.ExitOnError)
	listen := fs.String("listen", "127.0.0.1:7878", "listen address")
	fixtures := fs.String("fixtures", "", "fixture JSON file (array of contracts)")

	_ = fs.Parse(os.Args[1:])
	if *fixtures == "" {
		fmt.Fprintln(os.Stderr, "usage: chainsimd --fixtures <fixtures.json> [--listen addr]")
		os.Exit(2)
	}

	backend, err := loadFixtures(*fixtures)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer lis.Close()

	s := grpc.NewServer()
	grpcchain.RegisterChainServer(s, &grpcchain.Server{Backend: backend})

	fmt.Fprintf(os.Stderr, "chainsimd listening on %s (%d contracts)\n", lis.Addr().String(), backend.len())
	if err := s.Serve(lis); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadFixtures(path string) (*fixtureCaller, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	var entries []model.ChainFixture
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}

	fc := &fixtureCaller{contracts: make(map[word.Address]contract)}
	for i, e := range entries {
		addr, err := word.ParseAddress(e.Contract)
		if err != nil {
			return nil, fmt.Errorf("fixtures[%d]: %w", i, err)
		}
		c := contract{echo: e.Echo, revert: e.Revert}
		for j, w := range e.Words {
			v, err := word.ParseValue(w)
			if err != nil {
				return nil, fmt.Errorf("fixtures[%d].words[%d]: %w", i, j, err)
			}
			c.response = append(c.response, v.Bytes()...)
		}
		fc.contracts[addr] = c
	}
	return fc, nil
}

type contract struct {
	response []byte
	echo     bool
	revert   bool
}

// fixtureCaller serves declared contracts; calls to any other address
// fail the way a missing contract does.
type fixtureCaller struct {
	mu        sync.RWMutex
	contracts map[word.Address]contract
}

func (f *fixtureCaller) Call(ctx context.Context, target word.Address, payload []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.RLock()
	c, ok := f.contracts[target]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", chain.ErrNoContract, target)
	}
	if c.revert {
		return nil, fmt.Errorf("%w: %s reverted", chain.ErrCallFailed, target)
	}
	if c.echo {
		return append([]byte(nil), payload...), nil
	}
	return append([]byte(nil), c.response...), nil
}

func (f *fixtureCaller) len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.contracts)
}
