package batchlink_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glyphlang/glyph/batchlink"
	"github.com/glyphlang/glyph/bytecode"
)

func selfContainedModule(b byte) *bytecode.CompiledModule {
	var addr bytecode.Address
	addr[0] = b
	return &bytecode.CompiledModule{
		Address: addr,
		Name:    bytecode.Identifier("M"),
		Version: 6,
		ModuleHandles: []bytecode.ModuleHandle{
			{Address: addr, Name: 0},
		},
		Identifiers: []bytecode.Identifier{"M"},
	}
}

func moduleMissingDependency(b byte) *bytecode.CompiledModule {
	m := selfContainedModule(b)
	m.Identifiers = append(m.Identifiers, "Other")
	m.ModuleHandles = append(m.ModuleHandles, bytecode.ModuleHandle{Address: bytecode.Address{0xff}, Name: 1})
	return m
}

func TestVerifyAllReturnsResultsInInputOrder(t *testing.T) {
	modules := []*bytecode.CompiledModule{
		selfContainedModule(1),
		moduleMissingDependency(2),
		selfContainedModule(3),
	}

	results, err := batchlink.VerifyAll(context.Background(), modules, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	require.NoError(t, results[0].Err)
	require.Error(t, results[1].Err)
	require.NoError(t, results[2].Err)

	for i, m := range modules {
		require.Same(t, m, results[i].Module)
	}
}

func TestVerifyAllRespectsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	modules := []*bytecode.CompiledModule{selfContainedModule(1)}
	_, err := batchlink.VerifyAll(ctx, modules, nil)
	require.Error(t, err)
}

func TestVerifyAllManyModulesConcurrently(t *testing.T) {
	modules := make([]*bytecode.CompiledModule, 0, 50)
	for i := 0; i < 50; i++ {
		modules = append(modules, selfContainedModule(byte(i+1)))
	}

	results, err := batchlink.VerifyAll(context.Background(), modules, nil)
	require.NoError(t, err)
	require.Len(t, results, 50)
	for _, r := range results {
		require.NoError(t, r.Err)
	}
}
