// Command glyphlink runs the cross-module linker against a module and its
// dependencies. Modules are supplied as small YAML fixtures — the real
// binary decoder is someone else's subsystem (see modstore.Decoder) — so
// this tool doubles as the fixture format modstore-backed dependency stores
// can hold verbatim.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/glyphlang/glyph/batchlink"
	"github.com/glyphlang/glyph/bytecode"
	"github.com/glyphlang/glyph/bytecode/link"
	"github.com/glyphlang/glyph/modstore"
	"github.com/glyphlang/glyph/version"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Please provide a command: verify, batch, version")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "verify":
		runVerify(os.Args[2:])
	case "batch":
		runBatch(os.Args[2:])
	case "version":
		fmt.Println(version.Get())
	default:
		log.Fatalf("Unknown command: %s\n", os.Args[1])
	}
}

func runVerify(args []string) {
	cmd := flag.NewFlagSet("verify", flag.ExitOnError)
	modulePath := cmd.String("module", "", "path to the module's YAML fixture")
	depsDir := cmd.String("deps-dir", "", "directory of dependency module YAML fixtures")
	store := cmd.String("store", "", "connection string for a modstore-backed dependency store")
	cmd.Parse(args)

	if *modulePath == "" {
		fmt.Println("Expected -module path")
		os.Exit(1)
	}

	m, err := loadModuleFile(*modulePath)
	if err != nil {
		log.Fatalf("loading module: %v", err)
	}

	deps, err := loadDependencies(*store, *depsDir, m)
	if err != nil {
		log.Fatalf("loading dependencies: %v", err)
	}

	if err := link.VerifyModule(m, deps); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	fmt.Printf("%s links cleanly against %d dependenc(ies)\n", m.SelfId(), len(deps))
}

func runBatch(args []string) {
	cmd := flag.NewFlagSet("batch", flag.ExitOnError)
	modulesDir := cmd.String("modules-dir", "", "directory of module YAML fixtures to verify")
	depsDir := cmd.String("deps-dir", "", "directory of dependency module YAML fixtures")
	store := cmd.String("store", "", "connection string for a modstore-backed dependency store")
	cmd.Parse(args)

	if *modulesDir == "" {
		fmt.Println("Expected -modules-dir path")
		os.Exit(1)
	}

	modules, err := loadModuleFiles(*modulesDir)
	if err != nil {
		log.Fatalf("loading modules: %v", err)
	}
	if len(modules) == 0 {
		fmt.Println("no modules found")
		return
	}

	deps, err := loadDependencies(*store, *depsDir, nil)
	if err != nil {
		log.Fatalf("loading dependencies: %v", err)
	}

	results, err := batchlink.VerifyAll(context.Background(), modules, deps)
	if err != nil {
		log.Fatalf("batch verify: %v", err)
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Printf("%s: %v\n", r.Module.SelfId(), r.Err)
			continue
		}
		fmt.Printf("%s: ok\n", r.Module.SelfId())
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// loadDependencies prefers a modstore-backed store when one is given, and
// falls back to a directory of local fixtures otherwise. self, when
// non-nil, is excluded from a local-directory load so a module file never
// accidentally supplies itself as its own dependency.
func loadDependencies(store, depsDir string, self *bytecode.CompiledModule) ([]*bytecode.CompiledModule, error) {
	if store != "" {
		s, err := modstore.Open(store, decodeModuleYAML)
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		defer s.Close()

		if self == nil {
			return nil, fmt.Errorf("a modstore dependency source needs an explicit module to resolve handles for")
		}
		ids := make([]bytecode.ModuleId, 0, len(self.ModuleHandles))
		for i, mh := range self.ModuleHandles {
			if bytecode.ModuleHandleIndex(i) == self.SelfHandleIdx {
				continue
			}
			ids = append(ids, self.ModuleIdForHandle(mh))
		}
		return s.Dependencies(context.Background(), ids)
	}

	if depsDir == "" {
		return nil, nil
	}
	deps, err := loadModuleFiles(depsDir)
	if err != nil || self == nil {
		return deps, err
	}
	out := make([]*bytecode.CompiledModule, 0, len(deps))
	for _, d := range deps {
		if d.SelfId().Equal(self.SelfId()) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func loadModuleFile(path string) (*bytecode.CompiledModule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return decodeModuleYAML(raw)
}

func loadModuleFiles(dir string) ([]*bytecode.CompiledModule, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var out []*bytecode.CompiledModule
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		m, err := loadModuleFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// decodeModuleYAML is a modstore.Decoder: it satisfies that signature so a
// store can be opened directly over these fixtures.
func decodeModuleYAML(raw []byte) (*bytecode.CompiledModule, error) {
	var doc yamlModule
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding module: %w", err)
	}
	return doc.toCompiledModule()
}
