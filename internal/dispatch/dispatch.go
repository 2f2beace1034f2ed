// Package dispatch routes a built ir.Application to the registered target
// generator and reports per-target results, the way the teacher's
// internal/build pipeline fanned out across a dozen frontend/backend
// generators — collapsed here to a small registry keyed by target name
// (§4.4).
package dispatch

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/intentc/intentc/internal/codegen/python"
	cerr "github.com/intentc/intentc/internal/errors"
	"github.com/intentc/intentc/internal/ir"
)

// Target is one code generation backend. Capabilities lists which of the
// eight standard generation concerns (§4.4) it implements, purely for
// reporting — Generate is expected to do all of them in one pass.
type Target interface {
	Name() string
	Capabilities() []string
	Generate(app *ir.Application, outputDir string) error
}

// registry is the initial target catalog. Adding a new backend means
// implementing Target and adding one entry here.
var registry = map[string]Target{
	"python": python.Generator{},
}

// Names returns every registered target name, sorted by registration
// order (stable across runs since the map is small and fixed).
func Names() []string {
	return []string{"python"}
}

// Result reports one target's generation outcome.
type Result struct {
	Target   string
	Dir      string
	Files    int
	Duration time.Duration
}

// CountFiles returns the number of regular files under dir.
func CountFiles(dir string) int {
	count := 0
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			count++
		}
		return nil
	})
	return count
}

// Generate dispatches app to the named target, writing output under
// outputDir/<target>. Returns a ConfigError for an unregistered target
// name, or a GeneratorError if the target itself fails.
func Generate(app *ir.Application, target, outputDir string) (*Result, error) {
	t, ok := registry[target]
	if !ok {
		return nil, &cerr.ConfigError{Message: fmt.Sprintf("unknown target %q (available: %v)", target, Names())}
	}

	start := time.Now()
	dir := filepath.Join(outputDir, t.Name())
	if err := t.Generate(app, dir); err != nil {
		return nil, &cerr.GeneratorError{Target: target, Message: err.Error()}
	}
	return &Result{Target: target, Dir: dir, Files: CountFiles(dir), Duration: time.Since(start)}, nil
}
