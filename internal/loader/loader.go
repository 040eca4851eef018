// Package loader reads model files from disk and assembles them into
// the plain declaration payload the compiler core consumes. Two on-disk
// formats are supported, YAML and HCL, and a project may mix both.
package loader

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapsim/pkg/project"
)

// fragment is the format-independent result of reading one file. Each
// file contributes zero or more models and at most one project-level
// simulation spec.
type fragment struct {
	path   string
	spec   *project.SimSpec
	models []project.ModelDecl
}

// Load walks dir, reads every model file it finds, and merges the
// results into a single project declaration. Model names must be
// unique across all files.
func Load(dir string, logger *slog.Logger) (*project.Decl, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml", ".hcl":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no model files found in %s", dir)
	}
	sort.Strings(paths)

	decl := &project.Decl{Name: filepath.Base(dir)}
	seen := make(map[string]string) // model name -> file it came from
	specFrom := ""

	for _, path := range paths {
		var frag *fragment
		var err error
		switch strings.ToLower(filepath.Ext(path)) {
		case ".hcl":
			frag, err = readHCL(path)
		default:
			frag, err = readYAML(path)
		}
		if err != nil {
			return nil, err
		}

		if frag.spec != nil {
			if specFrom != "" {
				return nil, fmt.Errorf("%s: simulation spec already defined in %s", path, specFrom)
			}
			decl.Spec = *frag.spec
			specFrom = path
		}

		for _, m := range frag.models {
			if prev, ok := seen[m.Name]; ok {
				return nil, fmt.Errorf("%s: duplicate model %q (already defined in %s)", path, m.Name, prev)
			}
			seen[m.Name] = path
			decl.Models = append(decl.Models, m)
		}

		logger.Debug("loaded model file", "path", path, "models", len(frag.models))
	}

	if len(decl.Models) == 0 {
		return nil, fmt.Errorf("%s: no models defined", dir)
	}
	logger.Debug("project assembled", "name", decl.Name, "models", len(decl.Models))
	return decl, nil
}
