// Package scanner discovers modules in a repository tree. It parses
// module.yaml manifests, resolves owners, hashes content for change
// detection, and inventories TODO markers and lint suppressions.
package scanner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lukhas-labs/starlift/pkg/core"
)

// defaultWorkers bounds concurrent module processing.
const defaultWorkers = 8

// skipDirNames are never descended into.
var skipDirNames = map[string]bool{
	"vendor":       true,
	"node_modules": true,
	"__pycache__":  true,
	"dist":         true,
	"build":        true,
}

// sourceExtensions decide which files count toward a module.
var sourceExtensions = map[string]bool{
	".py": true, ".go": true, ".js": true, ".ts": true, ".tsx": true,
	".rs": true, ".java": true, ".c": true, ".cc": true, ".cpp": true,
	".h": true, ".hpp": true, ".rb": true, ".sh": true, ".sql": true,
	".yaml": true, ".yml": true, ".toml": true, ".json": true, ".md": true,
}

// Config configures a Scanner.
type Config struct {
	// Root is the directory to scan.
	Root string
	// Excludes are glob patterns matched against repo-relative paths.
	Excludes []string
	// Workers bounds concurrency (defaults to 8).
	Workers int
	// Logger is optional; nil means discard.
	Logger *slog.Logger
}

// Scanner walks a repository and produces modules.
type Scanner struct {
	root     string
	excludes []string
	workers  int
	logger   *slog.Logger
}

// ScanError is a non-fatal problem encountered during a scan.
type ScanError struct {
	Path    string
	Type    string // "read", "manifest", "owners"
	Message string
}

// Result is the outcome of one scan.
type Result struct {
	Modules      []*core.Module
	Todos        []*core.TodoItem
	Suppressions []*core.Suppression
	Errors       []ScanError
	Duration     time.Duration
}

// HasErrors reports whether any non-fatal errors occurred.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// Summary returns a one-line human-readable summary.
func (r *Result) Summary() string {
	declared := 0
	for _, m := range r.Modules {
		if m.Declared {
			declared++
		}
	}
	return fmt.Sprintf("Modules: %d total (%d declared) | Todos: %d | Suppressions: %d | Duration: %s",
		len(r.Modules), declared, len(r.Todos), len(r.Suppressions),
		r.Duration.Round(time.Millisecond))
}

// New creates a Scanner rooted at cfg.Root.
func New(cfg Config) (*Scanner, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scan root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s is not a directory", root)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	return &Scanner{root: root, excludes: cfg.Excludes, workers: workers, logger: logger}, nil
}

// Root returns the absolute scan root.
func (s *Scanner) Root() string { return s.root }

// Scan walks the tree and returns discovered modules. File-level problems
// are collected into Result.Errors and never abort the walk.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{}

	s.logger.Info("starting scan", "root", s.root)

	dirFiles, manifestDirs, walkErrs := s.walk()
	result.Errors = append(result.Errors, walkErrs...)

	owners := s.loadOwners(result)

	// Group files into modules: nearest ancestor manifest wins, otherwise
	// the containing directory becomes an inferred module. Loose files at
	// the repository root are only a module when the root itself declares
	// one.
	moduleFiles := map[string][]string{}
	for dir, files := range dirFiles {
		owner := s.owningModule(dir, manifestDirs)
		if owner == "" {
			continue
		}
		moduleFiles[owner] = append(moduleFiles[owner], files...)
	}
	// Manifest-only modules (no source files yet) still count.
	for dir := range manifestDirs {
		if _, ok := moduleFiles[dir]; !ok {
			moduleFiles[dir] = nil
		}
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for path, files := range moduleFiles {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			mod, todos, sups, errs := s.buildModule(path, files, manifestDirs[path])
			mu.Lock()
			defer mu.Unlock()
			result.Modules = append(result.Modules, mod)
			result.Todos = append(result.Todos, todos...)
			result.Suppressions = append(result.Suppressions, sups...)
			result.Errors = append(result.Errors, errs...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	for _, mod := range result.Modules {
		if mod.Owner == "" {
			mod.Owner = owners.Lookup(mod.Path)
		}
	}

	sortResult(result)
	result.Duration = time.Since(start)

	s.logger.Info("scan complete",
		"modules", len(result.Modules),
		"todos", len(result.Todos),
		"suppressions", len(result.Suppressions),
		"errors", len(result.Errors),
		"duration", result.Duration)

	return result, nil
}

// walk collects source files per directory and the set of manifest dirs.
func (s *Scanner) walk() (map[string][]string, map[string]bool, []ScanError) {
	dirFiles := map[string][]string{}
	manifestDirs := map[string]bool{}
	var errs []ScanError

	_ = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			errs = append(errs, ScanError{Path: path, Type: "read", Message: err.Error()})
			return nil
		}

		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if SkipDir(d.Name()) || s.excluded(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(d.Name(), ".") || s.excluded(rel) {
			return nil
		}

		dir := filepath.ToSlash(filepath.Dir(rel))
		if d.Name() == ManifestName {
			manifestDirs[dir] = true
			return nil
		}
		if sourceExtensions[strings.ToLower(filepath.Ext(d.Name()))] {
			dirFiles[dir] = append(dirFiles[dir], rel)
		}
		return nil
	})

	return dirFiles, manifestDirs, errs
}

// SkipDir reports whether a directory name is never scanned. The watch
// command uses it to prune its watch list.
func SkipDir(name string) bool {
	return strings.HasPrefix(name, ".") || skipDirNames[name]
}

// excluded matches a repo-relative path against the exclude globs.
func (s *Scanner) excluded(rel string) bool {
	for _, pattern := range s.excludes {
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// owningModule resolves the module a directory belongs to: the nearest
// ancestor (including itself) with a manifest, or the directory itself when
// none exists. Root-level loose files have no module unless the root
// declares one.
func (s *Scanner) owningModule(dir string, manifestDirs map[string]bool) string {
	for cur := dir; ; {
		if manifestDirs[cur] {
			return cur
		}
		parent := filepath.ToSlash(filepath.Dir(cur))
		if parent == cur || cur == "." {
			break
		}
		cur = parent
	}
	if dir == "." {
		return ""
	}
	return dir
}

// buildModule reads a module's manifest and files.
func (s *Scanner) buildModule(path string, files []string, declared bool) (*core.Module, []*core.TodoItem, []*core.Suppression, []ScanError) {
	mod := &core.Module{
		Path: path,
		Name: strings.ReplaceAll(path, "/", "."),
	}
	var todos []*core.TodoItem
	var sups []*core.Suppression
	var errs []ScanError

	if declared {
		manifestPath := filepath.Join(s.root, filepath.FromSlash(path), ManifestName)
		data, err := os.ReadFile(manifestPath)
		if err != nil {
			errs = append(errs, ScanError{Path: path + "/" + ManifestName, Type: "read", Message: err.Error()})
		} else if manifest, perr := ParseManifest(path+"/"+ManifestName, data); perr != nil {
			errs = append(errs, ScanError{Path: path + "/" + ManifestName, Type: "manifest", Message: perr.Error()})
			mod.Declared = true
		} else {
			manifest.apply(mod)
		}
	}

	sort.Strings(files)
	fileHashes := make([]string, 0, len(files))
	for _, rel := range files {
		data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(rel)))
		if err != nil {
			errs = append(errs, ScanError{Path: rel, Type: "read", Message: err.Error()})
			continue
		}
		content := string(data)

		sum := sha256.Sum256(data)
		fileHashes = append(fileHashes, rel+":"+hex.EncodeToString(sum[:]))

		mod.FileCount++
		mod.LineCount += strings.Count(content, "\n") + 1

		todos = append(todos, extractTodos(path, rel, content)...)
		sups = append(sups, extractSuppressions(path, rel, content)...)
	}

	h := sha256.New()
	for _, fh := range fileHashes {
		h.Write([]byte(fh))
		h.Write([]byte{'\n'})
	}
	mod.ContentHash = hex.EncodeToString(h.Sum(nil))

	return mod, todos, sups, errs
}

// loadOwners reads the root OWNERS file if present.
func (s *Scanner) loadOwners(result *Result) *OwnerMap {
	f, err := os.Open(filepath.Join(s.root, OwnersName))
	if err != nil {
		return nil // optional file
	}
	defer f.Close()

	owners, err := ParseOwners(f)
	if err != nil {
		result.Errors = append(result.Errors, ScanError{Path: OwnersName, Type: "owners", Message: err.Error()})
		return nil
	}
	return owners
}

func sortResult(r *Result) {
	sort.Slice(r.Modules, func(i, j int) bool { return r.Modules[i].Path < r.Modules[j].Path })
	sort.Slice(r.Todos, func(i, j int) bool {
		if r.Todos[i].File != r.Todos[j].File {
			return r.Todos[i].File < r.Todos[j].File
		}
		return r.Todos[i].Line < r.Todos[j].Line
	})
	sort.Slice(r.Suppressions, func(i, j int) bool {
		if r.Suppressions[i].File != r.Suppressions[j].File {
			return r.Suppressions[i].File < r.Suppressions[j].File
		}
		return r.Suppressions[i].Line < r.Suppressions[j].Line
	})
	sort.Slice(r.Errors, func(i, j int) bool { return r.Errors[i].Path < r.Errors[j].Path })
}
