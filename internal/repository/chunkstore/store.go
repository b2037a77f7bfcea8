// Package chunkstore persists chunk groups on the local filesystem, one directory per module.
//
// Layout under the root:
//
//	chunks/<module> -> ../.versions/<module>.<id>   committed set (symlink)
//	.versions/<module>.<id>/<module>_chunk_<page+1>.json
//	.staging/<module>.<id>/                         in-flight ingestion
//
// Group files are written to a temp file and renamed into place, so readers
// never observe a partially written file. A committed set is published by
// renaming a fresh symlink over chunks/<module>, so a module never
// disappears while it is being replaced.
package chunkstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/chunk"
	"github.com/kailas-cloud/docqa/internal/domain/module"
)

// maxLoadAttempts bounds how often LoadAll re-resolves a module whose
// version directory was removed under it by another process.
const maxLoadAttempts = 3

const (
	chunksDirName  = "chunks"
	stagingDirName = ".staging"
	versionDirName = ".versions"
	groupExt       = ".json"
	dirPerm        = 0o755
	filePerm       = 0o644
)

// Store implements the chunk persistence contracts of the ingest, answer and modules use cases.
type Store struct {
	root   string
	logger *zap.Logger
	locks  moduleLocks
}

// New creates a filesystem chunk store rooted at root.
func New(root string, logger *zap.Logger) *Store {
	return &Store{root: root, logger: logger, locks: moduleLocks{m: make(map[string]*sync.RWMutex)}}
}

// moduleLocks hands out one RWMutex per module name. Writers (commit, delete,
// single-group save) hold the write side; LoadAll holds the read side.
type moduleLocks struct {
	mu sync.Mutex
	m  map[string]*sync.RWMutex
}

func (l *moduleLocks) get(name string) *sync.RWMutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	mu, ok := l.m[name]
	if !ok {
		mu = &sync.RWMutex{}
		l.m[name] = mu
	}
	return mu
}

// Root returns the store root directory.
func (s *Store) Root() string { return s.root }

// ModuleDir returns the committed directory of a module.
func (s *Store) ModuleDir(name string) string {
	return filepath.Join(s.root, chunksDirName, name)
}

// GroupFileName returns the file name of a page group.
func GroupFileName(name string, page int) string {
	return fmt.Sprintf("%s_chunk_%d%s", name, page+1, groupExt)
}

// Save writes one page group into the committed set of a module as a
// whole-file replace, creating the module when it has no set yet. Ingestion
// goes through Stage instead; Save serves callers that patch a single page,
// such as repair tooling and test fixtures.
func (s *Store) Save(ctx context.Context, name string, page int, group []chunk.Chunk) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("save %s page %d: %w", name, page, err)
	}

	mu := s.locks.get(name)
	mu.Lock()
	defer mu.Unlock()

	dir, err := filepath.EvalSymlinks(s.ModuleDir(name))
	if errors.Is(err, fs.ErrNotExist) {
		dir, err = s.newVersionDir(name)
		if err != nil {
			return "", err
		}
		if _, err := s.publish(name, dir); err != nil {
			_ = os.RemoveAll(dir)
			return "", err
		}
	} else if err != nil {
		return "", &Error{Op: OpStat, Path: s.ModuleDir(name), Err: err}
	}

	path, err := writeGroup(dir, name, page, group)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.ModuleDir(name), filepath.Base(path)), nil
}

// LoadAll reads every group file of a module and concatenates their chunks,
// ordered by page then sequence.
func (s *Store) LoadAll(ctx context.Context, name string) ([]chunk.Chunk, error) {
	if err := validName(name); err != nil {
		return nil, err
	}

	mu := s.locks.get(name)
	mu.RLock()
	defer mu.RUnlock()

	for attempt := 1; ; attempt++ {
		all, err := s.loadVersion(ctx, name)
		if errors.Is(err, errVersionGone) && attempt < maxLoadAttempts {
			continue
		}
		if errors.Is(err, errVersionGone) {
			return nil, fmt.Errorf("%w: %s", domain.ErrModuleNotFound, name)
		}
		return all, err
	}
}

// errVersionGone reports that the resolved version directory was replaced
// while it was being read.
var errVersionGone = errors.New("chunk set replaced during read")

func (s *Store) loadVersion(ctx context.Context, name string) ([]chunk.Chunk, error) {
	dir, err := filepath.EvalSymlinks(s.ModuleDir(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrModuleNotFound, name)
		}
		return nil, &Error{Op: OpStat, Path: s.ModuleDir(name), Err: err}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errVersionGone
		}
		return nil, &Error{Op: OpReadDir, Path: dir, Err: err}
	}

	var all []chunk.Chunk
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		if e.IsDir() || !isGroupFile(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, errVersionGone
			}
			return nil, &Error{Op: OpRead, Path: path, Err: err}
		}
		group, err := decodeGroup(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		all = append(all, group...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Page() != all[j].Page() {
			return all[i].Page() < all[j].Page()
		}
		return all[i].Seq() < all[j].Seq()
	})
	return all, nil
}

// Exists reports whether a module has a committed chunk directory.
func (s *Store) Exists(_ context.Context, name string) (bool, error) {
	if err := validName(name); err != nil {
		return false, err
	}
	dir := s.ModuleDir(name)
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, &Error{Op: OpStat, Path: dir, Err: err}
	}
	return info.IsDir(), nil
}

// List returns the names of all committed modules, sorted.
func (s *Store) List(_ context.Context) ([]string, error) {
	dir := filepath.Join(s.root, chunksDirName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &Error{Op: OpReadDir, Path: dir, Err: err}
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if e.Type()&fs.ModeSymlink != 0 {
			// dangling links are left over from an interrupted delete
			if info, err := os.Stat(filepath.Join(dir, e.Name())); err != nil || !info.IsDir() {
				continue
			}
		} else if !e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a module's committed chunk set.
func (s *Store) Delete(ctx context.Context, name string) error {
	mu := s.locks.get(name)
	mu.Lock()
	defer mu.Unlock()

	ok, err := s.Exists(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrModuleNotFound, name)
	}

	link := s.ModuleDir(name)
	version := s.linkedVersion(link)
	if version == "" {
		// plain directory
		if err := os.RemoveAll(link); err != nil {
			return &Error{Op: OpRemove, Path: link, Err: err}
		}
	} else {
		if err := os.Remove(link); err != nil {
			return &Error{Op: OpRemove, Path: link, Err: err}
		}
		if err := os.RemoveAll(version); err != nil {
			s.logger.Warn("Failed to remove deleted chunk set",
				zap.String("module", name), zap.String("path", version), zap.Error(err))
		}
	}
	s.logger.Info("Module deleted", zap.String("module", name))
	return nil
}

// newVersionDir creates an empty version directory for a module.
func (s *Store) newVersionDir(name string) (string, error) {
	root := filepath.Join(s.root, versionDirName)
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return "", &Error{Op: OpMkdir, Path: root, Err: err}
	}
	dir := filepath.Join(root, name+"."+uuid.NewString())
	if err := os.Mkdir(dir, dirPerm); err != nil {
		return "", &Error{Op: OpMkdir, Path: dir, Err: err}
	}
	return dir, nil
}

// publish points chunks/<name> at version by renaming a fresh symlink over
// the old entry, and returns the directory it replaced ("" when none).
// The caller holds the module write lock.
func (s *Store) publish(name, version string) (string, error) {
	chunksRoot := filepath.Join(s.root, chunksDirName)
	if err := os.MkdirAll(chunksRoot, dirPerm); err != nil {
		return "", &Error{Op: OpMkdir, Path: chunksRoot, Err: err}
	}
	target, err := filepath.Rel(chunksRoot, version)
	if err != nil {
		return "", &Error{Op: OpLink, Path: version, Err: err}
	}
	tmp := filepath.Join(chunksRoot, "."+name+".link-"+uuid.NewString())
	if err := os.Symlink(target, tmp); err != nil {
		return "", &Error{Op: OpLink, Path: tmp, Err: err}
	}

	final := s.ModuleDir(name)
	old := ""
	info, err := os.Lstat(final)
	switch {
	case err == nil && info.Mode()&fs.ModeSymlink != 0:
		old = s.linkedVersion(final)
	case err == nil:
		// a plain directory cannot be replaced by rename; move it aside first
		old = filepath.Join(s.root, versionDirName, name+".plain-"+uuid.NewString())
		if err := os.Rename(final, old); err != nil {
			_ = os.Remove(tmp)
			return "", &Error{Op: OpRename, Path: final, Err: err}
		}
	case !errors.Is(err, fs.ErrNotExist):
		_ = os.Remove(tmp)
		return "", &Error{Op: OpStat, Path: final, Err: err}
	}

	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return "", &Error{Op: OpRename, Path: final, Err: err}
	}
	return old, nil
}

// linkedVersion resolves a module symlink to its version directory. It
// returns "" when link is not a symlink or points outside .versions.
func (s *Store) linkedVersion(link string) string {
	target, err := os.Readlink(link)
	if err != nil {
		return ""
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(link), target)
	}
	target = filepath.Clean(target)
	if filepath.Dir(target) != filepath.Join(s.root, versionDirName) {
		return ""
	}
	return target
}

// Ping checks that the chunk root exists and is writable.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Join(s.root, chunksDirName)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return &Error{Op: OpMkdir, Path: dir, Err: err}
	}
	f, err := os.CreateTemp(dir, ".ping-*")
	if err != nil {
		return &Error{Op: OpWrite, Path: dir, Err: err}
	}
	name := f.Name()
	_ = f.Close()
	if err := os.Remove(name); err != nil {
		return &Error{Op: OpRemove, Path: name, Err: err}
	}
	return nil
}

func writeGroup(dir, name string, page int, group []chunk.Chunk) (string, error) {
	data, err := encodeGroup(group)
	if err != nil {
		return "", err
	}

	final := filepath.Join(dir, GroupFileName(name, page))
	tmp, err := os.CreateTemp(dir, "."+GroupFileName(name, page)+".tmp-*")
	if err != nil {
		return "", &Error{Op: OpWrite, Path: final, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", &Error{Op: OpWrite, Path: tmpName, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", &Error{Op: OpWrite, Path: tmpName, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", &Error{Op: OpWrite, Path: tmpName, Err: err}
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		_ = os.Remove(tmpName)
		return "", &Error{Op: OpWrite, Path: tmpName, Err: err}
	}
	if err := os.Rename(tmpName, final); err != nil {
		_ = os.Remove(tmpName)
		return "", &Error{Op: OpRename, Path: final, Err: err}
	}
	return final, nil
}

func isGroupFile(name string) bool {
	return strings.HasSuffix(name, groupExt) && !strings.HasPrefix(name, ".")
}

func validName(name string) error {
	_, err := module.New(name)
	return err
}
