package chunkstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain/chunk"
)

// Staging collects the page groups of one ingestion outside the committed
// tree. Commit publishes the whole set with one symlink rename; Abort drops it.
type Staging struct {
	store  *Store
	module string
	dir    string
	pages  []int
	done   bool
}

// Compile-time check: Staging implements chunk.Staging.
var _ chunk.Staging = (*Staging)(nil)

// Stage opens a staging directory for a module.
func (s *Store) Stage(ctx context.Context, name string) (chunk.Staging, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("stage %s: %w", name, err)
	}

	root := filepath.Join(s.root, stagingDirName)
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return nil, &Error{Op: OpMkdir, Path: root, Err: err}
	}
	dir := filepath.Join(root, name+"."+uuid.NewString())
	if err := os.Mkdir(dir, dirPerm); err != nil {
		return nil, &Error{Op: OpMkdir, Path: dir, Err: err}
	}

	return &Staging{store: s, module: name, dir: dir}, nil
}

// Module returns the module being staged.
func (st *Staging) Module() string { return st.module }

// Save writes a page group into the staging directory.
func (st *Staging) Save(ctx context.Context, page int, group []chunk.Chunk) error {
	if st.done {
		return errors.New("staging already finished")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("stage %s page %d: %w", st.module, page, err)
	}
	if _, err := writeGroup(st.dir, st.module, page, group); err != nil {
		return err
	}
	st.pages = append(st.pages, page)
	return nil
}

// Commit promotes the staged groups to the module's committed set, replacing
// any previous set, and returns the committed file paths in page order.
// Commits of the same module are serialized; readers see either the old set
// or the new one.
func (st *Staging) Commit(ctx context.Context) ([]string, error) {
	if st.done {
		return nil, errors.New("staging already finished")
	}
	if err := ctx.Err(); err != nil {
		_ = st.Abort()
		return nil, fmt.Errorf("commit %s: %w", st.module, err)
	}
	st.done = true

	s := st.store
	mu := s.locks.get(st.module)
	mu.Lock()
	defer mu.Unlock()

	versions := filepath.Join(s.root, versionDirName)
	if err := os.MkdirAll(versions, dirPerm); err != nil {
		_ = os.RemoveAll(st.dir)
		return nil, &Error{Op: OpMkdir, Path: versions, Err: err}
	}
	version := filepath.Join(versions, filepath.Base(st.dir))
	if err := os.Rename(st.dir, version); err != nil {
		_ = os.RemoveAll(st.dir)
		return nil, &Error{Op: OpRename, Path: version, Err: err}
	}

	old, err := s.publish(st.module, version)
	if err != nil {
		_ = os.RemoveAll(version)
		return nil, err
	}
	if old != "" {
		if err := os.RemoveAll(old); err != nil {
			s.logger.Warn("Failed to remove replaced chunk set",
				zap.String("module", st.module), zap.String("path", old), zap.Error(err))
		}
	}

	final := s.ModuleDir(st.module)
	paths := make([]string, len(st.pages))
	for i, p := range st.pages {
		paths[i] = filepath.Join(final, GroupFileName(st.module, p))
	}
	s.logger.Debug("Chunk set committed",
		zap.String("module", st.module),
		zap.Int("groups", len(paths)),
		zap.Bool("replaced", old != ""),
	)
	return paths, nil
}

// Abort removes the staging directory. Safe to call after Commit.
func (st *Staging) Abort() error {
	if st.done {
		return nil
	}
	st.done = true
	if err := os.RemoveAll(st.dir); err != nil {
		return &Error{Op: OpRemove, Path: st.dir, Err: err}
	}
	return nil
}
