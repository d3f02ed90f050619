package util

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// stage writes fn's output to a synced temporary file in path's directory
// and returns the temporary file's name.  Nothing is left behind on error.
func stage(ctx context.Context, path string, fn func(w io.Writer) error) (tmpPath string, err error) {
	if err = ctx.Err(); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", err
	}
	tmpPath = tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			remove(tmpPath)
		}
	}()
	bw := bufio.NewWriterSize(tmp, 64<<10)
	if err = fn(bw); err != nil {
		return "", err
	}
	if err = ctx.Err(); err != nil {
		return "", err
	}
	if err = bw.Flush(); err != nil {
		return "", err
	}
	if err = tmp.Sync(); err != nil {
		return "", err
	}
	if err = tmp.Chmod(0644); err != nil {
		return "", err
	}
	if err = tmp.Close(); err != nil {
		return "", err
	}
	return tmpPath, nil
}

func remove(path string) {
	if e := os.Remove(path); e != nil && !os.IsNotExist(e) {
		log.Error.Printf("util: remove %s: %v", path, e)
	}
}

// WriteFile creates path with the bytes fn writes.  The output goes to a
// temporary file in path's directory which is renamed over path only once fn
// and every flush/close succeed, so a failed run never leaves a partial file
// behind.  An existing file at path is left intact on failure.
func WriteFile(ctx context.Context, path string, fn func(w io.Writer) error) error {
	tmpPath, err := stage(ctx, path, fn)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		remove(tmpPath)
		return err
	}
	syncDir(filepath.Dir(path))
	return nil
}

type stagedFile struct {
	path, tmp, backup string
}

// Batch publishes a set of files together: after Commit either every file
// holds its new contents or every target is as it was before the batch.
//
//   var b util.Batch
//   defer b.Abort()
//   if err := b.Add(ctx, path1, fn1); err != nil { ... }
//   if err := b.Add(ctx, path2, fn2); err != nil { ... }
//   return b.Commit(ctx)
type Batch struct {
	staged []stagedFile
}

// Add stages path with the bytes fn writes.  Nothing is visible at path
// until Commit.  On error the whole batch is aborted.
func (b *Batch) Add(ctx context.Context, path string, fn func(w io.Writer) error) error {
	for _, s := range b.staged {
		if s.path == path {
			b.Abort()
			return errors.E(errors.Invalid, fmt.Sprintf("%s staged twice", path))
		}
	}
	tmpPath, err := stage(ctx, path, fn)
	if err != nil {
		b.Abort()
		return err
	}
	b.staged = append(b.staged, stagedFile{path: path, tmp: tmpPath})
	return nil
}

// Paths returns the staged targets in Add order.
func (b *Batch) Paths() []string {
	paths := make([]string, len(b.staged))
	for i, s := range b.staged {
		paths[i] = s.path
	}
	return paths
}

// Abort discards every staged file.  It does nothing after Commit.
func (b *Batch) Abort() {
	for _, s := range b.staged {
		remove(s.tmp)
	}
	b.staged = nil
}

// Commit renames every staged file over its target.  Existing targets are
// moved aside first and put back if any rename fails.
func (b *Batch) Commit(ctx context.Context) (err error) {
	defer b.Abort()
	if err = ctx.Err(); err != nil {
		return err
	}
	for _, s := range b.staged {
		if info, e := os.Lstat(s.path); e == nil && info.IsDir() {
			return errors.E(errors.Invalid, fmt.Sprintf("%s is a directory", s.path))
		}
	}
	done := 0
	defer func() {
		if err != nil {
			for i := done - 1; i >= 0; i-- {
				b.restore(b.staged[i])
			}
		}
	}()
	for i := range b.staged {
		s := &b.staged[i]
		if _, e := os.Lstat(s.path); e == nil {
			s.backup = s.tmp + ".orig"
			if err = os.Rename(s.path, s.backup); err != nil {
				s.backup = ""
				return err
			}
		}
		if err = os.Rename(s.tmp, s.path); err != nil {
			if s.backup != "" {
				if e := os.Rename(s.backup, s.path); e != nil {
					log.Error.Printf("util.Batch: restore %s: %v", s.path, e)
				}
			}
			return err
		}
		done++
	}
	dirs := map[string]bool{}
	for _, s := range b.staged {
		if s.backup != "" {
			remove(s.backup)
		}
		dirs[filepath.Dir(s.path)] = true
	}
	for dir := range dirs {
		syncDir(dir)
	}
	return nil
}

// restore undoes the commit of s.
func (b *Batch) restore(s stagedFile) {
	if s.backup == "" {
		remove(s.path)
		return
	}
	if e := os.Rename(s.backup, s.path); e != nil {
		log.Error.Printf("util.Batch: restore %s: %v", s.path, e)
	}
}

// syncDir makes the rename durable where the platform allows it.
func syncDir(dir string) {
	f, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = f.Sync()
	_ = f.Close()
}
