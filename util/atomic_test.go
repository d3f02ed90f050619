package util

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func TestWriteFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bed")
	assert.NoError(t, WriteFile(ctx, path, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "chr1\t0\t10\n")
		return err
	}))
	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	expect.EQ(t, string(data), "chr1\t0\t10\n")
}

func TestWriteFileNoPartialOutput(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bed")
	assert.NoError(t, os.WriteFile(path, []byte("old\n"), 0644))

	failure := errors.New("row 3 is malformed")
	err := WriteFile(ctx, path, func(w io.Writer) error {
		_, _ = fmt.Fprintf(w, "partial\n")
		return failure
	})
	expect.True(t, errors.Is(err, failure))
	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	expect.EQ(t, string(data), "old\n")

	// No temporary files left behind.
	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)
	expect.EQ(t, len(entries), 1)

	missing := filepath.Join(dir, "never.bed")
	canceled, cancel := context.WithCancel(ctx)
	cancel()
	expect.True(t, WriteFile(canceled, missing, func(io.Writer) error { return nil }) != nil)
	_, err = os.Stat(missing)
	expect.True(t, os.IsNotExist(err))
}

func writeString(s string) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	}
}

func dirContents(t *testing.T, dir string) map[string]string {
	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)
	got := map[string]string{}
	for _, e := range entries {
		if e.IsDir() {
			got[e.Name()] = "<dir>"
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		assert.NoError(t, err)
		got[e.Name()] = string(data)
	}
	return got
}

func TestBatchCommit(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	gain, loss := filepath.Join(dir, "gain.bed"), filepath.Join(dir, "loss.bed")
	assert.NoError(t, os.WriteFile(loss, []byte("old\n"), 0644))

	var b Batch
	assert.NoError(t, b.Add(ctx, gain, writeString("gain\n")))
	assert.NoError(t, b.Add(ctx, loss, writeString("loss\n")))
	expect.EQ(t, b.Paths(), []string{gain, loss})
	// Nothing is published before Commit.
	_, err := os.Stat(gain)
	expect.True(t, os.IsNotExist(err))
	assert.NoError(t, b.Commit(ctx))
	expect.EQ(t, dirContents(t, dir), map[string]string{"gain.bed": "gain\n", "loss.bed": "loss\n"})

	expect.True(t, b.Add(ctx, gain, writeString("a")) == nil)
	expect.True(t, b.Add(ctx, gain, writeString("b")) != nil)
	expect.EQ(t, len(b.Paths()), 0)
	expect.EQ(t, dirContents(t, dir), map[string]string{"gain.bed": "gain\n", "loss.bed": "loss\n"})
}

func TestBatchAbort(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	var b Batch
	assert.NoError(t, b.Add(ctx, filepath.Join(dir, "a.bed"), writeString("a\n")))
	failure := errors.New("track 2 failed")
	err := b.Add(ctx, filepath.Join(dir, "b.bed"), func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return failure
	})
	expect.True(t, errors.Is(err, failure))
	expect.EQ(t, len(dirContents(t, dir)), 0)
	// The batch was aborted; committing publishes nothing.
	assert.NoError(t, b.Commit(ctx))
	expect.EQ(t, len(dirContents(t, dir)), 0)
}

func TestBatchCommitDirectoryTarget(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "a.bed"), []byte("old\n"), 0644))
	assert.NoError(t, os.Mkdir(filepath.Join(dir, "c.bed"), 0755))

	var b Batch
	for _, name := range []string{"a.bed", "b.bed", "c.bed"} {
		assert.NoError(t, b.Add(ctx, filepath.Join(dir, name), writeString(name)))
	}
	err := b.Commit(ctx)
	require.Error(t, err)
	expect.HasSubstr(t, err.Error(), "is a directory")
	expect.EQ(t, dirContents(t, dir), map[string]string{"a.bed": "old\n", "c.bed": "<dir>"})
}

func TestBatchCommitRollback(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	a, b2 := filepath.Join(dir, "a.bed"), filepath.Join(dir, "b.bed")
	assert.NoError(t, os.WriteFile(a, []byte("old a\n"), 0644))

	var b Batch
	assert.NoError(t, b.Add(ctx, a, writeString("new a\n")))
	assert.NoError(t, b.Add(ctx, b2, writeString("new b\n")))
	assert.NoError(t, b.Add(ctx, filepath.Join(dir, "c.bed"), writeString("new c\n")))
	// Losing the second staged file makes its rename fail after the first
	// target has been replaced.
	assert.NoError(t, os.Remove(b.staged[1].tmp))
	expect.True(t, b.Commit(ctx) != nil)
	expect.EQ(t, dirContents(t, dir), map[string]string{"a.bed": "old a\n"})
}
