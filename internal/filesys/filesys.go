// Package filesys is the filesystem seam for dynhosts. Config and seed
// loading read through ReadWriteFS; the CLI's export writes through FileOps
// so both can be exercised against mocks.
package filesys

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ReadWriteFS is what the config and seed loaders need.
type ReadWriteFS interface {
	Stat(string) (fs.FileInfo, error)
	MkdirAll(string, os.FileMode) error
	Open(string) (*os.File, error)
	WriteFile(string, []byte, os.FileMode) error
}

// FileOps is what AtomicWrite needs.
type FileOps interface {
	Open(string) (*os.File, error)
	CreateTemp(string, string) (*os.File, error)
	Rename(string, string) error
	Remove(string) error
	Chmod(string, os.FileMode) error
}

// OS returns the local-disk implementation.
func OS() OsFS {
	return OsFS{}
}

// OsFS implements ReadWriteFS and FileOps by delegating to package os.
type OsFS struct{}

func (OsFS) Stat(p string) (fs.FileInfo, error)               { return os.Stat(p) }
func (OsFS) MkdirAll(p string, m os.FileMode) error           { return os.MkdirAll(p, m) }
func (OsFS) Open(p string) (*os.File, error)                  { return os.Open(p) }
func (OsFS) WriteFile(p string, b []byte, m os.FileMode) error { return os.WriteFile(p, b, m) }
func (OsFS) CreateTemp(dir, pat string) (*os.File, error)     { return os.CreateTemp(dir, pat) }
func (OsFS) Rename(old, newName string) error                 { return os.Rename(old, newName) }
func (OsFS) Remove(p string) error                            { return os.Remove(p) }
func (OsFS) Chmod(p string, m os.FileMode) error              { return os.Chmod(p, m) }

var (
	_ ReadWriteFS = OsFS{}
	_ FileOps     = OsFS{}
)

// AtomicWrite replaces dst with data. It writes and syncs a temp file in the
// same directory, sets perm, renames it over dst and syncs the directory.
// The temp file is removed on any failure before the rename.
func AtomicWrite(ops FileOps, dst string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(dst)
	tmp, err := ops.CreateTemp(dir, ".dynhosts-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	if _, err = tmp.Write(data); err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = ops.Chmod(tmp.Name(), perm)
	}
	if err == nil {
		err = ops.Rename(tmp.Name(), dst)
	}
	if err != nil {
		if rmErr := ops.Remove(tmp.Name()); rmErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to remove temp file %s: %v\n", tmp.Name(), rmErr)
		}
		return err
	}

	d, err := ops.Open(dir)
	if err != nil {
		return nil // rename already happened; dir sync is best effort
	}
	if err := d.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to sync directory %s: %v\n", dir, err)
	}
	_ = d.Close()
	return nil
}
