// Package mocks holds testify mocks shared across package tests.
package mocks

import (
	"io/fs"
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/lc/dynhosts/internal/filesys"
)

var (
	_ filesys.ReadWriteFS = (*MockFS)(nil)
	_ filesys.FileOps     = (*MockFS)(nil)
)

// MockFS mocks both filesystem seams.
type MockFS struct {
	mock.Mock
}

func (m *MockFS) Stat(p string) (fs.FileInfo, error) {
	args := m.Called(p)
	var fi fs.FileInfo
	if v := args.Get(0); v != nil {
		fi = v.(fs.FileInfo)
	}
	return fi, args.Error(1)
}

func (m *MockFS) MkdirAll(p string, mode os.FileMode) error {
	return m.Called(p, mode).Error(0)
}

func (m *MockFS) Open(p string) (*os.File, error) {
	args := m.Called(p)
	return file(args.Get(0)), args.Error(1)
}

func (m *MockFS) WriteFile(p string, b []byte, mode os.FileMode) error {
	return m.Called(p, b, mode).Error(0)
}

func (m *MockFS) CreateTemp(dir, pat string) (*os.File, error) {
	args := m.Called(dir, pat)
	return file(args.Get(0)), args.Error(1)
}

func (m *MockFS) Rename(old, newPath string) error {
	return m.Called(old, newPath).Error(0)
}

func (m *MockFS) Remove(p string) error {
	return m.Called(p).Error(0)
}

func (m *MockFS) Chmod(p string, mode os.FileMode) error {
	return m.Called(p, mode).Error(0)
}

// file unwraps an optional *os.File return value.
func file(v any) *os.File {
	if v == nil {
		return nil
	}
	return v.(*os.File)
}
