package procglue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeFile struct {
	closed bool
}

func (f *fakeFile) Close() error {
	f.closed = true
	return nil
}

func TestFileTableInstallGetClose(t *testing.T) {
	ft := NewFileTable()
	f := &fakeFile{}
	fd := ft.Install(f)

	got, ok := ft.Get(fd)
	require.True(t, ok)
	require.Same(t, f, got)

	require.NoError(t, ft.Close(fd))
	require.True(t, f.closed)
	_, ok = ft.Get(fd)
	require.False(t, ok)
}

func TestFileTableCloseUnknownFDFails(t *testing.T) {
	ft := NewFileTable()
	err := ft.Close(99)
	require.Error(t, err)
}

func TestFileTableCloseAllClosesEveryFile(t *testing.T) {
	ft := NewFileTable()
	a, b := &fakeFile{}, &fakeFile{}
	ft.Install(a)
	ft.Install(b)

	ft.CloseAll()
	require.True(t, a.closed)
	require.True(t, b.closed)
}

func TestFileTableForkSharesUnderlyingFiles(t *testing.T) {
	ft := NewFileTable()
	f := &fakeFile{}
	fd := ft.Install(f)

	clone := ft.Fork()
	got, ok := clone.Get(fd)
	require.True(t, ok)
	require.Same(t, f, got)

	// Installing into the clone must not affect the parent.
	clone.Install(&fakeFile{})
	_, ok = ft.Get(fd + 1)
	require.False(t, ok)
}
