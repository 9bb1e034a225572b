package recorder

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVDumperWritesHeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	d := NewCSVDumper(dir)

	frames := [4][]uint16{
		{1, 2, 3},
		{4, 5, 6},
		{7, 8, 9},
		{10, 11, 12},
	}
	require.NoError(t, d.Dump(context.Background(), 7, frames))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "_7_err.csv")

	contents, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(contents), "North,South,East,West")
	assert.Contains(t, string(contents), "1,4,7,10")
	assert.Contains(t, string(contents), "3,6,9,12")
}

func TestCSVDumperReturnsErrorWhenDirCannotBeCreated(t *testing.T) {
	d := &CSVDumper{Dir: string([]byte{0}), RetryDelay: 0} // invalid path, MkdirAll will fail
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := d.Dump(ctx, 1, [4][]uint16{{1}, {1}, {1}, {1}})
	assert.Error(t, err)
}
