package packer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/comic-packer/internal/packerr"
)

func TestRemoveSource_FallsThroughStrategies(t *testing.T) {
	// A non-empty directory defeats os.Remove and unlink but not RemoveAll.
	src := filepath.Join(t.TempDir(), "odd.zip")
	writePages(t, src, "inner.jpg")

	require.NoError(t, removeSource(ConversionJob{SourcePath: src, SourceKind: SourceArchive}))
	_, err := os.Stat(src)
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveSource_AllStrategiesFail(t *testing.T) {
	saved := archiveRemovers
	t.Cleanup(func() { archiveRemovers = saved })

	var tried []string
	fail := func(name string) removalStrategy {
		return removalStrategy{name: name, remove: func(string) error {
			tried = append(tried, name)
			return errors.New("denied")
		}}
	}
	archiveRemovers = []removalStrategy{fail("a"), fail("b")}

	err := removeSource(ConversionJob{SourcePath: "x.zip", SourceKind: SourceArchive})
	require.Error(t, err)
	assert.True(t, packerr.IsKind(err, packerr.SourceRemoval))
	assert.Equal(t, []string{"a", "b"}, tried)
	assert.Contains(t, err.Error(), "b: denied")
}
