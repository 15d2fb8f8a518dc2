package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegionRunner struct{}

func (fakeRegionRunner) RunFromRegistry(_ context.Context, regionID string) (*Result, error) {
	if regionID == "broken" {
		return nil, fmt.Errorf("%w: region %s", ErrNoSources, regionID)
	}
	return &Result{Strategy: regionID}, nil
}

func TestBatchProcessor_ProcessRegions(t *testing.T) {
	results := NewBatchProcessor(fakeRegionRunner{}, 2).ProcessRegions(t.Context(), []string{"a", "broken", "c"})

	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].RegionID)
	assert.Equal(t, "a", results[0].Result.Strategy)
	assert.ErrorIs(t, results[1].GetError(), ErrNoSources)
	assert.Nil(t, results[1].Result)
	assert.NoError(t, results[2].GetError())
}

func TestBatchProcessor_Empty(t *testing.T) {
	assert.Empty(t, NewBatchProcessor(fakeRegionRunner{}, 2).ProcessRegions(t.Context(), nil))
}

func TestReadRegionsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.txt")
	require.NoError(t, os.WriteFile(path, []byte("# regions\nspringfield\n\n  shelbyville \nspringfield\n"), 0o644))

	regions, err := ReadRegionsFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"springfield", "shelbyville"}, regions)

	_, err = ReadRegionsFromFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
