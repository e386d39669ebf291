package cluster

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoltSeriesRegistryGetOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.bolt")
	reg, err := OpenBoltSeriesRegistry(path)
	require.NoError(t, err)
	defer reg.Close()

	h1, err := reg.GetOrCreate([]byte("cpu.load"), ValueTypeFloat)
	require.NoError(t, err)
	assert.Equal(t, ValueTypeFloat, h1.Type)

	// A second get-or-create for the same name, even with a different
	// inferred type, must return the type fixed on first creation.
	h2, err := reg.GetOrCreate([]byte("cpu.load"), ValueTypeInteger)
	require.NoError(t, err)
	assert.Equal(t, ValueTypeFloat, h2.Type)
}

func TestBoltSeriesRegistrySurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.bolt")
	reg, err := OpenBoltSeriesRegistry(path)
	require.NoError(t, err)
	_, err = reg.GetOrCreate([]byte("mem.free"), ValueTypeInteger)
	require.NoError(t, err)
	require.NoError(t, reg.Close())

	reopened, err := OpenBoltSeriesRegistry(path)
	require.NoError(t, err)
	defer reopened.Close()

	h, err := reopened.GetOrCreate([]byte("mem.free"), ValueTypeFloat)
	require.NoError(t, err)
	assert.Equal(t, ValueTypeInteger, h.Type)
}
