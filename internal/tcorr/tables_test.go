package tcorr

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSceneTable(t *testing.T) {
	data := `{"features":[
		{"scene_id":"LC08_044033_20170716","tcorr":0.9738},
		{"scene_id":"LE07_043033_20150715","tcorr":0.95}
	]}`

	table, err := ReadSceneTable(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, table, 2)

	v, ok := table.SceneTcorr("LC08_044033_20170716")
	assert.True(t, ok)
	assert.Equal(t, 0.9738, v)

	_, ok = table.SceneTcorr("LC08_044033_20170801")
	assert.False(t, ok)
}

func TestReadSceneTable_LaterDuplicateWins(t *testing.T) {
	data := `{"features":[
		{"scene_id":"LC08_044033_20170716","tcorr":0.90},
		{"scene_id":"LC08_044033_20170716","tcorr":0.97}
	]}`

	table, err := ReadSceneTable(strings.NewReader(data))
	require.NoError(t, err)

	v, ok := table.SceneTcorr("LC08_044033_20170716")
	assert.True(t, ok)
	assert.Equal(t, 0.97, v)
}

func TestReadClimatologyTable(t *testing.T) {
	data := `{"features":[
		{"wrs2_tile":"p044r033","month":7,"tcorr":0.9723},
		{"wrs2_tile":"p044r033","month":8,"tcorr":0.9701},
		{"wrs2_tile":"p012r031","month":7,"tcorr":0.91}
	]}`

	table, err := ReadClimatologyTable(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, table, 3)

	v, ok := table.MonthlyTcorr("p044r033", 8)
	assert.True(t, ok)
	assert.Equal(t, 0.9701, v)

	_, ok = table.MonthlyTcorr("p044r033", 1)
	assert.False(t, ok)
	_, ok = table.MonthlyTcorr("p001r001", 7)
	assert.False(t, ok)
}

func TestReadTables_InvalidJSON(t *testing.T) {
	_, err := ReadSceneTable(strings.NewReader("{not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode feature table")

	_, err = ReadClimatologyTable(strings.NewReader("[]"))
	require.Error(t, err)
}

func TestLoadTables_FromFile(t *testing.T) {
	dir := t.TempDir()

	scenePath := filepath.Join(dir, "scene.json")
	require.NoError(t, os.WriteFile(scenePath, []byte(
		`{"features":[{"scene_id":"LC08_044033_20170716","tcorr":0.9738}]}`), 0o600))

	climoPath := filepath.Join(dir, "climo.json")
	require.NoError(t, os.WriteFile(climoPath, []byte(
		`{"features":[{"wrs2_tile":"p044r033","month":7,"tcorr":0.9723}]}`), 0o600))

	scenes, err := LoadSceneTable(scenePath)
	require.NoError(t, err)
	v, ok := scenes.SceneTcorr("LC08_044033_20170716")
	assert.True(t, ok)
	assert.Equal(t, 0.9738, v)

	climo, err := LoadClimatologyTable(climoPath)
	require.NoError(t, err)
	v, ok = climo.MonthlyTcorr("p044r033", 7)
	assert.True(t, ok)
	assert.Equal(t, 0.9723, v)
}

func TestLoadTables_MissingFile(t *testing.T) {
	_, err := LoadSceneTable(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open scene table")
}
