package world

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellOutOfRangeIsSolid(t *testing.T) {
	l, err := NewLevel(3, 3)
	require.NoError(t, err)

	coords := [][2]int{{-1, 0}, {0, -1}, {3, 0}, {0, 3}, {-100, 50}, {1 << 30, 1 << 30}}
	for _, c := range coords {
		assert.Equal(t, DefaultEdgeMaterial, l.Cell(c[0], c[1]), "cell %v", c)
	}
	assert.Equal(t, Empty, l.Cell(1, 1))

	l.SetEdgeMaterial(0)
	assert.Equal(t, DefaultEdgeMaterial, l.EdgeMaterial(), "edge must stay solid")
}

func TestVersionBumpsOnStructuralChange(t *testing.T) {
	l, err := NewLevel(4, 4)
	require.NoError(t, err)
	v := l.Version()

	l.SetCell(1, 1, 2)
	assert.Greater(t, l.Version(), v)
	v = l.Version()

	l.SetCell(1, 1, 2) // no-op
	assert.Equal(t, v, l.Version())

	l.SetCell(10, 10, 2) // out of range, ignored
	assert.Equal(t, v, l.Version())

	l.SetZones([]Zone{{X: 0, Y: 0, W: 2, H: 2}})
	assert.Greater(t, l.Version(), v)
	v = l.Version()

	require.NoError(t, l.SetZone(0, Zone{X: 1, Y: 1, W: 1, H: 1}))
	assert.Greater(t, l.Version(), v)
	v = l.Version()

	require.Error(t, l.SetZone(5, Zone{}))
	assert.Equal(t, v, l.Version())

	require.NoError(t, l.Resize(6, 2))
	assert.Greater(t, l.Version(), v)
	assert.Equal(t, 6, l.Width())
	assert.Equal(t, 2, l.Height())
	assert.Equal(t, MaterialID(2), l.Cell(1, 1), "resize keeps overlapping cells")
}

func TestZoneLookupPriority(t *testing.T) {
	l, err := NewLevel(8, 8)
	require.NoError(t, err)
	l.SetZones([]Zone{
		{Name: "pool", X: 2, Y: 2, W: 2, H: 2},
		{Name: "hall", X: 0, Y: 0, W: 8, H: 8},
	})

	assert.Equal(t, 0, l.ZoneIDAt(3, 3), "overlapping cell goes to the lower index")
	assert.Equal(t, 1, l.ZoneIDAt(5, 5))
	assert.Equal(t, NoZone, l.ZoneIDAt(-1, 0))
	assert.Equal(t, "pool", l.ZoneAtPoint(2.5, 3.9).Name)

	l.DefaultZone.Name = "outside"
	assert.Equal(t, "outside", l.Zone(NoZone).Name)
	assert.Equal(t, "outside", l.Zone(42).Name)
}

func TestNewLevelFromRowsRejectsRaggedGrid(t *testing.T) {
	_, err := NewLevelFromRows([][]int{{1, 1, 1}, {1, 0}})
	assert.ErrorIs(t, err, ErrRaggedGrid)

	_, err = NewLevelFromRows(nil)
	assert.ErrorIs(t, err, ErrEmptyGrid)
}

func TestMaterialFaceTextures(t *testing.T) {
	mt := NewMaterialTable()
	require.NoError(t, mt.Add(3, Material{
		Name:    "tower",
		Texture: "stone",
		Height:  2.5,
		Faces:   map[string]string{"north": "banner"},
	}))

	m, ok := mt.Get(3)
	require.True(t, ok)
	assert.Equal(t, "stone", m.FaceTexture(FaceNorth, 0), "tier 0 keeps the base texture")
	assert.Equal(t, "banner", m.FaceTexture(FaceNorth, 1))
	assert.Equal(t, "stone", m.FaceTexture(FaceSouth, 2))
	assert.Equal(t, 2.5, mt.GetHeightMultiplier(3))
	assert.Equal(t, 1.0, mt.GetHeightMultiplier(99))
	assert.ElementsMatch(t, []string{"stone", "banner"}, mt.Textures())

	assert.Error(t, mt.Add(0, Material{Name: "void"}))
	assert.Error(t, mt.Add(4, Material{Name: "odd", Faces: map[string]string{"up": "x"}}))
}

const testLevel = `name: courtyard
sight_distance: 12
texture_dir: textures
spawn: {x: 1.5, y: 1.5, heading: 90}
materials:
  1: {name: brick, texture: brick}
  2: {name: hedge, texture: foliage, height: 0.5, animated: true}
legend:
  "#": brick
  "h": hedge
grid:
  - "#####"
  - "#..h#"
  - "#...#"
  - "#####"
zones:
  - {name: pond, x: 1, y: 2, w: 2, h: 1, floor_depth: -0.3, liquid: true, fog_color: [20, 40, 80]}
  - {name: yard, x: 0, y: 0, w: 5, h: 4}
sprites:
  - {x: 2.5, y: 1.5, texture: lamp}
  - {x: 3.5, y: 2.5, texture: crate, scale: 0.5, ground: true, alive: false}
`

func TestParseLevel(t *testing.T) {
	l, err := NewLevelLoader(nil).ParseLevel([]byte(testLevel))
	require.NoError(t, err)

	assert.Equal(t, "courtyard", l.Name)
	assert.Equal(t, 5, l.Width())
	assert.Equal(t, 4, l.Height())
	assert.Equal(t, MaterialID(2), l.Cell(3, 1))
	assert.Equal(t, Empty, l.Cell(1, 1))
	assert.True(t, l.Materials.IsAnimated(2))
	assert.Equal(t, 12.0, l.SightDistance)
	assert.Equal(t, 90.0, l.SpawnHeading)

	require.Equal(t, 2, l.ZoneCount())
	assert.Equal(t, 0, l.ZoneIDAt(1, 2))
	assert.True(t, l.Zone(0).Liquid)
	assert.Equal(t, RGB{20, 40, 80}, l.Zone(0).FogColor)

	require.Len(t, l.Sprites, 2)
	assert.True(t, l.Sprites[0].Alive, "alive defaults to true")
	assert.Equal(t, 1.0, l.Sprites[0].Scale)
	assert.False(t, l.Sprites[1].Alive)
	assert.Len(t, l.LiveSprites(), 1)
}

func TestParseLevelIntegerGrid(t *testing.T) {
	data := `materials:
  1: {name: wall, texture: brick}
grid:
  - "1 1 1"
  - "1 0 1"
  - "1 1 1"
`
	l, err := NewLevelLoader(nil).ParseLevel([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, 3, l.Width())
	assert.True(t, l.IsSolid(0, 0))
	assert.False(t, l.IsSolid(1, 1))
}

func TestParseLevelErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"empty grid", "grid: []\n", ErrEmptyGrid},
		{"ragged", "materials:\n  1: {name: w}\ngrid:\n  - \"1 1\"\n  - \"1\"\n", ErrRaggedGrid},
		{"unknown glyph", "materials:\n  1: {name: w}\nlegend:\n  \"#\": w\ngrid:\n  - \"#x#\"\n", ErrUnknownGlyph},
		{"unknown material id", "grid:\n  - \"0 7\"\n", ErrUnknownMaterial},
		{"unknown legend name", "legend:\n  \"#\": marble\ngrid:\n  - \"#\"\n", ErrUnknownMaterial},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLevelLoader(nil).ParseLevel([]byte(tc.data))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLoadLevelResolvesTextureDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "level.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testLevel), 0o644))

	l, err := NewLevelLoader(nil).LoadLevel(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "textures"), l.TextureDir)

	_, err = NewLevelLoader(nil).LoadLevel(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
