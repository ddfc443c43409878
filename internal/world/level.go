package world

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyGrid       = errors.New("grid has no cells")
	ErrRaggedGrid      = errors.New("grid rows differ in length")
	ErrUnknownMaterial = errors.New("unknown material")
)

// Zone is a priority-ordered rectangle of cells with its own floor, ceiling and fog.
// Priority is the zone's index in the level: lower indices win overlaps.
type Zone struct {
	Name string `yaml:"name"`
	X    int    `yaml:"x"`
	Y    int    `yaml:"y"`
	W    int    `yaml:"w"`
	H    int    `yaml:"h"`

	BaseColor    RGB `yaml:"base_color"`
	CeilingFront RGB `yaml:"ceiling_front"`
	CeilingBack  RGB `yaml:"ceiling_back"`
	FloorFront   RGB `yaml:"floor_front"`
	FloorBack    RGB `yaml:"floor_back"`
	FogColor     RGB `yaml:"fog_color"`

	FloorDepth    float64 `yaml:"floor_depth"`    // negative sinks the floor below the base plane
	CeilingHeight float64 `yaml:"ceiling_height"` // 0 keeps the level default
	Liquid        bool    `yaml:"liquid"`

	// SpawnRules are carried for gameplay code and ignored by the renderer.
	SpawnRules []string `yaml:"spawn_rules,omitempty"`
}

// Contains reports whether grid cell (cx, cy) lies inside the zone rectangle.
func (z *Zone) Contains(cx, cy int) bool {
	return cx >= z.X && cx < z.X+z.W && cy >= z.Y && cy < z.Y+z.H
}

// Sprite is a billboard placed in the world. The renderer only ever writes ScreenHeight.
type Sprite struct {
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y"`
	Scale     float64 `yaml:"scale"`
	Ground    bool    `yaml:"ground"`
	FloorBias float64 `yaml:"floor_bias"` // fraction of the sprite height pushed below the floor line
	Texture   string  `yaml:"texture"`
	Alive     bool    `yaml:"-"`

	// ScreenHeight is the rounded projected height kept between frames for hysteresis.
	ScreenHeight int `yaml:"-"`
}

// Level holds the tile grid, zones, materials and sprites of one map.
type Level struct {
	Name          string
	Materials     *MaterialTable
	Sprites       []*Sprite
	DefaultZone   Zone // attributes of cells outside every zone
	SightDistance float64
	CeilingHeight float64 // base ceiling plane; 0 means open sky
	SpawnX        float64
	SpawnY        float64
	SpawnHeading  float64
	TextureDir    string

	width   int
	height  int
	cells   []MaterialID
	zones   []Zone
	edge    MaterialID
	version uint64
}

// NewLevel creates an empty level of the given size
func NewLevel(width, height int) (*Level, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("new level %dx%d: %w", width, height, ErrEmptyGrid)
	}
	return &Level{
		Materials: NewMaterialTable(),
		width:     width,
		height:    height,
		cells:     make([]MaterialID, width*height),
		edge:      DefaultEdgeMaterial,
		version:   1,
	}, nil
}

// NewLevelFromRows builds a level from rows of cell ids, rows[y][x].
func NewLevelFromRows(rows [][]int) (*Level, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyGrid
	}
	l, err := NewLevel(len(rows[0]), len(rows))
	if err != nil {
		return nil, err
	}
	for y, row := range rows {
		if len(row) != l.width {
			return nil, fmt.Errorf("row %d has %d cells, want %d: %w", y, len(row), l.width, ErrRaggedGrid)
		}
		for x, id := range row {
			l.cells[y*l.width+x] = MaterialID(id)
		}
	}
	return l, nil
}

// Width returns the grid width in cells
func (l *Level) Width() int { return l.width }

// Height returns the grid height in cells
func (l *Level) Height() int { return l.height }

// Version increases on every structural change: cells, zones or size.
// Renderers compare it at the top of each frame to decide whether caches are stale.
func (l *Level) Version() uint64 { return l.version }

// Touch bumps the version after changes made through other means (e.g. material edits).
func (l *Level) Touch() { l.version++ }

// InBounds reports whether (x, y) is a grid cell
func (l *Level) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < l.width && y < l.height
}

// Cell returns the material id at (x, y). Coordinates outside the grid are
// always solid so grid traversal terminates at the map edge.
func (l *Level) Cell(x, y int) MaterialID {
	if !l.InBounds(x, y) {
		return l.edge
	}
	return l.cells[y*l.width+x]
}

// SetCell changes one cell and bumps the version. Out-of-range writes are ignored.
func (l *Level) SetCell(x, y int, id MaterialID) {
	if !l.InBounds(x, y) {
		return
	}
	if l.cells[y*l.width+x] == id {
		return
	}
	l.cells[y*l.width+x] = id
	l.version++
}

// EdgeMaterial returns the id reported for out-of-range cells
func (l *Level) EdgeMaterial() MaterialID { return l.edge }

// SetEdgeMaterial changes the out-of-range material; non-positive ids are
// replaced by DefaultEdgeMaterial because the edge must stay solid.
func (l *Level) SetEdgeMaterial(id MaterialID) {
	if id <= Empty {
		id = DefaultEdgeMaterial
	}
	l.edge = id
	l.version++
}

// Zones returns the ordered zone list. Callers must not modify it; use SetZone.
func (l *Level) Zones() []Zone { return l.zones }

// ZoneCount returns the number of zones
func (l *Level) ZoneCount() int { return len(l.zones) }

// Zone returns the zone for an id, or the default zone for NoZone and unknown ids.
func (l *Level) Zone(id int) *Zone {
	if id < 0 || id >= len(l.zones) {
		return &l.DefaultZone
	}
	return &l.zones[id]
}

// SetZones replaces the zone list and bumps the version
func (l *Level) SetZones(zones []Zone) {
	l.zones = append(l.zones[:0:0], zones...)
	l.version++
}

// SetZone replaces one zone and bumps the version
func (l *Level) SetZone(id int, z Zone) error {
	if id < 0 || id >= len(l.zones) {
		return fmt.Errorf("set zone %d: index out of range [0,%d)", id, len(l.zones))
	}
	l.zones[id] = z
	l.version++
	return nil
}

// ZoneIDAt returns the owning zone of cell (cx, cy) by scanning the list in
// priority order. The renderer uses a precomputed grid instead.
func (l *Level) ZoneIDAt(cx, cy int) int {
	if !l.InBounds(cx, cy) {
		return NoZone
	}
	for i := range l.zones {
		if l.zones[i].Contains(cx, cy) {
			return i
		}
	}
	return NoZone
}

// ZoneAtPoint returns the zone owning world point (x, y)
func (l *Level) ZoneAtPoint(x, y float64) *Zone {
	return l.Zone(l.ZoneIDAt(floorInt(x), floorInt(y)))
}

// Resize changes the grid size, keeping overlapping cells, and bumps the version.
func (l *Level) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("resize %dx%d: %w", width, height, ErrEmptyGrid)
	}
	cells := make([]MaterialID, width*height)
	for y := 0; y < height && y < l.height; y++ {
		for x := 0; x < width && x < l.width; x++ {
			cells[y*width+x] = l.cells[y*l.width+x]
		}
	}
	l.cells = cells
	l.width = width
	l.height = height
	l.version++
	return nil
}

// IsSolid returns whether the cell blocks movement
func (l *Level) IsSolid(x, y int) bool {
	return l.Cell(x, y) != Empty
}

// LiveSprites returns the sprites whose Alive flag is set
func (l *Level) LiveSprites() []*Sprite {
	live := make([]*Sprite, 0, len(l.Sprites))
	for _, s := range l.Sprites {
		if s != nil && s.Alive {
			live = append(live, s)
		}
	}
	return live
}

func floorInt(v float64) int {
	i := int(v)
	if v < 0 && float64(i) != v {
		i--
	}
	return i
}
