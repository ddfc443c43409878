package world

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ErrUnknownGlyph is returned when a grid row uses a character missing from the legend.
var ErrUnknownGlyph = errors.New("unknown grid glyph")

// levelFile is the on-disk YAML layout of a level
type levelFile struct {
	Name          string                 `yaml:"name"`
	SightDistance float64                `yaml:"sight_distance"`
	CeilingHeight float64                `yaml:"ceiling_height"`
	TextureDir    string                 `yaml:"texture_dir"`
	EdgeMaterial  int                    `yaml:"edge_material"`
	Spawn         spawnPoint             `yaml:"spawn"`
	Materials     map[int]Material       `yaml:"materials"`
	Legend        map[string]string      `yaml:"legend"`
	Grid          []string               `yaml:"grid"`
	DefaultZone   Zone                   `yaml:"default_zone"`
	Zones         []Zone                 `yaml:"zones"`
	Sprites       []spriteEntry          `yaml:"sprites"`
	Extra         map[string]interface{} `yaml:",inline"`
}

// spriteEntry lets sprites default to alive when the key is omitted
type spriteEntry struct {
	Sprite `yaml:",inline"`
	Alive  *bool `yaml:"alive"`
}

type spawnPoint struct {
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	Heading float64 `yaml:"heading"` // degrees
}

// LevelLoader reads level files
type LevelLoader struct {
	log logrus.FieldLogger
}

// NewLevelLoader creates a loader; a nil logger uses the logrus standard logger.
func NewLevelLoader(log logrus.FieldLogger) *LevelLoader {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LevelLoader{log: log.WithField("component", "LevelLoader")}
}

// LoadLevel loads a level from the specified file path
func (ll *LevelLoader) LoadLevel(path string) (*Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open level file %s: %w", path, err)
	}
	level, err := ll.ParseLevel(data)
	if err != nil {
		return nil, fmt.Errorf("level %s: %w", path, err)
	}
	if level.TextureDir != "" && !filepath.IsAbs(level.TextureDir) {
		level.TextureDir = filepath.Join(filepath.Dir(path), level.TextureDir)
	}
	return level, nil
}

// ParseLevel decodes level YAML into a Level.
func (ll *LevelLoader) ParseLevel(data []byte) (*Level, error) {
	var lf levelFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("failed to parse level: %w", err)
	}
	for key := range lf.Extra {
		ll.log.Warnf("ignoring unknown level key %q", key)
	}

	materials := NewMaterialTable()
	for id, m := range lf.Materials {
		if err := materials.Add(MaterialID(id), m); err != nil {
			return nil, err
		}
	}

	rows, err := parseGrid(lf.Grid, lf.Legend, materials)
	if err != nil {
		return nil, err
	}
	level, err := NewLevelFromRows(rows)
	if err != nil {
		return nil, err
	}

	// Every wall id in the grid must resolve to a material
	for y, row := range rows {
		for x, id := range row {
			if id == int(Empty) {
				continue
			}
			if _, ok := materials.Get(MaterialID(id)); !ok {
				return nil, fmt.Errorf("cell (%d,%d) id %d: %w", x, y, id, ErrUnknownMaterial)
			}
		}
	}

	level.Name = lf.Name
	level.Materials = materials
	level.SightDistance = lf.SightDistance
	level.CeilingHeight = lf.CeilingHeight
	level.TextureDir = lf.TextureDir
	level.DefaultZone = lf.DefaultZone
	level.SpawnX = lf.Spawn.X
	level.SpawnY = lf.Spawn.Y
	level.SpawnHeading = lf.Spawn.Heading
	if lf.EdgeMaterial > 0 {
		if _, ok := materials.Get(MaterialID(lf.EdgeMaterial)); !ok {
			return nil, fmt.Errorf("edge_material %d: %w", lf.EdgeMaterial, ErrUnknownMaterial)
		}
		level.SetEdgeMaterial(MaterialID(lf.EdgeMaterial))
	}

	for i, z := range lf.Zones {
		if z.W <= 0 || z.H <= 0 {
			ll.log.Warnf("zone %d (%s) has empty rectangle %dx%d", i, z.Name, z.W, z.H)
		}
	}
	level.SetZones(lf.Zones)

	for i := range lf.Sprites {
		s := lf.Sprites[i].Sprite
		s.Alive = lf.Sprites[i].Alive == nil || *lf.Sprites[i].Alive
		if s.Scale == 0 {
			s.Scale = 1
		}
		level.Sprites = append(level.Sprites, &s)
	}

	ll.log.WithFields(logrus.Fields{
		"name":      level.Name,
		"width":     level.Width(),
		"height":    level.Height(),
		"zones":     level.ZoneCount(),
		"materials": materials.Len(),
		"sprites":   len(level.Sprites),
	}).Info("level loaded")

	return level, nil
}

// parseGrid converts grid rows into cell ids. With a legend every character is
// a glyph; without one each row is whitespace-separated integer ids.
func parseGrid(grid []string, legend map[string]string, materials *MaterialTable) ([][]int, error) {
	var lines []string
	for _, line := range grid {
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#!") {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyGrid
	}

	rows := make([][]int, len(lines))
	if len(legend) == 0 {
		for y, line := range lines {
			fields := strings.Fields(line)
			row := make([]int, len(fields))
			for x, tok := range fields {
				id, err := strconv.Atoi(tok)
				if err != nil || id < 0 {
					return nil, fmt.Errorf("row %d col %d: bad cell id %q", y, x, tok)
				}
				row[x] = id
			}
			rows[y] = row
		}
		return rows, nil
	}

	glyphs := make(map[rune]int, len(legend))
	for key, value := range legend {
		r, size := utf8.DecodeRuneInString(key)
		if r == utf8.RuneError || size != len(key) {
			return nil, fmt.Errorf("legend key %q must be a single character", key)
		}
		id, err := resolveLegendValue(value, materials)
		if err != nil {
			return nil, fmt.Errorf("legend %q: %w", key, err)
		}
		glyphs[r] = id
	}

	for y, line := range lines {
		row := make([]int, 0, len(line))
		for x, r := range line {
			id, ok := glyphs[r]
			if !ok {
				if r == '.' || r == ' ' {
					id = int(Empty)
				} else {
					return nil, fmt.Errorf("row %d col %d %q: %w", y, x, r, ErrUnknownGlyph)
				}
			}
			row = append(row, id)
		}
		rows[y] = row
	}
	return rows, nil
}

// resolveLegendValue accepts a material name or a numeric id
func resolveLegendValue(value string, materials *MaterialTable) (int, error) {
	if id, err := strconv.Atoi(value); err == nil {
		if id < 0 {
			return 0, fmt.Errorf("negative id %d", id)
		}
		return id, nil
	}
	if value == "" || value == "empty" {
		return int(Empty), nil
	}
	id, ok := materials.IDByName(value)
	if !ok {
		return 0, fmt.Errorf("%q: %w", value, ErrUnknownMaterial)
	}
	return int(id), nil
}
