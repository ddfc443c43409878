package world

import (
	"fmt"
	"sort"
)

// Material describes how a wall cell id is drawn.
type Material struct {
	ID       MaterialID `yaml:"-"`
	Name     string     `yaml:"name"`
	Texture  string     `yaml:"texture"`
	Height   float64    `yaml:"height"`   // multiple of one cell; <1 partial, >1 stacked tiers
	Animated bool       `yaml:"animated"` // shading wobbles over time
	// Faces overrides the texture of upper tiers (tier >= 1) per hit face.
	Faces map[string]string `yaml:"faces,omitempty"`

	faceTextures [4]string
}

// FaceTexture returns the texture used for the given tier of the given face.
func (m *Material) FaceTexture(face Face, tier int) string {
	if tier > 0 && face >= 0 && int(face) < len(m.faceTextures) && m.faceTextures[face] != "" {
		return m.faceTextures[face]
	}
	return m.Texture
}

// HeightMultiplier returns the wall height, defaulting to one cell.
func (m *Material) HeightMultiplier() float64 {
	if m.Height <= 0 {
		return 1.0
	}
	return m.Height
}

// MaterialTable handles material configuration and lookup
type MaterialTable struct {
	materials map[MaterialID]*Material
	byName    map[string]MaterialID
}

// NewMaterialTable creates an empty material table
func NewMaterialTable() *MaterialTable {
	return &MaterialTable{
		materials: make(map[MaterialID]*Material),
		byName:    make(map[string]MaterialID),
	}
}

// Add registers a material under the given id. Id 0 is reserved for empty space.
func (mt *MaterialTable) Add(id MaterialID, m Material) error {
	if id <= Empty {
		return fmt.Errorf("material %q: id must be positive, got %d", m.Name, id)
	}

	// Make a copy to avoid pointer issues
	mat := m
	mat.ID = id
	for key, tex := range m.Faces {
		face, ok := ParseFace(key)
		if !ok {
			return fmt.Errorf("material %q: unknown face %q", m.Name, key)
		}
		mat.faceTextures[face] = tex
	}

	mt.materials[id] = &mat
	if mat.Name != "" {
		mt.byName[mat.Name] = id
	}
	return nil
}

// Get returns the material for an id
func (mt *MaterialTable) Get(id MaterialID) (*Material, bool) {
	m, ok := mt.materials[id]
	return m, ok
}

// IDByName returns the id registered for a material name
func (mt *MaterialTable) IDByName(name string) (MaterialID, bool) {
	id, ok := mt.byName[name]
	return id, ok
}

// GetHeightMultiplier returns the height multiplier for a material id
func (mt *MaterialTable) GetHeightMultiplier(id MaterialID) float64 {
	m, ok := mt.materials[id]
	if !ok {
		return 1.0 // Default height
	}
	return m.HeightMultiplier()
}

// IsAnimated returns whether a material wobbles its shading
func (mt *MaterialTable) IsAnimated(id MaterialID) bool {
	m, ok := mt.materials[id]
	return ok && m.Animated
}

// IDs returns all registered ids in ascending order
func (mt *MaterialTable) IDs() []MaterialID {
	ids := make([]MaterialID, 0, len(mt.materials))
	for id := range mt.materials {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MaxID returns the largest registered id, or 0 for an empty table
func (mt *MaterialTable) MaxID() MaterialID {
	var max MaterialID
	for id := range mt.materials {
		if id > max {
			max = id
		}
	}
	return max
}

// Textures returns every texture name referenced by the table, without duplicates
func (mt *MaterialTable) Textures() []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, id := range mt.IDs() {
		m := mt.materials[id]
		add(m.Texture)
		for _, tex := range m.faceTextures {
			add(tex)
		}
	}
	return names
}

// Len returns the number of registered materials
func (mt *MaterialTable) Len() int {
	return len(mt.materials)
}
