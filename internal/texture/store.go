package texture

import (
	"errors"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
)

// Store owns every texture and shade ladder used by one renderer. All loading
// happens before the first frame; lookups during a frame never touch disk.
type Store struct {
	size    int
	seed    int64
	levels  int
	log     logrus.FieldLogger
	tex     map[string]*Texture
	ladders map[string]*Ladder
}

// NewStore creates an empty store producing size x size wall textures with
// shadeLevels entries per ladder.
func NewStore(size, shadeLevels int, seed int64, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{
		size:    size,
		seed:    seed,
		levels:  shadeLevels,
		log:     log.WithField("component", "TextureStore"),
		tex:     make(map[string]*Texture),
		ladders: make(map[string]*Ladder),
	}
}

// Add registers a texture and builds its shade ladder
func (s *Store) Add(t *Texture) {
	s.tex[t.Name] = t
	s.ladders[t.Name] = NewLadder(t, s.levels)
}

// AddSprite registers a texture without resampling or a ladder; sprites are
// shaded on demand through a tint cache.
func (s *Store) AddSprite(t *Texture) {
	s.tex[t.Name] = t
}

// Get returns a texture by name
func (s *Store) Get(name string) (*Texture, bool) {
	t, ok := s.tex[name]
	return t, ok
}

// Ladder returns the shade ladder of a wall texture
func (s *Store) Ladder(name string) (*Ladder, bool) {
	l, ok := s.ladders[name]
	return l, ok
}

// ShadeLevels returns the number of entries in every ladder
func (s *Store) ShadeLevels() int { return s.levels }

// Names returns the registered texture names in sorted order
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.tex))
	for n := range s.tex {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LoadWalls resolves wall textures by name: dir/<name>.png first, then a
// procedural generator, then the checker fallback.
func (s *Store) LoadWalls(dir string, names []string) {
	for _, name := range names {
		if _, ok := s.tex[name]; ok {
			continue
		}
		s.Add(s.resolve(dir, name, s.size))
	}
}

// LoadSprites resolves sprite textures at their native size, falling back to
// procedural sprites. Names resolving to neither stay unregistered so the
// compositor skips them.
func (s *Store) LoadSprites(dir string, names []string) {
	for _, name := range names {
		if _, ok := s.tex[name]; ok {
			continue
		}
		if dir != "" {
			t, err := LoadTexture(name, filepath.Join(dir, name+".png"), 0)
			if err == nil {
				s.AddSprite(t)
				continue
			}
			if !errors.Is(err, os.ErrNotExist) {
				s.log.WithError(err).Warnf("sprite %q not loaded", name)
			}
		}
		if gen, ok := ProceduralSprites[name]; ok {
			s.AddSprite(gen(name, s.size, s.seed))
			continue
		}
		s.log.Warnf("sprite %q unresolved, it will not be drawn", name)
	}
}

func (s *Store) resolve(dir, name string, size int) *Texture {
	if dir != "" {
		path := filepath.Join(dir, name+".png")
		t, err := LoadTexture(name, path, size)
		if err == nil {
			s.log.Debugf("loaded %s", path)
			return t
		}
		if !errors.Is(err, os.ErrNotExist) {
			s.log.WithError(err).Warnf("texture %q unreadable, using procedural fallback", name)
		}
	}
	if gen, ok := Procedural[name]; ok {
		return gen(name, size, s.seed)
	}
	s.log.Warnf("no texture for %q, using checker", name)
	return Checker(name, size, s.seed)
}
