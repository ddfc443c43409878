package player

import (
	"math"

	"github.com/charmbracelet/harmonica"

	"zonecaster/internal/render"
	"zonecaster/internal/world"
)

// DefaultRadius is the half-width of the player's collision box in cells.
const DefaultRadius = 0.2

// Player is the first-person camera that walks a level. Its eye height
// follows the floor of the zone it stands in, smoothed by a spring so
// stepping into a pit sinks the view instead of snapping it.
type Player struct {
	X, Y      float64 // Position in world
	Angle     float64 // Viewing angle in radians
	Radius    float64
	EyeHeight float64 // above the floor of the current zone

	eyeZ       float64
	eyeVel     float64
	eyeSpring  harmonica.Spring
	turnVel    float64
	turnAccel  float64
	turnSpring harmonica.Spring
}

// New creates a player standing at (x, y) facing angle, updated fps times a second.
func New(x, y, angle, eyeHeight float64, fps int) *Player {
	return &Player{
		X:         x,
		Y:         y,
		Angle:     angle,
		Radius:    DefaultRadius,
		EyeHeight: eyeHeight,
		eyeZ:      eyeHeight,
		// critically damped so the view never bobs past the floor
		eyeSpring:  harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0),
		turnSpring: harmonica.NewSpring(harmonica.FPS(fps), 8.0, 1.0),
	}
}

// Spawn places a player at the level's spawn point with the eye already settled.
func Spawn(level *world.Level, eyeHeight float64, fps int) *Player {
	p := New(level.SpawnX, level.SpawnY, level.SpawnHeading*math.Pi/180, eyeHeight, fps)
	p.eyeZ = p.targetEyeZ(level)
	return p
}

// GetForwardX returns the X component of the forward direction vector
func (p *Player) GetForwardX() float64 {
	return math.Cos(p.Angle)
}

// GetForwardY returns the Y component of the forward direction vector
func (p *Player) GetForwardY() float64 {
	return math.Sin(p.Angle)
}

// GetRightX returns the X component of the right direction vector
func (p *Player) GetRightX() float64 {
	return math.Cos(p.Angle + math.Pi/2)
}

// GetRightY returns the Y component of the right direction vector
func (p *Player) GetRightY() float64 {
	return math.Sin(p.Angle + math.Pi/2)
}

// Rotate turns the view immediately by angle radians
func (p *Player) Rotate(angle float64) {
	p.Angle = math.Mod(p.Angle+angle, 2*math.Pi)
}

// Turn adds angular velocity that decays over the next updates.
func (p *Player) Turn(impulse float64) {
	p.turnVel += impulse
}

// CanMoveTo reports whether the collision box centered on (x, y) is clear of walls.
func (p *Player) CanMoveTo(level *world.Level, x, y float64) bool {
	r := p.Radius
	corners := [4][2]float64{{x - r, y - r}, {x + r, y - r}, {x - r, y + r}, {x + r, y + r}}
	for _, c := range corners {
		if level.IsSolid(int(math.Floor(c[0])), int(math.Floor(c[1]))) {
			return false
		}
	}
	return true
}

// Move walks forward and strafe cells relative to the view. Each axis is
// tried separately so the player slides along walls. It reports whether the
// position changed.
func (p *Player) Move(level *world.Level, forward, strafe float64) bool {
	dx := p.GetForwardX()*forward + p.GetRightX()*strafe
	dy := p.GetForwardY()*forward + p.GetRightY()*strafe
	x0, y0 := p.X, p.Y
	if p.CanMoveTo(level, p.X+dx, p.Y) {
		p.X += dx
	}
	if p.CanMoveTo(level, p.X, p.Y+dy) {
		p.Y += dy
	}
	return p.X != x0 || p.Y != y0
}

func (p *Player) targetEyeZ(level *world.Level) float64 {
	return level.ZoneAtPoint(p.X, p.Y).FloorDepth + p.EyeHeight
}

// Update advances the turn and eye-height springs by one tick.
func (p *Player) Update(level *world.Level) {
	p.Rotate(p.turnVel)
	p.turnVel, p.turnAccel = p.turnSpring.Update(p.turnVel, p.turnAccel, 0)
	p.eyeZ, p.eyeVel = p.eyeSpring.Update(p.eyeZ, p.eyeVel, p.targetEyeZ(level))
}

// EyeZ returns the current absolute eye height
func (p *Player) EyeZ() float64 { return p.eyeZ }

// View returns the camera pose for rendering at time t seconds.
func (p *Player) View(t float64) render.View {
	return render.View{X: p.X, Y: p.Y, Heading: p.Angle, EyeZ: p.eyeZ, Time: t}
}
