package render

import "math"

// View is the camera pose for one frame, supplied by the player collaborator.
type View struct {
	X, Y    float64 // world position in cell units
	Heading float64 // radians, 0 looks along +X
	EyeZ    float64 // absolute eye height; the base floor plane is z=0
	Time    float64 // seconds, drives animated materials
}

// CameraBasis is the forward vector and the half-FOV-scaled plane vector for
// one frame. It is derived from the heading and never stored between frames.
type CameraBasis struct {
	PosX, PosY     float64
	DirX, DirY     float64
	PlaneX, PlaneY float64
}

// NewCameraBasis derives the basis for a position, heading and horizontal FOV (radians).
func NewCameraBasis(x, y, heading, fov float64) CameraBasis {
	dirX, dirY := math.Cos(heading), math.Sin(heading)
	half := math.Tan(fov / 2)
	return CameraBasis{
		PosX:   x,
		PosY:   y,
		DirX:   dirX,
		DirY:   dirY,
		PlaneX: -dirY * half,
		PlaneY: dirX * half,
	}
}

// RayDir returns the ray through screen column col. The forward component of
// every ray is 1, so distances along it are perpendicular distances.
func (cb CameraBasis) RayDir(col, width int) (float64, float64) {
	camX := 2*float64(col)/float64(width) - 1
	return cb.DirX + cb.PlaneX*camX, cb.DirY + cb.PlaneY*camX
}

// ToCamera transforms a world point into camera space using the inverse of the
// basis matrix. It returns the lateral offset (in plane units) and the forward depth.
func (cb CameraBasis) ToCamera(wx, wy float64) (tx, ty float64) {
	sx, sy := wx-cb.PosX, wy-cb.PosY
	det := cb.PlaneX*cb.DirY - cb.DirX*cb.PlaneY
	if det == 0 {
		return 0, 0
	}
	invDet := 1.0 / det
	tx = invDet * (cb.DirY*sx - cb.DirX*sy)
	ty = invDet * (-cb.PlaneY*sx + cb.PlaneX*sy)
	return tx, ty
}

// ScreenX maps a camera-space point to a screen column center.
func (cb CameraBasis) ScreenX(tx, ty float64, width int) float64 {
	return float64(width) / 2 * (1 + tx/ty)
}
