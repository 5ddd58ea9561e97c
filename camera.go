package bsptree

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	DefaultYaw   float32 = -90
	DefaultPitch float32 = -8
	DefaultFov   float32 = 75

	maxPitch float32 = 89
)

// Viewer is the read-only view of a camera that the tree and the frustum test consume.
type Viewer interface {
	Position() mgl32.Vec3
	Front() mgl32.Vec3
	Up() mgl32.Vec3
	// Fov returns the vertical field of view in degrees.
	Fov() float32
}

var _ Viewer = &Camera{}

// Camera is an Euler-angle fly camera. Front, right and up are derived from yaw and pitch
// and recomputed on every orientation change.
type Camera struct {
	position mgl32.Vec3
	worldUp  mgl32.Vec3

	front mgl32.Vec3
	right mgl32.Vec3
	up    mgl32.Vec3

	yaw   float32
	pitch float32
	fov   float32
}

type CameraOption func(*Camera)

// WithYawPitch sets the initial orientation in degrees.
func WithYawPitch(yaw, pitch float32) CameraOption {
	return func(c *Camera) {
		c.yaw = yaw
		c.pitch = pitch
	}
}

// WithFov sets the vertical field of view in degrees.
func WithFov(fov float32) CameraOption {
	return func(c *Camera) {
		c.fov = fov
	}
}

// WithWorldUp overrides the world up axis used to derive the camera basis.
func WithWorldUp(up mgl32.Vec3) CameraOption {
	return func(c *Camera) {
		c.worldUp = up
	}
}

// NewCamera creates a camera at position looking down -Z, tilted by the default pitch.
//
// Parameters:
//   - position: camera position in world space
//   - options: functional options applied before the basis is computed
//
// Returns:
//   - *Camera: the camera with its front/right/up vectors already derived
func NewCamera(position mgl32.Vec3, options ...CameraOption) *Camera {
	c := &Camera{
		position: position,
		worldUp:  mgl32.Vec3{0, 1, 0},
		yaw:      DefaultYaw,
		pitch:    DefaultPitch,
		fov:      DefaultFov,
	}
	for _, option := range options {
		option(c)
	}
	c.updateVectors()
	return c
}

func (c *Camera) Position() mgl32.Vec3 { return c.position }
func (c *Camera) Front() mgl32.Vec3    { return c.front }
func (c *Camera) Right() mgl32.Vec3    { return c.right }
func (c *Camera) Up() mgl32.Vec3       { return c.up }
func (c *Camera) Fov() float32         { return c.fov }
func (c *Camera) Yaw() float32         { return c.yaw }
func (c *Camera) Pitch() float32       { return c.pitch }

func (c *Camera) SetPosition(p mgl32.Vec3) {
	c.position = p
}

// Translate moves the camera by d in world space.
func (c *Camera) Translate(d mgl32.Vec3) {
	c.position = c.position.Add(d)
}

func (c *Camera) SetFov(fov float32) {
	c.fov = fov
}

// Rotate adds yaw and pitch offsets in degrees. Pitch is clamped to ±89 so the view never flips.
func (c *Camera) Rotate(dYaw, dPitch float32) {
	c.yaw += dYaw
	c.pitch += dPitch

	if c.pitch > maxPitch {
		c.pitch = maxPitch
	}
	if c.pitch < -maxPitch {
		c.pitch = -maxPitch
	}

	c.updateVectors()
}

// InvertFront turns the camera around by adding 180 degrees of yaw.
func (c *Camera) InvertFront() {
	c.yaw += 180
	if c.yaw > 360 {
		c.yaw -= 360
	}
	c.updateVectors()
}

// ViewMatrix returns the world-to-view transform for the current position and orientation.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.position, c.position.Add(c.front), c.up)
}

func (c *Camera) updateVectors() {
	yaw := float64(mgl32.DegToRad(c.yaw))
	pitch := float64(mgl32.DegToRad(c.pitch))

	front := mgl32.Vec3{
		float32(math.Cos(yaw) * math.Cos(pitch)),
		float32(math.Sin(pitch)),
		float32(math.Sin(yaw) * math.Cos(pitch)),
	}

	c.front = front.Normalize()
	c.right = c.front.Cross(c.worldUp).Normalize()
	c.up = c.right.Cross(c.front).Normalize()
}
