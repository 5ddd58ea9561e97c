package scene

import (
	"math"
	"math/rand"

	"github.com/ImVexed/bsptree"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// Kind tags the finite set of things a scene is built from.
type Kind int

const (
	KindTable Kind = iota
	KindDrinkBox
	KindPopcornBucket
	KindFireFlower
	KindHammer
	KindFireFly
	KindWalls
)

func (k Kind) String() string {
	switch k {
	case KindTable:
		return "table"
	case KindDrinkBox:
		return "drink_box"
	case KindPopcornBucket:
		return "popcorn_bucket"
	case KindFireFlower:
		return "fire_flower"
	case KindHammer:
		return "hammer"
	case KindFireFly:
		return "firefly"
	case KindWalls:
		return "walls"
	default:
		return "unknown"
	}
}

// Moving reports whether objects of this kind animate every frame.
func (k Kind) Moving() bool {
	return k == KindFireFly
}

// anchorOffsets place each prop relative to the table it sits on, before the table's own
// rotation and translation are applied.
var anchorOffsets = map[Kind]mgl32.Vec3{
	KindTable:         {0, 0, 0},
	KindDrinkBox:      {-1.875, 0.676, -1.0},
	KindPopcornBucket: {1.82, 1.3, -1.3},
	KindFireFlower:    {-0.1, 0.56, -1.2},
	KindHammer:        {1.75, 0.96, 1.0},
}

// Firefly wander tuning.
const (
	DefaultFireFlySpeed float32 = 1.1295

	fireFlyRange       float32 = 3.0
	fireFlySpeedJitter float32 = 0.01
	fireFlyAngleJitter float32 = 0.1
	fireFlyDriftJitter float32 = 0.2
)

// Transform is a rotation about +Y (degrees) followed by a translation.
type Transform struct {
	RotationY   float32
	Translation mgl32.Vec3
}

// Apply maps a point from the transform's local space into world space.
func (t Transform) Apply(local mgl32.Vec3) mgl32.Vec3 {
	rot := mgl32.Rotate3DY(mgl32.DegToRad(t.RotationY))
	return t.Translation.Add(rot.Mul3x1(local))
}

var _ bsptree.Entity = &Object{}
var _ bsptree.Releaser = &Object{}

// Object is a scene entity. Its kind decides where it is anchored and whether Update moves it.
type Object struct {
	id        uuid.UUID
	kind      Kind
	transform Transform

	position mgl32.Vec3
	initial  mgl32.Vec3

	speed float32
	angle float32

	released bool
}

// NewObject places an object of the given kind using its anchor offset under t.
func NewObject(kind Kind, t Transform) *Object {
	p := t.Apply(anchorOffsets[kind])

	return &Object{
		id:        uuid.New(),
		kind:      kind,
		transform: t,
		position:  p,
		initial:   p,
	}
}

// NewFireFly creates a firefly wandering around position.
func NewFireFly(position mgl32.Vec3, speed float32) *Object {
	return &Object{
		id:       uuid.New(),
		kind:     KindFireFly,
		position: position,
		initial:  position,
		speed:    speed,
	}
}

func (o *Object) ID() uuid.UUID               { return o.id }
func (o *Object) Kind() Kind                  { return o.kind }
func (o *Object) Transform() Transform        { return o.transform }
func (o *Object) Position() mgl32.Vec3        { return o.position }
func (o *Object) InitialPosition() mgl32.Vec3 { return o.initial }
func (o *Object) Speed() float32              { return o.speed }
func (o *Object) Moving() bool                { return o.kind.Moving() }

// Released reports whether the tree has destroyed the node that owned this object.
func (o *Object) Released() bool { return o.released }

func (o *Object) Release() {
	o.released = true
}

// Update advances per-frame animation. Only fireflies move: speed and heading drift
// randomly, and the speed flips sign once the firefly strays too far from where it started.
func (o *Object) Update(dt float32, rng *rand.Rand) {
	if !o.Moving() {
		return
	}

	o.speed += jitter(rng, fireFlySpeedJitter)

	if o.initial.Sub(o.position).Len() > fireFlyRange {
		o.speed = -o.speed
	}

	o.angle += o.speed * dt
	o.angle += jitter(rng, fireFlyAngleJitter)

	step := o.speed * dt
	o.position[0] += step * (float32(math.Sin(float64(o.angle))) + jitter(rng, fireFlyDriftJitter))
	o.position[1] += step * (float32(math.Cos(float64(o.angle))) + jitter(rng, fireFlyDriftJitter))
}

// jitter returns a uniform value in [-width/2, width/2).
func jitter(rng *rand.Rand, width float32) float32 {
	return rng.Float32()*width - width/2
}
