package bsptree

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Fixed view volume used by the point test. The aspect ratio is not taken from the viewport.
const (
	FrustumNear   float32 = 0.1
	FrustumFar    float32 = 100.0
	FrustumAspect float32 = 16.0 / 9.0
)

// Reference point indices returned by FrustumPoints.
const (
	FrustumTop = iota
	FrustumBottom
	FrustumRight
	FrustumLeft
	FrustumNearCenter
	FrustumFarCenter
)

// FrustumPoints builds the six reference points the point test measures against:
// the top, bottom, right and left edges of the near rectangle, then the near and far centers.
//
// Parameters:
//   - v: the camera whose view volume is described
//
// Returns:
//   - [6]mgl32.Vec3: world-space reference points, indexed by the Frustum* constants
func FrustumPoints(v Viewer) [6]mgl32.Vec3 {
	pos := v.Position()
	front := v.Front()

	right := front.Cross(v.Up()).Normalize()
	up := right.Cross(front).Normalize()

	halfV := FrustumNear * float32(math.Tan(float64(mgl32.DegToRad(v.Fov()))/2))
	halfH := halfV * FrustumAspect

	nearCenter := pos.Add(front.Mul(FrustumNear))
	farCenter := pos.Add(front.Mul(FrustumFar))

	var pts [6]mgl32.Vec3
	pts[FrustumTop] = nearCenter.Add(up.Mul(halfV))
	pts[FrustumBottom] = nearCenter.Sub(up.Mul(halfV))
	pts[FrustumRight] = nearCenter.Add(right.Mul(halfH))
	pts[FrustumLeft] = nearCenter.Sub(right.Mul(halfH))
	pts[FrustumNearCenter] = nearCenter
	pts[FrustumFarCenter] = farCenter
	return pts
}

// IsPointInFrustum reports whether point lies on the non-negative side of the direction from
// the camera to each of the six reference points. This is a coarse cone-like approximation,
// not a six plane test, and callers depend on exactly this behavior.
func IsPointInFrustum(point mgl32.Vec3, v Viewer) bool {
	toPoint := point.Sub(v.Position())

	for _, ref := range FrustumPoints(v) {
		if toPoint.Dot(ref.Sub(v.Position())) < 0 {
			return false
		}
	}
	return true
}
