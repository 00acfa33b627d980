package scene

import (
	"github.com/echoflaresat/spacescroll/vectors"
	"github.com/go-gl/mathgl/mgl64"
)

// PerspectiveCamera is a pinhole camera looking down its local -Z axis.
// Projection is only rebuilt by UpdateProjectionMatrix, so field changes
// take effect the same way they would on a retained-mode scene graph.
type PerspectiveCamera struct {
	Object3D
	FOVDeg float64
	Aspect float64
	Near   float64
	Far    float64

	projection mgl64.Mat4
}

// NewPerspectiveCamera constructs a camera at the origin and computes its
// projection matrix.
func NewPerspectiveCamera(fovDeg, aspect, near, far float64) *PerspectiveCamera {
	c := &PerspectiveCamera{
		Object3D: NewObject3D("camera"),
		FOVDeg:   fovDeg,
		Aspect:   aspect,
		Near:     near,
		Far:      far,
	}
	c.UpdateProjectionMatrix()
	return c
}

// UpdateProjectionMatrix recomputes the projection from FOV, aspect and
// clip planes.
func (c *PerspectiveCamera) UpdateProjectionMatrix() {
	c.projection = mgl64.Perspective(mgl64.DegToRad(c.FOVDeg), c.Aspect, c.Near, c.Far)
}

func (c *PerspectiveCamera) Projection() mgl64.Mat4 {
	return c.projection
}

// ViewMatrix is the inverse of the camera's world transform.
// The camera is never rotated here, so only position and yaw matter.
func (c *PerspectiveCamera) ViewMatrix() mgl64.Mat4 {
	p := c.Position
	return mgl64.HomogRotate3DY(-c.Rotation.Y).Mul4(mgl64.Translate3D(-p.X, -p.Y, -p.Z))
}

// Unprojector maps normalized device coordinates back to world-space rays
// for one frame.
type Unprojector struct {
	origin vectors.Vec3
	inv    mgl64.Mat4
}

func (c *PerspectiveCamera) Unprojector() Unprojector {
	vp := c.projection.Mul4(c.ViewMatrix())
	return Unprojector{origin: c.Position, inv: vp.Inv()}
}

// Ray returns the camera origin and the normalized direction through the
// NDC point (x, y), both in [-1, +1] with +y up.
func (u Unprojector) Ray(x, y float64) (vectors.Vec3, vectors.Vec3) {
	far := u.inv.Mul4x1(mgl64.Vec4{x, y, 1, 1})
	if far[3] != 0 {
		far = far.Mul(1 / far[3])
	}
	dir := vectors.FromMgl(far.Vec3()).Sub(u.origin).Normalize()
	return u.origin, dir
}

// ComputeRay returns the viewing ray for pixel (i,j) of a width×height
// surface. i,j can be fractional (for supersampling).
func (u Unprojector) ComputeRay(i, j float64, width, height int) (vectors.Vec3, vectors.Vec3) {
	w := float64(width)
	h := float64(height)

	// Pixel centres, flipped so +Y is up in NDC.
	xNDC := (i+0.5)/w*2 - 1
	yNDC := 1 - (j+0.5)/h*2

	return u.Ray(xNDC, yNDC)
}
