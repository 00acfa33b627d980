package render

import (
	"math"

	"github.com/echoflaresat/spacescroll/scene"
	"github.com/echoflaresat/spacescroll/vectors"
)

// maxHits bounds the per-ray hit list; the scene never holds more spheres.
const maxHits = 8

// hit is one ray/sphere intersection.
type hit struct {
	T    float64
	Mesh *scene.Mesh
}

// RayContext carries per-ray state for one primary ray.
type RayContext struct {
	Origin       vectors.Vec3
	RayDirection vectors.Vec3
	Forward      vectors.Vec3
	Near, Far    float64

	hits  [maxHits]hit
	nHits int
}

// Trace collects every visible mesh the ray enters, nearest first.
func (c *RayContext) Trace(meshes []*scene.Mesh) []hit {
	c.nHits = 0
	cosView := c.RayDirection.Dot(c.Forward)

	for _, m := range meshes {
		if !m.Visible || c.nHits == maxHits {
			continue
		}
		t := intersectSphere(c.Origin.Sub(m.Position), c.RayDirection, m.Geometry.Radius)
		if t < 0 {
			continue
		}
		// Clip against the camera's near/far planes along the view axis.
		depth := t * cosView
		if depth < c.Near || depth > c.Far {
			continue
		}
		c.insert(hit{T: t, Mesh: m})
	}
	return c.hits[:c.nHits]
}

func (c *RayContext) insert(h hit) {
	i := c.nHits
	for i > 0 && c.hits[i-1].T > h.T {
		c.hits[i] = c.hits[i-1]
		i--
	}
	c.hits[i] = h
	c.nHits++
}

// HitPoint returns the world-space point at distance t along the ray.
func (c *RayContext) HitPoint(t float64) vectors.Vec3 {
	return c.Origin.Add(c.RayDirection.Scale(t))
}

// intersectSphere calculates the intersection of a ray (O + t*D) with a
// sphere of radius r centred at the origin. D must be normalized.
// Returns the closest positive t, or -1.0 if there is no intersection.
func intersectSphere(O, D vectors.Vec3, r float64) float64 {
	// b = 2*O·D, c = O·O - r^2, solve t^2 + b t + c = 0
	OdotD := O.Dot(D)
	b := 2.0 * OdotD
	c := O.Dot(O) - r*r

	discriminant := b*b - 4.0*c
	if discriminant < 0 {
		return -1.0
	}

	sqrtDisc := math.Sqrt(discriminant)
	t1 := (-b - sqrtDisc) / 2.0
	t2 := (-b + sqrtDisc) / 2.0

	if t1 > 0 && t2 > 0 {
		if t1 < t2 {
			return t1
		}
		return t2
	}
	if t1 > 0 {
		return t1
	}
	if t2 > 0 {
		return t2
	}
	return -1.0
}
