// Package astro places the scene's sun where the real one was at a given
// instant, so the lit hemisphere of the Earth matches the time of day.
package astro

import (
	"time"

	"github.com/echoflaresat/spacescroll/vectors"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/meeus/v3/solar"
)

// SunDirectionECEF returns the unit vector from the Earth's centre towards
// the Sun in Earth-centred, Earth-fixed coordinates (Z through the north
// pole, X through the prime meridian).
func SunDirectionECEF(t time.Time) vectors.Vec3 {
	t = t.UTC()
	jd := julian.TimeToJD(t)

	// Apparent RA/Dec of the Sun
	ra, dec := solar.ApparentEquatorial(jd)

	// Unit vector in ECI
	x := dec.Cos() * ra.Cos()
	y := dec.Cos() * ra.Sin()
	z := dec.Sin()

	// Rotate ECI → ECEF using Greenwich apparent sidereal time at t
	gmst := sidereal.Apparent(jd)
	cosGMST := gmst.Angle().Cos()
	sinGMST := gmst.Angle().Sin()

	return vectors.Vec3{
		X: x*cosGMST + y*sinGMST,
		Y: -x*sinGMST + y*cosGMST,
		Z: z,
	}
}

// ToScene maps an ECEF direction into the scene frame, where +Y is the
// Earth's axis and the texture seam (longitude 180°) lies on -X.
func ToScene(ecef vectors.Vec3) vectors.Vec3 {
	return vectors.Vec3{X: ecef.X, Y: ecef.Z, Z: -ecef.Y}
}

// LightPosition returns a light position at the given distance from the
// origin in the direction of the Sun at t.
func LightPosition(t time.Time, distance float64) vectors.Vec3 {
	return ToScene(SunDirectionECEF(t)).Normalize().Scale(distance)
}
