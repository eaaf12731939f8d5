// Package spatial provides the pure vector/spherical math and
// attenuation/doppler/ITD/ILD helpers used by the surround renderer.
package spatial

import "math"

// Vec3 is a Cartesian 3-vector.
type Vec3 struct {
	X, Y, Z float32
}

// Add returns v+w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

// Sub returns v-w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z}
}

// Scale returns v*s.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product v·w.
func (v Vec3) Dot(w Vec3) float32 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Cross returns the cross product v×w.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		v.Y*w.Z - v.Z*w.Y,
		v.Z*w.X - v.X*w.Z,
		v.X*w.Y - v.Y*w.X,
	}
}

// Magnitude returns |v|.
func (v Vec3) Magnitude() float32 {
	return float32(math.Sqrt(float64(v.Dot(v))))
}

// Distance returns |v-w|.
func (v Vec3) Distance(w Vec3) float32 {
	return v.Sub(w).Magnitude()
}

// Normalize returns a unit vector in the direction of v, or the zero
// vector if v is (near) zero.
func (v Vec3) Normalize() Vec3 {
	m := v.Magnitude()
	if m < 1e-9 {
		return Vec3{}
	}
	return v.Scale(1 / m)
}

// Spherical is an (azimuth, elevation, distance) coordinate, azimuth in
// [-pi,pi], elevation in [-pi/2,pi/2], distance >= 0.
type Spherical struct {
	Azimuth, Elevation, Distance float32
}

// FromCartesian converts a Cartesian point, expressed in a listener's
// local frame (forward = +Y, up = +Z), to spherical coordinates.
func FromCartesian(v Vec3) Spherical {
	distance := v.Magnitude()
	if distance < 1e-9 {
		return Spherical{}
	}
	azimuth := float32(math.Atan2(float64(v.X), float64(v.Y)))
	elevation := float32(math.Asin(float64(v.Z) / float64(distance)))
	return Spherical{Azimuth: azimuth, Elevation: elevation, Distance: distance}
}

// ToCartesian is the inverse of FromCartesian.
func (s Spherical) ToCartesian() Vec3 {
	cosEl := math.Cos(float64(s.Elevation))
	return Vec3{
		X: s.Distance * float32(cosEl) * float32(math.Sin(float64(s.Azimuth))),
		Y: s.Distance * float32(cosEl) * float32(math.Cos(float64(s.Azimuth))),
		Z: s.Distance * float32(math.Sin(float64(s.Elevation))),
	}
}

// RelativePosition computes the spherical position of source relative to
// a listener at listenerPos with the given unit forward/up vectors,
// grounded on original_source's CalculateRelativePosition: project the
// source-minus-listener vector onto the listener's local (right,
// forward, up) basis before converting to spherical.
func RelativePosition(source, listenerPos, listenerForward, listenerUp Vec3) Spherical {
	forward := listenerForward.Normalize()
	up := listenerUp.Normalize()
	right := forward.Cross(up).Normalize()

	delta := source.Sub(listenerPos)
	local := Vec3{
		X: delta.Dot(right),
		Y: delta.Dot(forward),
		Z: delta.Dot(up),
	}
	return FromCartesian(local)
}
