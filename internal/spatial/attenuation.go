package spatial

import "math"

// minReferenceDistance is the floor below which inverse-distance
// attenuation no longer increases gain, preventing a division blow-up as
// distance approaches zero.
const minReferenceDistance = 0.1

// DistanceAttenuation returns an inverse-distance gain scaled by
// referenceDistance (the distance at which gain is 1.0), clamping the
// effective distance below at 0.1m.
func DistanceAttenuation(distance, referenceDistance float32) float32 {
	if referenceDistance <= 0 {
		referenceDistance = 1
	}
	if distance < minReferenceDistance {
		distance = minReferenceDistance
	}
	return referenceDistance / distance
}

// AirAbsorptionCutoff returns the low-pass cutoff frequency modeling
// atmospheric high-frequency absorption over distance, per
// SPEC_FULL.md §4.2: cutoff = 20000*exp(-0.1*distance*(1+humidity/100)).
func AirAbsorptionCutoff(distance, humidity float32) float32 {
	return 20000 * float32(math.Exp(-0.1*float64(distance)*(1+float64(humidity)/100)))
}

// DopplerShiftRatio returns the frequency ratio (c - v_listener . uSL) /
// (c - v_source . uSL), where uSL is the unit vector from source to
// listener.
func DopplerShiftRatio(sourceVelocity, listenerVelocity, sourceToListenerUnit Vec3, speedOfSound float32) float32 {
	num := speedOfSound - listenerVelocity.Dot(sourceToListenerUnit)
	den := speedOfSound - sourceVelocity.Dot(sourceToListenerUnit)
	if den == 0 {
		return 1
	}
	return num / den
}

// defaultHeadRadius is the spherical-head-model radius in meters, the
// original's default ear-to-ear distance approximation.
const defaultHeadRadius = 0.0875

// InterauralTimeDifference returns the ITD in seconds for a source at
// the given azimuth (radians, 0 = straight ahead), using the
// Woodworth spherical-head approximation ΔT = (r/c)*(θ + sin θ).
func InterauralTimeDifference(azimuth, speedOfSound float32) float32 {
	return (defaultHeadRadius / speedOfSound) * (azimuth + float32(math.Sin(float64(azimuth))))
}

// InterauralLevelDifference returns a frequency-independent head-shadow
// scalar in [0,1], approximated as |sin(azimuth)| scaled by the cosine of
// elevation (off-axis sources in elevation produce less shadowing).
func InterauralLevelDifference(azimuth, elevation float32) float32 {
	shadow := float32(math.Abs(math.Sin(float64(azimuth))))
	return shadow * float32(math.Cos(float64(elevation)))
}
