package ahrs

import (
	"fmt"
	"math"
)

// EulerOrder selects the rotation-order convention for angle extraction.
// OrderYXZ exists because some mountings hit gimbal lock under ZYX.
type EulerOrder string

const (
	OrderZYX EulerOrder = "ZYX"
	OrderYXZ EulerOrder = "YXZ"
)

// EulerSeries is an ordered roll/pitch/yaw triple of series in degrees,
// time-aligned with the input samples. Roll, pitch and yaw are always the
// rotations about the body X, Y and Z axes, whatever the extraction order.
type EulerSeries struct {
	Roll, Pitch, Yaw []float64
}

// Angles extracts the intrinsic Euler angles of q in radians for the given
// order, returned as (roll, pitch, yaw) about the X, Y and Z axes.
func Angles(q Quaternion, order EulerOrder) (roll, pitch, yaw float64, err error) {
	c := RotationMatrix(q)
	switch order {
	case OrderZYX:
		yaw = math.Atan2(c[1][0], c[0][0])
		pitch = math.Asin(clamp1(-c[2][0]))
		roll = math.Atan2(c[2][1], c[2][2])
	case OrderYXZ:
		pitch = math.Atan2(c[0][2], c[2][2])
		roll = math.Asin(clamp1(-c[1][2]))
		yaw = math.Atan2(c[1][0], c[1][1])
	default:
		err = fmt.Errorf("ahrs: unsupported Euler order %q", order)
	}
	return
}

// ToEuler converts a quaternion sequence to an EulerSeries in degrees.
func ToEuler(qs []Quaternion, order EulerOrder) (EulerSeries, error) {
	e := EulerSeries{
		Roll:  make([]float64, len(qs)),
		Pitch: make([]float64, len(qs)),
		Yaw:   make([]float64, len(qs)),
	}
	for i, q := range qs {
		r, p, y, err := Angles(q, order)
		if err != nil {
			return EulerSeries{}, err
		}
		e.Roll[i] = r / Deg
		e.Pitch[i] = p / Deg
		e.Yaw[i] = y / Deg
	}
	return e, nil
}

// Unwrap removes ±360° discontinuities from an angle series in degrees,
// comparing each sample with its predecessor over the whole recorded history.
// It is a whole-series transform, never interleaved with per-sample updates.
func Unwrap(deg []float64) []float64 {
	out := make([]float64, len(deg))
	if len(deg) == 0 {
		return out
	}
	out[0] = deg[0]
	offset := 0.0
	for i := 1; i < len(deg); i++ {
		d := (deg[i] - deg[i-1]) * Deg
		if d > Pi {
			offset -= 2 * Pi
		} else if d < -Pi {
			offset += 2 * Pi
		}
		out[i] = deg[i] + offset/Deg
	}
	return out
}

// UnwrapAll unwraps all three series in place and returns the receiver.
func (e EulerSeries) UnwrapAll() EulerSeries {
	copy(e.Roll, Unwrap(e.Roll))
	copy(e.Pitch, Unwrap(e.Pitch))
	copy(e.Yaw, Unwrap(e.Yaw))
	return e
}

// Inclination returns the angle, in degrees, between the body Z axis rotated
// by q and the navigation vertical.
func Inclination(q Quaternion) float64 {
	z := Rotate(q, [3]float64{0, 0, 1})
	return math.Abs(90 - math.Acos(clamp1(z[2]))/Deg)
}

// TiltAngles is the filter-free roll/pitch estimate, in degrees, from a
// single accelerometer sample.
func TiltAngles(acc [3]float64) (roll, pitch float64) {
	roll = math.Atan2(acc[1], acc[2]) / Deg
	pitch = math.Atan2(-acc[0], math.Hypot(acc[1], acc[2])) / Deg
	return
}

func clamp1(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}
