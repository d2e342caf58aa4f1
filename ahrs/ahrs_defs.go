// Package ahrs implements quaternion attitude estimators for determining
// rigid-body orientation from accelerometer, gyroscope and magnetometer streams.
package ahrs

import (
	"errors"
	"fmt"
	"math"
)

const (
	Pi    = math.Pi
	Small = 1e-9
	Big   = 1e9
	Deg   = Pi / 180

	// MunichDip is the local geomagnetic dip angle for Munich, Germany, in
	// degrees. Used as the reference magnetic inclination when none is given.
	MunichDip = 64.2
)

var (
	// ErrInvalidFrame is returned for a reference frame convention other
	// than NED or ENU.
	ErrInvalidFrame = errors.New("ahrs: unknown reference frame convention")

	// ErrDegenerateQuaternion is returned by Normalize for a zero-norm
	// quaternion. Caller policy is to substitute the identity quaternion.
	ErrDegenerateQuaternion = errors.New("ahrs: cannot normalize zero-norm quaternion")

	// ErrDegenerateInput is returned where a direction is required but the
	// input vector has zero norm.
	ErrDegenerateInput = errors.New("ahrs: zero-norm vector where a direction is required")
)

// ShapeMismatchError reports sensor batches of differing lengths. It is
// surfaced before any computation starts. A field of -1 marks a channel the
// failing call does not take, keeping it out of the message.
type ShapeMismatchError struct {
	Gyr, Acc, Mag int
}

func (e *ShapeMismatchError) Error() string {
	msg := "ahrs: sensor batch lengths differ:"
	for _, ch := range []struct {
		name string
		n    int
	}{{"gyr", e.Gyr}, {"acc", e.Acc}, {"mag", e.Mag}} {
		if ch.n >= 0 {
			msg += fmt.Sprintf(" %s %d", ch.name, ch.n)
		}
	}
	return msg
}

// SensorSample is one timestamped IMU reading: gyro rates in rad/s, specific
// force in g or m/s² (normalized before use), magnetic field in any units.
type SensorSample struct {
	T   float64 // s
	Gyr [3]float64
	Acc [3]float64
	Mag [3]float64
}

// ReferenceFrame holds the unit gravity and geomagnetic reference directions
// expressed in the navigation frame. It is fixed for the duration of a run
// and passed explicitly into every estimator; there is no package-level
// default location.
type ReferenceFrame struct {
	Gravity  [3]float64 // direction an accelerometer at rest reads
	Magnetic [3]float64 // local geomagnetic field direction
}

// NewReferenceFrame builds a ReferenceFrame for the "NED" or "ENU" convention
// with an explicitly supplied magnetic reference vector, which is normalized.
func NewReferenceFrame(frame string, magRef [3]float64) (ReferenceFrame, error) {
	g, err := gravityRef(frame)
	if err != nil {
		return ReferenceFrame{}, err
	}
	m, err := MakeUnitVector(magRef)
	if err != nil {
		return ReferenceFrame{}, fmt.Errorf("magnetic reference: %w", err)
	}
	return ReferenceFrame{Gravity: g, Magnetic: m}, nil
}

// ReferenceFrameFromDip builds a ReferenceFrame from the local geomagnetic
// dip angle in degrees: the magnetic reference is [cos d, 0, sin d] in NED
// and [0, cos d, -sin d] in ENU.
func ReferenceFrameFromDip(frame string, dipDeg float64) (ReferenceFrame, error) {
	g, err := gravityRef(frame)
	if err != nil {
		return ReferenceFrame{}, err
	}
	cd, sd := math.Cos(dipDeg*Deg), math.Sin(dipDeg*Deg)
	var m [3]float64
	if frame == "NED" {
		m = [3]float64{cd, 0, sd}
	} else {
		m = [3]float64{0, cd, -sd}
	}
	return ReferenceFrame{Gravity: g, Magnetic: m}, nil
}

func gravityRef(frame string) ([3]float64, error) {
	switch frame {
	case "NED":
		return [3]float64{0, 0, -1}, nil
	case "ENU":
		return [3]float64{0, 0, 1}, nil
	}
	return [3]float64{}, fmt.Errorf("%w: %q", ErrInvalidFrame, frame)
}

// AttitudeEstimator is the capability interface shared by the estimator
// variants (FQA, ROLEQ, Mahony). Each instance owns its state exclusively and
// must not be shared across concurrent update call sites.
type AttitudeEstimator interface {
	// Propagate advances the previous attitude by one gyro sample.
	Propagate(q Quaternion, gyr [3]float64) Quaternion
	// Correct adjusts a propagated attitude with vector observations.
	// Zero-norm observations leave qPred unmodified.
	Correct(acc, mag [3]float64, qPred Quaternion) Quaternion
	// Update is the per-sample entry point: Correct after Propagate.
	Update(q Quaternion, gyr, acc, mag [3]float64) Quaternion
	// Seed produces the initial attitude of a session from the first
	// accelerometer/magnetometer pair alone.
	Seed(acc, mag [3]float64) Quaternion
	// DegenerateCount reports how many samples were absorbed by a
	// degraded-input fallback since construction.
	DegenerateCount() int
}
