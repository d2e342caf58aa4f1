package ahrs

import "math"

// FQA is the factored quaternion estimator: a stateless closed-form solver
// decomposing the attitude into elevation, roll and azimuth sub-rotations
// from a single accelerometer/magnetometer pair. Magnetic disturbances can
// only affect the azimuth term. No trigonometric function is evaluated; the
// sub-rotations are built purely from half-angle identities.
type FQA struct {
	nx, ny     float64 // unit horizontal geomagnetic reference
	degenerate int
}

// NewFQA builds an FQA estimator for the given reference frame. The
// horizontal components of the magnetic reference must be nonzero.
func NewFQA(frame ReferenceFrame) (*FQA, error) {
	h := math.Hypot(frame.Magnetic[0], frame.Magnetic[1])
	if !(h > 0) {
		return nil, ErrDegenerateInput
	}
	return &FQA{nx: frame.Magnetic[0] / h, ny: frame.Magnetic[1] / h}, nil
}

// Estimate computes the attitude quaternion for one sample. A zero-norm
// accelerometer reading yields the identity quaternion; a zero-norm
// magnetometer reading yields the 2-DOF elevation*roll estimate without
// heading.
func (f *FQA) Estimate(acc, mag [3]float64) Quaternion {
	a, err := MakeUnitVector(acc)
	if err != nil {
		f.degenerate++
		return QIdentity
	}

	// Elevation: the X accelerometer senses only sin(theta); elevation is
	// restricted to [-90,90] so cos(theta) is non-negative.
	sTheta := a[0]
	cTheta := math.Sqrt(math.Max(0, 1-sTheta*sTheta))
	qe := halfAngleQuaternion(sTheta, cTheta)
	qElev := Quaternion{W: qe.W, Y: qe.X}

	// Roll: undefined at elevation ±90; the zero-roll convention applies.
	var sPhi, cPhi float64
	if cTheta != 0 {
		sPhi = -a[1] / cTheta
		cPhi = -a[2] / cTheta
	}
	qRoll := halfAngleQuaternion(sPhi, cPhi)

	qER := QProd(qElev, qRoll)
	qER, _ = Normalize(qER)

	m, err := MakeUnitVector(mag)
	if err != nil {
		f.degenerate++
		return qER
	}

	// Azimuth: rotate the magnetic reading into the intermediate frame and
	// solve the horizontal 2x2 system against the reference.
	em := Rotate(qER, m)
	eh := math.Hypot(em[0], em[1])
	if !(eh > Small) {
		f.degenerate++
		return qER
	}
	mx, my := em[0]/eh, em[1]/eh
	cPsi := mx*f.nx + my*f.ny
	sPsi := -my*f.nx + mx*f.ny
	qa := halfAngleQuaternion(sPsi, cPsi)
	qAzim := Quaternion{W: qa.W, Z: qa.X}

	q := QProd(qAzim, qER)
	q, _ = Normalize(q)
	return q
}

// EstimateAll runs Estimate over whole sample batches. Accelerometer and
// magnetometer batches must be the same length.
func (f *FQA) EstimateAll(acc, mag [][3]float64) ([]Quaternion, error) {
	if len(acc) != len(mag) {
		return nil, &ShapeMismatchError{Gyr: -1, Acc: len(acc), Mag: len(mag)}
	}
	qs := make([]Quaternion, len(acc))
	for i := range acc {
		qs[i] = f.Estimate(acc[i], mag[i])
	}
	return qs, nil
}

// halfAngleQuaternion builds the quaternion of a single-axis rotation with
// the given sine and cosine, using the half-angle identities. The rotation
// axis is returned in X; callers move it to the appropriate component.
func halfAngleQuaternion(s, c float64) Quaternion {
	sh := sgn(s) * math.Sqrt(math.Max(0, (1-c)/2))
	ch := math.Sqrt(math.Max(0, (1+c)/2))
	q, err := Normalize(Quaternion{W: ch, X: sh})
	if err != nil {
		return QIdentity
	}
	return q
}

// Propagate is a no-op: FQA uses no gyro information.
func (f *FQA) Propagate(q Quaternion, gyr [3]float64) Quaternion { return q }

// Correct discards qPred and solves from the vector observations alone.
func (f *FQA) Correct(acc, mag [3]float64, qPred Quaternion) Quaternion {
	return f.Estimate(acc, mag)
}

// Update ignores the previous state and gyro sample.
func (f *FQA) Update(q Quaternion, gyr, acc, mag [3]float64) Quaternion {
	return f.Estimate(acc, mag)
}

// Seed solves the first sample directly.
func (f *FQA) Seed(acc, mag [3]float64) Quaternion { return f.Estimate(acc, mag) }

// DegenerateCount reports how many samples fell back to a degraded estimate.
func (f *FQA) DegenerateCount() int { return f.degenerate }
