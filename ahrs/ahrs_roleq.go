package ahrs

import (
	"math"

	"github.com/skelterjohn/go.matrix"
)

// ROLEQ is the recursive optimal linear estimator of quaternion: first-order
// gyro propagation followed by a single linear vector-observation correction
// per sample. Cost is O(1) per update; there is no iteration.
type ROLEQ struct {
	Dt         float64 // sampling step, s
	WAcc, WMag float64 // observation weights
	frame      ReferenceFrame
	degenerate int
}

// NewROLEQ builds a ROLEQ estimator with sampling step dt and the given
// observation weights. Zero weights select the default of 1 each.
func NewROLEQ(dt float64, frame ReferenceFrame, wAcc, wMag float64) *ROLEQ {
	if wAcc == 0 && wMag == 0 {
		wAcc, wMag = 1, 1
	}
	return &ROLEQ{Dt: dt, WAcc: wAcc, WMag: wMag, frame: frame}
}

// Propagate integrates first-order quaternion kinematics:
// q_pred = normalize((I + Dt/2 * Omega) q). With a zero gyro sample the
// attitude is unchanged for any Dt.
func (r *ROLEQ) Propagate(q Quaternion, gyr [3]float64) Quaternion {
	if hasNaN(gyr) {
		r.degenerate++
		return q
	}
	wx, wy, wz := gyr[0], gyr[1], gyr[2]
	omega := matrix.MakeDenseMatrix([]float64{
		0, -wx, -wy, -wz,
		wx, 0, wz, -wy,
		wy, -wz, 0, wx,
		wz, wy, -wx, 0,
	}, 4, 4)
	a := matrix.Sum(matrix.Eye(4), matrix.Scaled(omega, 0.5*r.Dt))
	qp, err := Normalize(fromColumn(matrix.Product(a, toColumn(q))))
	if err != nil {
		r.degenerate++
		return q
	}
	return qp
}

// Correct applies the weighted linear correction
// q_new = normalize(0.5 (I + w_a W_a + w_m W_m) q_pred). A zero-norm (or
// NaN) accelerometer or magnetometer sample returns q_pred unmodified, so a
// dropped reading cannot halt a session.
func (r *ROLEQ) Correct(acc, mag [3]float64, qPred Quaternion) Quaternion {
	a, errA := MakeUnitVector(acc)
	m, errM := MakeUnitVector(mag)
	if errA != nil || errM != nil {
		r.degenerate++
		return qPred
	}
	sum := matrix.Sum(
		matrix.Scaled(wMatrix(a, r.frame.Gravity), r.WAcc),
		matrix.Scaled(wMatrix(m, r.frame.Magnetic), r.WMag),
	)
	rr := matrix.Scaled(matrix.Sum(matrix.Eye(4), sum), 0.5)
	q, err := Normalize(fromColumn(matrix.Product(rr, toColumn(qPred))))
	if err != nil {
		r.degenerate++
		return qPred
	}
	return q
}

// Update runs one full recursive step.
func (r *ROLEQ) Update(q Quaternion, gyr, acc, mag [3]float64) Quaternion {
	return r.Correct(acc, mag, r.Propagate(q, gyr))
}

// Seed determines the initial attitude from the first accelerometer and
// magnetometer pair with the two-vector compass solution. Collinear or
// degenerate observations fall back to the identity quaternion.
func (r *ROLEQ) Seed(acc, mag [3]float64) Quaternion {
	q, err := ECompass(acc, mag, r.frame)
	if err != nil {
		r.degenerate++
		return QIdentity
	}
	return q
}

// ComputeAll estimates a quaternion per sample over whole batches: the first
// from the compass seed, the rest recursively.
func (r *ROLEQ) ComputeAll(gyr, acc, mag [][3]float64) ([]Quaternion, error) {
	if len(gyr) != len(acc) || len(acc) != len(mag) {
		return nil, &ShapeMismatchError{Gyr: len(gyr), Acc: len(acc), Mag: len(mag)}
	}
	if len(gyr) == 0 {
		return nil, nil
	}
	qs := make([]Quaternion, len(gyr))
	qs[0] = r.Seed(acc[0], mag[0])
	for t := 1; t < len(gyr); t++ {
		qs[t] = r.Update(qs[t-1], gyr[t], acc[t], mag[t])
	}
	return qs, nil
}

// DegenerateCount reports how many samples fell back to the propagated (or
// previous) quaternion.
func (r *ROLEQ) DegenerateCount() int { return r.degenerate }

// wMatrix builds the 4x4 rotation operator of one vector observation from
// the body measurement b and reference direction ref. The true attitude is
// the dominant eigenvector of the weighted sum of these operators.
func wMatrix(b, ref [3]float64) *matrix.DenseMatrix {
	bx, by, bz := b[0], b[1], b[2]
	m1 := matrix.MakeDenseMatrix([]float64{
		bx, 0, bz, -by,
		0, bx, by, bz,
		bz, by, -bx, 0,
		-by, bz, 0, -bx,
	}, 4, 4)
	m2 := matrix.MakeDenseMatrix([]float64{
		by, -bz, 0, bx,
		-bz, -by, bx, 0,
		0, bx, by, bz,
		bx, 0, bz, -by,
	}, 4, 4)
	m3 := matrix.MakeDenseMatrix([]float64{
		bz, by, -bx, 0,
		by, -bz, 0, bx,
		-bx, 0, -bz, by,
		0, bx, by, bz,
	}, 4, 4)
	return matrix.Sum(matrix.Scaled(m1, ref[0]),
		matrix.Sum(matrix.Scaled(m2, ref[1]), matrix.Scaled(m3, ref[2])))
}

// ECompass is the direct two-vector attitude determination: it builds
// matching orthonormal triads from the measured and reference gravity and
// magnetic directions and recovers the rotation between them. Zero-norm or
// collinear inputs yield ErrDegenerateInput.
func ECompass(acc, mag [3]float64, frame ReferenceFrame) (Quaternion, error) {
	a, err := MakeUnitVector(acc)
	if err != nil {
		return QIdentity, err
	}
	m, err := MakeUnitVector(mag)
	if err != nil {
		return QIdentity, err
	}

	b2, err := MakeUnitVector(cross(a, m))
	if err != nil {
		return QIdentity, err
	}
	b3 := cross(a, b2)

	r2, err := MakeUnitVector(cross(frame.Gravity, frame.Magnetic))
	if err != nil {
		return QIdentity, err
	}
	r3 := cross(frame.Gravity, r2)

	// C maps body to navigation: C = [r1 r2 r3] [b1 b2 b3]^T.
	var c [3][3]float64
	r1, b1 := frame.Gravity, a
	for i := 0; i < 3; i++ {
		ri := [3]float64{r1[i], r2[i], r3[i]}
		for j := 0; j < 3; j++ {
			c[i][j] = ri[0]*b1[j] + ri[1]*b2[j] + ri[2]*b3[j]
		}
	}
	return QFromRotationMatrix(c), nil
}

func toColumn(q Quaternion) *matrix.DenseMatrix {
	return matrix.MakeDenseMatrix([]float64{q.W, q.X, q.Y, q.Z}, 4, 1)
}

func fromColumn(m *matrix.DenseMatrix) Quaternion {
	return Quaternion{W: m.Get(0, 0), X: m.Get(1, 0), Y: m.Get(2, 0), Z: m.Get(3, 0)}
}

// guard against NaN gyro samples sneaking into the propagation
func hasNaN(v [3]float64) bool {
	return math.IsNaN(v[0]) || math.IsNaN(v[1]) || math.IsNaN(v[2])
}
