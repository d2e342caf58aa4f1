package ahrs

import "math"

// Quaternion is a rotation quaternion in the scalar-first (W, X, Y, Z)
// convention. Public operations keep it at unit norm.
type Quaternion struct {
	W, X, Y, Z float64
}

// QIdentity is the no-rotation quaternion, also the defined fallback for
// degenerate inputs.
var QIdentity = Quaternion{W: 1}

// QProd computes the Hamilton product p*q. It is non-commutative; all callers
// in this package compose rotations right-to-left.
func QProd(p, q Quaternion) Quaternion {
	return Quaternion{
		W: p.W*q.W - p.X*q.X - p.Y*q.Y - p.Z*q.Z,
		X: p.W*q.X + p.X*q.W + p.Y*q.Z - p.Z*q.Y,
		Y: p.W*q.Y - p.X*q.Z + p.Y*q.W + p.Z*q.X,
		Z: p.W*q.Z + p.X*q.Y - p.Y*q.X + p.Z*q.W,
	}
}

// QConj returns the conjugate of q, which for a unit quaternion is its
// inverse rotation.
func QConj(q Quaternion) Quaternion {
	return Quaternion{W: q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
}

// Norm returns the L2 norm of q.
func (q Quaternion) Norm() float64 {
	return math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}

// Normalize scales q to unit norm. A zero-norm (or NaN) quaternion yields
// ErrDegenerateQuaternion; caller policy is to substitute QIdentity.
func Normalize(q Quaternion) (Quaternion, error) {
	n := q.Norm()
	if !(n > 0) {
		return QIdentity, ErrDegenerateQuaternion
	}
	return Quaternion{W: q.W / n, X: q.X / n, Y: q.Y / n, Z: q.Z / n}, nil
}

// Rotate applies the rotation q to v via the conjugation sandwich q*v*q'.
func Rotate(q Quaternion, v [3]float64) [3]float64 {
	p := QProd(QProd(q, Quaternion{X: v[0], Y: v[1], Z: v[2]}), QConj(q))
	return [3]float64{p.X, p.Y, p.Z}
}

// RotationMatrix returns the 3x3 rotation matrix of q, row i dotted with a
// body-frame vector giving navigation-frame component i.
func RotationMatrix(q Quaternion) [3][3]float64 {
	return [3][3]float64{
		{1 - 2*(q.Y*q.Y+q.Z*q.Z), 2 * (q.X*q.Y - q.W*q.Z), 2 * (q.X*q.Z + q.W*q.Y)},
		{2 * (q.X*q.Y + q.W*q.Z), 1 - 2*(q.X*q.X+q.Z*q.Z), 2 * (q.Y*q.Z - q.W*q.X)},
		{2 * (q.X*q.Z - q.W*q.Y), 2 * (q.Y*q.Z + q.W*q.X), 1 - 2*(q.X*q.X+q.Y*q.Y)},
	}
}

// QFromRotationMatrix recovers the unit quaternion of a rotation matrix,
// branching on the largest diagonal term for numerical stability.
func QFromRotationMatrix(c [3][3]float64) Quaternion {
	tr := c[0][0] + c[1][1] + c[2][2]
	var q Quaternion
	switch {
	case tr > 0:
		s := 2 * math.Sqrt(tr+1)
		q = Quaternion{
			W: 0.25 * s,
			X: (c[2][1] - c[1][2]) / s,
			Y: (c[0][2] - c[2][0]) / s,
			Z: (c[1][0] - c[0][1]) / s,
		}
	case c[0][0] > c[1][1] && c[0][0] > c[2][2]:
		s := 2 * math.Sqrt(1+c[0][0]-c[1][1]-c[2][2])
		q = Quaternion{
			W: (c[2][1] - c[1][2]) / s,
			X: 0.25 * s,
			Y: (c[0][1] + c[1][0]) / s,
			Z: (c[0][2] + c[2][0]) / s,
		}
	case c[1][1] > c[2][2]:
		s := 2 * math.Sqrt(1+c[1][1]-c[0][0]-c[2][2])
		q = Quaternion{
			W: (c[0][2] - c[2][0]) / s,
			X: (c[0][1] + c[1][0]) / s,
			Y: 0.25 * s,
			Z: (c[1][2] + c[2][1]) / s,
		}
	default:
		s := 2 * math.Sqrt(1+c[2][2]-c[0][0]-c[1][1])
		q = Quaternion{
			W: (c[1][0] - c[0][1]) / s,
			X: (c[0][2] + c[2][0]) / s,
			Y: (c[1][2] + c[2][1]) / s,
			Z: 0.25 * s,
		}
	}
	qq, _ := Normalize(q)
	return qq
}

// MakeUnitVector scales v to unit length, returning ErrDegenerateInput for a
// zero-norm (or NaN) input.
func MakeUnitVector(v [3]float64) ([3]float64, error) {
	n := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if !(n > 0) {
		return [3]float64{}, ErrDegenerateInput
	}
	return [3]float64{v[0] / n, v[1] / n, v[2] / n}, nil
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// sgn is the sign function with sgn(0) = 0, as the half-angle identities
// require.
func sgn(x float64) float64 {
	if x > 0 {
		return 1
	}
	if x < 0 {
		return -1
	}
	return 0
}
