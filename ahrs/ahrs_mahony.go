package ahrs

// Mahony is the explicit complementary filter: gyro integration steered by a
// proportional-integral feedback on the gravity (and, when available,
// magnetic) direction error. It is the variant the axis-alignment calibrator
// runs, since it works from accelerometer and gyro alone.
type Mahony struct {
	Dt     float64
	Kp, Ki float64
	frame  ReferenceFrame

	fbx, fby, fbz float64 // integral feedback
	degenerate    int
}

// NewMahony builds a Mahony filter with sampling step dt and PI gains kp, ki.
func NewMahony(dt float64, frame ReferenceFrame, kp, ki float64) *Mahony {
	return &Mahony{Dt: dt, Kp: kp, Ki: ki, frame: frame}
}

// Propagate integrates the raw gyro rates: q += Dt/2 * q*(0,omega).
func (m *Mahony) Propagate(q Quaternion, gyr [3]float64) Quaternion {
	if hasNaN(gyr) {
		m.degenerate++
		return q
	}
	return integrateRate(q, gyr, m.Dt)
}

// Correct steers qPred toward the vector observations by one PI feedback
// step. A zero-norm accelerometer sample returns qPred unmodified; a
// zero-norm magnetometer sample applies the gravity feedback alone.
func (m *Mahony) Correct(acc, mag [3]float64, qPred Quaternion) Quaternion {
	a, err := MakeUnitVector(acc)
	if err != nil {
		m.degenerate++
		return qPred
	}

	// Error is the cross product of measured and predicted directions.
	v := Rotate(QConj(qPred), m.frame.Gravity)
	e := cross(a, v)
	if mm, err := MakeUnitVector(mag); err == nil {
		w := Rotate(QConj(qPred), m.frame.Magnetic)
		em := cross(mm, w)
		e[0] += em[0]
		e[1] += em[1]
		e[2] += em[2]
	}

	if m.Ki > 0 {
		m.fbx += m.Ki * e[0] * m.Dt
		m.fby += m.Ki * e[1] * m.Dt
		m.fbz += m.Ki * e[2] * m.Dt
	}

	steer := [3]float64{
		m.Kp*e[0] + m.fbx,
		m.Kp*e[1] + m.fby,
		m.Kp*e[2] + m.fbz,
	}
	return integrateRate(qPred, steer, m.Dt)
}

// Update runs one full filter step.
func (m *Mahony) Update(q Quaternion, gyr, acc, mag [3]float64) Quaternion {
	return m.Correct(acc, mag, m.Propagate(q, gyr))
}

// Seed determines the initial attitude from the first observation pair: the
// compass solution when a magnetometer reading is present, the identity
// quaternion otherwise (heading is then learned from the feedback).
func (m *Mahony) Seed(acc, mag [3]float64) Quaternion {
	if q, err := ECompass(acc, mag, m.frame); err == nil {
		return q
	}
	return QIdentity
}

// DegenerateCount reports how many samples were absorbed by a fallback.
func (m *Mahony) DegenerateCount() int { return m.degenerate }

// integrateRate applies first-order quaternion kinematics for body rates w
// over one step dt.
func integrateRate(q Quaternion, w [3]float64, dt float64) Quaternion {
	dq := QProd(q, Quaternion{X: w[0], Y: w[1], Z: w[2]})
	qn, err := Normalize(Quaternion{
		W: q.W + 0.5*dt*dq.W,
		X: q.X + 0.5*dt*dq.X,
		Y: q.Y + 0.5*dt*dq.Y,
		Z: q.Z + 0.5*dt*dq.Z,
	})
	if err != nil {
		return q
	}
	return qn
}
