// Package align searches the 48 signed-permutation sensor-to-body axis
// remappings for the one that makes a recursive attitude filter most
// responsive to the motion recorded in a calibration log. The result is a
// ranked suggestion list for manual inspection, never an automatic pick:
// symmetric motion can leave several physically different mappings with
// near-tied scores.
package align

import (
	"sync"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/stat"

	"imu-attitude/ahrs"
)

// DefaultKp is the proportional gain of the calibration filter.
const DefaultKp = 20.0

// Matrix is a signed-permutation axis remapping: each row has exactly one
// nonzero entry of ±1, so its transpose is its inverse.
type Matrix [3][3]float64

// Identity is the no-remapping matrix.
var Identity = Matrix{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// Apply maps a sensor-frame vector into the body frame.
func (m Matrix) Apply(v [3]float64) [3]float64 {
	return [3]float64{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

// ApplyAll maps a whole sample batch, leaving the input untouched.
func (m Matrix) ApplyAll(vs [][3]float64) [][3]float64 {
	out := make([][3]float64, len(vs))
	for i, v := range vs {
		out[i] = m.Apply(v)
	}
	return out
}

// Matrices enumerates all 48 signed-permutation matrices, in a fixed order:
// 6 axis permutations times 8 sign combinations. The identity is index 7
// (permutation 0,1,2 with all signs positive).
func Matrices() []Matrix {
	perms := [6][3]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	out := make([]Matrix, 0, 48)
	for _, p := range perms {
		for s := 0; s < 8; s++ {
			var m Matrix
			for i := 0; i < 3; i++ {
				sign := 1.0
				if s&(1<<(2-i)) == 0 {
					sign = -1
				}
				m[i][p[i]] = sign
			}
			out = append(out, m)
		}
	}
	return out
}

// Candidate is one scored remapping: the per-axis mean and standard
// deviation of the unwrapped Euler angles over the full log.
type Candidate struct {
	Index    int
	Matrix   Matrix
	StdRoll  float64
	StdPitch float64
	StdYaw   float64

	MeanRoll  float64
	MeanPitch float64
	MeanYaw   float64
}

// Score is the calibration heuristic: the sum of the three standard
// deviations. Higher means more sensitive to the recorded motion.
func (c Candidate) Score() float64 {
	return c.StdRoll + c.StdPitch + c.StdYaw
}

// Config controls a ranking run.
type Config struct {
	Dt      float64         // sampling step of the log, s
	Workers int             // parallel candidates; <=0 means 4
	TopK    int             // candidates to report; <=0 means 5
	Order   ahrs.EulerOrder // empty means ZYX

	// NewEstimator builds a fresh filter per candidate. Nil selects a
	// Mahony filter with Kp=DefaultKp in the NED frame.
	NewEstimator func(dt float64) ahrs.AttitudeEstimator
}

// Evaluate scores one candidate matrix against a full log. It is a pure
// function of (matrix, data): candidates share no mutable state and may be
// evaluated in any order or in parallel.
func Evaluate(m Matrix, index int, gyr, acc [][3]float64, cfg Config) (Candidate, error) {
	order := cfg.Order
	if order == "" {
		order = ahrs.OrderZYX
	}
	est := newEstimator(cfg)

	ag := m.ApplyAll(gyr)
	aa := m.ApplyAll(acc)

	qs := make([]ahrs.Quaternion, len(ag))
	q := ahrs.QIdentity
	var noMag [3]float64
	for i := range ag {
		q = est.Update(q, ag[i], aa[i], noMag)
		qs[i] = q
	}

	e, err := ahrs.ToEuler(qs, order)
	if err != nil {
		return Candidate{}, err
	}
	e = e.UnwrapAll()

	return Candidate{
		Index:     index,
		Matrix:    m,
		StdRoll:   stat.StdDev(e.Roll, nil),
		StdPitch:  stat.StdDev(e.Pitch, nil),
		StdYaw:    stat.StdDev(e.Yaw, nil),
		MeanRoll:  stat.Mean(e.Roll, nil),
		MeanPitch: stat.Mean(e.Pitch, nil),
		MeanYaw:   stat.Mean(e.Yaw, nil),
	}, nil
}

// Rank evaluates all 48 candidates over the log and returns the TopK best,
// sorted by descending score. The map phase runs on a worker pool; the
// reduction is single-threaded.
func Rank(gyr, acc [][3]float64, cfg Config) ([]Candidate, error) {
	if len(gyr) != len(acc) {
		return nil, &ahrs.ShapeMismatchError{Gyr: len(gyr), Acc: len(acc), Mag: -1}
	}
	if len(gyr) < 2 {
		return nil, ahrs.ErrDegenerateInput
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = 5
	}

	mats := Matrices()
	results := make([]Candidate, len(mats))
	errs := make([]error, len(mats))

	jobs := make(chan int, len(mats))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i], errs[i] = Evaluate(mats[i], i, gyr, acc, cfg)
			}
		}()
	}
	for i := range mats {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	slices.SortFunc(results, func(a, b Candidate) int {
		switch {
		case a.Score() > b.Score():
			return -1
		case a.Score() < b.Score():
			return 1
		}
		return a.Index - b.Index
	})
	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK], nil
}

func newEstimator(cfg Config) ahrs.AttitudeEstimator {
	if cfg.NewEstimator != nil {
		return cfg.NewEstimator(cfg.Dt)
	}
	frame, _ := ahrs.ReferenceFrameFromDip("NED", ahrs.MunichDip)
	return ahrs.NewMahony(cfg.Dt, frame, DefaultKp, 0)
}
