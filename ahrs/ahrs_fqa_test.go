package ahrs

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

func nedFrame() ReferenceFrame {
	frame, err := ReferenceFrameFromDip("NED", MunichDip)
	if err != nil {
		panic(err)
	}
	return frame
}

func restingNED(frame ReferenceFrame) (acc, mag [3]float64) {
	return frame.Gravity, frame.Magnetic
}

func TestFQARestingIdentity(t *testing.T) {
	frame := nedFrame()
	f, err := NewFQA(frame)
	if err != nil {
		t.Fatal(err)
	}
	acc, mag := restingNED(frame)
	q := f.Estimate(acc, mag)
	if !sameRotation(q, QIdentity) {
		fmt.Printf("resting estimate %+v\n", q)
		t.Fail()
	}
	if f.DegenerateCount() != 0 {
		t.Fail()
	}
}

func TestFQAUnitNorm(t *testing.T) {
	f, err := NewFQA(nedFrame())
	if err != nil {
		t.Fatal(err)
	}
	accs := [][3]float64{
		{0, 0, -1}, {1, 0, 0}, {-1, 0, 0}, {0, 1, 0},
		{0.3, -0.4, -0.87}, {-0.5, 0.5, -0.7}, {0, 0, -1}, {0.3, -0.4, -0.87},
	}
	mags := [][3]float64{
		{0.4, 0, 0.9}, {0.4, 0, 0.9}, {0.1, 0.2, 0.9}, {0.4, -0.1, 0.9},
		{0.5, 0.5, 0.7}, {0.4, 0, 0.9}, {}, {},
	}
	for i := range accs {
		q := f.Estimate(accs[i], mags[i])
		if notSmall(q.Norm() - 1) {
			fmt.Printf("%d: norm %v for %+v\n", i, q.Norm(), q)
			t.Fail()
		}
	}
}

// With the nose straight up the roll sub-rotation is undefined; the estimate
// is the pure +90 degree elevation with zero roll.
func TestFQAElevationSingularity(t *testing.T) {
	f, err := NewFQA(nedFrame())
	if err != nil {
		t.Fatal(err)
	}
	q := f.Estimate([3]float64{1, 0, 0}, [3]float64{})
	// Pure rotation about Y by +90 degrees.
	want := Quaternion{W: math.Cos(Pi / 4), Y: math.Sin(Pi / 4)}
	if !sameRotation(q, want) {
		fmt.Printf("singular estimate %+v, want %+v\n", q, want)
		t.Fail()
	}
	if f.DegenerateCount() != 1 { // the zero magnetometer, not the singularity
		fmt.Printf("degenerate count %d\n", f.DegenerateCount())
		t.Fail()
	}
}

func TestFQAZeroAccIdentity(t *testing.T) {
	f, err := NewFQA(nedFrame())
	if err != nil {
		t.Fatal(err)
	}
	if q := f.Estimate([3]float64{}, [3]float64{0.4, 0, 0.9}); q != QIdentity {
		fmt.Printf("zero-acc estimate %+v\n", q)
		t.Fail()
	}
	if f.DegenerateCount() != 1 {
		t.Fail()
	}
}

// Without a magnetometer the estimate carries elevation and roll only: the
// rotated body X axis must have no East component.
func TestFQAZeroMagNoHeading(t *testing.T) {
	frame := nedFrame()
	f, err := NewFQA(frame)
	if err != nil {
		t.Fatal(err)
	}
	q := f.Estimate([3]float64{0.3, -0.4, -0.87}, [3]float64{})
	x := Rotate(q, [3]float64{1, 0, 0})
	if math.Abs(x[1]) > 1e-6 {
		fmt.Printf("east component %v of %v\n", x[1], x)
		t.Fail()
	}
}

func TestFQAConsistentWithECompass(t *testing.T) {
	frame := nedFrame()
	f, err := NewFQA(frame)
	if err != nil {
		t.Fatal(err)
	}
	// A tilted but non-singular pose: both solvers observe the same pair and
	// must agree on the attitude.
	poses := []Quaternion{
		{W: 1},
		{W: math.Cos(0.2), Y: math.Sin(0.2)},
		{W: math.Cos(0.3), X: math.Sin(0.3)},
		{W: math.Cos(0.5), Z: math.Sin(0.5)},
	}
	for i, pose := range poses {
		acc := Rotate(QConj(pose), frame.Gravity)
		mag := Rotate(QConj(pose), frame.Magnetic)
		qf := f.Estimate(acc, mag)
		qe, err := ECompass(acc, mag, frame)
		if err != nil {
			t.Fatal(err)
		}
		if !sameRotation(qf, pose) || !sameRotation(qe, pose) {
			fmt.Printf("%d: fqa %+v, ecompass %+v, want %+v\n", i, qf, qe, pose)
			t.Fail()
		}
	}
}

func TestFQAEstimateAllShape(t *testing.T) {
	f, err := NewFQA(nedFrame())
	if err != nil {
		t.Fatal(err)
	}
	_, err = f.EstimateAll(make([][3]float64, 3), make([][3]float64, 2))
	if err == nil {
		t.Fatal("mismatched batches accepted")
	}
	if _, ok := err.(*ShapeMismatchError); !ok {
		fmt.Printf("error type %T\n", err)
		t.Fail()
	}
	// The call takes no gyro batch; the message must not mention one.
	if strings.Contains(err.Error(), "gyr") || !strings.Contains(err.Error(), "acc 3") {
		fmt.Printf("message %q\n", err)
		t.Fail()
	}
}

func TestFQARejectsVerticalField(t *testing.T) {
	frame := ReferenceFrame{Gravity: [3]float64{0, 0, -1}, Magnetic: [3]float64{0, 0, 1}}
	if _, err := NewFQA(frame); err == nil {
		t.Fail()
	}
}
