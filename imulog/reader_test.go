package imulog

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"imu-attitude/ahrs"
	"imu-attitude/align"
)

func writeLog(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadDropsMalformedRows(t *testing.T) {
	path := writeLog(t, "session.csv",
		"time,ax,ay,az,gx,gy,gz\n"+ // header row is just another bad row
			"0.00,0.0,0.0,-1.0,0.1,0.2,0.3\n"+
			"0.01,0.0,nope,-1.0,0.1,0.2,0.3\n"+
			"0.02,0.0,0.0,-1.0,0.1,0.2\n"+
			"0.03,0.0,0.0,-1.0,0.1,0.2,0.3\n")
	s, err := Read(path, ReadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 || s.Dropped != 3 {
		t.Fatalf("len %d dropped %d", s.Len(), s.Dropped)
	}
	if s.HasMag() {
		t.Fail()
	}
	if s.Acc[0] != ([3]float64{0, 0, -1}) || s.Gyr[1] != ([3]float64{0.1, 0.2, 0.3}) {
		fmt.Printf("acc %v gyr %v\n", s.Acc[0], s.Gyr[1])
		t.Fail()
	}
}

func TestReadUnitConversion(t *testing.T) {
	path := writeLog(t, "session.csv",
		"1000,0,0,-1,90,0,0\n"+
			"1010,0,0,-1,90,0,0\n"+
			"1020,0,0,-1,90,0,0\n")
	s, err := Read(path, ReadOptions{TimeInMs: true, GyroInDeg: true})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(s.T[0]-1.0) > 1e-12 || math.Abs(s.MeanDt()-0.01) > 1e-9 {
		fmt.Printf("t %v meanDt %v\n", s.T, s.MeanDt())
		t.Fail()
	}
	if math.Abs(s.Gyr[0][0]-ahrs.Pi/2) > 1e-12 {
		fmt.Printf("gyr %v\n", s.Gyr[0])
		t.Fail()
	}
}

func TestReadMagColumns(t *testing.T) {
	path := writeLog(t, "session.csv",
		"0,0,0,-1,0,0,0,0.4,0,0.9\n"+
			"0.01,0,0,-1,0,0,0,0.4,0,0.9\n")
	s, err := Read(path, ReadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !s.HasMag() || s.MagAt(1) != ([3]float64{0.4, 0, 0.9}) {
		t.Fail()
	}
	smp := s.Sample(1)
	if smp.T != 0.01 || smp.Acc != ([3]float64{0, 0, -1}) || smp.Mag != ([3]float64{0.4, 0, 0.9}) {
		fmt.Printf("sample %+v\n", smp)
		t.Fail()
	}
}

func TestSampleWithoutMag(t *testing.T) {
	path := writeLog(t, "session.csv", "0,1,2,3,4,5,6\n")
	s, err := Read(path, ReadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	smp := s.Sample(0)
	if smp.Gyr != ([3]float64{4, 5, 6}) || smp.Mag != ([3]float64{}) {
		fmt.Printf("sample %+v\n", smp)
		t.Fail()
	}
}

func TestReadAllRowsBad(t *testing.T) {
	path := writeLog(t, "session.csv", "a,b,c\nno,numbers,here\n")
	if _, err := Read(path, ReadOptions{}); err == nil {
		t.Fail()
	}
}

func TestSessionAlign(t *testing.T) {
	path := writeLog(t, "session.csv", "0,1,2,3,4,5,6\n0.01,1,2,3,4,5,6\n")
	s, err := Read(path, ReadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	swap := align.Matrix{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}}
	a := s.Align(swap)
	if a.Acc[0] != ([3]float64{2, 1, -3}) || a.Gyr[0] != ([3]float64{5, 4, -6}) {
		fmt.Printf("acc %v gyr %v\n", a.Acc[0], a.Gyr[0])
		t.Fail()
	}
	// Source session untouched.
	if s.Acc[0] != ([3]float64{1, 2, 3}) {
		t.Fail()
	}
}

func TestWriteEulerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "euler.csv")
	e := ahrs.EulerSeries{
		Roll:  []float64{1, 2},
		Pitch: []float64{3, 4},
		Yaw:   []float64{5, 6},
	}
	if err := WriteEuler(path, []float64{0, 0.01}, e); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "t,roll,pitch,yaw\n0,1,3,5\n0.01,2,4,6\n"
	if string(data) != want {
		t.Fatalf("got %q", data)
	}

	if err := WriteEuler(path, []float64{0}, e); err == nil {
		t.Fail()
	}
}

func TestWriteQuaternionsShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quat.csv")
	if err := WriteQuaternions(path, []float64{0, 1}, []ahrs.Quaternion{{W: 1}}); err == nil {
		t.Fail()
	}
	if err := WriteQuaternions(path, []float64{0}, []ahrs.Quaternion{{W: 1}}); err != nil {
		t.Fatal(err)
	}
}
