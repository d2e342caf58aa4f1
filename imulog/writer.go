package imulog

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"imu-attitude/ahrs"
)

// WriteQuaternions exports a time-aligned quaternion series as CSV with a
// t,w,x,y,z header row.
func WriteQuaternions(path string, t []float64, qs []ahrs.Quaternion) error {
	if len(t) != len(qs) {
		return fmt.Errorf("quaternion export: time and series lengths differ: %d vs %d", len(t), len(qs))
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create quaternion export: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"t", "w", "x", "y", "z"}); err != nil {
		return fmt.Errorf("write quaternion header: %w", err)
	}
	for i, q := range qs {
		row := []string{
			fmtFloat(t[i]),
			fmtFloat(q.W), fmtFloat(q.X), fmtFloat(q.Y), fmtFloat(q.Z),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write quaternion row %d: %w", i, err)
		}
	}
	w.Flush()
	return w.Error()
}

// WriteEuler exports an unwrapped Euler series in degrees as CSV with a
// t,roll,pitch,yaw header row.
func WriteEuler(path string, t []float64, e ahrs.EulerSeries) error {
	if len(t) != len(e.Roll) || len(t) != len(e.Pitch) || len(t) != len(e.Yaw) {
		return fmt.Errorf("euler export: time and series lengths differ: %d vs %d/%d/%d",
			len(t), len(e.Roll), len(e.Pitch), len(e.Yaw))
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create euler export: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"t", "roll", "pitch", "yaw"}); err != nil {
		return fmt.Errorf("write euler header: %w", err)
	}
	for i := range t {
		row := []string{
			fmtFloat(t[i]),
			fmtFloat(e.Roll[i]), fmtFloat(e.Pitch[i]), fmtFloat(e.Yaw[i]),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write euler row %d: %w", i, err)
		}
	}
	w.Flush()
	return w.Error()
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
