// Package imulog reads and writes IMU session logs as headerless CSV and
// loads run configuration from YAML. It is the ingestion and export layer
// around the ahrs estimators.
package imulog

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"imu-attitude/ahrs"
	"imu-attitude/align"
)

// ReadOptions selects the units of the raw log columns.
type ReadOptions struct {
	TimeInMs  bool // timestamps in milliseconds instead of seconds
	GyroInDeg bool // rates in degrees per second instead of rad/s
}

// Session is one recorded IMU log, unit-normalized: seconds and rad/s.
// Mag is nil when the log has no magnetometer columns.
type Session struct {
	T   []float64
	Gyr [][3]float64
	Acc [][3]float64
	Mag [][3]float64

	// Dropped counts rows skipped for being non-numeric or short.
	Dropped int
}

// Read parses a headerless CSV log with columns
// time,ax,ay,az,gx,gy,gz and optionally mx,my,mz. Rows that do not parse
// as numbers, or that have the wrong column count, are dropped and counted
// rather than failing the whole session.
func Read(path string, opts ReadOptions) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open session log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // row widths are validated per-row below

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse session log %s: %w", path, err)
	}

	s := &Session{}
	for _, rec := range records {
		if len(rec) != 7 && len(rec) != 10 {
			s.Dropped++
			continue
		}
		vals := make([]float64, len(rec))
		ok := true
		for i, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				ok = false
				break
			}
			vals[i] = v
		}
		if !ok {
			s.Dropped++
			continue
		}

		t := vals[0]
		if opts.TimeInMs {
			t /= 1000
		}
		acc := [3]float64{vals[1], vals[2], vals[3]}
		gyr := [3]float64{vals[4], vals[5], vals[6]}
		if opts.GyroInDeg {
			for i := range gyr {
				gyr[i] *= ahrs.Deg
			}
		}

		s.T = append(s.T, t)
		s.Acc = append(s.Acc, acc)
		s.Gyr = append(s.Gyr, gyr)
		if len(rec) == 10 {
			s.Mag = append(s.Mag, [3]float64{vals[7], vals[8], vals[9]})
		}
	}

	if len(s.T) == 0 {
		return nil, fmt.Errorf("session log %s: %w", path, ahrs.ErrDegenerateInput)
	}
	if s.Mag != nil && len(s.Mag) != len(s.T) {
		// Mixed 7 and 10 column rows; treat the log as mag-less.
		s.Mag = nil
	}
	return s, nil
}

// Len is the number of usable samples.
func (s *Session) Len() int { return len(s.T) }

// HasMag reports whether the log carried magnetometer columns.
func (s *Session) HasMag() bool { return s.Mag != nil }

// MeanDt is the mean timestamp increment in seconds.
func (s *Session) MeanDt() float64 {
	if len(s.T) < 2 {
		return 0
	}
	return (s.T[len(s.T)-1] - s.T[0]) / float64(len(s.T)-1)
}

// MagAt returns the magnetometer sample at i, or zero when absent. The
// estimators treat a zero field as "no magnetometer".
func (s *Session) MagAt(i int) [3]float64 {
	if s.Mag == nil {
		return [3]float64{}
	}
	return s.Mag[i]
}

// Sample returns reading i as a single timestamped record, with a zero
// magnetic field when the log carries no magnetometer columns.
func (s *Session) Sample(i int) ahrs.SensorSample {
	return ahrs.SensorSample{T: s.T[i], Gyr: s.Gyr[i], Acc: s.Acc[i], Mag: s.MagAt(i)}
}

// Align returns a copy of the session with the axis remapping applied to
// every sensor channel. The original session is untouched.
func (s *Session) Align(m align.Matrix) *Session {
	out := &Session{
		T:       append([]float64(nil), s.T...),
		Gyr:     m.ApplyAll(s.Gyr),
		Acc:     m.ApplyAll(s.Acc),
		Dropped: s.Dropped,
	}
	if s.Mag != nil {
		out.Mag = m.ApplyAll(s.Mag)
	}
	return out
}
