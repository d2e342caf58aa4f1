package imulog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"imu-attitude/ahrs"
	"imu-attitude/align"
)

// Config is the YAML run configuration shared by the attcal, attlog and
// attweb commands.
type Config struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`

	// Log units. "ms"/"s" and "deg"/"rad".
	TimeUnit string `yaml:"time_unit"`
	GyroUnit string `yaml:"gyro_unit"`

	// Dt overrides the sampling period; 0 means derive it from the
	// timestamps of the log.
	Dt float64 `yaml:"dt"`

	Frame  string     `yaml:"frame"`   // "NED" or "ENU"
	MagDip float64    `yaml:"mag_dip"` // dip angle, degrees; used when mag_ref absent
	MagRef [3]float64 `yaml:"mag_ref"` // explicit field reference, overrides mag_dip

	Filter string `yaml:"filter"` // "fqa", "roleq" or "mahony"
	WAcc   float64 `yaml:"w_acc"`
	WMag   float64 `yaml:"w_mag"`
	Kp     float64 `yaml:"kp"`
	Ki     float64 `yaml:"ki"`

	// Alignment is a sensor-to-body remapping row-major; zero means identity.
	Alignment  [3][3]float64 `yaml:"alignment"`
	EulerOrder string        `yaml:"euler_order"`

	TopK    int `yaml:"top_k"`
	Workers int `yaml:"workers"`

	ListenAddr string `yaml:"listen_addr"`
}

// LoadConfig reads and parses a YAML run configuration.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// ReadOptions derives the log unit options.
func (c *Config) ReadOptions() ReadOptions {
	return ReadOptions{
		TimeInMs:  c.TimeUnit == "ms",
		GyroInDeg: c.GyroUnit == "deg",
	}
}

// ReferenceFrame resolves the frame convention and magnetic reference.
// An explicit mag_ref wins over mag_dip; with neither set the Munich dip
// angle is assumed.
func (c *Config) ReferenceFrame() (ahrs.ReferenceFrame, error) {
	frame := c.Frame
	if frame == "" {
		frame = "NED"
	}
	if c.MagRef != ([3]float64{}) {
		return ahrs.NewReferenceFrame(frame, c.MagRef)
	}
	dip := c.MagDip
	if dip == 0 {
		dip = ahrs.MunichDip
	}
	return ahrs.ReferenceFrameFromDip(frame, dip)
}

// AlignmentMatrix returns the configured remapping, or the identity when
// the config leaves it zero.
func (c *Config) AlignmentMatrix() align.Matrix {
	if c.Alignment == ([3][3]float64{}) {
		return align.Identity
	}
	return align.Matrix(c.Alignment)
}

// Order resolves the configured Euler extraction order, defaulting to ZYX.
func (c *Config) Order() ahrs.EulerOrder {
	if c.EulerOrder == "" {
		return ahrs.OrderZYX
	}
	return ahrs.EulerOrder(c.EulerOrder)
}

// NewEstimator builds the configured filter for the given sampling step.
func (c *Config) NewEstimator(dt float64) (ahrs.AttitudeEstimator, error) {
	frame, err := c.ReferenceFrame()
	if err != nil {
		return nil, err
	}
	switch c.Filter {
	case "", "roleq":
		return ahrs.NewROLEQ(dt, frame, c.WAcc, c.WMag), nil
	case "fqa":
		return ahrs.NewFQA(frame)
	case "mahony":
		kp := c.Kp
		if kp == 0 {
			kp = align.DefaultKp
		}
		return ahrs.NewMahony(dt, frame, kp, c.Ki), nil
	}
	return nil, fmt.Errorf("unknown filter %q", c.Filter)
}
