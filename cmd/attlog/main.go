// attlog runs a recorded IMU session through the configured attitude
// filter and exports the unwrapped Euler angle series as CSV.
package main

import (
	"flag"
	"log"

	"imu-attitude/ahrs"
	"imu-attitude/imulog"
)

func main() {
	configPath := flag.String("config", "attlog.yaml", "YAML run configuration")
	input := flag.String("log", "", "session log CSV, overrides config input")
	output := flag.String("out", "", "Euler CSV output, overrides config output")
	quatOut := flag.String("quat", "", "optional quaternion CSV output")
	flag.Parse()

	cfg, err := imulog.LoadConfig(*configPath)
	if err != nil {
		log.Fatalln(err)
	}
	if *input != "" {
		cfg.Input = *input
	}
	if *output != "" {
		cfg.Output = *output
	}

	session, err := imulog.Read(cfg.Input, cfg.ReadOptions())
	if err != nil {
		log.Fatalln(err)
	}
	session = session.Align(cfg.AlignmentMatrix())
	log.Printf("attlog: %d samples from %s, %d rows dropped, mag %v",
		session.Len(), cfg.Input, session.Dropped, session.HasMag())

	dt := cfg.Dt
	if dt == 0 {
		dt = session.MeanDt()
	}
	est, err := cfg.NewEstimator(dt)
	if err != nil {
		log.Fatalln(err)
	}

	qs := make([]ahrs.Quaternion, session.Len())
	q := est.Seed(session.Acc[0], session.MagAt(0))
	for i := 0; i < session.Len(); i++ {
		smp := session.Sample(i)
		q = est.Update(q, smp.Gyr, smp.Acc, smp.Mag)
		qs[i] = q
	}
	if n := est.DegenerateCount(); n > 0 {
		log.Printf("attlog: %d degenerate samples absorbed", n)
	}

	e, err := ahrs.ToEuler(qs, cfg.Order())
	if err != nil {
		log.Fatalln(err)
	}
	e = e.UnwrapAll()

	if err := imulog.WriteEuler(cfg.Output, session.T, e); err != nil {
		log.Fatalln(err)
	}
	log.Printf("attlog: wrote %s", cfg.Output)

	if *quatOut != "" {
		if err := imulog.WriteQuaternions(*quatOut, session.T, qs); err != nil {
			log.Fatalln(err)
		}
		log.Printf("attlog: wrote %s", *quatOut)
	}
}
