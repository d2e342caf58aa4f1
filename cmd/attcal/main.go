// attcal ranks the 48 sensor-to-body axis remappings against a recorded
// calibration session and prints the best candidates. It suggests, it does
// not decide: pick the mapping that matches how the sensor is mounted.
package main

import (
	"flag"
	"fmt"
	"log"

	"imu-attitude/align"
	"imu-attitude/imulog"
)

func main() {
	configPath := flag.String("config", "attcal.yaml", "YAML run configuration")
	input := flag.String("log", "", "session log CSV, overrides config input")
	flag.Parse()

	cfg, err := imulog.LoadConfig(*configPath)
	if err != nil {
		log.Fatalln(err)
	}
	if *input != "" {
		cfg.Input = *input
	}

	session, err := imulog.Read(cfg.Input, cfg.ReadOptions())
	if err != nil {
		log.Fatalln(err)
	}
	log.Printf("attcal: %d samples from %s, %d rows dropped", session.Len(), cfg.Input, session.Dropped)

	dt := cfg.Dt
	if dt == 0 {
		dt = session.MeanDt()
	}
	log.Printf("attcal: sample period %.6f s", dt)

	best, err := align.Rank(session.Gyr, session.Acc, align.Config{
		Dt:      dt,
		Workers: cfg.Workers,
		TopK:    cfg.TopK,
		Order:   cfg.Order(),
	})
	if err != nil {
		log.Fatalln(err)
	}

	for rank, c := range best {
		fmt.Printf("#%d  candidate %2d  score %8.3f\n", rank+1, c.Index, c.Score())
		for i := 0; i < 3; i++ {
			fmt.Printf("      [%4.0f %4.0f %4.0f]\n", c.Matrix[i][0], c.Matrix[i][1], c.Matrix[i][2])
		}
		fmt.Printf("      std  roll %8.3f  pitch %8.3f  yaw %8.3f\n", c.StdRoll, c.StdPitch, c.StdYaw)
		fmt.Printf("      mean roll %8.3f  pitch %8.3f  yaw %8.3f\n", c.MeanRoll, c.MeanPitch, c.MeanYaw)
	}
}
