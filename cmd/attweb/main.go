// attweb replays a recorded IMU session through an attitude filter and
// streams the resulting attitude over a websocket, one JSON frame per
// sample, paced at the session's own rate. Each connection gets its own
// replay from the start of the log.
package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"imu-attitude/ahrs"
	"imu-attitude/imulog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// frame is one websocket message: degrees for the angles, unit quaternion
// components alongside.
type frame struct {
	T     float64 `json:"t"`
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	W     float64 `json:"w"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
}

func main() {
	configPath := flag.String("config", "attweb.yaml", "YAML run configuration")
	addr := flag.String("addr", "", "listen address, overrides config")
	flag.Parse()

	cfg, err := imulog.LoadConfig(*configPath)
	if err != nil {
		log.Fatalln(err)
	}
	listen := cfg.ListenAddr
	if *addr != "" {
		listen = *addr
	}
	if listen == "" {
		listen = ":8000"
	}

	frames, dt, err := replayFrames(cfg)
	if err != nil {
		log.Fatalln(err)
	}
	log.Printf("attweb: %d frames ready, period %.6f s", len(frames), dt)

	http.HandleFunc("/websocket", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("attweb: upgrade:", err)
			return
		}
		go stream(conn, frames, dt)
	})
	log.Printf("attweb: listening on %s", listen)
	log.Fatal(http.ListenAndServe(listen, nil))
}

// replayFrames runs the whole session through the configured filter once;
// connections share the precomputed result.
func replayFrames(cfg *imulog.Config) ([]frame, float64, error) {
	session, err := imulog.Read(cfg.Input, cfg.ReadOptions())
	if err != nil {
		return nil, 0, err
	}
	session = session.Align(cfg.AlignmentMatrix())

	dt := cfg.Dt
	if dt == 0 {
		dt = session.MeanDt()
	}
	if dt <= 0 {
		dt = 0.01
	}
	est, err := cfg.NewEstimator(dt)
	if err != nil {
		return nil, 0, err
	}

	qs := make([]ahrs.Quaternion, session.Len())
	q := est.Seed(session.Acc[0], session.MagAt(0))
	for i := 0; i < session.Len(); i++ {
		smp := session.Sample(i)
		q = est.Update(q, smp.Gyr, smp.Acc, smp.Mag)
		qs[i] = q
	}
	e, err := ahrs.ToEuler(qs, cfg.Order())
	if err != nil {
		return nil, 0, err
	}
	e = e.UnwrapAll()

	frames := make([]frame, session.Len())
	for i := range frames {
		frames[i] = frame{
			T:     session.T[i],
			Roll:  e.Roll[i],
			Pitch: e.Pitch[i],
			Yaw:   e.Yaw[i],
			W:     qs[i].W,
			X:     qs[i].X,
			Y:     qs[i].Y,
			Z:     qs[i].Z,
		}
	}
	return frames, dt, nil
}

func stream(conn *websocket.Conn, frames []frame, dt float64) {
	defer conn.Close()
	ticker := time.NewTicker(time.Duration(dt * float64(time.Second)))
	defer ticker.Stop()
	for _, f := range frames {
		if err := conn.WriteJSON(f); err != nil {
			log.Println("attweb: write:", err)
			return
		}
		<-ticker.C
	}
	if err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
		log.Println("attweb: close:", err)
	}
}
