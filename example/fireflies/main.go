package main

import (
	"context"
	"net/http"
	"os"
	"reflect"
	"syscall"
	"time"

	"github.com/ImVexed/bsptree/scene"
	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// This example runs the cinema scene headless: each tick the camera turns a little, the
// visible objects are "drawn" in back-to-front order and the fireflies wander around.

var _ = reflect.TypeOf(config{})

// Camera yaw change per frame, in degrees.
const turnRate = 0.5

type config struct {
	Scene       string        `cli:"" env:"FIREFLIES_SCENE"        help:"JSON scene file. The built-in scene is used when empty."`
	Frames      int           `cli:"" env:"FIREFLIES_FRAMES"       help:"Number of frames to simulate."`
	TickRate    time.Duration `cli:"" env:"FIREFLIES_TICK_RATE"    help:"Duration of a frame."`
	NoFrustum   bool          `cli:"" env:"FIREFLIES_NO_FRUSTUM"   help:"Disable view frustum culling."`
	LogLevel    string        `cli:"" env:"FIREFLIES_LOG_LEVEL"    help:"Log level (debug|info|warning|error)."`
	LogJSON     bool          `cli:"" env:"FIREFLIES_LOG_JSON"     help:"Log as JSON."`
	MetricsAddr string        `cli:"" env:"FIREFLIES_METRICS_ADDR" help:"Listening address for Prometheus metrics. Disabled when empty."`
	Image       string        `cli:"" env:"FIREFLIES_IMAGE"        help:"Where to dump a bitmap of the tree once done. Disabled when empty."`
	Help        bool          `cli:"" env:"-"                      help:"Show help."`
}

func main() {
	conf := config{
		Frames:   300,
		TickRate: time.Second / 60,
		LogLevel: log.InfoLevel.String(),
		Image:    "./fireflies.bmp",
	}

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Simulates the firefly scene and reports what the camera sees.").
		Options(&conf)
	cli.Load()

	level, err := log.ParseLevel(conf.LogLevel)
	if err != nil {
		log.Fatalln("invalid log level:", err)
	}
	log.SetLevel(level)
	if conf.LogJSON {
		log.SetFormatter(&log.JSONFormatter{})
	}

	if err := validateTickRate(conf.TickRate); err != nil {
		log.Fatalln(err)
	}

	cfg := scene.DefaultConfig()
	if conf.Scene != "" {
		if cfg, err = scene.LoadConfig(conf.Scene); err != nil {
			log.Fatalln(err)
		}
	}
	if conf.NoFrustum {
		cfg.CheckFrustum = false
	}

	reg := prometheus.NewRegistry()
	if conf.MetricsAddr != "" {
		go serveMetrics(conf.MetricsAddr, reg)
	}

	m := scene.NewManager(cfg.RootObject(), scene.WithMetrics(scene.NewMetrics(reg)))
	m.Initialize(cfg)
	defer m.Close()

	cam := cfg.NewCamera()
	counts := map[scene.Kind]int{}
	renderer := scene.RendererFunc(func(o *scene.Object) {
		counts[o.Kind()]++
	})

	ticker := time.NewTicker(conf.TickRate)
	defer ticker.Stop()

	log.Infoln("Starting simulation loop!")
	started := time.Now()
	last := started
	frames := 0

loop:
	for frames < conf.Frames {
		select {
		case <-ctx.Done():
			break loop
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			if slip := time.Since(now); slip > time.Millisecond {
				log.Warnln("Tick rate slipped", slip)
			}

			cam.Rotate(turnRate, 0)
			if frames == conf.Frames/2 {
				// Look back at the entrance for the second half.
				cam.InvertFront()
			}

			visible := m.RenderScene(cam, scene.FrameState{
				DeltaTime:    float32(dt.Seconds()),
				CheckFrustum: cfg.CheckFrustum,
			}, renderer)
			frames++

			log.WithFields(log.Fields{
				"frame":   frames,
				"visible": visible,
				"yaw":     cam.Yaw(),
			}).Debug("frame rendered")
		}
	}

	log.WithFields(log.Fields{
		"frames":    frames,
		"elapsed":   time.Since(started),
		"objects":   m.Len(),
		"tables":    counts[scene.KindTable],
		"fireflies": counts[scene.KindFireFly],
	}).Info("Simulation ended")

	if conf.Image != "" {
		log.Infoln("Dumping image of tree at", conf.Image)
		if err := m.Tree().Image(conf.Image); err != nil {
			log.Errorln(err)
		}
	}
}

func validateTickRate(d time.Duration) error {
	if d <= 0 {
		return errors.New("tick rate must be positive").
			WithTag("tick_rate", d)
	}
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	log.Infoln("Serving metrics on", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Errorln("metrics server stopped:", err)
	}
}
