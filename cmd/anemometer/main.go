package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	charmlog "github.com/charmbracelet/log"

	"github.com/qingstation/anemometer/internal/calib"
	"github.com/qingstation/anemometer/internal/config"
	"github.com/qingstation/anemometer/internal/driver"
	"github.com/qingstation/anemometer/internal/dsp"
	"github.com/qingstation/anemometer/internal/geometry"
	"github.com/qingstation/anemometer/internal/measure"
	"github.com/qingstation/anemometer/internal/recorder"
	"github.com/qingstation/anemometer/internal/telemetry"
)

// CLI defines the anemometer daemon's command-line interface.
type CLI struct {
	Config      string `help:"Path to the persisted configuration file." default:"./anemometer.yaml"`
	Addr        string `help:"Telemetry HTTP/WebSocket listen address." default:"0.0.0.0:8080"`
	DumpDir     string `help:"Directory for error-measurement CSV dumps." default:"./wind_err"`
	ListDevices bool   `help:"List PortAudio devices and exit."`
	Synthetic   bool   `help:"Run against a synthetic front end instead of real hardware (for demos/tests)."`
	Recalibrate bool   `help:"Force a fresh calibration pass even if pulse offsets are already persisted."`
	GPIOChip    string `help:"GPIO character device driving the 80kHz transducer power rail." default:"/dev/gpiochip0"`
	GPIOLine    int    `help:"GPIO line offset on GPIOChip driving the transducer power rail."`
}

func main() {
	cli := &CLI{}
	kong.Parse(cli,
		kong.Name("anemometer"),
		kong.Description("Four-transducer ultrasonic anemometer measurement daemon"),
		kong.UsageOnError(),
	)

	logger := charmlog.New(os.Stderr)

	if cli.ListDevices {
		devices, err := driver.ListDevices()
		if err != nil {
			logger.Fatal("list devices", "err", err)
		}
		for i, d := range devices {
			fmt.Printf("%d: %s (in=%d out=%d)\n", i, d.Name, d.MaxInputChannels, d.MaxOutputChannels)
		}
		return
	}

	cfg, err := config.Load(cli.Config)
	if err != nil {
		logger.Fatal("load config", "err", err)
	}

	var front driver.FrontEnd
	var power *driver.GPIOPowerRail
	var closeFront func()
	if cli.Synthetic {
		synth := driver.NewSynthetic(20000)
		for _, ch := range []driver.Channel{driver.North, driver.South, driver.East, driver.West} {
			synth.SetEcho(ch, 500, 12.5, 15000)
		}
		front = synth
		closeFront = func() {}
	} else {
		if err := driver.InitPortAudio(); err != nil {
			logger.Fatal("init portaudio", "err", err)
		}
		pa, err := driver.NewPortAudioFrontEnd(dsp.FrameLen)
		if err != nil {
			logger.Fatal("open front end", "err", err)
		}
		power, err = driver.NewGPIOPowerRail(cli.GPIOChip, cli.GPIOLine)
		if err != nil {
			logger.Fatal("open power rail", "err", err)
		}
		front = pa
		closeFront = func() {
			pa.Close()
			power.Close()
			driver.TerminatePortAudio()
		}
	}
	defer closeFront()

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	if err := calib.AwaitLightningClear(ctx, nil, time.Second); err != nil {
		logger.Fatal("await lightning interlock", "err", err)
	}
	if power != nil {
		if err := power.SetPower(ctx, 80000, true); err != nil {
			logger.Fatal("power on transducer rail", "err", err)
		}
	}
	if err := calib.AwaitTransducers(ctx, front, time.Second); err != nil {
		logger.Fatal("await transducers", "err", err)
	}
	if err := calib.WarmUp(ctx, front, 50); err != nil {
		logger.Fatal("warm up", "err", err)
	}

	filt := dsp.Default
	g := geometry.Geometry{Height: cfg.Height, Pitch: cfg.Pitch}

	needsCalibration := cli.Recalibrate || cfg.PulseOffset == [4]float64{}
	var refShape [4][]dsp.Peak
	if needsCalibration {
		logger.Info("calibrating, please keep the anemometer in calm air")
		engine := calib.Engine{Filter: filt}
		result, err := engine.Run(ctx, front)
		if err != nil {
			logger.Fatal("calibration", "err", err)
		}
		if result.Count == 0 {
			logger.Fatal("calibration did not converge")
		}
		refShape = result.RefShape
		estC := measure.SpeedOfSoundFromTemperature(20)
		cfg.PulseOffset = calib.PulseOffset(result, g, estC)
		if err := config.Save(cli.Config, cfg); err != nil {
			logger.Warn("save config", "err", err)
		}
		logger.Info("calibration complete", "passes", result.Count)
	}

	dumper := recorder.NewCSVDumper(cli.DumpDir)

	params := measure.Params{
		Geometry:     g,
		Oversampling: cfg.Oversampling,
		PulseOffset:  cfg.PulseOffset,
		RefShape:     refShape,
		Filter:       filt,
	}

	historySize := 30000 / max(cfg.DataPeriodMs, 1)
	controller := measure.NewController(front, dumper, logger, params, historySize,
		func() float64 { return 20 },
		func() bool { return cfg.IsEnable },
		func() bool { return cfg.IsDumpError },
	)

	hub := telemetry.NewWSHub(logger)
	handlers := telemetry.NewHandlers(hub, logger, nil, nil, cli.DumpDir)
	srv := telemetry.NewServer(cli.Addr, handlers, logger)

	go func() {
		for rec := range controller.Events() {
			handlers.PublishRecord(telemetry.Record{
				Speed:       rec.Speed,
				Course:      rec.Course,
				SoundSpeed:  rec.SoundSpeed,
				Speed30sAvg: rec.Speed30sAvg,
				Speed30sMax: rec.Speed30sMax,
				ErrCode:     rec.ErrCode.String(),
			})
		}
	}()

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("telemetry server stopped", "err", err)
		}
	}()

	if err := controller.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal("controller stopped", "err", err)
	}
}
