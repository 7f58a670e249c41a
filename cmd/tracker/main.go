package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/motion.report/internal/api"
	"github.com/banshee-data/motion.report/internal/camera"
	"github.com/banshee-data/motion.report/internal/commands"
	"github.com/banshee-data/motion.report/internal/config"
	"github.com/banshee-data/motion.report/internal/db"
	"github.com/banshee-data/motion.report/internal/fsutil"
	"github.com/banshee-data/motion.report/internal/kinematics"
	"github.com/banshee-data/motion.report/internal/monitoring"
	"github.com/banshee-data/motion.report/internal/network"
	"github.com/banshee-data/motion.report/internal/pipeline"
	"github.com/banshee-data/motion.report/internal/pose"
	"github.com/banshee-data/motion.report/internal/timeutil"
	"github.com/banshee-data/motion.report/internal/version"
)

var (
	configPath    = flag.String("config", config.DefaultConfigPath, "Path to tracker JSON config")
	devMode       = flag.Bool("dev", false, "Use the synthetic camera and pose estimator")
	replayDir     = flag.String("replay", "", "Replay captured frames and poses from this directory")
	listen        = flag.String("listen", ":8080", "HTTP listen address (empty disables the API)")
	dbPath        = flag.String("db", "sessions.db", "Session database path (empty disables the index)")
	commandPort   = flag.String("command-port", "", "Serial foot switch device (overrides footswitch_port)")
	stdinCommands = flag.Bool("stdin-commands", true, "Read recording commands from stdin")
	showVersion   = flag.Bool("version", false, "Print version and exit")
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		fset := flag.NewFlagSet("migrate", flag.ExitOnError)
		path := fset.String("db", "sessions.db", "Session database path")
		fset.Usage = func() { db.PrintMigrateHelp(os.Stderr) }
		fset.Parse(os.Args[2:])
		if err := db.RunMigrateCommand(fset.Args(), *path, os.Stdout); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		return
	}

	flag.Parse()
	if *showVersion {
		fmt.Println(version.Current())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, options{
		configPath:    *configPath,
		dev:           *devMode,
		replayDir:     *replayDir,
		listen:        *listen,
		dbPath:        *dbPath,
		commandPort:   *commandPort,
		stdinCommands: *stdinCommands,
	})
	stop()
	if err != nil {
		log.Printf("Tracker stopped: %v", err)
		os.Exit(1)
	}
}

// options carries the command-line settings into run.
type options struct {
	configPath    string
	dev           bool
	replayDir     string
	listen        string
	dbPath        string
	commandPort   string
	stdinCommands bool
}

// run wires the tracker together and blocks until quit, cancellation of ctx
// or the end of a replay. Every opened resource is closed before it returns.
func run(ctx context.Context, o options) error {
	cfg, err := loadConfig(o.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	monitoring.SetLogger(log.Printf)

	clock := timeutil.RealClock{}
	source, estimator, err := openSource(cfg, o.dev, o.replayDir, clock)
	if err != nil {
		return fmt.Errorf("failed to open camera: %w", err)
	}
	defer source.Close()

	forwarder, err := network.NewSkeletonForwarder(cfg.GetUDPHost(), cfg.GetUDPPort(), cfg.GetForwardBuffer(), cfg.GetForwardLogInterval())
	if err != nil {
		return fmt.Errorf("failed to resolve skeleton destination: %w", err)
	}
	defer forwarder.Close()

	var store *db.DB
	if o.dbPath != "" {
		store, err = db.NewDB(o.dbPath)
		if err != nil {
			return fmt.Errorf("failed to open session database: %w", err)
		}
		defer store.Close()
	}

	deps := pipeline.Deps{
		Estimator: estimator,
		Publisher: forwarder,
		FS:        fsutil.OSFileSystem{},
		Clock:     clock,
	}
	if store != nil {
		deps.Store = store
	}
	p, err := pipeline.New(pipelineConfig(cfg, source), deps)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer p.Close()

	var wg sync.WaitGroup
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	forwarder.Start(ctx)
	cmds := make(chan commands.Command, 8)

	if o.stdinCommands {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := commands.Scan(ctx, "stdin", os.Stdin, cmds); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("stdin commands: %v", err)
			}
		}()
		log.Print("Commands: s = start/stop recording, q = quit")
	}

	footswitchPort := cfg.GetFootswitchPort()
	if o.commandPort != "" {
		footswitchPort = o.commandPort
	}
	if footswitchPort != "" {
		fsw := commands.NewFootswitch(footswitchPort, cfg.GetFootswitchBaud())
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fsw.Run(ctx, cmds); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("foot switch: %v", err)
			}
			log.Print("foot switch routine terminated")
		}()
	}

	if o.listen != "" {
		var sessions api.SessionStore
		if store != nil {
			sessions = store
		}
		mux := http.NewServeMux()
		if store != nil {
			if err := store.AttachAdminRoutes(mux); err != nil {
				log.Printf("admin routes disabled: %v", err)
			}
		}
		mux.Handle("/api/", api.NewServer(p, forwarder, sessions, cmds).ServeMux())

		server := &http.Server{
			Addr:              o.listen,
			Handler:           api.LoggingMiddleware(mux),
			ReadHeaderTimeout: 5 * time.Second,
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Printf("HTTP server failed: %v", err)
					stop()
				}
			}()

			<-ctx.Done()
			log.Println("shutting down HTTP server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Printf("HTTP server shutdown error: %v", err)
			}
		}()
		log.Printf("HTTP API listening on %s", o.listen)
	}

	log.Printf("motion.report tracker %s", version.Current())
	runErr := p.Run(ctx, source, cmds)

	// Quit and end of replay stop everything else too.
	stop()
	wg.Wait()

	if runErr != nil {
		return runErr
	}
	log.Printf("Tracker stopped after %d frames (%+v)", p.FrameIndex(), forwarder.Stats())
	return nil
}

// loadConfig reads path. A missing file at the default location falls back
// to the built-in defaults.
func loadConfig(path string) (*config.TrackerConfig, error) {
	if path == "" {
		return config.DefaultTrackerConfig(), nil
	}
	cfg, err := config.LoadTrackerConfig(path)
	if err != nil && path == config.DefaultConfigPath && errors.Is(err, fs.ErrNotExist) {
		log.Printf("No config at %s, using defaults", path)
		return config.DefaultTrackerConfig(), nil
	}
	return cfg, err
}

// openSource picks the frame source and pose estimator. There is no live
// camera backend, so one of dev or replay is required.
func openSource(cfg *config.TrackerConfig, dev bool, replay string, clock timeutil.Clock) (camera.FrameSource, pose.Estimator, error) {
	switch {
	case dev && replay != "":
		return nil, nil, errors.New("-dev and -replay are mutually exclusive")
	case replay != "":
		src, err := camera.NewReplaySource(replay)
		if err != nil {
			return nil, nil, err
		}
		return src, pose.NewReplayEstimator(replay), nil
	case dev:
		return camera.NewSyntheticSource(clock, cfg.GetSyntheticFPS()), pose.NewSyntheticEstimator(), nil
	default:
		return nil, nil, errors.New("no camera backend available; run with -dev or -replay <dir>")
	}
}

func pipelineConfig(cfg *config.TrackerConfig, source camera.FrameSource) pipeline.Config {
	override, hasOverride := cfg.GetIntrinsics()
	return pipeline.Config{
		Intrinsics:      pipeline.ResolveIntrinsics(override, hasOverride, source),
		DefaultDepthM:   cfg.GetDefaultDepthM(),
		SmoothingFactor: cfg.GetSmoothingFactor(),
		MinAngleJoints:  cfg.GetMinAngleJoints(),
		Protocol:        kinematics.DefaultProtocol,
		FrameTimeout:    cfg.GetFrameTimeout(),
		RecordingsDir:   cfg.GetRecordingsDir(),
		RecordingPrefix: cfg.GetRecordingPrefix(),
	}
}
