package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/gekko3d/horizon"
	"github.com/gekko3d/horizon/intel"
	"github.com/gekko3d/horizon/internal/config"
	"github.com/gekko3d/horizon/render/gpu"
	"github.com/gekko3d/horizon/server"
	"github.com/spf13/cobra"
)

var (
	configFile   string
	width        int
	height       int
	starCount    int
	seed         int64
	listen       string
	backend      string
	withServer   bool
	debug        bool
	initialState string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "horizon",
		Short:        "black hole visual driven by an assistant's state",
		SilenceUsage: true,
		RunE:         runWindow,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&listen, "listen", "", "server listen address")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "base URL of a horizon server to fetch briefs from")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging")

	rootCmd.Flags().IntVar(&width, "width", 0, "window width")
	rootCmd.Flags().IntVar(&height, "height", 0, "window height")
	rootCmd.Flags().IntVar(&starCount, "stars", 0, "starfield size")
	rootCmd.Flags().Int64Var(&seed, "seed", 0, "starfield seed")
	rootCmd.Flags().BoolVar(&withServer, "server", false, "also start the API server")
	rootCmd.Flags().StringVar(&initialState, "state", "IDLE", "initial visual state")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the API server without a window",
		RunE:  runServe,
	}

	statesCmd := &cobra.Command{
		Use:   "states",
		Short: "print the state table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printStates(cmd.OutOrStdout())
		},
	}

	rootCmd.AddCommand(serveCmd, statesCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file when given and applies flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, err
		}
	} else {
		cfg.ApplyEnv()
	}

	flags := cmd.Flags()
	if flags.Changed("width") {
		cfg.Window.Width = width
	}
	if flags.Changed("height") {
		cfg.Window.Height = height
	}
	if flags.Changed("stars") {
		cfg.Scene.StarCount = starCount
	}
	if flags.Changed("seed") {
		cfg.Scene.Seed = seed
	}
	if flags.Changed("listen") {
		cfg.Server.Listen = listen
	}
	if flags.Changed("backend") {
		cfg.Server.Backend = backend
	}
	if flags.Changed("server") {
		cfg.Server.Enabled = withServer
	}
	if flags.Changed("debug") {
		cfg.Debug = debug
	}
	cfg.Normalize()
	return cfg, nil
}

// newGenerator returns nil without an API key; the endpoints then answer
// with a configuration error.
func newGenerator(ctx context.Context, cfg *config.Config, logger horizon.Logger) server.Generator {
	gen, err := server.NewGemini(ctx, cfg.Server)
	if err != nil {
		logger.Warnf("intel generation disabled: %v", err)
		return nil
	}
	return gen
}

// newSource picks where the voice session gets its intel: a remote horizon
// server when a backend is configured, otherwise the local generator.
func newSource(cfg *config.Config, gen server.Generator, logger horizon.Logger) intel.Source {
	if cfg.Server.Backend != "" {
		logger.Infof("intel from backend %s", cfg.Server.Backend)
		return intel.NewClient(cfg.Server.Backend, cfg.Server.Timeout)
	}
	return server.Direct(gen)
}

func startServer(srv *server.Server, logger horizon.Logger) func() {
	go func() {
		if err := srv.Listen(); err != nil {
			logger.Errorf("server: %v", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warnf("server shutdown: %v", err)
		}
	}
}

func runWindow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := horizon.NewDefaultLogger("horizon", cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	win, err := horizon.OpenWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title)
	if err != nil {
		return err
	}
	renderer, err := gpu.NewRenderer(win.GLFW(), cfg, logger)
	if err != nil {
		win.Destroy()
		return err
	}
	ctrl, err := horizon.New(cfg,
		horizon.WithHost(win),
		horizon.WithRenderer(renderer),
		horizon.WithLogger(logger),
	)
	if err != nil {
		renderer.Release()
		win.Destroy()
		return err
	}
	defer ctrl.Dispose()
	ctrl.SetState(horizon.ParseVisualState(initialState))

	if cfg.Server.Enabled {
		gen := newGenerator(ctx, cfg, logger)
		session := intel.NewSession(newSource(cfg, gen, logger), ctrl, logger.Named("intel"))
		defer session.Close()
		shutdown := startServer(server.New(cfg, gen, session, logger.Named("server")), logger)
		defer shutdown()
	}

	if err := ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := horizon.NewDefaultLogger("horizon", cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen := newGenerator(ctx, cfg, logger)
	session := intel.NewSession(newSource(cfg, gen, logger), nil, logger.Named("intel"))
	defer session.Close()
	shutdown := startServer(server.New(cfg, gen, session, logger.Named("server")), logger)
	defer shutdown()

	<-ctx.Done()
	return nil
}

func printStates(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STATE\tHOT\tMID1\tMID2\tOUTER\tSPEED\tPULSE\tGLITCH\tORBIT")
	for _, s := range horizon.AllStates() {
		t := horizon.TargetFor(s)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2f\t%.2f\t%.2f\t%.2f\n",
			s, hex(t.Palette.Hot), hex(t.Palette.Mid1), hex(t.Palette.Mid2), hex(t.Palette.Outer),
			t.RotationSpeed, t.PulseAmplitude, t.GlitchAmplitude, t.OrbitSpeed)
	}
	return w.Flush()
}

func hex(c [3]float32) string {
	return fmt.Sprintf("#%02x%02x%02x", uint8(c[0]*255+0.5), uint8(c[1]*255+0.5), uint8(c[2]*255+0.5))
}
