package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"go.uber.org/zap"

	"StepBoard/internal/config"
	"StepBoard/internal/export"
	"StepBoard/internal/llm"
	stepnet "StepBoard/internal/net"
	"StepBoard/internal/script"
	"StepBoard/internal/state"
	"StepBoard/internal/ui"
)

func main() {
	var (
		configPath = flag.String("config", "stepboard.toml", "configuration file")
		scriptPath = flag.String("script", "", "step text file to replay headless (- for stdin)")
		outPath    = flag.String("out", "", "image to write after a headless replay (.png, .jpg)")
		describe   = flag.String("describe", "", "generate step text for a description and print it")
		discover   = flag.Bool("discover", false, "list boards advertising a feed on the local network")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log, err := newLogger(cfg.Log, *verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch {
	case *discover:
		err = runDiscover(log)
	case *describe != "":
		err = runDescribe(ctx, cfg, log, *describe, *outPath)
	case *scriptPath != "":
		err = runHeadless(ctx, cfg, log, *scriptPath, *outPath)
	default:
		runBoard(ctx, cfg, log)
	}
	if err != nil {
		log.Error("stepboard failed", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(c config.Log, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Development || verbose {
		zc = zap.NewDevelopmentConfig()
	}
	if c.Level != "" {
		lvl, err := zap.ParseAtomicLevel(c.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		zc.Level = lvl
	}
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zc.Build()
}

func newExecutor(store *state.Store, cfg config.Config, log *zap.Logger, opts ...script.Option) *script.Executor {
	d := script.DefaultSettings()
	d.Color = cfg.Executor.DefaultColor
	d.Width = cfg.Executor.DefaultWidth
	return script.NewExecutor(store, log, append([]script.Option{script.WithDefaults(d)}, opts...)...)
}

func newGenerator(cfg config.LLM, log *zap.Logger) *llm.OllamaClient {
	return llm.NewOllamaClient(cfg.URL, cfg.Model,
		llm.WithTimeout(cfg.Timeout()),
		llm.WithRetries(cfg.Retries),
		llm.WithLogger(log))
}

func readScript(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

// replay runs text on a fresh store and writes the result to out if set.
func replay(ctx context.Context, cfg config.Config, log *zap.Logger, text, out string) error {
	ops := script.Parse(text)
	if len(ops) == 0 {
		return errors.New("no recognizable steps")
	}
	store := state.NewStore(log)
	exec := newExecutor(store, cfg, log, script.WithProgress(func(c script.Cursor) {
		if c.Current >= 0 {
			log.Debug("step", zap.Int("current", c.Current+1), zap.Int("total", c.Total))
		}
	}))
	runErr := exec.Run(ctx, ops)
	log.Info("replay finished",
		zap.Stringer("status", exec.Status()),
		zap.Int("shapes", store.Len()))

	if out != "" {
		if err := export.SaveFile(out, store.Shapes(), cfg.Canvas.Width, cfg.Canvas.Height); err != nil {
			return errors.Join(runErr, err)
		}
		log.Info("image written", zap.String("path", out))
	}
	return runErr
}

func runHeadless(ctx context.Context, cfg config.Config, log *zap.Logger, path, out string) error {
	text, err := readScript(path)
	if err != nil {
		return err
	}
	return replay(ctx, cfg, log, text, out)
}

func runDescribe(ctx context.Context, cfg config.Config, log *zap.Logger, description, out string) error {
	gen := newGenerator(cfg.LLM, log)
	text, err := gen.Generate(ctx, description, func(chunk string) { fmt.Fprint(os.Stderr, chunk) })
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}
	fmt.Println(script.Renumber(text))
	if out == "" {
		return nil
	}
	return replay(ctx, cfg, log, text, out)
}

func runDiscover(log *zap.Logger) error {
	seen := make(map[string]bool)
	return stepnet.Browse(3*time.Second, log, func(url string) {
		if !seen[url] {
			seen[url] = true
			fmt.Println(url)
		}
	})
}

func runBoard(ctx context.Context, cfg config.Config, log *zap.Logger) {
	store := state.NewStore(log)
	exec := newExecutor(store, cfg, log)
	recorder := script.NewRecorder()

	opts := ui.Options{
		Store:      store,
		Executor:   exec,
		Recorder:   recorder,
		CorpusPath: cfg.Corpus.Path,
		Width:      cfg.Canvas.Width,
		Height:     cfg.Canvas.Height,
		Log:        log,
	}
	if strings.TrimSpace(cfg.LLM.URL) != "" {
		opts.Generator = newGenerator(cfg.LLM, log)
	}

	if cfg.Feed.Enabled {
		hub := stepnet.NewHub(store, log)
		store.AddListener(hub)
		exec.OnProgress(hub.Progress)

		feedCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := hub.ListenAndServe(feedCtx, cfg.Feed.Port); err != nil {
				log.Error("feed stopped", zap.Error(err))
			}
		}()
		if cfg.Feed.Advertise {
			server, err := stepnet.Advertise(cfg.Feed.Port)
			if err != nil {
				log.Warn("mDNS advertisement failed", zap.Error(err))
			} else {
				defer server.Shutdown()
			}
		}
		opts.ShareURL = stepnet.ShareURL(cfg.Feed.Port)
		log.Info("feed enabled", zap.String("url", opts.ShareURL))
	}

	ui.RunApp(opts)
}
