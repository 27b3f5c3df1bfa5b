package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tailored-agentic-units/intake/engine"
	"github.com/tailored-agentic-units/intake/intake"
	"github.com/tailored-agentic-units/intake/observability"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Path to intake config JSON file (optional)")
		host        = flag.String("host", "", "Listen host (overrides config)")
		port        = flag.Int("port", 0, "Listen port (overrides config)")
		storePath   = flag.String("store", "", "Store path for file or sqlite backends (overrides config)")
		scriptPath  = flag.String("script", "", "Scripted engine flow document (overrides config)")
		observers   = flag.String("observers", "", "Comma-separated observers, e.g. slog,trace (overrides config)")
		serveEngine = flag.Bool("serve-engine", false, "Also serve the scripted engine over Connect on the same listener")
		demo        = flag.String("demo", "", "Run one scripted session for the given complaint and exit")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	cfg, err := intake.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *storePath != "" {
		cfg.Store.Path = *storePath
	}
	if *scriptPath != "" {
		cfg.Engine.ScriptPath = *scriptPath
	}
	if *observers != "" {
		cfg.Observers = *observers
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	observability.RegisterObserver("slog", observability.NewSlogObserver(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := observability.SetupTracing(ctx, cfg.Service, cfg.Tracing)
	if err != nil {
		log.Fatalf("Failed to set up tracing: %v", err)
	}
	defer shutdown(context.WithoutCancel(ctx))

	runtime, err := intake.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create intake runtime: %v", err)
	}
	defer runtime.Close()

	if *demo != "" {
		if err := runDemo(ctx, runtime, *demo); err != nil {
			log.Fatalf("Demo run failed: %v", err)
		}
		return
	}

	handler := runtime.Handler()
	if *serveEngine {
		handler, err = withEngineService(handler, cfg)
		if err != nil {
			log.Fatalf("Failed to create engine service: %v", err)
		}
	}

	if err := runtime.ListenAndServe(ctx, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// withEngineService mounts a scripted engine service next to the intake API
// so remote-engine deployments can be exercised from a single process.
func withEngineService(api http.Handler, cfg *intake.Config) (http.Handler, error) {
	script, err := engine.DefaultScript()
	if cfg.Engine.ScriptPath != "" {
		script, err = engine.LoadScript(cfg.Engine.ScriptPath)
	}
	if err != nil {
		return nil, err
	}
	scripted, err := engine.NewScripted(script)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	path, h := engine.NewHandler(scripted)
	mux.Handle(path, h)
	mux.Handle("/", api)
	return mux, nil
}

func runDemo(ctx context.Context, runtime *intake.Runtime, complaint string) error {
	result, err := runtime.RunDemo(ctx, complaint)
	if err != nil {
		return err
	}

	fmt.Printf("Session: %s\n", result.SessionID)
	fmt.Printf("Complaint: %s\n", result.Detail.ChiefComplaint)

	fmt.Println("\nResponses:")
	for i, r := range result.Detail.Responses {
		fmt.Printf("  [%d] %s\n    -> %s\n", i+1, r.QuestionText, r.Answer)
	}

	if result.Detail.SuggestedCode != nil {
		fmt.Printf("\nSuggested: %s (%s)\n", *result.Detail.SuggestedCode, *result.Detail.SuggestedConditionName)
	}
	fmt.Printf("Decision: %s by %s\n", result.Review.Decision, result.Review.ReviewedBy)
	fmt.Printf("Final: %s\n", result.Review.FinalCode)
	return nil
}
