// Command awstore is an operator tool for inspecting and maintaining an
// event storage instance: schema initialization, bucket management, and
// event range queries.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/Algous-Studio/aw-core/internal/config"
	"github.com/Algous-Studio/aw-core/internal/metrics"
	"github.com/Algous-Studio/aw-core/internal/storage"
	"github.com/Algous-Studio/aw-core/internal/storage/memory"
	"github.com/Algous-Studio/aw-core/internal/storage/postgres"
	"github.com/Algous-Studio/aw-core/internal/storage/sqlite"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"awstore.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Init struct{} `cmd:"" help:"Initialize storage schema and exit"`

	Buckets struct{} `cmd:"" help:"List all buckets with their metadata"`

	Bucket struct {
		Create struct {
			ID       string `help:"Bucket identifier (generated when empty)"`
			Type     string `help:"Bucket type tag" default:"test"`
			Client   string `help:"Client identifier" default:"awstore"`
			Hostname string `help:"Hostname (defaults to this machine)"`
			Name     string `help:"Optional display name"`
		} `cmd:"" help:"Create a bucket (no-op if it already exists)"`

		Get struct {
			ID string `arg:"" help:"Bucket identifier"`
		} `cmd:"" help:"Show a bucket's metadata"`

		Delete struct {
			ID string `arg:"" help:"Bucket identifier"`
		} `cmd:"" help:"Delete a bucket and all of its events"`
	} `cmd:"" help:"Bucket management"`

	Events struct {
		Bucket string `arg:"" help:"Bucket identifier"`
		Limit  int    `short:"n" help:"Maximum events to return (-1 for unlimited)" default:"100"`
		Start  string `help:"Range start (RFC 3339)"`
		End    string `help:"Range end (RFC 3339)"`
	} `cmd:"" help:"Query events in a bucket, most recent first"`

	Count struct {
		Bucket string `arg:"" help:"Bucket identifier"`
		Start  string `help:"Range start (RFC 3339)"`
		End    string `help:"Range end (RFC 3339)"`
	} `cmd:"" help:"Count events in a bucket"`

	ServeMetrics struct {
		Addr string `help:"Listen address (defaults to metrics.addr from config)"`
	} `cmd:"" help:"Serve Prometheus metrics over HTTP"`
}

func main() {
	kctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	if err := run(ctx, kctx.Command(), cfg, recorder, registry); err != nil {
		slog.Error("Command failed", "command", kctx.Command(), "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, cfg *config.Config, recorder metrics.Recorder, registry *prom.Registry) error {
	store, err := openStorage(ctx, cfg, recorder)
	if err != nil {
		return err
	}
	defer func() {
		store.Flush(ctx)
		if err := store.Close(); err != nil {
			slog.Warn("Failed to close storage", "error", err)
		}
	}()

	switch command {
	case "init":
		// Opening the store already ran schema initialization.
		slog.Info("Storage initialized", "backend", cfg.Storage.Backend)
		return nil

	case "buckets":
		buckets, err := store.Buckets(ctx)
		if err != nil {
			return err
		}
		return printJSON(buckets)

	case "bucket create":
		c := CLI.Bucket.Create
		if c.ID == "" {
			c.ID = fmt.Sprintf("awstore-%s", uuid.NewString())
		}
		if c.Hostname == "" {
			c.Hostname, _ = os.Hostname()
		}
		var name *string
		if c.Name != "" {
			name = &c.Name
		}
		created := time.Now().UTC().Format(time.RFC3339)
		meta, err := store.CreateBucket(ctx, c.ID, c.Type, c.Client, c.Hostname, created, name, nil)
		if err != nil {
			return err
		}
		return printJSON(meta)

	case "bucket get <id>":
		meta, err := store.GetMetadata(ctx, CLI.Bucket.Get.ID)
		if err != nil {
			return err
		}
		return printJSON(meta)

	case "bucket delete <id>":
		if err := store.DeleteBucket(ctx, CLI.Bucket.Delete.ID); err != nil {
			return err
		}
		slog.Info("Bucket deleted", "bucket", CLI.Bucket.Delete.ID)
		return nil

	case "events <bucket>":
		start, err := parseTimeFlag(CLI.Events.Start)
		if err != nil {
			return err
		}
		end, err := parseTimeFlag(CLI.Events.End)
		if err != nil {
			return err
		}
		events, err := store.GetEvents(ctx, CLI.Events.Bucket, CLI.Events.Limit, start, end)
		if err != nil {
			return err
		}
		return printJSON(events)

	case "count <bucket>":
		start, err := parseTimeFlag(CLI.Count.Start)
		if err != nil {
			return err
		}
		end, err := parseTimeFlag(CLI.Count.End)
		if err != nil {
			return err
		}
		count, err := store.GetEventCount(ctx, CLI.Count.Bucket, start, end)
		if err != nil {
			return err
		}
		fmt.Println(count)
		return nil

	case "serve-metrics":
		addr := CLI.ServeMetrics.Addr
		if addr == "" {
			addr = cfg.Metrics.Addr
		}
		slog.Info("Serving metrics", "addr", addr)
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.HTTPHandler(registry))
		return http.ListenAndServe(addr, mux)

	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func openStorage(ctx context.Context, cfg *config.Config, recorder metrics.Recorder) (storage.Storage, error) {
	var (
		store storage.Storage
		err   error
	)
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		store, err = postgres.New(ctx, cfg.Storage.DSN)
	case config.BackendSQLite:
		store, err = sqlite.New(ctx, cfg.Storage.Path)
	case config.BackendMemory:
		store = memory.New()
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, err
	}
	return storage.Instrument(store, cfg.Storage.Backend, recorder), nil
}

func parseTimeFlag(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q: %w", value, err)
	}
	return &t, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
