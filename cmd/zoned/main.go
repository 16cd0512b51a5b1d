package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wildforge/zonecore/internal/broadcast"
	"github.com/wildforge/zonecore/internal/config"
	"github.com/wildforge/zonecore/internal/data"
	"github.com/wildforge/zonecore/internal/guid"
	"github.com/wildforge/zonecore/internal/persist"
	"github.com/wildforge/zonecore/internal/scripting"
	"github.com/wildforge/zonecore/internal/telemetry"
	"github.com/wildforge/zonecore/internal/ticker"
	"github.com/wildforge/zonecore/internal/zone"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              zonecore  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      per-zone simulation core · Go          \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mzone process:\033[0m %s \033[90m(id: %d)\033[0m\n\n", serverName, serverID)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main process logic ────────────────────────────────────────────

func run() error {
	cfgPath := "config/zone.toml"
	if p := os.Getenv("ZONECORE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// Database: migrations only run at zone-load/session boundaries, per
	// the persistence model — this process owns none of the hot path.
	printSection("database")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	printOK("postgres connected")

	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	printOK("migrations applied")

	walRepo := persist.NewWALRepo(db)
	if err := walRepo.MarkProcessed(ctx); err != nil {
		return fmt.Errorf("wal recovery: %w", err)
	}
	fmt.Println()

	// Static data tables.
	printSection("data")
	creatures, err := data.LoadCreatureTable("data/yaml/creature_templates.yaml")
	if err != nil {
		return fmt.Errorf("load creature templates: %w", err)
	}
	printStat("creature templates", creatures.Count())

	spells, err := data.LoadSpellTable("data/yaml/spells.yaml")
	if err != nil {
		return fmt.Errorf("load spells: %w", err)
	}
	printStat("spells", spells.Count())

	buffDefs, err := data.LoadBuffTable("data/yaml/buffs.yaml")
	if err != nil {
		return fmt.Errorf("load buffs: %w", err)
	}
	printStat("buffs", buffDefs.Count())

	loot, err := data.LoadLootTable("data/yaml/loot_tables.yaml")
	if err != nil {
		return fmt.Errorf("load loot tables: %w", err)
	}
	printStat("loot tables", loot.Count())
	fmt.Println()

	// Lua scripting engine: combat-formula/AI-tuning delegation, Go-side
	// fallback used whenever a script is absent.
	luaEngine, err := scripting.NewEngine(cfg.Script.Dir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK("lua scripting engine loaded")

	guids := guid.NewRegistry()

	// Telemetry.
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)
	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.Handler(reg))
	metricsSrv := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	printOK(fmt.Sprintf("metrics on %s/metrics", cfg.Server.MetricsAddr))

	// Broadcast.
	bcast := broadcast.NewRedisBroadcaster(cfg.Broadcast, log)
	defer bcast.Close()
	printOK("broadcast relay configured")
	fmt.Println()

	// Zone registry: every instance created through it shares the static
	// tables and gets the shared metrics sink and WAL. The registry attaches
	// no broadcast relay; only the eagerly seeded zone 1/1 below gets one.
	registry := zone.NewRegistry(cfg.Zone, creatures, spells, buffDefs, loot, luaEngine, guids, log)
	registry.SetMetrics(metrics)
	registry.SetWAL(walRepo)

	// Seed zone 1/1 eagerly unless lazy loading defers it to first entry.
	if !cfg.Zone.LazyLoading {
		key := zone.Key{WorldID: 1, InstanceID: 1}
		inst := registry.GetOrCreate(key)
		broadcast.Attach(inst.Bus(), bcast, key)
		printOK("zone 1/1 eagerly loaded")
	}

	// Heartbeat scheduler drives every live instance's Tick and the
	// idle-shutdown sweep at the configured tick rate (spec §4.8).
	sched := ticker.New(cfg.Zone.TickRate)
	sched.Register(func(t ticker.Tick) {
		nowMS := t.At.UnixMilli()
		registry.Tick(nowMS)
		for _, key := range registry.CheckIdleShutdowns(nowMS) {
			log.Info("zone idle shutdown", zap.Uint32("world_id", key.WorldID), zap.Uint32("instance_id", key.InstanceID))
		}
	})
	go sched.Run()

	printSection("ready")
	printReady(fmt.Sprintf("tick rate %s", cfg.Zone.TickRate))
	fmt.Println()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-shutdownCh
	log.Info("shutdown signal received", zap.String("signal", sig.String()))

	sched.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("zone process stopped")
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
