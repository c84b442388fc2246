package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hvz-game/server/internal/api"
	"github.com/hvz-game/server/internal/auth"
	"github.com/hvz-game/server/internal/config"
	coresys "github.com/hvz-game/server/internal/core/system"
	"github.com/hvz-game/server/internal/data"
	"github.com/hvz-game/server/internal/gatekeeper"
	"github.com/hvz-game/server/internal/handler"
	"github.com/hvz-game/server/internal/metrics"
	gonet "github.com/hvz-game/server/internal/net"
	"github.com/hvz-game/server/internal/net/packet"
	"github.com/hvz-game/server/internal/persist"
	"github.com/hvz-game/server/internal/scripting"
	"github.com/hvz-game/server/internal/system"
	"github.com/hvz-game/server/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
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
	fmt.Println("\033[31;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[31;1m  │\033[0m        Humans vs Zombies  v0.1.0          \033[31;1m│\033[0m")
	fmt.Println("\033[31;1m  │\033[0m        權威模擬 · Go 遊戲伺服器           \033[31;1m│\033[0m")
	fmt.Println("\033[31;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1m伺服器:\033[0m %s \033[90m(編號: %d)\033[0m\n\n", serverName, serverID)
}

// displayWidth counts CJK runes as two columns.
func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		if r > 0x7F {
			w += 2
		} else {
			w++
		}
	}
	return w
}

func printSection(title string) {
	lineLen := max(46-displayWidth(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-displayWidth(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("HVZ_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// 3. Identity provider: PostgreSQL when enabled, otherwise in memory
	printSection("帳號")

	var provider auth.Provider
	if cfg.Database.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			cancel()
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL 連線成功")

		err = db.RunMigrations(ctx)
		cancel()
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("資料庫遷移完成")
		provider = persist.NewAccountRepo(db)
	} else {
		provider = auth.NewMemoryProvider()
		printOK("使用記憶體帳號（重啟後清空）")
	}

	tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	if err != nil {
		return fmt.Errorf("token issuer: %w", err)
	}
	fmt.Println()

	// 4. Load data
	printSection("資料載入")

	catalog, err := data.LoadCatalog(cfg.Data.ItemsPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	printStat("道具模板", catalog.Count())

	layout, err := data.LoadLayout(cfg.Data.MapPath)
	if err != nil {
		return fmt.Errorf("load map: %w", err)
	}
	printStat("家具", len(layout.Furniture))
	printStat("鯊魚", len(layout.Sharks))
	printStat("躲藏點", len(layout.HidingSpots))

	luaEngine, err := scripting.NewEngine(cfg.Data.ScriptsPath, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK("Lua 腳本載入完成")
	fmt.Println()

	// 5. World state
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ws := world.NewState(layout, catalog, cfg.Economy, cfg.Round, cfg.Network.TickHz(), rng)
	ws.Advance(time.Now().UnixMilli())

	// 6. Network, gatekeeper, metrics, handlers
	netServer := gonet.NewServer(
		cfg.Network.InQueueSize,
		cfg.Network.OutQueueSize,
		cfg.Network.WriteTimeout,
		cfg.Network.ReadLimit,
		log,
	)
	var gate gatekeeper.Validator
	if cfg.RateLimit.Enabled {
		gate = gatekeeper.New(cfg.RateLimit)
	}
	m := metrics.New("hvz")

	deps := &handler.Deps{
		Config:      cfg,
		Log:         log,
		World:       ws,
		Scripting:   luaEngine,
		Auth:        provider,
		Tokens:      tokens,
		Metrics:     m,
		Sessions:    gonet.NewSessionStore(),
		AuthResults: make(chan handler.AuthOutcome, 64),
	}
	pktReg := packet.NewRegistry(log)
	handler.RegisterAll(pktReg, deps)
	handler.SubscribeEvents(deps)

	// 7. Systems, in tick order within each phase
	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(netServer, pktReg, gate, deps, cfg.Network.MaxIntentsPerTick))
	runner.Register(system.NewTimerSystem(ws))
	runner.Register(system.NewDragSystem(ws))
	runner.Register(system.NewMovementSystem(ws))
	runner.Register(system.NewGrabSystem(ws))
	runner.Register(system.NewDroneSystem(ws))
	runner.Register(system.NewPhysicsSystem(ws))
	runner.Register(system.NewSharkSystem(ws))
	runner.Register(system.NewProjectileSystem(ws))
	runner.Register(system.NewCannonballSystem(ws))
	runner.Register(system.NewGrenadeSystem(ws))
	runner.Register(system.NewHazardSystem(ws))
	runner.Register(system.NewSinkingSystem(ws))
	runner.Register(system.NewPortalSystem(ws))
	runner.Register(system.NewCollisionSystem(ws))
	runner.Register(system.NewHitboxSystem(ws))
	runner.Register(system.NewCosmeticSystem(ws))
	rounds := system.NewRoundController(deps)
	runner.Register(rounds)
	runner.Register(system.NewEventSystem(ws.Bus))
	output := system.NewOutputSystem(deps)
	runner.Register(output)
	runner.Register(system.NewCleanupSystem(ws))
	deps.Rounds = rounds

	// 8. HTTP surface: websocket upgrade, REST auth, health, metrics
	router := api.NewRouter(api.Config{
		Log:     log,
		Auth:    provider,
		Tokens:  tokens,
		Metrics: m,
		WS:      http.HandlerFunc(netServer.HandleWS),
		Status:  output.Summary,
	})
	httpServer := &http.Server{
		Addr:              cfg.Network.BindAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpErr := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
		}
	}()

	// 9. Start game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Network.TickRate)
	defer ticker.Stop()

	printSection("伺服器就緒")
	printReady(fmt.Sprintf("監聽位址 %s", cfg.Network.BindAddress))
	printReady(fmt.Sprintf("遊戲迴圈啟動 (tick: %s)", cfg.Network.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			start := time.Now()
			ws.Advance(start.UnixMilli())
			runner.Tick(cfg.Network.TickRate)
			m.ObserveTick(time.Since(start))
		case err := <-httpErr:
			netServer.Shutdown()
			return fmt.Errorf("http server: %w", err)
		case sig := <-shutdownCh:
			log.Info("收到關閉信號", zap.String("signal", sig.String()))
			netServer.Shutdown()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := httpServer.Shutdown(ctx); err != nil {
				log.Warn("HTTP 關閉逾時", zap.Error(err))
			}
			cancel()
			log.Info("伺服器已停止")
			return nil
		}
	}
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
