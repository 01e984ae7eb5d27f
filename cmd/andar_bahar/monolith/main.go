// Andar Bahar monolith: game core and gateway in one process, wired
// through local calls instead of RPC.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Razorrag/reddy-anna-sub005/internal/config"
	abCoordinator "github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/coordinator"
	abDomain "github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/domain"
	abLedger "github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/ledger"
	abMachine "github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/machine"
	abDB "github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/repository/db"
	abMemory "github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/repository/memory"
	abRedis "github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/repository/redis"
	abSettlement "github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/settlement"
	gatewayHttp "github.com/Razorrag/reddy-anna-sub005/internal/modules/gateway/http"
	gatewayUseCase "github.com/Razorrag/reddy-anna-sub005/internal/modules/gateway/usecase"
	"github.com/Razorrag/reddy-anna-sub005/internal/modules/gateway/ws"
	"github.com/Razorrag/reddy-anna-sub005/internal/modules/wallet"
	"github.com/Razorrag/reddy-anna-sub005/pkg/logger"
	"github.com/Razorrag/reddy-anna-sub005/pkg/netutil"
)

func main() {
	logFile := flag.String("log-file", "logs/andar_bahar.log", "log file path")
	flag.Parse()

	cfg := config.LoadMonolithConfig()

	logger.InitWithFile(*logFile, cfg.Game.Server.LogLevel, "json")
	ctx := context.Background()

	logger.Info(ctx).Msg("🎴 Starting Andar Bahar Monolith...")

	// Repositories: memory by default, redis/db selected by env
	var (
		betRepo     abDomain.BetRepository
		txnRepo     abDomain.TransactionRepository
		orderRepo   abDomain.BetOrderRepository
		sessionRepo abDomain.SessionRepository
	)

	switch cfg.Game.RepoType {
	case "db":
		db, err := gorm.Open(postgres.Open(cfg.Game.Database.DSN()), &gorm.Config{
			Logger: logger.NewGormLogger(),
		})
		if err != nil {
			logger.Fatal(ctx).Err(err).Msg("Failed to connect to database")
		}
		sqlDB, err := db.DB()
		if err != nil {
			logger.Fatal(ctx).Err(err).Msg("Failed to get database instance")
		}
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetConnMaxLifetime(time.Hour)

		if err := db.AutoMigrate(&abDomain.Transaction{}, &abDomain.BetOrder{}, &abDomain.SessionRecord{}); err != nil {
			logger.Fatal(ctx).Err(err).Msg("Database migration failed")
		}

		betRepo = abMemory.NewBetRepository()
		txnRepo = abDB.NewTransactionRepository(db)
		orderRepo = abDB.NewBetOrderRepository(db)
		sessionRepo = abDB.NewSessionRepository(db)
		logger.Info(ctx).Msg("  ✅ Repository: Postgres")

	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.Game.Redis.Addr(),
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal(ctx).Err(err).Msg("Failed to connect to Redis")
		}
		betRepo = abRedis.NewBetRepository(rdb)
		txnRepo = abMemory.NewTransactionRepository()
		orderRepo = abMemory.NewBetOrderRepository()
		sessionRepo = abMemory.NewSessionRepository()
		logger.Info(ctx).Msg("  ✅ Repository: Redis")

	default:
		betRepo = abMemory.NewBetRepository()
		txnRepo = abMemory.NewTransactionRepository()
		orderRepo = abMemory.NewBetOrderRepository()
		sessionRepo = abMemory.NewSessionRepository()
		logger.Info(ctx).Msg("  ✅ Repository: Memory")
	}

	// Wallet service (mock until the real wallet service is attached)
	walletSvc := wallet.NewMockService()
	logger.Info(ctx).Msg("  ✅ Wallet service initialized (mock)")

	// WebSocket manager
	wsManager := ws.NewManager()
	go wsManager.Run()
	logger.Info(ctx).Msg("  ✅ WebSocket manager started")

	// Gateway use case doubles as the game's broadcaster
	gatewayUC := gatewayUseCase.NewGatewayUseCase(wsManager)

	// Game core: machine, ledger, settlement engine, coordinator
	sessionID := cfg.Game.SessionID
	resuming := sessionID != ""
	if !resuming {
		sessionID = newSessionID()
	}
	machine := abMachine.New(sessionID)
	machine.Round1BettingDuration = cfg.Game.Settings.Round1BettingDuration
	machine.Round2BettingDuration = cfg.Game.Settings.Round2BettingDuration

	ledger := abLedger.New(sessionID, abLedger.Limits{
		MinBet: cfg.Game.Settings.MinBet,
		MaxBet: cfg.Game.Settings.MaxBet,
	}, walletSvc, txnRepo, betRepo)
	if resuming {
		if err := ledger.Restore(ctx); err != nil {
			logger.Fatal(ctx).Err(err).Str("session_id", sessionID).Msg("Failed to restore session bets")
		}
	}

	engine := abSettlement.NewEngine(walletSvc, txnRepo, orderRepo, betRepo, cfg.Game.Settings.PayoutMultiplierX100)

	coord := abCoordinator.New(sessionID, machine, ledger, engine, gatewayUC, sessionRepo)
	gatewayUC.SetCoordinator(coord)

	coordCtx, coordCancel := context.WithCancel(context.Background())
	defer coordCancel()
	go coord.Run(coordCtx)
	logger.Info(ctx).Str("session_id", sessionID).Msg("  ✅ Session coordinator started")

	// Gateway HTTP server
	gatewayHandler := gatewayHttp.NewHandler(gatewayUC, wsManager, cfg.Gateway.JWT.Secret)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.GinMiddleware())
	gatewayHandler.RegisterRoutes(router)

	lis, port, err := netutil.ListenWithFallback(cfg.Gateway.Server.Port)
	if err != nil {
		logger.Fatal(ctx).Err(err).Msg("Failed to listen")
	}

	srv := &http.Server{Handler: router}

	logger.Info(ctx).
		Int("gateway_port", port).
		Str("ws_url", fmt.Sprintf("ws://localhost:%d/ws?token=YOUR_TOKEN", port)).
		Msg("🚀 Andar Bahar Monolith running")

	go func() {
		if err := srv.Serve(lis); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx).Err(err).Msg("Gateway server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx).Msg("🛑 Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx).Err(err).Msg("Gateway server forced to shutdown")
	}

	coord.Stop()
	wsManager.Shutdown()
	logger.Info(ctx).Msg("✅ Shutdown complete")
}

func newSessionID() string {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return "AB" + node.Generate().String()
}
