package main

import (
	"log"

	"github.com/travisim/Farmify-sub001/internal/config"
	"github.com/travisim/Farmify-sub001/internal/database"
	"github.com/travisim/Farmify-sub001/internal/docstore"
	"github.com/travisim/Farmify-sub001/internal/logger"
	"github.com/travisim/Farmify-sub001/internal/logic"
	"github.com/travisim/Farmify-sub001/internal/router"
	"github.com/travisim/Farmify-sub001/internal/task"
	"github.com/travisim/Farmify-sub001/internal/xrpl"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.Load()

	level := logger.ParseLogLevel(cfg.Log.Level)
	if cfg.Log.Output == "file" {
		l, err := logger.NewWithRotation(level, logger.RotationConfig{Filename: cfg.Log.File})
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		logger.SetDefaultLogger(l)
	}
	defer logger.Sync()

	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	gateway, err := xrpl.Init(cfg.XRPL)
	if err != nil {
		logger.Fatal("Failed to initialize ledger gateway: %v", err)
	}

	docs, err := docstore.Init(cfg.DocStore)
	if err != nil {
		logger.Fatal("Failed to initialize document store: %v", err)
	}

	platformFee, err := decimal.NewFromString(cfg.Payout.PlatformFeePercentage)
	if err != nil {
		logger.Fatal("Invalid platform fee percentage: %v", err)
	}
	farmerShare, err := decimal.NewFromString(cfg.Payout.FarmerSharePercentage)
	if err != nil {
		logger.Fatal("Invalid farmer share percentage: %v", err)
	}

	funding := logic.NewFundingLogic(db, gateway)
	settlements := logic.NewSettlementLogic(db, gateway, docs, cfg.XRPL.PlatformWallet)
	distribution := logic.NewDistributionLogic(db, gateway, settlements,
		cfg.XRPL.PlatformWallet, cfg.Payout.PlatformPayoutAddress,
		platformFee, farmerShare, cfg.Payout.MaxConcurrentPayouts)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := router.Setup(funding, settlements, distribution)

	manager, err := task.NewManager(db, gateway, funding, distribution, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize task manager: %v", err)
	}
	manager.Start()
	defer manager.Stop()

	logger.Info("server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
