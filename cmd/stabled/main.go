package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nusd/native/stable"
	"nusd/observability"
	"nusd/observability/logging"
	"nusd/storage"
)

// custodyAddress is the fixed account the engine holds collateral under.
var custodyAddress = common.BytesToAddress([]byte("nusd/stable/module/custody"))

func main() {
	configFile := flag.String("config", "./stable.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("NUSD_ENV"))
	logger := logging.Setup("stabled", env)

	cfg, err := stable.LoadConfig(*configFile)
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "./stabled-data"
	}
	db, err := storage.NewLevelDB(dataDir)
	if err != nil {
		logger.Error("failed to open database", "path", dataDir, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	engine, err := buildEngine(cfg)
	if err != nil {
		logger.Error("failed to build engine", "err", err)
		os.Exit(1)
	}
	engine.SetLedger(stable.NewLedger(db))
	engine.SetLogger(logger)
	engine.SetMetrics(observability.Stable())

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	server := &http.Server{Addr: cfg.ListenAddress, Handler: mux}
	go func() {
		logger.Info("serving", "addr", cfg.ListenAddress, "assets", engine.Assets())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "err", err)
	}
	logger.Info("stopped")
}

// buildEngine assembles the collateral registry from configuration. Feeds are
// static until a live oracle adapter is wired; operators push quotes out of
// band.
func buildEngine(cfg stable.Config) (*stable.Engine, error) {
	peg := stable.NewMemoryToken(custodyAddress)
	assets := make([]stable.CollateralAsset, 0, len(cfg.Assets))
	now := time.Now()
	for _, asset := range cfg.Assets {
		price := big.NewInt(0)
		if asset.InitialPrice != "" {
			price, _ = new(big.Int).SetString(asset.InitialPrice, 10)
		}
		assets = append(assets, stable.CollateralAsset{
			Symbol: asset.Symbol,
			Token:  stable.NewMemoryToken(custodyAddress),
			Feed:   stable.NewStaticFeed(price, asset.FeedDecimals, now),
		})
	}
	params := stable.RiskParameters{
		LiquidationThreshold: cfg.LiquidationThreshold,
		LiquidationBonus:     cfg.LiquidationBonus,
	}
	maxAge := time.Duration(cfg.MaxPriceAgeSeconds) * time.Second
	return stable.NewEngine(custodyAddress, peg, assets, params, maxAge)
}
