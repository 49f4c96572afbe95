package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pump-portal-sniper/internal/config"
	"pump-portal-sniper/internal/logger"
	"pump-portal-sniper/internal/metrics"
	"pump-portal-sniper/internal/portal"
	"pump-portal-sniper/internal/server"
	"pump-portal-sniper/internal/solana"
	"pump-portal-sniper/internal/wallet"
)

const Version = "1.0.0"

// CLI flags
var (
	envFile  = flag.String("env", "", "Path to .env file")
	logLevel = flag.String("log-level", "", "Log level (debug/info/warn/error)")

	amountSOL = flag.Float64("amount", 0, "SOL amount per buy (overrides config)")
	creator   = flag.String("creator", "", "Trigger creator address (overrides config)")
	tokenName = flag.String("name", "", "Trigger token name (overrides config)")
	tokenSym  = flag.String("symbol", "", "Trigger token symbol (overrides config)")

	// One-shot trades that bypass the feed entirely
	buyMint  = flag.String("buy-mint", "", "Buy this mint immediately and exit")
	sellMint = flag.String("sell-mint", "", "Sell the full balance of this mint and exit")
)

// App wires the bot components together
type App struct {
	config      *config.Config
	logger      *logger.Logger
	tradeLogger *logger.TradeLogger
	rpcClient   *solana.Client
	wallet      *wallet.Wallet
	feed        *portal.Feed
	trader      *portal.Trader
	sniper      *portal.Sniper
	status      *server.Server
	ctx         context.Context
	cancel      context.CancelFunc
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	applyCliOverrides(cfg)

	log, err := logger.NewLogger(logger.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	app, err := NewApp(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create application")
	}

	if *buyMint != "" || *sellMint != "" {
		if err := app.RunManualTrade(*buyMint, *sellMint); err != nil {
			log.WithError(err).Fatal("Manual trade failed")
		}
		return
	}

	if err := app.Start(); err != nil {
		log.WithError(err).Fatal("Bot exited with error")
	}
}

func applyCliOverrides(cfg *config.Config) {
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *amountSOL > 0 {
		cfg.Trading.AmountSOL = *amountSOL
	}
	if *creator != "" {
		cfg.Trigger.Creator = *creator
	}
	if *tokenName != "" {
		cfg.Trigger.Name = *tokenName
	}
	if *tokenSym != "" {
		cfg.Trigger.Symbol = *tokenSym
	}
}

// NewApp builds the component graph
func NewApp(cfg *config.Config, log *logger.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	tradeLogger, err := logger.NewTradeLogger(cfg.Logging.TradeLogDir, log)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create trade logger: %w", err)
	}

	rpcClient := solana.NewClient(solana.ClientConfig{
		Endpoint: cfg.RPCUrl,
		Timeout:  30 * time.Second,
	}, log.Logger)

	walletInstance, err := wallet.New(cfg.WalletSecret, rpcClient, log.Logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	feed := portal.NewFeed(cfg.FeedURL, log.Logger)
	trader := portal.NewTrader(cfg.TradeURL, cfg.Trading, walletInstance, log, tradeLogger)

	trigger := portal.Trigger{
		Creator: cfg.Trigger.Creator,
		Name:    cfg.Trigger.Name,
		Symbol:  cfg.Trigger.Symbol,
		Strict:  cfg.Trigger.Strict,
	}
	sniper := portal.NewSniper(feed, trader, trigger, log)

	app := &App{
		config:      cfg,
		logger:      log,
		tradeLogger: tradeLogger,
		rpcClient:   rpcClient,
		wallet:      walletInstance,
		feed:        feed,
		trader:      trader,
		sniper:      sniper,
		ctx:         ctx,
		cancel:      cancel,
	}

	if cfg.Server.Enabled {
		app.status = server.New(cfg.Server.StatusAddr, map[string]server.StatsSource{
			"feed":   feed,
			"trader": trader,
			"sniper": sniper,
		}, log.Logger)
	}

	return app, nil
}

// Start runs the sniping flow: connectivity test, balance gate, feed
// subscription, then the consumer loop until a signal arrives
func (a *App) Start() error {
	a.logger.Info(fmt.Sprintf("🚀 Starting PumpPortal sniper v%s", Version))
	a.logger.WithField("wallet", a.wallet.Address()).Info("Wallet loaded")

	if err := a.testConnections(); err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}

	balance, err := a.wallet.GetBalance(a.ctx)
	if err != nil {
		return fmt.Errorf("failed to get balance: %w", err)
	}
	balanceSOL := config.ConvertLamportsToSOL(balance)
	a.logger.LogBalance(balanceSOL, balance)
	metrics.WalletBalanceSol.Set(balanceSOL)

	gate := portal.NewGate(a.wallet, a.logger.Logger)
	if err := gate.CheckEligibility(a.ctx, a.config.Trading.AmountSOL); err != nil {
		if errors.Is(err, portal.ErrInsufficientBalance) {
			// A funding shortfall is a refusal to start, not a crash.
			// The feed is never opened and the process exits cleanly.
			a.logger.WithError(err).Error("Wallet cannot cover the configured trade amount")
			return nil
		}
		return err
	}

	if a.status != nil {
		go func() {
			if err := a.status.Serve(); err != nil {
				a.logger.WithError(err).Error("Status server failed")
			}
		}()
	}

	if err := a.feed.Connect(); err != nil {
		return err
	}
	if err := a.feed.SubscribeNewToken(); err != nil {
		return fmt.Errorf("failed to subscribe to token events: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- a.sniper.Run(a.ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	a.logger.Info("🎯 Sniper armed, watching for new tokens")

	select {
	case sig := <-sigChan:
		a.logger.Info(fmt.Sprintf("🛑 Received signal: %v", sig))
		a.shutdown()
		return nil
	case err := <-errChan:
		a.shutdown()
		if err == context.Canceled {
			return nil
		}
		return err
	}
}

// RunManualTrade executes a single direct trade and exits. A sell uses
// the wallet's full token balance for the mint.
func (a *App) RunManualTrade(buy, sell string) error {
	defer a.cancel()

	if buy != "" && sell != "" {
		return fmt.Errorf("use either -buy-mint or -sell-mint, not both")
	}

	if err := a.testConnections(); err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}

	var result *portal.TradeResult
	var err error

	if buy != "" {
		gate := portal.NewGate(a.wallet, a.logger.Logger)
		if err := gate.CheckEligibility(a.ctx, a.config.Trading.AmountSOL); err != nil {
			return err
		}
		result, err = a.trader.BuyMint(a.ctx, buy)
	} else {
		var tokenBalance float64
		tokenBalance, err = a.wallet.GetTokenBalance(a.ctx, sell)
		if err != nil {
			return fmt.Errorf("failed to get token balance: %w", err)
		}
		if tokenBalance <= 0 {
			return fmt.Errorf("no balance to sell for mint %s", sell)
		}
		result, err = a.trader.SellMint(a.ctx, sell, tokenBalance)
	}

	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("trade rejected with status %d: %s", result.StatusCode, result.Body)
	}

	a.logger.WithField("tx_url", result.SolscanURL).Info("Manual trade complete")
	return nil
}

// testConnections verifies the RPC endpoint is reachable
func (a *App) testConnections() error {
	ctx, cancel := context.WithTimeout(a.ctx, 10*time.Second)
	defer cancel()

	if _, err := a.rpcClient.GetSlot(ctx); err != nil {
		return fmt.Errorf("RPC connection test failed: %w", err)
	}

	a.logger.Info("✅ RPC connection test passed")
	return nil
}

func (a *App) shutdown() {
	a.logger.Info("🛑 Shutting down...")
	a.cancel()

	if err := a.feed.Close(); err != nil {
		a.logger.WithError(err).Debug("Feed close error")
	}

	if a.status != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.status.Shutdown(ctx); err != nil {
			a.logger.WithError(err).Debug("Status server shutdown error")
		}
	}

	a.logger.Info("✅ Shutdown complete")
}
