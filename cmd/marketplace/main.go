package main

import (
	"context"
	"errors"
	"flag"
	l "log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/codegangsta/negroni"
	"github.com/spf13/viper"

	"ticket-marketplace-backend/algorand"
	"ticket-marketplace-backend/config"
	c "ticket-marketplace-backend/context"
	"ticket-marketplace-backend/factory"
	"ticket-marketplace-backend/firebase"
	"ticket-marketplace-backend/indexer"
	"ticket-marketplace-backend/ledger"
	"ticket-marketplace-backend/logger"
	"ticket-marketplace-backend/middleware"
	"ticket-marketplace-backend/mirror"
	"ticket-marketplace-backend/relay"
	"ticket-marketplace-backend/router"
	"ticket-marketplace-backend/store"
	"ticket-marketplace-backend/vault"
)

var (
	version string
)

const defaultCorrelationID = "00000000.00000000"

// ledgerStore is what both store implementations provide.
type ledgerStore interface {
	ledger.Store
	relay.Outbox
}

func main() {
	cfgPath := flag.String("CONFIG_PATH", "./config.yaml", "Path to config file")
	flag.Parse()

	viper.SetConfigFile(*cfgPath)
	if err := viper.ReadInConfig(); err != nil {
		l.Fatalln("error reading config:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = c.SetContextWithValue(ctx, c.ContextKeyCorrelationID, defaultCorrelationID)

	if err := logger.Configure(viper.GetString(config.LogLevel), viper.GetString(config.LogFormat)); err != nil {
		l.Fatalln(err)
	}
	logger.Infof(ctx, "starting marketplace %s", version)

	f := factory.NewFactory()
	defer f.Close(ctx)

	s := newStore(ctx, f)

	var opts []ledger.Option
	if check := accountCheck(ctx); check != nil {
		opts = append(opts, ledger.WithAccountCheck(check))
	}
	market, err := ledger.New(s, ledger.Config{
		Name:          viper.GetString(config.PlatformName),
		Symbol:        viper.GetString(config.PlatformSymbol),
		FeePercentage: viper.GetInt(config.PlatformFeePercentage),
		Recipient:     viper.GetString(config.PlatformRecipient),
		Marketplace:   viper.GetString(config.MarketplacePrincipal),
		Admins:        viper.GetStringSlice(config.PlatformAdmins),
		AmountFactor:  viper.GetUint64(config.AmountFactor),

		MaxTicketsPerPurchase: viper.GetUint64(config.MaxTicketsPerPurchase),
	}, opts...)
	if err != nil {
		logger.Fatalf(ctx, "main: invalid platform configuration: %+v", err)
	}

	services := router.Services{
		Market:   market,
		Views:    indexer.New(market),
		Verifier: newVerifier(ctx, f),
	}
	areas := newMirror(ctx, f)
	if areas != nil {
		services.Areas = areas
	}
	muxRouter := router.Router(ctx, services)

	if worker := newRelay(ctx, f, s, areas); worker != nil {
		go worker.Run(ctx)
	}

	n := negroni.New()
	n.UseHandler(muxRouter)
	server := &http.Server{Addr: viper.GetString(config.Port), Handler: n}

	go func() {
		logger.Infof(ctx, "listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf(ctx, "main: server stopped: %+v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), viper.GetDuration(config.ShutdownTimeout))
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf(ctx, "main: graceful shutdown failed: %+v", err)
	}
}

func newStore(ctx context.Context, f factory.Factory) ledgerStore {
	switch kind := viper.GetString(config.LedgerStore); kind {
	case config.StoreMemory:
		logger.Warnf(ctx, "using the in-memory ledger store, state is lost on exit")
		return store.NewMemory()
	case config.StoreMySQL:
		s := store.NewMySQL(f.DB(ctx))
		if err := s.Migrate(ctx); err != nil {
			logger.Fatalf(ctx, "main: %+v", err)
		}
		return s
	default:
		logger.Fatalf(ctx, "main: unknown ledger store %q", kind)
		return nil
	}
}

func newVerifier(ctx context.Context, f factory.Factory) firebase.Verifier {
	switch mode := viper.GetString(config.AuthMode); mode {
	case config.AuthHeader:
		logger.Warnf(ctx, "trusting the %s header for caller identity", middleware.PrincipalHeader)
		return nil
	case config.AuthFirebase:
		v, err := firebase.NewVerifier(ctx, f.FirebaseApp(ctx))
		if err != nil {
			logger.Fatalf(ctx, "main: %+v", err)
		}
		return v
	case config.AuthOffline:
		interval := time.Duration(viper.GetInt(config.JWTOfflineInterval)) * time.Second
		return firebase.NewOfflineVerifier(viper.GetString(config.FirebaseProjectID), interval)
	default:
		logger.Fatalf(ctx, "main: unknown auth mode %q", mode)
		return nil
	}
}

// accountCheck returns the check payout recipients must pass, nil for the
// ledger default. Settlement can only pay algorand addresses, so enabling it
// turns the check on.
func accountCheck(ctx context.Context) ledger.AccountCheck {
	switch {
	case viper.GetBool(config.AlgorandEnabled):
		if !viper.GetBool(config.ValidateAddress) {
			logger.Infof(ctx, "algorand settlement enabled: payout recipients must be algorand addresses")
		}
		return algorand.ValidateAddress
	case viper.GetBool(config.ValidateAddress):
		return algorand.ValidateAddress
	default:
		return nil
	}
}

func newMirror(ctx context.Context, f factory.Factory) *mirror.Mirror {
	if viper.GetString(config.RedisAddress) == "" {
		return nil
	}
	return mirror.New(f.Redis(ctx), viper.GetString(config.RedisPrefix))
}

// newRelay wires the outbox to every configured destination. It returns nil
// when none is configured.
func newRelay(ctx context.Context, f factory.Factory, outbox relay.Outbox, m *mirror.Mirror) *relay.Worker {
	var (
		pub     relay.Publisher
		settler relay.Settler
		areas   relay.AreaMirror
	)

	if len(viper.GetStringSlice(config.KafkaBrokers)) > 0 {
		pub = f.Publisher(ctx)
	}
	if m != nil {
		areas = m
	}
	if viper.GetBool(config.AlgorandEnabled) {
		settler = newSettler(ctx)
	}

	if pub == nil && settler == nil && areas == nil {
		logger.Infof(ctx, "relay disabled: no kafka, redis or algorand configured")
		return nil
	}
	return relay.New(outbox, pub, settler, areas, viper.GetDuration(config.RelayInterval), viper.GetInt(config.RelayBatchSize))
}

func newSettler(ctx context.Context) algorand.Settler {
	v, err := vault.New(
		viper.GetString(config.VaultToken),
		viper.GetString(config.VaultUnSealKey),
		viper.GetString(config.VaultAddress),
		viper.GetString(config.TreasuryPath))
	if err != nil {
		logger.Fatalf(ctx, "main: error creating vault client: %+v", err)
	}

	treasury, err := v.Treasury()
	if err != nil {
		logger.Fatalf(ctx, "main: %+v", err)
	}

	settler, err := algorand.New(
		treasury,
		viper.GetString(config.ApiAddress),
		viper.GetString(config.ApiKey),
		viper.GetUint64(config.MinFee),
	)
	if err != nil {
		logger.Fatalf(ctx, "main: %+v", err)
	}
	return settler
}
