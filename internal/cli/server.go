package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"trivia-room-service/internal/app"
	"trivia-room-service/internal/config"
	"trivia-room-service/internal/domain"
	"trivia-room-service/internal/infra/memory"
	"trivia-room-service/internal/infra/postgres"
	infraredis "trivia-room-service/internal/infra/redis"
	"trivia-room-service/internal/logging"
	transport "trivia-room-service/internal/transport/http"
)

const shutdownTimeout = 5 * time.Second

// newStartCmd builds the CLI subcommand to start the server.
func newStartCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia room server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logging.Setup(cfg.Log.Level, cfg.Log.Format)
			return runServer(cmd.Context(), cfg)
		},
	}
}

func runServer(ctx context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Postgres.URL != "" {
		if err := migrateUp(ctx, cfg.Postgres.URL); err != nil {
			return err
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	loader, closeLoader, err := bankLoader(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLoader()

	bankTTL := config.Duration(cfg.Questions.TTL, 10*time.Minute)
	var banks app.BankRepository
	var store app.RoomStore
	if redisClient != nil {
		banks = infraredis.NewBankRepository(redisClient, loader, bankTTL)
		reservationTTL := config.Duration(cfg.Redis.TTL, 3*time.Hour)
		store = infraredis.NewRoomStore(redisClient, reservationTTL, log.Logger.With().Str("component", "room_store").Logger())
		// the janitor pass is what renews PIN reservations
		if interval := config.Duration(cfg.Game.JanitorInterval, time.Minute); interval <= 0 || interval >= reservationTTL {
			log.Warn().Dur("janitor_interval", interval).Dur("redis_ttl", reservationTTL).Msg("janitor cannot renew pin reservations before they expire")
		}
	} else {
		banks = memory.NewBankRepository(loader, bankTTL)
		store = memory.NewRoomStore()
	}

	scorer, err := domain.NewScorer(cfg.Game.Scoring, config.Duration(cfg.Game.DefaultTimeLimit, 20*time.Second))
	if err != nil {
		return err
	}

	logger := log.Logger
	service := app.NewRoomService(
		app.NewDirectory(store, cfg.Game.PinLength),
		app.NewRegistry(),
		app.NewGateway(logger.With().Str("component", "gateway").Logger()),
		banks,
		app.ServiceSettings{
			DefaultBank: cfg.Questions.DefaultBank,
			Room: app.RoomSettings{
				MaxQuestions:     cfg.Questions.MaxPerRoom,
				DefaultTimeLimit: config.Duration(cfg.Game.DefaultTimeLimit, 20*time.Second),
				EagerReveal:      cfg.EagerReveal(),
				LeaderboardDelay: config.Duration(cfg.Game.LeaderboardDelay, 0),
				Scorer:           scorer,
			},
		},
		logger.With().Str("component", "rooms").Logger(),
	)

	ws := transport.NewWSHandler(service, logger.With().Str("component", "ws").Logger())
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      transport.NewRouter(service, ws, cfg.Server.PublicURL, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Str("scoring", scorer.Name()).Msg("starting trivia room service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return service.RunJanitor(gctx,
			config.Duration(cfg.Game.JanitorInterval, time.Minute),
			config.Duration(cfg.Game.RoomIdleTimeout, 2*time.Hour))
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// bankLoader prefers Postgres banks and falls back to the embedded default
// bank plus the optional questions.file.
func bankLoader(ctx context.Context, cfg config.Config) (memory.BankLoader, func(), error) {
	static := []domain.QuestionBank{memory.DefaultBank()}
	if cfg.Questions.File != "" {
		bank, err := memory.LoadBankFile(cfg.Questions.File, cfg.Questions.DefaultBank)
		if err != nil {
			return nil, nil, err
		}
		static = append(static, bank)
		log.Info().Str("bank", bank.ID).Int("questions", len(bank.Questions)).Msg("loaded question file")
	}
	var chain memory.ChainLoader
	closeFn := func() {}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		chain = append(chain, postgres.NewBankLoader(pool))
		closeFn = pool.Close
	}
	// later banks win in the static loader, so a file bank can shadow the embedded one
	chain = append(chain, memory.NewStaticBankLoader(static...))
	return chain, closeFn, nil
}
