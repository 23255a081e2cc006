package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"flashquiz-service/internal/archive"
	"flashquiz-service/internal/config"
	"flashquiz-service/internal/infra/memory"
	pgstore "flashquiz-service/internal/infra/postgres"
	redisstore "flashquiz-service/internal/infra/redis"
	"flashquiz-service/internal/quiz"
	transport "flashquiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	// Archive wiring: Postgres is the authoritative question archive when
	// configured, Redis fronts it as a cache and holds the score mirror.
	// Without either, an in-memory archive keeps the session functional.
	fallback := memory.NewArchive()
	var (
		questionStore interface {
			archive.QuestionWriter
			archive.HistoryLoader
		} = fallback
		scoreStore interface {
			archive.ScoreWriter
			archive.ScoreLoader
		} = fallback
		historyBackend redisstore.HistoryBackend = fallback
	)
	if pool != nil {
		pg := pgstore.NewHistoryStore(pool)
		historyBackend = pg
		questionStore = pg
	}
	if redisClient != nil {
		historyTTL := config.Duration(cfg.Redis.TTL, 10*time.Minute)
		questionStore = redisstore.NewHistoryRepository(redisClient, historyBackend, historyTTL, cfg.ArchiveCapacity())
		scoreStore = redisstore.NewScoreStore(redisClient)
	}

	session := quiz.NewCoordinator(quiz.Options{
		AnswerTimeout:   config.Duration(cfg.Quiz.AnswerTimeout, 60*time.Second),
		HistoryCapacity: cfg.Quiz.HistoryCapacity,
		LeaderboardSize: cfg.Quiz.LeaderboardSize,
	})
	defer session.Close()

	seedSession(ctx, session, questionStore, scoreStore, cfg.ArchiveCapacity())

	runCtx, stopArchiver := context.WithCancel(context.Background())
	defer stopArchiver()
	events, cancelEvents := session.Subscribe()
	archiver := archive.NewArchiver(questionStore, scoreStore, events, cancelEvents)
	go archiver.Run(runCtx)

	wsHandler := transport.NewWSHandler(session)
	apiHandler := transport.NewAPIHandler(session, archiver, cfg.Sync.Secret)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/api/card", apiHandler.ReceiveCard)
	mux.HandleFunc("/questions", apiHandler.Questions)
	mux.HandleFunc("/scores", apiHandler.Scores)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting flashquiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// seedSession reconstructs the question history and the leaderboard from the
// archive. A cold archive is normal on first boot, so failures only log.
func seedSession(ctx context.Context, session *quiz.Coordinator, history archive.HistoryLoader, scores archive.ScoreLoader, archiveCapacity int) {
	questions, err := history.LoadHistory(ctx, archiveCapacity)
	switch {
	case err != nil:
		log.Printf("load archived questions: %v", err)
	case len(questions) > 0:
		session.SeedHistory(questions)
		log.Printf("restored %d archived questions", len(questions))
	}

	entries, err := scores.LoadScores(ctx, 0)
	switch {
	case err != nil:
		log.Printf("load archived scores: %v", err)
	case len(entries) > 0:
		session.SeedScores(entries)
		log.Printf("restored %d leaderboard entries", len(entries))
	}
}
