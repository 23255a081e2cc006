package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"flashquiz-service/internal/archive"
	"flashquiz-service/internal/domain"
	pgstore "flashquiz-service/internal/infra/postgres"
	pgmigrations "flashquiz-service/internal/infra/postgres/migrations"
	redisstore "flashquiz-service/internal/infra/redis"
	"flashquiz-service/internal/quiz"
)

// TestArchiveRoundTripEndToEnd drives a full session against real Postgres
// and Redis: publish, score, archive, then rebuild a fresh session from the
// stores the way a restart would.
func TestArchiveRoundTripEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateDB(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	questionStore := redisstore.NewHistoryRepository(redisClient, pgstore.NewHistoryStore(pool), 5*time.Minute, 100)
	scoreStore := redisstore.NewScoreStore(redisClient)

	// First lifetime: publish and score.
	session := quiz.NewCoordinator(quiz.Options{AnswerTimeout: time.Minute})
	events, cancelEvents := session.Subscribe()
	archiver := archive.NewArchiver(questionStore, scoreStore, events, cancelEvents)
	runCtx, stopArchiver := context.WithCancel(ctx)
	go archiver.Run(runCtx)

	q, err := session.Publish(domain.Card{Word: "cat", Definition: "a small feline", Example: "the cat sat"})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	archiver.RecordQuestion(q)

	res, ok := session.SubmitAnswer("ann", q.ID, "C-A-T", true)
	if !ok || !res.Scored {
		t.Fatalf("expected ann credited, got ok=%v %+v", ok, res)
	}

	waitFor(t, func() bool {
		entries, err := scoreStore.LoadScores(ctx, 10)
		return err == nil && len(entries) == 1 && entries[0].UserID == "ann"
	}, "score persisted to redis")
	waitFor(t, func() bool {
		history, err := pgstore.NewHistoryStore(pool).LoadHistory(ctx, 100)
		return err == nil && len(history) == 1 && history[0].Answer == "cat"
	}, "question persisted to postgres")

	stopArchiver()
	session.Close()

	// Second lifetime: reconstruct from the archive.
	restarted := quiz.NewCoordinator(quiz.Options{AnswerTimeout: time.Minute})
	defer restarted.Close()

	history, err := questionStore.LoadHistory(ctx, 100)
	if err != nil {
		t.Fatalf("load history: %v", err)
	}
	restarted.SeedHistory(history)
	scores, err := scoreStore.LoadScores(ctx, 0)
	if err != nil {
		t.Fatalf("load scores: %v", err)
	}
	restarted.SeedScores(scores)

	if views := restarted.History(); len(views) != 1 || views[0].ID != q.ID {
		t.Fatalf("expected restored history, got %+v", views)
	}
	if top := restarted.Top(); len(top) != 1 || top[0].UserID != "ann" || top[0].Score != 1 {
		t.Fatalf("expected restored leaderboard, got %+v", top)
	}
	// The restored question is closed: judged, never credited.
	res, ok = restarted.SubmitAnswer("bob", q.ID, "cat", true)
	if !ok || !res.Correct || res.Scored {
		t.Fatalf("restored question must deny credit, got ok=%v %+v", ok, res)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
