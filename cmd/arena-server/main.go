package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/viper"

	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/arena"
	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/game"
	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/pkg/database"
	pkgkafka "github.com/swex-camp2024-copilot/spellcaster-arena/internal/pkg/kafka"
	pkgredis "github.com/swex-camp2024-copilot/spellcaster-arena/internal/pkg/redis"
	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/pkg/storage"
	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/player"
	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/replay"
	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/stream"
	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/transport"
)

func main() {
	// --- Configuration Loading ---
	viper.SetConfigName("arena-server")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs/development")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		slog.Error("Failed to read configuration file", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Player Registry ---
	var players player.Repository
	if viper.GetBool("database.enabled") {
		db, err := database.NewPostgresDB(viper.GetString("database.url"))
		if err != nil {
			slog.Error("Failed to connect to PostgreSQL", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		players = player.NewPostgresRepository(db)
		slog.Info("PostgreSQL player registry enabled.")
	} else {
		players = player.NewMemoryRepository()
		slog.Info("In-memory player registry enabled.")
	}

	// --- Replay Store ---
	retention := viper.GetDuration("replay.retention_minutes") * time.Minute
	var replays arena.ReplayStore
	var memStore *replay.MemoryStore
	if viper.GetString("replay.backend") == "redis" {
		rdb, err := pkgredis.NewClient(pkgredis.Config{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		})
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		replays = replay.NewRedisStore(rdb, viper.GetString("replay.key_prefix"), retention)
		slog.Info("Redis replay store enabled.", "retention", retention)
	} else {
		memStore = replay.NewMemoryStore(retention)
		replays = memStore
		slog.Info("In-memory replay store enabled.", "retention", retention)
	}

	// --- Optional Side Channels ---
	deps := arena.Deps{
		Players: players,
		Stats:   players,
		Replays: replays,
	}
	if viper.GetBool("kafka.enabled") {
		producer := pkgkafka.NewProducer(
			viper.GetStringSlice("kafka.brokers"),
			viper.GetString("kafka.topic"),
		)
		bridge := stream.NewKafkaBridge(producer)
		defer bridge.Close()
		deps.Taps = append(deps.Taps, bridge.Tap)
		slog.Info("Kafka event bridge enabled.", "topic", viper.GetString("kafka.topic"))
	}
	if viper.GetBool("archive.enabled") {
		s3Client, err := storage.NewS3Client(ctx, storage.Config{
			Region:          viper.GetString("archive.region"),
			Endpoint:        viper.GetString("archive.endpoint"),
			AccessKeyID:     viper.GetString("archive.access_key_id"),
			SecretAccessKey: viper.GetString("archive.secret_access_key"),
		})
		if err != nil {
			slog.Error("Failed to initialize S3 client", "error", err)
			os.Exit(1)
		}
		deps.Archivers = append(deps.Archivers, replay.NewS3Archiver(s3Client, viper.GetString("archive.bucket")))
		slog.Info("Replay archiving enabled.", "bucket", viper.GetString("archive.bucket"))
	}

	// --- Match Manager ---
	cfg := arena.ManagerConfig{
		Orchestrator: arena.OrchestratorConfig{
			MaxTurns:       viper.GetInt("match.max_turns"),
			SubmitTimeout:  viper.GetDuration("match.submit_timeout_seconds") * time.Second,
			DecisionBudget: viper.GetDuration("match.decision_budget_ms") * time.Millisecond,
			Pacing:         viper.GetDuration("match.pacing_ms") * time.Millisecond,
			Heartbeat:      viper.GetDuration("match.heartbeat_seconds") * time.Second,
			ObserverBuffer: viper.GetInt("match.observer_buffer"),
		},
		JoinTimeout: viper.GetDuration("matchmaking.join_timeout_seconds") * time.Second,
	}
	mgr := arena.NewManager(ctx, cfg, game.NewSpellDuel(), deps)

	// --- Replay Purge Schedule ---
	if memStore != nil {
		sched, err := gocron.NewScheduler()
		if err != nil {
			slog.Error("Failed to create scheduler", "error", err)
			os.Exit(1)
		}
		_, err = sched.NewJob(
			gocron.DurationJob(viper.GetDuration("replay.purge_interval_minutes")*time.Minute),
			gocron.NewTask(memStore.PurgeExpired),
		)
		if err != nil {
			slog.Error("Failed to schedule replay purge", "error", err)
			os.Exit(1)
		}
		sched.Start()
		defer sched.Shutdown()
	}

	// --- HTTP Server Initialization and Graceful Shutdown ---
	handler := transport.NewHandler(mgr, players)
	httpPort := viper.GetString("http_server.port")
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", httpPort),
		Handler: handler.Router(),
	}

	go func() {
		slog.Info("Arena server starting...", "port", httpPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Could not start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down arena server...")
	cancel() // Aborts every live match and releases their observers.

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Arena server stopped.")
}
