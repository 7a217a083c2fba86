package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/voyago/travel-concierge/internal/config"
	"github.com/voyago/travel-concierge/internal/handoff"
	"github.com/voyago/travel-concierge/internal/session"
	"github.com/voyago/travel-concierge/internal/transcript"
	"github.com/voyago/travel-concierge/pkg/logging"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildSessionStore selects the session backend named by SESSION_BACKEND.
// The redis backend requires an available Redis client; the dynamodb backend
// requires AWS config.
func BuildSessionStore(cfg *appconfig.Config, awsCfg aws.Config, redisClient *redis.Client, logger *logging.Logger) (session.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	switch cfg.SessionBackend {
	case "memory":
		return session.NewMemoryStore(), nil
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("bootstrap: redis session backend selected but redis is not available")
		}
		return session.NewRedisStore(redisClient, cfg.SessionTTL, logger), nil
	case "dynamodb":
		client := dynamodb.NewFromConfig(awsCfg)
		return session.NewDynamoStore(client, cfg.SessionsTable, cfg.SessionTTL, logger), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown session backend %q", cfg.SessionBackend)
	}
}

// BuildConversationLog opens the optional PostgreSQL conversation log.
// An empty DATABASE_URL disables persistence and returns a nil-safe log.
func BuildConversationLog(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*transcript.ConversationLog, *sql.DB, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return transcript.NewConversationLog(nil), nil, nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		logger.Warn("conversation log database not available", "error", err)
		return transcript.NewConversationLog(nil), nil, nil
	}
	logger.Info("conversation log persistence enabled")
	return transcript.NewConversationLog(db), db, nil
}

// BuildHandoffPublisher assembles the configured handoff destinations. Both the
// S3 archive and the SQS notification are optional; with neither configured the
// returned publisher is nil.
func BuildHandoffPublisher(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) handoff.Publisher {
	if cfg == nil {
		return nil
	}

	var targets handoff.Fanout
	if strings.TrimSpace(cfg.HandoffBucket) != "" {
		targets = append(targets, handoff.NewS3Writer(s3.NewFromConfig(awsCfg), cfg.HandoffBucket, logger))
	}
	if strings.TrimSpace(cfg.HandoffQueueURL) != "" {
		targets = append(targets, handoff.NewSQSNotifier(sqs.NewFromConfig(awsCfg), cfg.HandoffQueueURL))
	}
	if len(targets) == 0 {
		return nil
	}
	return targets
}
