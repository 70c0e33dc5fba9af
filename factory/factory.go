package factory

import (
	"context"
	"database/sql"
	"sync"

	firebase "firebase.google.com/go"
	"github.com/go-redis/redis"
	"github.com/spf13/viper"
	"google.golang.org/api/option"

	"ticket-marketplace-backend/config"
	"ticket-marketplace-backend/logger"
	"ticket-marketplace-backend/publisher"
	"ticket-marketplace-backend/store"
)

// Factory builds each shared client once, on first use. A client that can
// not be built is fatal.
type Factory interface {
	DB(ctx context.Context) *sql.DB
	FirebaseApp(ctx context.Context) *firebase.App
	Redis(ctx context.Context) *redis.Client
	Publisher(ctx context.Context) publisher.Publisher
	Close(ctx context.Context)
}

type factory struct {
	dbOnce        sync.Once
	appOnce       sync.Once
	redisOnce     sync.Once
	publisherOnce sync.Once

	db        *sql.DB
	app       *firebase.App
	redis     *redis.Client
	publisher publisher.Publisher
}

func NewFactory() Factory {
	return &factory{}
}

func (f *factory) DB(ctx context.Context) *sql.DB {
	f.dbOnce.Do(func() {
		db, err := store.OpenMySQL(viper.GetString(config.DBURL))
		if err != nil {
			logger.Fatalf(ctx, "Could not establish connection to the DB: %+v", err)
		}
		f.db = db
	})
	return f.db
}

func (f *factory) FirebaseApp(ctx context.Context) *firebase.App {
	f.appOnce.Do(func() {
		opt := option.WithCredentialsFile(viper.GetString(config.FirebaseServiceAccountKeyPath))
		conf := &firebase.Config{ProjectID: viper.GetString(config.FirebaseProjectID)}
		app, err := firebase.NewApp(ctx, conf, opt)
		if err != nil {
			logger.Fatalf(ctx, "firebaseApp: error initializing firebase app: %+v", err)
		}
		f.app = app
	})
	return f.app
}

func (f *factory) Redis(ctx context.Context) *redis.Client {
	f.redisOnce.Do(func() {
		client := redis.NewClient(&redis.Options{
			Addr:     viper.GetString(config.RedisAddress),
			Password: viper.GetString(config.RedisPassword),
			DB:       viper.GetInt(config.RedisDB),
		})
		if err := client.Ping().Err(); err != nil {
			logger.Fatalf(ctx, "redis: unable to reach %s: %+v", viper.GetString(config.RedisAddress), err)
		}
		f.redis = client
	})
	return f.redis
}

func (f *factory) Publisher(ctx context.Context) publisher.Publisher {
	f.publisherOnce.Do(func() {
		p, err := publisher.NewKafka(viper.GetStringSlice(config.KafkaBrokers), viper.GetString(config.KafkaTopic))
		if err != nil {
			logger.Fatalf(ctx, "publisher: %+v", err)
		}
		f.publisher = p
	})
	return f.publisher
}

// Close releases every client that was built.
func (f *factory) Close(ctx context.Context) {
	if f.publisher != nil {
		if err := f.publisher.Close(); err != nil {
			logger.Errorf(ctx, "close: kafka producer: %+v", err)
		}
	}
	if f.redis != nil {
		if err := f.redis.Close(); err != nil {
			logger.Errorf(ctx, "close: redis: %+v", err)
		}
	}
	if f.db != nil {
		if err := f.db.Close(); err != nil {
			logger.Errorf(ctx, "close: db: %+v", err)
		}
	}
}
