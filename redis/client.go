package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/go-redis/redis/v8"
	"github.com/kelseyhightower/envconfig"
)

type DB int
type ReleaseLock func() error

var ErrNotFound = errors.New("redis key not found")

type Client struct {
	client         redis.UniversalClient
	lockExpiration time.Duration
}

type Config struct {
	LockExpirationSeconds   int     `envconfig:"DFL_REDIS_LOCK_EXPIRATION" default:"3"`
	Host                    string  `envconfig:"DFL_REDIS_HOST" required:"true"`
	Port                    string  `envconfig:"DFL_REDIS_PORT" default:"6379"`
	HASentinelPort          string  `envconfig:"DFL_REDIS_HA_SENTINEL_PORT" default:"26379"`
	HASentinelMasterName    string  `envconfig:"DFL_REDIS_HA_MASTER_NAME" default:"mymaster"`
	Password                string  `envconfig:"DFL_REDIS_AUTH_PASSWORD" default:""`
	AuthRequired            bool    `envconfig:"DFL_REDIS_AUTH_REQUIRED" default:"false"`
	HAMode                  bool    `envconfig:"DFL_REDIS_HA_MODE" default:"false"`
	HASentinelSocketTimeout float32 `envconfig:"DFL_REDIS_SOCKET_TIMEOUT" default:"0.5"`
}

func NewClient(db DB) (Client, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Client{}, err
	}
	var client redis.UniversalClient
	if cfg.HAMode {
		client = createFailoverClient(&cfg, db)
	} else {
		client = createClient(&cfg, db)
	}
	return Client{
		client:         client,
		lockExpiration: time.Duration(cfg.LockExpirationSeconds) * time.Second,
	}, nil
}

func createFailoverClient(cfg *Config, db DB) *redis.Client {
	timeout := time.Duration(float64(cfg.HASentinelSocketTimeout) * float64(time.Second))
	options := redis.FailoverOptions{
		SentinelAddrs: []string{fmt.Sprintf("%s:%s", cfg.Host, cfg.HASentinelPort)},
		ReadTimeout:   timeout,
		WriteTimeout:  timeout,
		MaxRetries:    6,
		DB:            int(db),
		MasterName:    cfg.HASentinelMasterName,
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewFailoverClient(&options)
}

func createClient(cfg *Config, db DB) *redis.Client {
	options := redis.Options{
		Addr:       fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		MaxRetries: 6,
		DB:         int(db),
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewClient(&options)
}

// GetDoc decodes the JSON document stored at key into doc.
func (client *Client) GetDoc(ctx context.Context, key string, doc interface{}) error {
	b, err := client.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(b, doc)
}

func (client *Client) SaveDoc(ctx context.Context, key string, doc interface{}) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return client.client.Set(ctx, key, b, 0).Err()
}

// UpdateDoc reloads doc under a lock, applies update and saves it back.
func (client *Client) UpdateDoc(ctx context.Context, key string, doc interface{}, update func()) (err error) {
	release, err := client.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := release(); err == nil {
			err = releaseErr
		}
	}()
	if err = client.GetDoc(ctx, key, doc); err != nil {
		return err
	}
	update()
	return client.SaveDoc(ctx, key, doc)
}

// WriteHash stores fields in the hash at key. Unless appendFields is set the
// previous content of the hash is dropped first.
func (client *Client) WriteHash(ctx context.Context, key string, fields map[string]string, appendFields bool) error {
	values := make(map[string]interface{}, len(fields))
	for field, value := range fields {
		values[field] = value
	}
	_, err := client.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if !appendFields {
			pipe.Del(ctx, key)
		}
		if len(values) > 0 {
			pipe.HSet(ctx, key, values)
		}
		return nil
	})
	return err
}

func (client *Client) Lock(ctx context.Context, key string) (ReleaseLock, error) {
	locker := redislock.New(client.client)
	strategy := redislock.LimitRetry(redislock.LinearBackoff(time.Second), 20)
	lock, err := locker.Obtain(ctx, fmt.Sprintf("lock:%s", key), client.lockExpiration, &redislock.Options{RetryStrategy: strategy})
	if err != nil {
		return nil, err
	}
	return func() error {
		return lock.Release(ctx)
	}, nil
}

func (client *Client) Close() error {
	return client.client.Close()
}
