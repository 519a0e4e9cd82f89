package sink

import (
	"context"
	"fmt"

	"wordforms.dev/declensions/redis"
	"wordforms.dev/declensions/types"
)

type hashWriter interface {
	WriteHash(ctx context.Context, key string, fields map[string]string, appendFields bool) error
	Lock(ctx context.Context, key string) (redis.ReleaseLock, error)
}

// RedisSink stores every group as a hash <Prefix>:<key> of word to variants.
type RedisSink struct {
	client hashWriter
	Prefix string
	Append bool
}

func NewRedisSink(client hashWriter, prefix string, appendMode bool) *RedisSink {
	return &RedisSink{client: client, Prefix: prefix, Append: appendMode}
}

func (s *RedisSink) Persist(ctx context.Context, dict *types.GroupedDictionary) (int, error) {
	counter := 0
	for _, key := range dict.Keys() {
		group, _ := dict.Group(key)
		if err := s.writeGroup(ctx, s.hashKey(key), group); err != nil {
			return counter, err
		}
		counter += group.Len()
	}
	return counter, nil
}

func (s *RedisSink) hashKey(key string) string {
	return fmt.Sprintf("%s:%s", s.Prefix, key)
}

func (s *RedisSink) writeGroup(ctx context.Context, hashKey string, group *types.Group) (err error) {
	release, err := s.client.Lock(ctx, hashKey)
	if err != nil {
		return fmt.Errorf("lock %s: %w", hashKey, err)
	}
	defer func() {
		if releaseErr := release(); err == nil {
			err = releaseErr
		}
	}()
	fields := make(map[string]string, group.Len())
	for _, word := range group.Words() {
		variants, _ := group.Variants(word)
		fields[word] = variants.String()
	}
	return s.client.WriteHash(ctx, hashKey, fields, s.Append)
}
