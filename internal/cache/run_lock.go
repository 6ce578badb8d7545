package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const DefaultHarvestLockKey = "newsrag:harvest:lock"

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redisv9.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RunLock is a single-holder lease in Redis shared by every replica.
type RunLock struct {
	client *redisv9.Client
	key    string
}

func NewRunLock(client *redisv9.Client, key string) *RunLock {
	if key == "" {
		key = DefaultHarvestLockKey
	}
	return &RunLock{client: client, key: key}
}

func (l *RunLock) Acquire(ctx context.Context, ttl time.Duration) (func(context.Context), bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis acquire lock failed: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	release := func(ctx context.Context) {
		if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
			logrus.WithField("key", l.key).WithError(err).Warn("redis release lock failed")
		}
	}
	return release, true, nil
}
