package helpers

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient initializes a redis client
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// SessionKey is the hash holding the active session of a user.
func SessionKey(userID string) string {
	return "user:session:" + userID
}

// SessionMatches reports whether sid is the session currently stored for userID.
func SessionMatches(ctx context.Context, rdb *redis.Client, userID, sid string) (bool, error) {
	data, err := rdb.HGetAll(ctx, SessionKey(userID)).Result()
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	return sid != "" && data["sid"] == sid, nil
}
