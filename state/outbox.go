package state

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v9"
)

const (
	// unsent notifications are kept for 2 weeks
	OutboxTTL = 336 * time.Hour

	keyPrefix = "notif:roulette"
)

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// Pending is a stored notification payload and the key it lives under.
type Pending struct {
	Key     string
	Payload []byte
}

// Outbox keeps round result notifications nobody acknowledged, until they are
// replayed.
type Outbox struct {
	rdb *redis.Client
}

func NewOutbox(rdb *redis.Client) *Outbox {
	return &Outbox{
		rdb: rdb,
	}
}

// Key is the redis key of a notification for one round of one table.
func Key(tableID, roundID string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, tableID, roundID)
}

// Store keeps payload for the round unless it is already stored.
func (o *Outbox) Store(ctx context.Context, tableID, roundID string, payload []byte) error {
	key := Key(tableID, roundID)

	err := o.rdb.SetNX(ctx, key, payload, OutboxTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set key '%s' in redis db - %w", key, err)
	}

	return nil
}

// Pending returns every stored notification of a table. Glob characters in
// tableID match literally.
func (o *Outbox) Pending(ctx context.Context, tableID string) ([]Pending, error) {
	var out []Pending

	match := fmt.Sprintf("%s:%s:*", keyPrefix, globEscaper.Replace(tableID))
	iter := o.rdb.Scan(ctx, 0, match, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		payload, err := o.rdb.Get(ctx, key).Bytes()
		switch {
		case err == redis.Nil:
			// expired between scan and get
			continue
		case err != nil:
			return out, fmt.Errorf("failed to get key '%s' from redis db - %w", key, err)
		}
		out = append(out, Pending{Key: key, Payload: payload})
	}
	if err := iter.Err(); err != nil {
		return out, fmt.Errorf("query failed to scan '%s' in redis db - %w", match, err)
	}

	return out, nil
}

// Remove deletes a stored notification.
func (o *Outbox) Remove(ctx context.Context, key string) error {
	if err := o.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to remove key '%s' from redis db - %w", key, err)
	}
	return nil
}
