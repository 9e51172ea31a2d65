package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// missingMarker is cached for keys without a row so absent settings do not
// hit MySQL on every bid.
const missingMarker = "\x00"

// SettingsRepo reads system_settings through a Redis cache.  Entries live
// for ttl and are deleted on every write, so an admin change is visible to
// the next operation.  A nil client disables caching; Redis errors fall
// through to MySQL.
type SettingsRepo struct {
	db     *sql.DB
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	log    *logrus.Entry
}

// NewSettingsRepo returns a SettingsRepo.  rdb may be nil.
func NewSettingsRepo(db *sql.DB, rdb *redis.Client, ttl time.Duration) *SettingsRepo {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &SettingsRepo{
		db:     db,
		rdb:    rdb,
		ttl:    ttl,
		prefix: "settings:",
		log:    logrus.WithField("component", "settings"),
	}
}

// Get returns the value stored under key.  ok is false when no row exists.
func (r *SettingsRepo) Get(ctx context.Context, key string) (string, bool, error) {
	if r.rdb != nil {
		v, err := r.rdb.Get(ctx, r.prefix+key).Result()
		switch {
		case err == nil:
			if v == missingMarker {
				return "", false, nil
			}
			return v, true, nil
		case !errors.Is(err, redis.Nil):
			r.log.WithError(err).WithField("key", key).Warn("settings cache read failed")
		}
	}

	var v string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM system_settings WHERE name = ?`, key).Scan(&v)
	found := true
	if errors.Is(err, sql.ErrNoRows) {
		found, err = false, nil
	}
	if err != nil {
		return "", false, err
	}

	if r.rdb != nil {
		cached := v
		if !found {
			cached = missingMarker
		}
		if err := r.rdb.Set(ctx, r.prefix+key, cached, r.ttl).Err(); err != nil {
			r.log.WithError(err).WithField("key", key).Warn("settings cache write failed")
		}
	}
	return v, found, nil
}

// Set upserts key and drops its cache entry.
func (r *SettingsRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO system_settings (name, value, updated_at) VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE value = VALUES(value), updated_at = VALUES(updated_at)`,
		key, value, time.Now().UTC())
	if err != nil {
		return err
	}
	if r.rdb != nil {
		if err := r.rdb.Del(ctx, r.prefix+key).Err(); err != nil {
			// the entry still expires after ttl
			r.log.WithError(err).WithField("key", key).Warn("settings cache invalidation failed")
		}
	}
	return nil
}
