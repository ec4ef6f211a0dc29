package s3_publish

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/storagelimits/internal/contracts"
	"github.com/wonny/storagelimits/pkg/database"
	"github.com/wonny/storagelimits/pkg/redis"
)

// ReceiverResolver resolves who a shipper's document is addressed to
type ReceiverResolver interface {
	// Receiver is the shipper's active codifications joined by "-", empty when none
	Receiver(ctx context.Context, shipper contracts.ShipperID) (string, error)
	// ContractLabel is the configured contract prefix in effect at now
	ContractLabel(ctx context.Context, now time.Time) (string, error)
}

// PostgresResolver reads codeexpediteur and pardiv, optionally through a Redis cache
type PostgresResolver struct {
	db     database.Querier
	cache  *redis.Cache
	code   string
	family string
}

// NewPostgresResolver looks the contract label up by (code, family); cache may be nil
func NewPostgresResolver(db database.Querier, cache *redis.Cache, code, family string) *PostgresResolver {
	return &PostgresResolver{db: db, cache: cache, code: code, family: family}
}

func (r *PostgresResolver) Receiver(ctx context.Context, shipper contracts.ShipperID) (string, error) {
	key := redis.ReceiverKey(int(shipper))
	if receiver, ok := r.cached(ctx, key); ok {
		return receiver, nil
	}

	query := `
		SELECT codification
		FROM adm.codeexpediteur
		WHERE expnum = $1 AND actif = 1
		ORDER BY codification
	`
	rows, err := r.db.Query(ctx, query, int64(shipper))
	if err != nil {
		return "", fmt.Errorf("query codifications of %d: %w", shipper, err)
	}
	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return "", fmt.Errorf("scan codifications of %d: %w", shipper, err)
	}

	receiver := strings.Join(codes, "-")
	r.store(ctx, key, receiver)

	return receiver, nil
}

func (r *PostgresResolver) ContractLabel(ctx context.Context, now time.Time) (string, error) {
	key := redis.ContractLabelKey(r.code, r.family)
	if label, ok := r.cached(ctx, key); ok {
		return label, nil
	}

	query := `
		SELECT parval
		FROM adm.pardiv
		WHERE parcod = $1 AND famcod = $2 AND pardteeff <= $3
		ORDER BY pardteeff DESC
		LIMIT 1
	`
	var label string
	err := r.db.QueryRow(ctx, query, r.code, r.family, now).Scan(&label)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query contract label %s/%s: %w", r.code, r.family, err)
	}

	r.store(ctx, key, label)

	return label, nil
}

// cache failures only cost a database round trip
func (r *PostgresResolver) cached(ctx context.Context, key string) (string, bool) {
	if r.cache == nil {
		return "", false
	}
	var v string
	found, err := r.cache.Get(ctx, key, &v)
	if err != nil || !found {
		return "", false
	}
	return v, true
}

func (r *PostgresResolver) store(ctx context.Context, key, value string) {
	if r.cache != nil {
		_ = r.cache.Set(ctx, key, value, redis.TTLReceiver)
	}
}

// StaticResolver serves fixed receivers (dry runs without a database, tests)
type StaticResolver struct {
	Receivers map[contracts.ShipperID]string
	Label     string
}

func (s StaticResolver) Receiver(_ context.Context, shipper contracts.ShipperID) (string, error) {
	return s.Receivers[shipper], nil
}

func (s StaticResolver) ContractLabel(context.Context, time.Time) (string, error) {
	return s.Label, nil
}
