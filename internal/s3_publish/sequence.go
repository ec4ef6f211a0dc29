package s3_publish

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/storagelimits/pkg/database"
	"github.com/wonny/storagelimits/pkg/redis"
)

const (
	docName       = "LIMITS"
	docDateLayout = "20060102"
)

// DocumentNumberer draws the number of the next document of a day
type DocumentNumberer interface {
	Next(ctx context.Context, docDate time.Time) (string, error)
}

// SequenceKey is the counter key of a document day: LIMITS{yyyyMMdd}
func SequenceKey(docDate time.Time) string {
	return docName + docDate.Format(docDateLayout)
}

// FormatDocNumber renders LIMITS{yyyyMMdd}A{seq:%05d}
func FormatDocNumber(docDate time.Time, seq int64) string {
	return fmt.Sprintf("%sA%05d", SequenceKey(docDate), seq)
}

// PostgresSequence increments adm.sequences atomically, creating the row on first use
type PostgresSequence struct {
	db     database.Querier
	author string
}

func NewPostgresSequence(db database.Querier, author string) *PostgresSequence {
	return &PostgresSequence{db: db, author: author}
}

func (s *PostgresSequence) Next(ctx context.Context, docDate time.Time) (string, error) {
	query := `
		INSERT INTO adm.sequences (cle, valeur, actif, autmaj, datmaj)
		VALUES ($1, 1, 1, $2, NOW())
		ON CONFLICT (cle) DO UPDATE SET
			valeur = adm.sequences.valeur + 1,
			autmaj = EXCLUDED.autmaj,
			datmaj = NOW()
		RETURNING valeur
	`

	key := SequenceKey(docDate)
	var seq int64
	if err := s.db.QueryRow(ctx, query, key, s.author).Scan(&seq); err != nil {
		return "", fmt.Errorf("next sequence %s: %w", key, err)
	}

	return FormatDocNumber(docDate, seq), nil
}

// RedisSequence draws numbers from Redis INCR
type RedisSequence struct {
	seq *redis.Sequence
}

func NewRedisSequence(seq *redis.Sequence) *RedisSequence {
	return &RedisSequence{seq: seq}
}

func (s *RedisSequence) Next(ctx context.Context, docDate time.Time) (string, error) {
	n, err := s.seq.Next(ctx, SequenceKey(docDate))
	if err != nil {
		return "", err
	}
	return FormatDocNumber(docDate, n), nil
}

// MemorySequence is a process-local counter (dry runs, tests)
type MemorySequence struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMemorySequence() *MemorySequence {
	return &MemorySequence{counters: make(map[string]int64)}
}

func (s *MemorySequence) Next(_ context.Context, docDate time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := SequenceKey(docDate)
	s.counters[key]++
	return FormatDocNumber(docDate, s.counters[key]), nil
}
