package s3_publish

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wonny/storagelimits/pkg/config"
	"github.com/wonny/storagelimits/pkg/database"
)

var (
	_ ReceiverResolver = (*PostgresResolver)(nil)
	_ ReceiverResolver = StaticResolver{}
	_ DocumentNumberer = (*PostgresSequence)(nil)
	_ DocumentNumberer = (*RedisSequence)(nil)
	_ DocumentNumberer = (*MemorySequence)(nil)
)

func TestPostgresResolverIntegration(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	db, err := database.New(cfg)
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	r := NewPostgresResolver(db.Pool, nil, cfg.Export.ContractCode, cfg.Export.ContractFamily)

	_, err = r.ContractLabel(ctx, time.Now())
	require.NoError(t, err)

	// an unknown shipper simply has no codification
	receiver, err := r.Receiver(ctx, -1)
	require.NoError(t, err)
	require.Empty(t, receiver)
}
