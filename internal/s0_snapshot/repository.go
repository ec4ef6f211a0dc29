package s0_snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/storagelimits/internal/calendar"
	"github.com/wonny/storagelimits/internal/contracts"
	"github.com/wonny/storagelimits/pkg/database"
)

const (
	contractTypeStorage   = "ATS"
	contractTypeTransport = "TRASP"
)

// Repository reads the export inputs from the adm schema.
// An empty result is an empty slice with a nil error.
type Repository struct {
	db database.Querier
}

func NewRepository(db database.Querier) *Repository {
	return &Repository{db: db}
}

func shipperArray(shippers []contracts.ShipperID) []int64 {
	ids := make([]int64, len(shippers))
	for i, s := range shippers {
		ids[i] = int64(s)
	}
	return ids
}

// ListShippers returns every known shipper
func (r *Repository) ListShippers(ctx context.Context) ([]contracts.ShipperID, error) {
	rows, err := r.db.Query(ctx, `SELECT expnum FROM adm.expediteur ORDER BY expnum`)
	if err != nil {
		return nil, fmt.Errorf("query shippers: %w", err)
	}

	ids, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (contracts.ShipperID, error) {
		var id int64
		err := row.Scan(&id)
		return contracts.ShipperID(id), err
	})
	if err != nil {
		return nil, fmt.Errorf("scan shippers: %w", err)
	}

	return ids, nil
}

// open-ended contracts (NULL end) run until further notice
const contractsQuery = `
	SELECT expnum, cttdtedeb, COALESCE(cttdtefin, DATE '9999-12-31')
	FROM adm.contratexp
	WHERE ctttyp = $1
	  AND cttdtedeb <= $3
	  AND COALESCE(cttdtefin, DATE '9999-12-31') >= $2
	  AND expnum = ANY($4)
	ORDER BY expnum, cttdtedeb
`

type contractRow struct {
	shipper    contracts.ShipperID
	start, end time.Time
}

func (r *Repository) listContracts(ctx context.Context, typ string, period contracts.Period, shippers []contracts.ShipperID) ([]contractRow, error) {
	rows, err := r.db.Query(ctx, contractsQuery, typ, period.From, period.To, shipperArray(shippers))
	if err != nil {
		return nil, fmt.Errorf("query %s contracts: %w", typ, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (contractRow, error) {
		var (
			c  contractRow
			id int64
		)
		err := row.Scan(&id, &c.start, &c.end)
		c.shipper = contracts.ShipperID(id)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s contracts: %w", typ, err)
	}

	return out, nil
}

// ListStorageContracts returns the ATS contracts overlapping the period
func (r *Repository) ListStorageContracts(ctx context.Context, period contracts.Period, shippers []contracts.ShipperID) ([]contracts.StorageContract, error) {
	rows, err := r.listContracts(ctx, contractTypeStorage, period, shippers)
	if err != nil {
		return nil, err
	}

	out := make([]contracts.StorageContract, len(rows))
	for i, c := range rows {
		out[i] = contracts.StorageContract{ShipperID: c.shipper, Start: calendar.Day(c.start), End: calendar.Day(c.end)}
	}
	return out, nil
}

// ListTransportContracts returns the TRASP contracts overlapping the period
func (r *Repository) ListTransportContracts(ctx context.Context, period contracts.Period, shippers []contracts.ShipperID) ([]contracts.TransportContract, error) {
	rows, err := r.listContracts(ctx, contractTypeTransport, period, shippers)
	if err != nil {
		return nil, err
	}

	out := make([]contracts.TransportContract, len(rows))
	for i, c := range rows {
		out[i] = contracts.TransportContract{ShipperID: c.shipper, Start: calendar.Day(c.start), End: calendar.Day(c.end)}
	}
	return out, nil
}

// ListStorageLimits returns active limits of the period in tie-break order (ident ascending)
func (r *Repository) ListStorageLimits(ctx context.Context, period contracts.Period, shippers []contracts.ShipperID) ([]contracts.RawStorageLimit, error) {
	query := `
		SELECT
			ident,
			expnum,
			journeegaziere,
			actif = 1,
			COALESCE(type, ''),
			COALESCE(stockmin, 0),
			COALESCE(stockmax, 0),
			COALESCE(stockref, 0),
			COALESCE(stockfinal, 0),
			COALESCE(cltmaxinj, 0),
			COALESCE(cltmininj, 0),
			COALESCE(cltmaxsout, 0),
			COALESCE(cltminsout, 0),
			COALESCE(cltmaxinjred, 0),
			COALESCE(cltmininjred, 0),
			COALESCE(cltmaxsoutred, 0),
			COALESCE(cltminsoutred, 0)
		FROM adm.limitestockage
		WHERE journeegaziere BETWEEN $1 AND $2
		  AND actif = 1
		  AND expnum = ANY($3)
		ORDER BY expnum, journeegaziere, ident
	`

	rows, err := r.db.Query(ctx, query, period.From, period.To, shipperArray(shippers))
	if err != nil {
		return nil, fmt.Errorf("query storage limits: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (contracts.RawStorageLimit, error) {
		var (
			l       contracts.RawStorageLimit
			shipper int64
			gasDay  time.Time
			typ     string
		)
		err := row.Scan(
			&l.ID,
			&shipper,
			&gasDay,
			&l.Active,
			&typ,
			&l.StockMin,
			&l.StockMax,
			&l.StockRef,
			&l.StockFinal,
			&l.MaxInjection,
			&l.MinInjection,
			&l.MaxWithdrawal,
			&l.MinWithdrawal,
			&l.ReducedMaxInjection,
			&l.ReducedMinInjection,
			&l.ReducedMaxWithdrawal,
			&l.ReducedMinWithdrawal,
		)
		l.ShipperID = contracts.ShipperID(shipper)
		l.GasDay = calendar.Day(gasDay)
		l.Type = contracts.LimitType(typ)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan storage limits: %w", err)
	}

	return out, nil
}

// ListBalances returns the balances a derivation over period can look up: [From-2, To-1]
func (r *Repository) ListBalances(ctx context.Context, period contracts.Period, shippers []contracts.ShipperID) ([]contracts.DailyBalance, error) {
	query := `
		SELECT expnum, bljdte, COALESCE(bljavs, 0)
		FROM adm.bilanjour
		WHERE bljdte BETWEEN $1 AND $2
		  AND expnum = ANY($3)
		ORDER BY expnum, bljdte
	`

	from := calendar.AddDays(period.From, -2)
	to := calendar.AddDays(period.To, -1)

	rows, err := r.db.Query(ctx, query, from, to, shipperArray(shippers))
	if err != nil {
		return nil, fmt.Errorf("query balances: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (contracts.DailyBalance, error) {
		var (
			b       contracts.DailyBalance
			shipper int64
			date    time.Time
		)
		err := row.Scan(&shipper, &date, &b.StorageTrade)
		b.ShipperID = contracts.ShipperID(shipper)
		b.Date = calendar.Day(date)
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan balances: %w", err)
	}

	return out, nil
}
