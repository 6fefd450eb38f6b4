package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/netip"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/irrdcore/rpslvalidate/internal/rpsl"
)

// PostgresStore implements ObjectStore and AuthSession against the
// rpsl_objects / rpsl_objects_suspended / auth_mntner / auth_api_token /
// auth_mntner_token tables created by cmd/migrate. Every validator of a
// batch issues its queries through the same pool; each query runs on its
// own, outside any shared transaction.
type PostgresStore struct {
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics *storeMetrics
}

type storeMetrics struct {
	queryDuration *prometheus.HistogramVec
	queryErrors   *prometheus.CounterVec
}

func newStoreMetrics() *storeMetrics {
	return &storeMetrics{
		queryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rpslvalidate_store_query_duration_seconds",
				Help:    "Duration of store queries issued by the validation core.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"operation"},
		),
		queryErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rpslvalidate_store_query_errors_total",
				Help: "Total store query errors, by operation.",
			},
			[]string{"operation"},
		),
	}
}

// NewPostgresStore wraps an existing pgxpool.Pool. The pool's lifecycle
// (Connect/Close) is owned by the caller, per the shared-resource
// model: the pool is shared across a batch, not owned by any one validator.
func NewPostgresStore(pool *pgxpool.Pool, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{pool: pool, logger: logger, metrics: newStoreMetrics()}
}

func (s *PostgresStore) FindObjects(ctx context.Context, q ObjectQuery) ([]ObjectRow, error) {
	return s.query(ctx, "rpsl_objects", "find_objects", q)
}

func (s *PostgresStore) FindSuspended(ctx context.Context, q ObjectQuery) ([]ObjectRow, error) {
	return s.query(ctx, "rpsl_objects_suspended", "find_suspended", q)
}

func (s *PostgresStore) query(ctx context.Context, table, operation string, q ObjectQuery) ([]ObjectRow, error) {
	start := time.Now()
	sql, args := buildObjectQuery(table, q)

	rows, err := s.pool.Query(ctx, sql, args...)
	s.metrics.queryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.queryErrors.WithLabelValues(operation).Inc()
		s.logger.Error("store query failed", "operation", operation, "error", err)
		return nil, fmt.Errorf("store: %s: %w", operation, err)
	}
	defer rows.Close()

	var out []ObjectRow
	for rows.Next() {
		row, err := scanObjectRow(rows)
		if err != nil {
			s.metrics.queryErrors.WithLabelValues(operation).Inc()
			return nil, fmt.Errorf("store: %s: scan: %w", operation, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		s.metrics.queryErrors.WithLabelValues(operation).Inc()
		return nil, fmt.Errorf("store: %s: %w", operation, err)
	}
	return out, nil
}

// buildObjectQuery renders the parameterised SQL for an ObjectQuery. All
// predicates are appended conjunctively; an empty predicate list means no
// restriction on that dimension (filter by source(s), class(es), PK(s),
// exact-prefix, one-level less-specific, first-result-only).
func buildObjectQuery(table string, q ObjectQuery) (string, []any) {
	sql := fmt.Sprintf(`SELECT object_class, rpsl_pk, source, object_text, parsed_data FROM %s WHERE 1=1`, table)
	var args []any

	if len(q.Sources) > 0 {
		args = append(args, q.Sources)
		sql += fmt.Sprintf(" AND source = ANY($%d)", len(args))
	}
	if len(q.Classes) > 0 {
		classes := make([]string, len(q.Classes))
		for i, c := range q.Classes {
			classes[i] = string(c)
		}
		args = append(args, classes)
		sql += fmt.Sprintf(" AND object_class = ANY($%d)", len(args))
	}
	if len(q.PKs) > 0 {
		args = append(args, q.PKs)
		sql += fmt.Sprintf(" AND rpsl_pk = ANY($%d)", len(args))
	}
	if q.ExactPrefix.IsValid() {
		args = append(args, q.ExactPrefix.String())
		sql += fmt.Sprintf(" AND rpsl_pk = $%d", len(args))
	}
	if q.LessSpecificOf.IsValid() {
		args = append(args, q.LessSpecificOf.String())
		sql += fmt.Sprintf(" AND rpsl_pk = $%d", len(args))
	}
	if q.FirstOnly {
		sql += " LIMIT 1"
	}
	return sql, args
}

func scanObjectRow(rows pgx.Rows) (ObjectRow, error) {
	var row ObjectRow
	var class, pk, source, text string
	var parsedJSON []byte
	if err := rows.Scan(&class, &pk, &source, &text, &parsedJSON); err != nil {
		return ObjectRow{}, err
	}
	attrs := make(map[string][]string)
	if len(parsedJSON) > 0 {
		if err := json.Unmarshal(parsedJSON, &attrs); err != nil {
			return ObjectRow{}, fmt.Errorf("decode parsed_data: %w", err)
		}
	}
	row.Class = rpsl.ObjectClass(class)
	row.PK = pk
	row.Source = source
	row.Text = text
	row.Attributes = attrs
	return row, nil
}

// FindReferencingObjects builds a single query scoped to source, with one
// OR'ed branch per (class, attribute) pair named in referrers. Each branch
// tests JSONB array containment on parsed_data's attribute key, which is
// how object attributes are stored.
func (s *PostgresStore) FindReferencingObjects(ctx context.Context, source string, referrers []rpsl.InboundReferrer, targetPK string) ([]ObjectRow, error) {
	if len(referrers) == 0 {
		return nil, nil
	}
	start := time.Now()

	var branches []string
	args := []any{source, targetPK}
	for _, ref := range referrers {
		args = append(args, string(ref.Class), ref.Attribute)
		branches = append(branches, fmt.Sprintf(
			"(object_class = $%d AND parsed_data -> $%d ? $2)", len(args)-1, len(args),
		))
	}
	sql := fmt.Sprintf(
		`SELECT object_class, rpsl_pk, source, object_text, parsed_data FROM rpsl_objects WHERE source = $1 AND (%s)`,
		joinOr(branches),
	)

	rows, err := s.pool.Query(ctx, sql, args...)
	s.metrics.queryDuration.WithLabelValues("find_referencing_objects").Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.queryErrors.WithLabelValues("find_referencing_objects").Inc()
		return nil, fmt.Errorf("store: find_referencing_objects: %w", err)
	}
	defer rows.Close()

	var out []ObjectRow
	for rows.Next() {
		row, err := scanObjectRow(rows)
		if err != nil {
			return nil, fmt.Errorf("store: find_referencing_objects: scan: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func joinOr(branches []string) string {
	out := ""
	for i, b := range branches {
		if i > 0 {
			out += " OR "
		}
		out += b
	}
	return out
}

func (s *PostgresStore) IsMigratedMntner(ctx context.Context, key rpsl.MntnerKey) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM auth_mntner WHERE rpsl_mntner_pk = $1 AND rpsl_mntner_source = $2)`,
		key.PK, key.Source,
	).Scan(&exists)
	if err != nil {
		s.metrics.queryErrors.WithLabelValues("is_migrated_mntner").Inc()
		return false, fmt.Errorf("store: is_migrated_mntner: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) ResolveAPIKeyForMntner(ctx context.Context, key rpsl.MntnerKey, candidateKeys []string, origin rpsl.Origin, remoteIP netip.Addr) (bool, error) {
	if len(candidateKeys) == 0 {
		return false, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT t.token, t.allowed_origins, t.allowed_cidrs
		   FROM auth_api_token t
		   JOIN auth_mntner_token amt ON amt.token_id = t.id
		  WHERE amt.rpsl_mntner_pk = $1 AND amt.rpsl_mntner_source = $2 AND t.token = ANY($3)`,
		key.PK, key.Source, candidateKeys,
	)
	if err != nil {
		s.metrics.queryErrors.WithLabelValues("resolve_api_key").Inc()
		return false, fmt.Errorf("store: resolve_api_key: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var token string
		var allowedOrigins []string
		var allowedCIDRs []string
		if err := rows.Scan(&token, &allowedOrigins, &allowedCIDRs); err != nil {
			return false, fmt.Errorf("store: resolve_api_key: scan: %w", err)
		}
		if apiTokenValidFor(allowedOrigins, allowedCIDRs, origin, remoteIP) {
			return true, nil
		}
	}
	return false, rows.Err()
}

func apiTokenValidFor(allowedOrigins, allowedCIDRs []string, origin rpsl.Origin, remoteIP netip.Addr) bool {
	if len(allowedOrigins) > 0 {
		ok := false
		for _, o := range allowedOrigins {
			if o == origin.String() {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if len(allowedCIDRs) == 0 {
		return true
	}
	if !remoteIP.IsValid() {
		return false
	}
	for _, cidr := range allowedCIDRs {
		prefix, err := netip.ParsePrefix(cidr)
		if err == nil && prefix.Contains(remoteIP) {
			return true
		}
	}
	return false
}
