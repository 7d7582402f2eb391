package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/singleflight"

	"github.com/batonworks/baton/internal/adapter/otel"
	"github.com/batonworks/baton/internal/domain"
	"github.com/batonworks/baton/internal/domain/requirement"
)

// legacyStateKey is the row under which the pre-split single-blob state was
// stored by earlier deployments.
const legacyStateKey = "state"

// Store implements database.Store on PostgreSQL. The requirement row carries
// the record blob together with its priority and status columns, so the
// membership, priority, and status-set indexes change atomically with the
// record itself; the audit entry is inserted in the same transaction.
type Store struct {
	pool *pgxpool.Pool

	// recordJSONB is decided once at construction: current deployments store
	// the record column as jsonb, deployments created before the jsonb
	// migration carry plain text. Never re-detected per call.
	recordJSONB bool

	migrated  atomic.Bool
	migration singleflight.Group
}

// NewStore creates a Store backed by the given pool and probes the record
// column codec.
func NewStore(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	s := &Store{pool: pool}

	var dataType string
	err := pool.QueryRow(ctx,
		`SELECT data_type FROM information_schema.columns
		 WHERE table_name = 'requirements' AND column_name = 'record'`).Scan(&dataType)
	if err != nil {
		return nil, fmt.Errorf("probe record codec: %w", err)
	}
	s.recordJSONB = dataType == "jsonb"

	return s, nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Get fetches and normalizes one requirement. A blob that fails to decode is
// treated as absent rather than raised, so one corrupt record cannot break
// reads.
func (s *Store) Get(ctx context.Context, id string) (*requirement.Requirement, error) {
	if err := s.ensureMigrated(ctx); err != nil {
		return nil, err
	}

	var record []byte
	err := s.pool.QueryRow(ctx, `SELECT record FROM requirements WHERE req_id = $1`, id).Scan(&record)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}

	req, err := requirement.Normalize(id, record)
	if err != nil {
		slog.Warn("undecodable requirement record", "req_id", id, "error", err)
		return nil, fmt.Errorf("get %s: %w", id, domain.ErrNotFound)
	}
	return req, nil
}

// List fetches and normalizes every requirement, keyed by id.
func (s *Store) List(ctx context.Context) (map[string]*requirement.Requirement, error) {
	if err := s.ensureMigrated(ctx); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `SELECT req_id, record FROM requirements`)
	if err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	defer rows.Close()

	requirements := make(map[string]*requirement.Requirement)
	for rows.Next() {
		var id string
		var record []byte
		if err := rows.Scan(&id, &record); err != nil {
			return nil, fmt.Errorf("scan requirement: %w", err)
		}
		req, err := requirement.Normalize(id, record)
		if err != nil {
			slog.Warn("skipping undecodable requirement record", "req_id", id, "error", err)
			continue
		}
		requirements[id] = req
	}
	return requirements, rows.Err()
}

// ListTop returns the first n requirements ordered by tier then rank.
func (s *Store) ListTop(ctx context.Context, n int) ([]*requirement.Requirement, error) {
	if err := s.ensureMigrated(ctx); err != nil {
		return nil, err
	}
	if n < 1 {
		n = 1
	}

	rows, err := s.pool.Query(ctx,
		`SELECT req_id, record FROM requirements ORDER BY tier_order, rank LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("list top requirements: %w", err)
	}
	defer rows.Close()

	var top []*requirement.Requirement
	for rows.Next() {
		var id string
		var record []byte
		if err := rows.Scan(&id, &record); err != nil {
			return nil, fmt.Errorf("scan requirement: %w", err)
		}
		req, err := requirement.Normalize(id, record)
		if err != nil {
			slog.Warn("skipping undecodable requirement record", "req_id", id, "error", err)
			continue
		}
		top = append(top, req)
	}
	return top, rows.Err()
}

// auditDetails is the JSON blob captured with every audit entry.
type auditDetails struct {
	OverallStatus requirement.OverallStatus `json:"overall_status"`
	Priority      requirement.Priority      `json:"priority"`
}

// Save upserts the requirement row and appends one audit entry in a single
// transaction. previous is accepted for audit context parity with callers;
// the entry itself captures the record's resulting status and priority.
func (s *Store) Save(ctx context.Context, req *requirement.Requirement, actor requirement.Actor, action string, _ *requirement.Requirement) error {
	ctx, span := otel.StartSaveSpan(ctx, req.ReqID, action)
	defer span.End()

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal requirement %s: %w", req.ReqID, err)
	}
	details, err := json.Marshal(auditDetails{OverallStatus: req.OverallStatus, Priority: req.Priority})
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save %s: %w", req.ReqID, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, fmt.Sprintf(
		`INSERT INTO requirements (req_id, record, tier, rank, overall_status, updated_at)
		 VALUES ($1, $2::%s, $3, $4, $5, now())
		 ON CONFLICT (req_id) DO UPDATE SET
		   record = EXCLUDED.record,
		   tier = EXCLUDED.tier,
		   rank = EXCLUDED.rank,
		   overall_status = EXCLUDED.overall_status,
		   updated_at = now()`, s.recordCast()),
		req.ReqID, string(payload), req.Priority.Tier, req.Priority.Rank, string(req.OverallStatus))
	if err != nil {
		return fmt.Errorf("save %s: %w", req.ReqID, err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO audit_log (id, ts, actor_role, actor_id, action, req_id, outcome, details)
		 VALUES ($1, now(), $2, $3, $4, $5, 'success', $6)`,
		uuid.NewString(), string(actor.Role), actor.ID, action, req.ReqID, details)
	if err != nil {
		return fmt.Errorf("audit %s: %w", req.ReqID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save %s: %w", req.ReqID, err)
	}
	return nil
}

func (s *Store) recordCast() string {
	if s.recordJSONB {
		return "jsonb"
	}
	return "text"
}

// ensureMigrated triggers the one-time legacy state migration on first read.
// Concurrent callers collapse onto a single migration attempt.
func (s *Store) ensureMigrated(ctx context.Context) error {
	if s.migrated.Load() {
		return nil
	}

	_, err, _ := s.migration.Do("legacy-migration", func() (any, error) {
		if s.migrated.Load() {
			return nil, nil
		}
		if err := s.migrateLegacyState(ctx); err != nil {
			return nil, err
		}
		s.migrated.Store(true)
		return nil, nil
	})
	return err
}

// migrateLegacyState moves a pre-split single-blob state record into
// individual requirement rows. It only runs while the requirements table is
// empty, so a populated store is never clobbered by stale legacy data.
func (s *Store) migrateLegacyState(ctx context.Context) error {
	ctx, span := otel.StartMigrationSpan(ctx)
	defer span.End()

	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM requirements`).Scan(&count); err != nil {
		return fmt.Errorf("count requirements: %w", err)
	}
	if count > 0 {
		return nil
	}

	var blob string
	err := s.pool.QueryRow(ctx, `SELECT blob FROM legacy_state WHERE key = $1`, legacyStateKey).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read legacy state: %w", err)
	}

	var parsed struct {
		Requirements map[string]json.RawMessage `json:"requirements"`
	}
	if err := json.Unmarshal([]byte(blob), &parsed); err != nil {
		slog.Warn("legacy state blob is not valid JSON, skipping migration", "error", err)
		return nil
	}
	if len(parsed.Requirements) == 0 {
		return nil
	}

	ids := make([]string, 0, len(parsed.Requirements))
	for id := range parsed.Requirements {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	migrator := requirement.Actor{Role: requirement.RoleSystem, ID: "migration"}
	for _, id := range ids {
		req, err := requirement.Normalize(id, parsed.Requirements[id])
		if err != nil {
			slog.Warn("skipping unmigratable legacy requirement", "req_id", id, "error", err)
			continue
		}
		if err := s.Save(ctx, req, migrator, "migrate", nil); err != nil {
			return fmt.Errorf("migrate %s: %w", id, err)
		}
	}

	slog.Info("legacy state migrated", "requirements", len(ids))
	return nil
}
