package audit

import (
	"context"
	"database/sql"

	"agent-platform/pkg/utils"
)

// PostgresRepo stores runs in provisioning_runs. The table is insert-only.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS provisioning_runs (
  id                   UUID PRIMARY KEY,
  trunk_name           TEXT NOT NULL,
  phone_number         TEXT NOT NULL,
  sip_uri              TEXT NOT NULL,
  stage                TEXT NOT NULL,
  carrier_trunk_sid    TEXT NOT NULL DEFAULT '',
  carrier_domain       TEXT NOT NULL DEFAULT '',
  carrier_trunk_reused BOOLEAN NOT NULL DEFAULT FALSE,
  inbound_trunk_id     TEXT NOT NULL DEFAULT '',
  dispatch_rule_id     TEXT NOT NULL DEFAULT '',
  error                TEXT NOT NULL DEFAULT '',
  duration_ms          BIGINT NOT NULL DEFAULT 0,
  created_at           TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS provisioning_runs_trunk_created_idx
  ON provisioning_runs (trunk_name, created_at DESC)`,
}

// EnsureSchema creates the table and index in one transaction.
func (r *PostgresRepo) EnsureSchema(ctx context.Context) error {
	return utils.ApplySchema(ctx, r.db, schemaStatements...)
}

func (r *PostgresRepo) Append(ctx context.Context, run Run) error {
	const q = `
INSERT INTO provisioning_runs (
  id, trunk_name, phone_number, sip_uri, stage, carrier_trunk_sid, carrier_domain,
  carrier_trunk_reused, inbound_trunk_id, dispatch_rule_id, error, duration_ms, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
)
`
	_, err := r.db.ExecContext(ctx, q,
		run.ID,
		run.TrunkName,
		run.PhoneNumber,
		run.SIPURI,
		run.Stage,
		run.CarrierTrunkSID,
		run.CarrierDomain,
		run.CarrierTrunkReused,
		run.InboundTrunkID,
		run.DispatchRuleID,
		run.Error,
		run.DurationMS,
		run.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) List(ctx context.Context, trunkName string, limit int) ([]Run, error) {
	const q = `
SELECT id, trunk_name, phone_number, sip_uri, stage, carrier_trunk_sid, carrier_domain,
       carrier_trunk_reused, inbound_trunk_id, dispatch_rule_id, error, duration_ms, created_at
FROM provisioning_runs
WHERE ($1 = '' OR trunk_name = $1)
ORDER BY created_at DESC
LIMIT $2
`
	rows, err := r.db.QueryContext(ctx, q, trunkName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(
			&run.ID,
			&run.TrunkName,
			&run.PhoneNumber,
			&run.SIPURI,
			&run.Stage,
			&run.CarrierTrunkSID,
			&run.CarrierDomain,
			&run.CarrierTrunkReused,
			&run.InboundTrunkID,
			&run.DispatchRuleID,
			&run.Error,
			&run.DurationMS,
			&run.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
