package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"zkgraph/internal/chain"
	"zkgraph/internal/model"
)

// Schema creates the tables the store writes to.
const Schema = `
CREATE TABLE IF NOT EXISTS input_records (
	id             BIGSERIAL PRIMARY KEY,
	block_number   BIGINT      NOT NULL,
	block_hash     TEXT        NOT NULL,
	receipts_root  TEXT        NOT NULL,
	expected_state TEXT        NOT NULL,
	receipt_count  INTEGER     NOT NULL,
	matched_count  INTEGER     NOT NULL,
	stream_bytes   INTEGER     NOT NULL,
	offsets        BIGINT[]    NOT NULL,
	events         JSONB       NOT NULL DEFAULT '[]',
	public_input   TEXT        NOT NULL,
	private_input  TEXT        NOT NULL,
	format_version INTEGER     NOT NULL,
	generated_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS input_records_block_number_idx ON input_records (block_number);
CREATE INDEX IF NOT EXISTS input_records_block_hash_idx ON input_records (block_hash);
CREATE TABLE IF NOT EXISTS proof_tasks (
	task_id      TEXT PRIMARY KEY,
	image_hash   TEXT        NOT NULL,
	block_number BIGINT      NOT NULL,
	block_hash   TEXT        NOT NULL,
	submitted_at TIMESTAMPTZ NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store provides Postgres persistence for input records and proof tasks.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates missing tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	batch := &pgx.Batch{}
	stmts := schemaStatements()
	for _, stmt := range stmts {
		batch.Queue(stmt)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range stmts {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func schemaStatements() []string {
	var out []string
	for _, stmt := range strings.Split(Schema, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// PutInputRecord inserts one generated record.
func (s *Store) PutInputRecord(ctx context.Context, record model.InputRecord) error {
	generatedAt, err := parseTime(record.GeneratedAt)
	if err != nil {
		return err
	}
	events, err := marshalEvents(record.Events)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO input_records (
			block_number, block_hash, receipts_root, expected_state, receipt_count, matched_count,
			stream_bytes, offsets, events, public_input, private_input, format_version, generated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		int64(record.BlockNumber),
		strings.ToLower(record.BlockHash),
		record.ReceiptsRoot,
		record.ExpectedState,
		record.ReceiptCount,
		record.MatchedCount,
		record.StreamBytes,
		toInt64s(record.Offsets),
		events,
		record.PublicInput,
		record.PrivateInput,
		record.FormatVersion,
		generatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert input record: %w", err)
	}
	return nil
}

// PutProofTask upserts a task accepted by the prover.
func (s *Store) PutProofTask(ctx context.Context, task model.ProofTask) error {
	if task.TaskID == "" {
		return fmt.Errorf("task id required")
	}
	submittedAt, err := parseTime(task.SubmittedAt)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO proof_tasks (task_id, image_hash, block_number, block_hash, submitted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (task_id) DO UPDATE
		SET image_hash = EXCLUDED.image_hash, submitted_at = EXCLUDED.submitted_at
	`, task.TaskID, task.ImageHash, int64(task.BlockNumber), strings.ToLower(task.BlockHash), submittedAt)
	if err != nil {
		return fmt.Errorf("upsert proof task: %w", err)
	}
	return nil
}

// LatestInputRecord returns the newest record generated for id.
func (s *Store) LatestInputRecord(ctx context.Context, id chain.BlockID) (model.InputRecord, bool, error) {
	query := `
		SELECT block_number, block_hash, receipts_root, expected_state, receipt_count, matched_count,
			stream_bytes, offsets, events, public_input, private_input, format_version, generated_at
		FROM input_records WHERE block_number = $1 ORDER BY id DESC LIMIT 1`
	var arg interface{} = int64(id.Number)
	if id.IsHash {
		query = strings.Replace(query, "block_number = $1", "block_hash = $1", 1)
		arg = strings.ToLower(id.Hash.Hex())
	}

	var (
		rec         model.InputRecord
		number      int64
		offsets     []int64
		events      []byte
		generatedAt time.Time
	)
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&number,
		&rec.BlockHash,
		&rec.ReceiptsRoot,
		&rec.ExpectedState,
		&rec.ReceiptCount,
		&rec.MatchedCount,
		&rec.StreamBytes,
		&offsets,
		&events,
		&rec.PublicInput,
		&rec.PrivateInput,
		&rec.FormatVersion,
		&generatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.InputRecord{}, false, nil
		}
		return model.InputRecord{}, false, err
	}
	rec.BlockNumber = uint64(number)
	rec.Offsets = toUint64s(offsets)
	if err := json.Unmarshal(events, &rec.Events); err != nil {
		return model.InputRecord{}, false, fmt.Errorf("parse events: %w", err)
	}
	rec.GeneratedAt = generatedAt.UTC().Format(time.RFC3339Nano)
	return rec, true, nil
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Now().UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return ts, nil
}

func marshalEvents(events []model.EventRecord) ([]byte, error) {
	if events == nil {
		events = []model.EventRecord{}
	}
	data, err := json.Marshal(events)
	if err != nil {
		return nil, fmt.Errorf("marshal events: %w", err)
	}
	return data, nil
}

func toInt64s(in []uint64) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}

func toUint64s(in []int64) []uint64 {
	out := make([]uint64, len(in))
	for i, v := range in {
		out[i] = uint64(v)
	}
	return out
}
