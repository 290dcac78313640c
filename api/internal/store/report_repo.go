package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Shivay00001/Reality-Lab/api/internal/forensic"
	"github.com/Shivay00001/Reality-Lab/api/internal/session"
)

var ErrNotFound = sql.ErrNoRows

type ReportRepo struct{ DB *sql.DB }

func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{DB: db} }

// ReportRow: завершённое расследование из архива.
type ReportRow struct {
	ID          string            `json:"id"`
	CreatedAt   time.Time         `json:"created_at"`
	SessionID   string            `json:"session_id"`
	Modality    forensic.Modality `json:"modality"`
	Engine      string            `json:"engine"`
	Model       string            `json:"model"`
	InputName   string            `json:"input_name,omitempty"`
	InputType   string            `json:"input_type,omitempty"`
	InputSize   int64             `json:"input_size"`
	InputSHA256 string            `json:"input_sha256"`
	Result      forensic.Result   `json:"result"`
	CompletedAt time.Time         `json:"completed_at"`
}

// Save кладёт завершённое расследование в архив и возвращает id записи.
func (r *ReportRepo) Save(ctx context.Context, c session.Completion) (string, error) {
	js, err := json.Marshal(c.Result)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	id := uuid.NewString()
	const q = `
insert into forensic_reports(id, session_id, modality, engine, model,
    input_name, input_type, input_size, input_sha256,
    verdict, confidence, category, result_json, completed_at)
values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`
	_, err = r.DB.ExecContext(ctx, q,
		id, c.SessionID, string(c.Modality), c.Engine, c.Model,
		c.InputName, c.InputType, int64(c.InputSize), c.InputSHA256,
		string(c.Result.Verdict), c.Result.Confidence, c.Result.Category, string(js), c.CompletedAt)
	if err != nil {
		return "", fmt.Errorf("insert report: %w", err)
	}
	return id, nil
}

const selectCols = `
select id, created_at, session_id, modality, engine, model,
       input_name, input_type, input_size, input_sha256,
       result_json, completed_at
from forensic_reports`

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(s scanner) (*ReportRow, error) {
	var (
		row ReportRow
		mod string
		js  []byte
	)
	if err := s.Scan(&row.ID, &row.CreatedAt, &row.SessionID, &mod, &row.Engine, &row.Model,
		&row.InputName, &row.InputType, &row.InputSize, &row.InputSHA256,
		&js, &row.CompletedAt); err != nil {
		return nil, err
	}
	row.Modality = forensic.Modality(mod)
	if err := json.Unmarshal(js, &row.Result); err != nil {
		return nil, fmt.Errorf("report %s: bad result_json: %w", row.ID, err)
	}
	if row.Result.Signals == nil {
		row.Result.Signals = []forensic.Signal{}
	}
	return &row, nil
}

// Get: запись по id; ErrNotFound, если её нет.
func (r *ReportRepo) Get(ctx context.Context, id string) (*ReportRow, error) {
	row, err := scanRow(r.DB.QueryRowContext(ctx, selectCols+` where id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return row, err
}

// FindBySHA: самая свежая запись по хэшу ввода, движку и модели.
// Если maxAge > 0 и запись старше, вернёт ErrNotFound.
func (r *ReportRepo) FindBySHA(ctx context.Context, sha, engine, model string, maxAge time.Duration) (*ReportRow, error) {
	const where = ` where input_sha256 = $1 and engine = $2 and model = $3
order by completed_at desc
limit 1`
	row, err := scanRow(r.DB.QueryRowContext(ctx, selectCols+where, sha, engine, model))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if maxAge > 0 && time.Since(row.CompletedAt) > maxAge {
		return nil, ErrNotFound
	}
	return row, nil
}

// List: последние limit записей, новые первыми.
func (r *ReportRepo) List(ctx context.Context, limit int) ([]ReportRow, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, selectCols+` order by completed_at desc limit $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	out := make([]ReportRow, 0, limit)
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *row)
	}
	return out, rows.Err()
}

// PurgeOlderThan удаляет записи старше ttl.
func (r *ReportRepo) PurgeOlderThan(ctx context.Context, ttl time.Duration) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `delete from forensic_reports where completed_at < now() - $1::interval`,
		fmt.Sprintf("%d seconds", int64(ttl/time.Second)))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Archive возвращает хук для session.Options.OnComplete; ошибки только логируются.
func (r *ReportRepo) Archive(log *slog.Logger) func(context.Context, session.Completion) {
	return func(ctx context.Context, c session.Completion) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		id, err := r.Save(ctx, c)
		if err != nil {
			log.Warn("archive failed", "session", c.SessionID, "err", err)
			return
		}
		log.Info("archived", "session", c.SessionID, "report", id, "verdict", c.Result.Verdict)
	}
}
