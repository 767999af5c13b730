package reports

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/vanish/internal/dbx"
	"github.com/dmitrijs2005/vanish/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, rep *models.Report) error {
	query := `
		INSERT INTO media_reports (id, media_id, chat_id, reporter_id, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query, rep.ID, rep.MediaID, rep.ChatID, rep.ReporterID, rep.Reason, rep.Status).
		Scan(&rep.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListOpen(ctx context.Context, limit int) ([]*models.Report, error) {
	query := `
		SELECT id, media_id, chat_id, reporter_id, reason, status, created_at
		FROM media_reports
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, models.ReportStatusOpen, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Report
	for rows.Next() {
		var rep models.Report
		if err := rows.Scan(&rep.ID, &rep.MediaID, &rep.ChatID, &rep.ReporterID, &rep.Reason, &rep.Status, &rep.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		out = append(out, &rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}
