package repositories

import (
	"context"
	"fmt"
	"time"

	"inmobiliaria/internal/models"

	"github.com/google/uuid"
)

type AuditLogsRepository interface {
	// Create a new audit log entry
	Create(ctx context.Context, auditLog *models.AuditLog) error

	// List audit logs with filtering options, newest first
	List(ctx context.Context, filters *models.AuditLogFilters) ([]*models.AuditLog, error)
}

type auditLogsRepo struct {
	db DBTX
}

func NewAuditLogsRepo(db DBTX) AuditLogsRepository {
	return &auditLogsRepo{db: db}
}

func (r *auditLogsRepo) Create(ctx context.Context, auditLog *models.AuditLog) error {
	auditLog.CreatedAt = time.Now()
	if auditLog.ID == uuid.Nil {
		auditLog.ID = uuid.New()
	}

	query := `
		INSERT INTO audit_logs (id, actor_id, action, entity, entity_id, from_status, to_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		auditLog.ID,
		auditLog.ActorID,
		auditLog.Action,
		auditLog.Entity,
		auditLog.EntityID,
		auditLog.FromStatus,
		auditLog.ToStatus,
		auditLog.CreatedAt,
	)
	return err
}

func (r *auditLogsRepo) List(ctx context.Context, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	if filters == nil {
		filters = &models.AuditLogFilters{}
	}

	query := `
		SELECT id, actor_id, action, entity, entity_id, from_status, to_status, created_at
		FROM audit_logs
		WHERE 1 = 1
	`
	args := []interface{}{}
	argIdx := 0

	if filters.Entity != nil {
		argIdx++
		query += fmt.Sprintf(" AND entity = $%d", argIdx)
		args = append(args, *filters.Entity)
	}

	if filters.EntityID != nil {
		argIdx++
		query += fmt.Sprintf(" AND entity_id = $%d", argIdx)
		args = append(args, *filters.EntityID)
	}

	if filters.ActorID != nil {
		argIdx++
		query += fmt.Sprintf(" AND actor_id = $%d", argIdx)
		args = append(args, *filters.ActorID)
	}

	query += " ORDER BY created_at DESC"

	argIdx++
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, limitOrDefault(filters.Limit))
	if filters.Offset > 0 {
		argIdx++
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, filters.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var auditLogs []*models.AuditLog
	for rows.Next() {
		auditLog := &models.AuditLog{}
		err := rows.Scan(
			&auditLog.ID,
			&auditLog.ActorID,
			&auditLog.Action,
			&auditLog.Entity,
			&auditLog.EntityID,
			&auditLog.FromStatus,
			&auditLog.ToStatus,
			&auditLog.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		auditLogs = append(auditLogs, auditLog)
	}

	return auditLogs, rows.Err()
}
