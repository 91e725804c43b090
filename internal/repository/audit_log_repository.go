package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"picture-catalog/internal/domain"
)

type AuditLogRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter, params domain.PaginationParams) ([]domain.AuditLog, int64, error)
}

type auditLogRepository struct {
	db *sqlx.DB
}

func NewAuditLogRepository(db *sqlx.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, actor_id, actor_role, action, picture_id, old_state, new_state, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7::jsonb, $8, $9)
		RETURNING created_at`

	return r.db.QueryRowxContext(ctx, query,
		log.ID, log.ActorID, log.ActorRole, log.Action, log.PictureID,
		jsonParam(log.Before), jsonParam(log.After), log.IPAddress, log.UserAgent,
	).Scan(&log.CreatedAt)
}

func (r *auditLogRepository) List(ctx context.Context, filter domain.AuditFilter, params domain.PaginationParams) ([]domain.AuditLog, int64, error) {
	params.Validate()

	var conditions []string
	var args []interface{}
	if filter.PictureID != nil {
		args = append(args, *filter.PictureID)
		conditions = append(conditions, fmt.Sprintf("picture_id = $%d", len(args)))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		conditions = append(conditions, fmt.Sprintf("action = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM audit_logs "+where, args...); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT id, actor_id, actor_role, action, picture_id, old_state, new_state, ip_address, user_agent, created_at
		FROM audit_logs
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)

	var logs []domain.AuditLog
	err := r.db.SelectContext(ctx, &logs, query, append(args, params.PageSize, params.Offset())...)
	return logs, total, err
}

// RecordAudit snapshots entry and stores it, tagging it with the request
// info carried by ctx when there is one.
func RecordAudit(ctx context.Context, repo AuditLogRepository, entry domain.AuditEntry) error {
	before, err := snapshot(entry.Before)
	if err != nil {
		return fmt.Errorf("encode audit snapshot: %w", err)
	}
	after, err := snapshot(entry.After)
	if err != nil {
		return fmt.Errorf("encode audit snapshot: %w", err)
	}

	log := &domain.AuditLog{
		ID:        uuid.New(),
		ActorID:   entry.Actor.ID,
		ActorRole: entry.Actor.Role,
		Action:    entry.Action,
		PictureID: entry.PictureID,
		Before:    before,
		After:     after,
	}
	if info, ok := domain.RequestInfoFrom(ctx); ok {
		log.IPAddress = optional(info.IPAddress)
		log.UserAgent = optional(info.UserAgent)
	}

	return repo.Create(ctx, log)
}

func snapshot(v interface{}) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(v)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func jsonParam(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	s := string(raw)
	return &s
}
