package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// OperationType is what happened to the resource
type OperationType string

const (
	OperationCreate OperationType = "CREATE"
	OperationUpdate OperationType = "UPDATE"
	OperationDelete OperationType = "DELETE"
	OperationRead   OperationType = "READ"
)

// ResourceType is the kind of wearable data an entry refers to
type ResourceType string

const (
	ResourceDailyRecord        ResourceType = "daily_record"
	ResourceWearableConnection ResourceType = "wearable_connection"
	ResourceHealthSamples      ResourceType = "health_samples"
	ResourcePermissionGrant    ResourceType = "health_permission_grant"
)

// AuditLog is one row of the audit trail
type AuditLog struct {
	ID             string                 `json:"id,omitempty"`
	UserID         string                 `json:"user_id"`
	OperationType  OperationType          `json:"operation_type"`
	ResourceType   ResourceType           `json:"resource_type"`
	ResourceID     string                 `json:"resource_id"`
	Timestamp      time.Time              `json:"timestamp"`
	RequestID      string                 `json:"request_id,omitempty"`
	IPAddress      string                 `json:"ip_address,omitempty"`
	UserAgent      string                 `json:"user_agent,omitempty"`
	AdditionalData map[string]interface{} `json:"additional_data,omitempty"`
}

// RequestMeta identifies the HTTP request an operation came from
type RequestMeta struct {
	RequestID string
	IPAddress string
	UserAgent string
}

type requestMetaKey struct{}

// WithRequestMeta attaches request details to ctx so entries logged further down carry them
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFrom returns the request details attached to ctx, if any
func RequestMetaFrom(ctx context.Context) (RequestMeta, bool) {
	meta, ok := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta, ok
}

// complete fills the timestamp and request details an entry was logged without
func complete(ctx context.Context, entry AuditLog, now time.Time) AuditLog {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = now
	}
	meta, ok := RequestMetaFrom(ctx)
	if !ok {
		return entry
	}
	if entry.RequestID == "" {
		entry.RequestID = meta.RequestID
	}
	if entry.IPAddress == "" {
		entry.IPAddress = meta.IPAddress
	}
	if entry.UserAgent == "" {
		entry.UserAgent = meta.UserAgent
	}
	return entry
}

// Filter narrows a listing of the audit trail
type Filter struct {
	UserID       string
	ResourceType ResourceType
	Since        time.Time
	Limit        int
}

const defaultListLimit = 50

func (f Filter) query() (string, []any) {
	conds := []string{"user_id = $1"}
	args := []any{f.UserID}

	if f.ResourceType != "" {
		args = append(args, f.ResourceType)
		conds = append(conds, fmt.Sprintf("resource_type = $%d", len(args)))
	}
	if !f.Since.IsZero() {
		args = append(args, f.Since)
		conds = append(conds, fmt.Sprintf("timestamp >= $%d", len(args)))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit)

	query := `SELECT id, user_id, operation_type, resource_type, resource_id, timestamp,
		       COALESCE(request_id, ''), COALESCE(ip_address, ''), COALESCE(user_agent, ''), additional_data
		FROM audit_logs
		WHERE ` + strings.Join(conds, " AND ") + fmt.Sprintf(`
		ORDER BY timestamp DESC
		LIMIT $%d`, len(args))
	return query, args
}

// Logger writes the audit trail to Postgres and mirrors it to zap
type Logger struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewLogger creates a new audit logger
func NewLogger(db *pgxpool.Pool, logger *zap.Logger) *Logger {
	return &Logger{
		db:     db,
		logger: logger,
	}
}

// Log records one entry
func (l *Logger) Log(ctx context.Context, entry AuditLog) error {
	entry = complete(ctx, entry, time.Now())

	l.logger.Info("Audit log entry",
		zap.String("user_id", entry.UserID),
		zap.String("operation", string(entry.OperationType)),
		zap.String("resource_type", string(entry.ResourceType)),
		zap.String("resource_id", entry.ResourceID),
		zap.String("request_id", entry.RequestID),
	)

	_, err := l.db.Exec(ctx, `
		INSERT INTO audit_logs (
			user_id, operation_type, resource_type, resource_id,
			timestamp, request_id, ip_address, user_agent, additional_data
		) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), $9)`,
		entry.UserID,
		entry.OperationType,
		entry.ResourceType,
		entry.ResourceID,
		entry.Timestamp,
		entry.RequestID,
		entry.IPAddress,
		entry.UserAgent,
		entry.AdditionalData,
	)
	if err != nil {
		l.logger.Error("Failed to write audit log to database",
			zap.Error(err),
			zap.String("user_id", entry.UserID),
			zap.String("resource_type", string(entry.ResourceType)),
		)
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// List returns a user's entries, newest first
func (l *Logger) List(ctx context.Context, filter Filter) ([]AuditLog, error) {
	query, args := filter.query()

	rows, err := l.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}

	logs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (AuditLog, error) {
		var e AuditLog
		err := row.Scan(
			&e.ID,
			&e.UserID,
			&e.OperationType,
			&e.ResourceType,
			&e.ResourceID,
			&e.Timestamp,
			&e.RequestID,
			&e.IPAddress,
			&e.UserAgent,
			&e.AdditionalData,
		)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan audit logs: %w", err)
	}
	return logs, nil
}

// NopLogger discards audit entries; used by tools that run without an audit trail
type NopLogger struct{}

func (NopLogger) Log(context.Context, AuditLog) error {
	return nil
}
