package logger

import (
	"context"
	"log/slog"
	"strconv"
	"time"
)

// Audit event types
const (
	EventRegister     = "register"
	EventLogin        = "login"
	EventTokenRefresh = "token_refresh"
	EventUserUpdate   = "user_update"
	EventUserDelete   = "user_delete"
)

// AuditEvent represents a security audit event
type AuditEvent struct {
	EventType     string
	UserID        int64
	Email         string // Masked before it is written
	IPAddress     string
	UserAgent     string
	Success       bool
	FailureReason string
	Metadata      map[string]string
}

// AuditLogger provides audit logging functionality
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogAuthAttempt logs registration and login outcomes
func (al *AuditLogger) LogAuthAttempt(ctx context.Context, event AuditEvent) {
	al.log(ctx, "auth", event)
}

// LogAccountAction logs admin or self mutations of a user record
func (al *AuditLogger) LogAccountAction(ctx context.Context, event AuditEvent) {
	al.log(ctx, "account", event)
}

func (al *AuditLogger) log(ctx context.Context, auditType string, event AuditEvent) {
	if al == nil || al.logger == nil {
		return
	}

	attrs := []slog.Attr{
		slog.String("audit_type", auditType),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.UserID != 0 {
		attrs = append(attrs, slog.String("user_id", strconv.FormatInt(event.UserID, 10)))
	}
	if event.Email != "" {
		attrs = append(attrs, slog.String("email", SanitizedEmail(event.Email)))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Metadata {
		attrs = append(attrs, slog.String("meta_"+k, v))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(ctx, level, "audit", attrs...)
}
