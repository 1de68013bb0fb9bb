package audit

import (
	"context"
	"log/slog"
	"time"
)

// Logger emits a structured audit trail of security-relevant actions.
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(ctx context.Context, userID int64, action, resource string, resourceID int64, status string) {
	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.Int64("resource_id", resourceID),
		slog.Int64("user_id", userID),
		slog.String("status", status),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogRegistration(ctx context.Context, userID int64, status string) {
	al.LogAction(ctx, userID, "register", "user", userID, status)
}

func (al *Logger) LogLogin(ctx context.Context, userID int64, status string) {
	al.LogAction(ctx, userID, "login", "user", userID, status)
}

func (al *Logger) LogApplicationChange(ctx context.Context, userID int64, action string, applicationID int64, status string) {
	al.LogAction(ctx, userID, action, "application", applicationID, status)
}

func (al *Logger) LogDenied(ctx context.Context, reason string) {
	al.logger.Info("audit",
		slog.String("action", "access_denied"),
		slog.String("resource", "api"),
		slog.String("status", "denied"),
		slog.String("details", reason),
		slog.Time("timestamp", time.Now()),
	)
}
