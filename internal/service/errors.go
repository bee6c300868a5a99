package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/redact"
)

// logFailure logs err at Debug when it is an expected domain outcome and at
// Error otherwise, so alerting only sees infrastructure problems.
func logFailure(log *slog.Logger, msg string, err error, attrs ...any) {
	attrs = append(attrs, "error", redact.Error(err))
	if domain.KindOf(err) != domain.KindUnknown {
		log.Debug(msg, attrs...)
		return
	}
	log.Error(msg, attrs...)
}

// wrapInfra wraps an infrastructure error with the failed operation, and
// passes domain errors through untouched.
func wrapInfra(op string, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
