package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"blog_api/internal/common"
	"blog_api/internal/platform/logging"

	"github.com/google/uuid"
)

// internalError passes client-facing errors through unchanged. Anything else
// is logged and replaced by a generic internal error.
func internalError(ctx context.Context, logger *slog.Logger, op string, err error) error {
	var apiErr *common.Error
	if errors.As(err, &apiErr) {
		return err
	}
	logging.LogError(ctx, logger, op+" failed", err)
	return fmt.Errorf("%s: %w", op, common.ErrInternalServer)
}

func parseID(id, resource string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.NewError(common.ErrBadRequest, fmt.Sprintf("Invalid %s id", resource))
	}
	return nil
}
