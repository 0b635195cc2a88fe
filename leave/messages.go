package leave

import (
	"context"
	"errors"
	"strings"

	"github.com/warp/leave-planner/i18n"
)

// Describe renders the localized user message for err. Unknown errors get a
// generic text so infrastructure details never reach the screen.
func Describe(ctx context.Context, err error) string {
	var balanceErr *InsufficientBalanceError
	if errors.As(err, &balanceErr) {
		return i18n.T(ctx, "error.insufficient_balance", map[string]any{
			"Requested": balanceErr.Requested,
			"Available": balanceErr.Available,
		})
	}

	var overlapErr *OverlapError
	if errors.As(err, &overlapErr) {
		switch {
		case overlapErr.Type == TypeSick && overlapErr.SingleDay:
			return i18n.T(ctx, "error.overlap.sick_single")
		case overlapErr.Type == TypeSick:
			return i18n.T(ctx, "error.overlap.sick_range")
		default:
			return i18n.T(ctx, "error.overlap.vacation")
		}
	}

	switch {
	case errors.Is(err, ErrRequestNotFound):
		return i18n.T(ctx, "error.request_not_found")
	case errors.Is(err, ErrUserNotFound):
		return i18n.T(ctx, "error.user_not_found")
	case errors.Is(err, ErrTaskNotFound):
		return i18n.T(ctx, "error.task_not_found")
	case errors.Is(err, ErrNoActiveUser):
		return i18n.T(ctx, "error.no_active_user")
	case errors.Is(err, ErrForbidden):
		return i18n.T(ctx, "error.forbidden")
	case errors.Is(err, ErrInvalidCredentials):
		return i18n.T(ctx, "error.invalid_credentials")
	case errors.Is(err, ErrTooManyAttempts):
		return i18n.T(ctx, "error.too_many_attempts")
	case errors.Is(err, ErrInvalidRequest):
		detail := strings.TrimPrefix(err.Error(), ErrInvalidRequest.Error()+": ")
		return i18n.T(ctx, "error.invalid_input", map[string]any{"Detail": detail})
	}
	return i18n.T(ctx, "error.internal")
}

func createdMessage(ctx context.Context, r LeaveRequest) string {
	switch {
	case r.Type == TypeSick:
		return i18n.T(ctx, "request.created.sick")
	case r.Status == StatusApproved:
		return i18n.T(ctx, "request.created.approved")
	default:
		return i18n.T(ctx, "request.created.pending")
	}
}

func statusMessage(ctx context.Context, s Status) string {
	return i18n.T(ctx, "request.status."+string(s))
}
