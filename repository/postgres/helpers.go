package postgres

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tasknest/backend/domain"
)

const uniqueViolation = "23505"

// classify maps low-level pg errors onto the domain taxonomy. Connectivity
// failures become UNAVAILABLE so the API layer can answer 503 without leaking
// driver detail; a unique violation on (user_id, title) becomes CONFLICT.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var dErr *domain.Error
	if errors.As(err, &dErr) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == uniqueViolation {
			return domain.ErrTaskTitleTaken
		}
		return err
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return domain.WrapError(domain.ErrCodeUnavailable, "database service unavailable", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.WrapError(domain.ErrCodeUnavailable, "database service unavailable", err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapError(domain.ErrCodeUnavailable, "database service unavailable", err)
	}

	return err
}
