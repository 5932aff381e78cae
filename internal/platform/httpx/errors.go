package httpx

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tradedesk/tradedesk/internal/shared"
)

// TranslatePG maps constraint violations raised by PostgreSQL onto domain
// sentinels so callers see ErrDuplicate or ErrConflict instead of driver errors.
func TranslatePG(err error, what string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return fmt.Errorf("%w: %s already exists", shared.ErrDuplicate, what)
	case pgerrcode.ForeignKeyViolation:
		return fmt.Errorf("%w: %s is referenced by other records", shared.ErrConflict, what)
	case pgerrcode.CheckViolation:
		return fmt.Errorf("%w: %s has an invalid value", shared.ErrValidation, what)
	}
	return err
}

// RespondError maps domain errors to failure envelopes.
func RespondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", slog.Any("error", err))
	}
	var verr *shared.ValidationError
	if errors.As(err, &verr) {
		JSON(w, status, Envelope{Success: false, Message: verr.Error(), Errors: verr.Fields})
		return
	}
	Fail(w, status, shared.UserSafeMessage(err))
}

// StatusFor returns the HTTP status for err.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrDuplicate), errors.Is(err, shared.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, shared.ErrInvalidCredentials), errors.Is(err, shared.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
