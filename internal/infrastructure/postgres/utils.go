package postgres

import (
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/Facturador-api/internal/domain"
)

// mapError traduce errores de pgx/scany a los errores de dominio.
func mapError(err error, op string) error {
	if err == nil {
		return nil
	}
	if pgxscan.NotFound(err) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "22P02": // invalid_text_representation (ej: uuid mal formado)
			return fmt.Errorf("%s: %w: %s", op, domain.ErrInvalidInput, pgErr.Message)
		case "42P01": // undefined_table
			return fmt.Errorf("%s: esquema de ventas no disponible: %w", op, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
