package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation = "23505"
	codeCheckViolation  = "23514"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation material_id repetido.
func isUniqueViolation(err error) bool { return pgCode(err) == codeUniqueViolation }

// isCheckViolation p. ej. materials_order_fields: estado, fecha y cantidad de pedido deben ir juntos.
func isCheckViolation(err error) bool { return pgCode(err) == codeCheckViolation }
