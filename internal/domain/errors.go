package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound        = errors.New("recurso no encontrado")
	ErrInvalidInput    = errors.New("entrada inválida")
	ErrDuplicate       = errors.New("recurso duplicado")
	ErrUnauthorized    = errors.New("no autorizado")
	ErrForbidden       = errors.New("acceso denegado")
	ErrConflict        = errors.New("conflicto con el estado actual")
	ErrInvalidQuantity = errors.New("cantidad inválida: debe ser un entero positivo")
	ErrInvalidState    = errors.New("el material no está en el estado requerido")
	ErrStorage         = errors.New("error de almacenamiento")
	ErrPriceCorrection = errors.New("pedido registrado pero el precio no pudo corregirse")
)

// StorageError envuelve un fallo (o timeout) de escritura/lectura en el almacén de materiales.
// Es reintentable por el usuario; nunca se reintenta automáticamente.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap permite errors.Is(err, ErrStorage) y errors.Is(err, <causa>).
func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

// NewStorageError construye un StorageError; devuelve nil si err es nil.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// PriceCorrectionError indica que el pedido quedó registrado pero la corrección de precio falló.
type PriceCorrectionError struct {
	MaterialID string
	Err        error
}

func (e *PriceCorrectionError) Error() string {
	return fmt.Sprintf("material %s: %v: %v", e.MaterialID, ErrPriceCorrection, e.Err)
}

func (e *PriceCorrectionError) Unwrap() []error {
	return []error{ErrPriceCorrection, e.Err}
}
