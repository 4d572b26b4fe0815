package ordering

import (
	"errors"

	"github.com/jhoicas/solar-inventario/internal/domain"
	"github.com/jhoicas/solar-inventario/internal/domain/entity"
	"github.com/jhoicas/solar-inventario/internal/domain/inventory"
)

// Operaciones del ciclo de vida de un pedido.
const (
	OpPlaceOrder       = "place_order"
	OpAddSupplemental  = "add_supplemental"
	OpCancelOrder      = "cancel_order"
	OpAddToReorderList = "add_to_reorder_list"
)

// Códigos de error expuestos a la capa de presentación.
const (
	CodeInvalidQuantity = "INVALID_QUANTITY"
	CodeInvalidState    = "INVALID_STATE"
	CodeNotFound        = "NOT_FOUND"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeStorage         = "STORAGE"
	CodePriceCorrection = "PRICE_CORRECTION"
	CodeInternal        = "INTERNAL"
)

// Result resultado de una operación sobre un material. Nunca se propaga un error:
// toda falla queda clasificada aquí.
type Result struct {
	ID          string // ID de registro
	MaterialID  string // identificador humano, si se llegó a leer el material
	Op          string
	OK          bool
	Quantity    int // cantidad resultante del pedido
	DisplayType inventory.DisplayType
	Message     string
	Warning     string // pedido registrado con precio sin corregir
	ErrorCode   string
	Retryable   bool
	Material    *entity.Material // estado confirmado tras la escritura (solo si OK)
	Err         error
}

// Outcome etiqueta corta para métricas y logs.
func (r Result) Outcome() string {
	switch {
	case r.OK && r.Warning != "":
		return "warning"
	case r.OK:
		return "ok"
	default:
		return "error"
	}
}

// ErrorCode clasifica err en uno de los códigos de la taxonomía.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrInvalidQuantity):
		return CodeInvalidQuantity
	case errors.Is(err, domain.ErrInvalidState):
		return CodeInvalidState
	case errors.Is(err, domain.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, domain.ErrPriceCorrection):
		return CodePriceCorrection
	case errors.Is(err, domain.ErrStorage):
		return CodeStorage
	default:
		return CodeInternal
	}
}
