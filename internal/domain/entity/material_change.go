package entity

import "time"

// Operaciones publicadas en el bus de cambios de materiales.
const (
	ChangeOrderPlaced       = "order_placed"
	ChangeOrderSupplemented = "order_supplemented"
	ChangeOrderCancelled    = "order_cancelled"
	ChangeReorderListed     = "reorder_listed"
	ChangePriceCorrected    = "price_corrected"
	ChangeCreated           = "created"
)

// MaterialChange evento emitido tras cada escritura confirmada en el almacén.
type MaterialChange struct {
	ID         string    `json:"id"`
	MaterialID string    `json:"material_id"`
	Op         string    `json:"op"`
	At         time.Time `json:"at"`
}
