package entity

import "time"

// Sale venta registrada en el sistema, tal como la entrega la capa de datos.
// Es la fuente de una factura: cabecera, líneas y cliente.
type Sale struct {
	ID        string
	Invoice   Invoice
	Customer  Customer
	CreatedAt time.Time
}
