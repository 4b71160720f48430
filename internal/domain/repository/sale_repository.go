package repository

import (
	"context"

	"github.com/jhoicas/Facturador-api/internal/domain/entity"
)

// SaleRepository define el puerto de lectura de ventas para emitir comprobantes.
type SaleRepository interface {
	// GetSale devuelve la venta con su cliente y sus líneas.
	// Retorna domain.ErrNotFound si no existe.
	GetSale(ctx context.Context, id string) (*entity.Sale, error)
}
