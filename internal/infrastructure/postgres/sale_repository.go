package postgres

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturador-api/internal/domain/entity"
	"github.com/jhoicas/Facturador-api/internal/domain/repository"
)

const (
	salesTable     = "sales"
	saleItemsTable = "sale_items"
	clientsTable   = "clients"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo lee ventas registradas (cabecera, líneas y cliente) para emitir su factura.
// Sólo lectura: el facturador no modifica la venta.
type SaleRepo struct {
	q       Querier
	builder squirrel.StatementBuilderType
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{
		q:       q,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

type saleRow struct {
	ID         string          `db:"id"`
	Series     string          `db:"series"`
	Number     string          `db:"number"`
	IssuedAt   time.Time       `db:"issued_at"`
	Currency   string          `db:"currency"`
	GrandTotal decimal.Decimal `db:"grand_total"`
	CreatedAt  time.Time       `db:"created_at"`

	ClientID       string `db:"client_id"`
	DocumentType   string `db:"document_type"`
	DocumentNumber string `db:"document_number"`
	ClientName     string `db:"client_name"`
	Email          string `db:"email"`
	Address        string `db:"address"`
}

type saleItemRow struct {
	LineNo      int             `db:"line_no"`
	ProductCode string          `db:"product_code"`
	Description string          `db:"description"`
	UnitCode    string          `db:"unit_code"`
	Quantity    decimal.Decimal `db:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
	LineTotal   decimal.Decimal `db:"line_total"`
}

func (r *SaleRepo) headerQuery(id string) squirrel.SelectBuilder {
	return r.builder.
		Select(
			"s.id", "s.series", "s.number", "s.issued_at", "s.currency", "s.grand_total", "s.created_at",
			"c.id AS client_id", "c.document_type", "c.document_number", "c.name AS client_name",
			"COALESCE(c.email, '') AS email", "COALESCE(c.address, '') AS address",
		).
		From(salesTable + " s").
		Join(clientsTable + " c ON c.id = s.client_id").
		Where(squirrel.Eq{"s.id": id})
}

func (r *SaleRepo) itemsQuery(id string) squirrel.SelectBuilder {
	return r.builder.
		Select(
			"line_no", "COALESCE(product_code, '') AS product_code", "description",
			"COALESCE(unit_code, '') AS unit_code", "quantity", "unit_price", "line_total",
		).
		From(saleItemsTable).
		Where(squirrel.Eq{"sale_id": id}).
		OrderBy("line_no")
}

// GetSale obtiene la venta con sus líneas y el cliente. domain.ErrNotFound si no existe.
func (r *SaleRepo) GetSale(ctx context.Context, id string) (*entity.Sale, error) {
	sql, args, err := r.headerQuery(id).ToSql()
	if err != nil {
		return nil, mapError(err, "build sale query")
	}
	var head saleRow
	if err := pgxscan.Get(ctx, r.q, &head, sql, args...); err != nil {
		return nil, mapError(err, "get sale")
	}

	sql, args, err = r.itemsQuery(id).ToSql()
	if err != nil {
		return nil, mapError(err, "build sale items query")
	}
	var items []saleItemRow
	if err := pgxscan.Select(ctx, r.q, &items, sql, args...); err != nil {
		return nil, mapError(err, "get sale items")
	}

	lines := make([]entity.InvoiceLine, len(items))
	for i, it := range items {
		lines[i] = entity.InvoiceLine{
			ProductCode: it.ProductCode,
			Description: it.Description,
			UnitCode:    it.UnitCode,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
		}
	}
	return &entity.Sale{
		ID: head.ID,
		Invoice: entity.Invoice{
			Series:       head.Series,
			Number:       head.Number,
			IssueDate:    head.IssuedAt,
			CurrencyCode: head.Currency,
			GrandTotal:   head.GrandTotal,
			Lines:        lines,
		},
		Customer: entity.Customer{
			ID:               head.ClientID,
			DocumentTypeCode: head.DocumentType,
			DocumentNumber:   head.DocumentNumber,
			Name:             head.ClientName,
			Email:            head.Email,
			Address:          head.Address,
		},
		CreatedAt: head.CreatedAt,
	}, nil
}
