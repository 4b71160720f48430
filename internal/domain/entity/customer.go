package entity

import "time"

// Customer representa al adquiriente de la factura (tabla clients).
type Customer struct {
	ID               string
	DocumentTypeCode string // catálogo 06: 1=DNI, 6=RUC, 4=CE, 7=Pasaporte...
	DocumentNumber   string
	Name             string // razón social o nombre completo
	Email            string
	Address          string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
