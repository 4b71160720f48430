package entity

// Company representa al emisor de los comprobantes (un solo RUC por despliegue).
// Se arma desde la configuración; no se persiste.
type Company struct {
	RUC             string // 11 dígitos
	LegalName       string // razón social (cbc:RegistrationName)
	TradeName       string // nombre comercial (cbc:Name)
	AddressTypeCode string // código de establecimiento anexo, "0000" = domicilio fiscal
}
