package dto

// PageRequest paginación de los listados del ledger (limit/offset en query).
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=1,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

// DefaultPage aplica valores por defecto y acota Limit a 100.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas. Returned es la cantidad de asientos de la página.
type PageResponse struct {
	Limit    int `json:"limit"`
	Offset   int `json:"offset"`
	Returned int `json:"returned"`
}

// ErrorResponse cuerpo de error HTTP. Coupon solo se informa en rechazos de cupón.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Coupon  string `json:"coupon,omitempty"`
}
