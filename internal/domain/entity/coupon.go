package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CouponKind tipo de beneficio del cupón.
type CouponKind int

const (
	CouponFixed        CouponKind = iota + 1 // monto fijo
	CouponPercentage                         // porcentaje del subtotal
	CouponFreeShipping                       // envío gratis (no descuenta en el carrito)
)

var couponKindNames = map[CouponKind]string{
	CouponFixed:        "fijo",
	CouponPercentage:   "porcentaje",
	CouponFreeShipping: "envio_gratis",
}

func (k CouponKind) Valid() bool {
	_, ok := couponKindNames[k]
	return ok
}

func (k CouponKind) String() string {
	if name, ok := couponKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("CouponKind(%d)", int(k))
}

// ParseCouponKind convierte el nombre persistido en CouponKind.
func ParseCouponKind(s string) (CouponKind, error) {
	for k, name := range couponKindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("tipo de cupón desconocido: %q", s)
}

func (k CouponKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("tipo de cupón inválido: %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *CouponKind) UnmarshalText(b []byte) error {
	parsed, err := ParseCouponKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Coupon snapshot inmutable de un cupón tal como lo entrega el repositorio.
type Coupon struct {
	Code            string           `json:"code"`
	Kind            CouponKind       `json:"kind"`
	Value           decimal.Decimal  `json:"value"`
	StartsAt        time.Time        `json:"starts_at"`
	EndsAt          time.Time        `json:"ends_at"`
	MinimumAmount   *decimal.Decimal `json:"minimum_amount,omitempty"`
	MaximumDiscount *decimal.Decimal `json:"maximum_discount,omitempty"`
	Active          bool             `json:"active"`
}

// upperText pasa a mayúsculas con las reglas Unicode de x/text. Un Caser guarda estado,
// así que se crea uno por llamada.
func upperText(s string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(s))
}

// NormalizeCouponCode normaliza el código (sin espacios, en mayúsculas) para búsqueda y comparación.
func NormalizeCouponCode(code string) string {
	return upperText(code)
}
