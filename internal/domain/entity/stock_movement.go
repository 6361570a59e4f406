package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind tipo de movimiento de inventario. Conjunto cerrado.
type MovementKind int

const (
	MovementInflow     MovementKind = iota + 1 // entrada
	MovementOutflow                            // salida
	MovementAdjustment                         // ajuste (cantidad = stock final absoluto)
	MovementReserve                            // reserva
	MovementRelease                            // liberacion
)

// Límites de los campos de texto del ledger.
const (
	MaxReasonLength    = 500
	MaxReferenceLength = 100
)

var movementKindNames = map[MovementKind]string{
	MovementInflow:     "entrada",
	MovementOutflow:    "salida",
	MovementAdjustment: "ajuste",
	MovementReserve:    "reserva",
	MovementRelease:    "liberacion",
}

// MovementKinds devuelve todos los tipos en orden estable.
func MovementKinds() []MovementKind {
	return []MovementKind{MovementInflow, MovementOutflow, MovementAdjustment, MovementReserve, MovementRelease}
}

// Valid indica si el valor pertenece al conjunto cerrado.
func (k MovementKind) Valid() bool {
	_, ok := movementKindNames[k]
	return ok
}

func (k MovementKind) String() string {
	if name, ok := movementKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("MovementKind(%d)", int(k))
}

// ParseMovementKind convierte el nombre persistido ("entrada", "salida", ...) en MovementKind.
func ParseMovementKind(s string) (MovementKind, error) {
	for k, name := range movementKindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("tipo de movimiento desconocido: %q", s)
}

// MarshalText serializa el tipo por su nombre.
func (k MovementKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("tipo de movimiento inválido: %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText acepta únicamente los nombres del conjunto cerrado.
func (k *MovementKind) UnmarshalText(b []byte) error {
	parsed, err := ParseMovementKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// StockTarget identifica la entidad que tiene stock: un producto o una variante de producto.
// Si VariantID está definido, el stock vive en la variante y ProductID es su padre.
type StockTarget struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
}

// IsVariant indica si el stock pertenece a una variante.
func (t StockTarget) IsVariant() bool { return t.VariantID != "" }

// Key identificador único del target (usado para bloqueos y agrupaciones).
func (t StockTarget) Key() string {
	if t.IsVariant() {
		return "variant:" + t.VariantID
	}
	return "product:" + t.ProductID
}

// LedgerEntry registro inmutable de un movimiento aceptado.
// Invariante: StockAfter == StockBefore + SignedQuantity.
type LedgerEntry struct {
	ID                string
	Target            StockTarget
	Kind              MovementKind
	RequestedQuantity decimal.Decimal // >0; en ajuste es el stock final deseado
	StockBefore       decimal.Decimal
	StockAfter        decimal.Decimal
	SignedQuantity    decimal.Decimal
	Reason            string
	Reference         string // opcional: pedido, carrito, nota
	ActorID           string
	CreatedAt         time.Time
}
