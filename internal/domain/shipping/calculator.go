package shipping

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/tienda-api/internal/domain"
	"github.com/jhoicas/tienda-api/internal/domain/entity"
)

// Zonas de entrega.
const (
	ZoneLocal    = "local"
	ZoneNational = "national"
	ZoneRemote   = "remote"
)

// Códigos de opción de envío.
const (
	OptionStandard = "standard"
	OptionExpress  = "express"
	OptionPickup   = "pickup"
)

// Rates tarifas y reglas del cálculo de envío.
type Rates struct {
	OriginDepartment      string
	RemoteDepartments     []string
	FreeShippingThreshold decimal.Decimal
	MaxExpressWeight      decimal.Decimal // kg
}

// DefaultRates origen Lima, selva como zona remota.
func DefaultRates() Rates {
	return Rates{
		OriginDepartment:      "LIMA",
		RemoteDepartments:     []string{"LORETO", "UCAYALI", "MADRE DE DIOS", "AMAZONAS"},
		FreeShippingThreshold: decimal.NewFromInt(150),
		MaxExpressWeight:      decimal.NewFromInt(30),
	}
}

type tariff struct {
	base decimal.Decimal
	days int
}

// Tarifas base por zona; el recargo por kg aplica desde el segundo kg.
var (
	standardTariff = map[string]tariff{
		ZoneLocal:    {decimal.NewFromInt(10), 2},
		ZoneNational: {decimal.NewFromInt(15), 4},
		ZoneRemote:   {decimal.NewFromInt(25), 7},
	}
	expressTariff = map[string]tariff{
		ZoneLocal:    {decimal.NewFromInt(20), 1},
		ZoneNational: {decimal.NewFromInt(30), 2},
		ZoneRemote:   {decimal.NewFromInt(45), 3},
	}
	standardPerKg = decimal.NewFromInt(2)
	expressPerKg  = decimal.NewFromInt(3)
)

// QuoteRequest datos para cotizar el envío de un carrito.
type QuoteRequest struct {
	Destination        entity.Destination
	TotalWeight        decimal.Decimal // kg
	OrderValue         decimal.Decimal
	FreeShippingCoupon bool
}

// Calculator cotiza opciones de envío. Sin estado mutable.
type Calculator struct {
	rates  Rates
	remote map[string]struct{}
}

// NewCalculator construye el calculador con las tarifas dadas.
func NewCalculator(rates Rates) *Calculator {
	remote := make(map[string]struct{}, len(rates.RemoteDepartments))
	for _, d := range rates.RemoteDepartments {
		remote[entity.Destination{Department: d}.Normalize().Department] = struct{}{}
	}
	rates.OriginDepartment = entity.Destination{Department: rates.OriginDepartment}.Normalize().Department
	return &Calculator{rates: rates, remote: remote}
}

// ZoneFor clasifica el destino.
func (c *Calculator) ZoneFor(d entity.Destination) string {
	dep := d.Normalize().Department
	if dep == c.rates.OriginDepartment {
		return ZoneLocal
	}
	if _, ok := c.remote[dep]; ok {
		return ZoneRemote
	}
	return ZoneNational
}

// Quote devuelve las opciones ordenadas: elegibles primero, luego por costo y por días.
func (c *Calculator) Quote(req QuoteRequest) ([]entity.ShippingOption, error) {
	dest := req.Destination.Normalize()
	if dest.Department == "" {
		return nil, domain.ErrInvalidInput
	}
	if req.TotalWeight.IsNegative() || req.OrderValue.IsNegative() {
		return nil, domain.ErrInvalidInput
	}

	zone := c.ZoneFor(dest)
	extraKg := req.TotalWeight.Ceil().Sub(decimal.NewFromInt(1))
	if extraKg.IsNegative() {
		extraKg = decimal.Zero
	}

	remaining := c.rates.FreeShippingThreshold.Sub(req.OrderValue)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	free := req.FreeShippingCoupon || remaining.IsZero()

	st := standardTariff[zone]
	standard := entity.ShippingOption{
		Code:                  OptionStandard,
		Name:                  "Envío estándar",
		Zone:                  zone,
		BaseCost:              st.base.Add(standardPerKg.Mul(extraKg)),
		EstimatedDays:         st.days,
		Eligible:              true,
		FreeShipping:          free,
		AmountForFreeShipping: remaining,
	}
	standard.Cost = standard.BaseCost
	if free {
		standard.Cost = decimal.Zero
		standard.AmountForFreeShipping = decimal.Zero
	}

	et := expressTariff[zone]
	express := entity.ShippingOption{
		Code:                  OptionExpress,
		Name:                  "Envío express",
		Zone:                  zone,
		BaseCost:              et.base.Add(expressPerKg.Mul(extraKg)),
		EstimatedDays:         et.days,
		Eligible:              true,
		AmountForFreeShipping: decimal.Zero,
	}
	express.Cost = express.BaseCost
	switch {
	case zone == ZoneRemote:
		express.Eligible = false
		express.IneligibleReason = "express no disponible para la zona"
	case req.TotalWeight.GreaterThan(c.rates.MaxExpressWeight):
		express.Eligible = false
		express.IneligibleReason = "peso excede el máximo para express"
	}

	pickup := entity.ShippingOption{
		Code:                  OptionPickup,
		Name:                  "Recojo en tienda",
		Zone:                  zone,
		Cost:                  decimal.Zero,
		BaseCost:              decimal.Zero,
		EstimatedDays:         1,
		Eligible:              zone == ZoneLocal,
		AmountForFreeShipping: decimal.Zero,
	}
	if !pickup.Eligible {
		pickup.IneligibleReason = "recojo solo disponible en " + c.rates.OriginDepartment
	}

	options := []entity.ShippingOption{standard, express, pickup}
	sort.SliceStable(options, func(i, j int) bool {
		a, b := options[i], options[j]
		if a.Eligible != b.Eligible {
			return a.Eligible
		}
		if !a.Cost.Equal(b.Cost) {
			return a.Cost.LessThan(b.Cost)
		}
		return a.EstimatedDays < b.EstimatedDays
	})
	return options, nil
}
