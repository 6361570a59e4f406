package http

import (
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jhoicas/tienda-api/internal/application/cart"
	"github.com/jhoicas/tienda-api/internal/application/dto"
	"github.com/jhoicas/tienda-api/internal/application/inventory"
	"github.com/jhoicas/tienda-api/internal/domain/entity"
)

// HeaderCartSession identifica el carrito de la sesión. Si falta se genera uno nuevo
// y se devuelve en la respuesta.
const HeaderCartSession = "X-Cart-Session"

// CartHandler maneja el carrito de sesión (público, auth opcional) y la reserva de stock al checkout.
type CartHandler struct {
	uc     *cart.UseCase
	ledger *inventory.LedgerUseCase
}

// NewCartHandler construye el handler.
func NewCartHandler(uc *cart.UseCase, ledger *inventory.LedgerUseCase) *CartHandler {
	return &CartHandler{uc: uc, ledger: ledger}
}

// maxSessionKeyLength tope del header de sesión; claves más largas o con UTF-8 inválido
// se reemplazan por una sesión nueva.
const maxSessionKeyLength = 64

func sessionKey(c *fiber.Ctx) string {
	key := c.Get(HeaderCartSession)
	if key == "" || len(key) > maxSessionKeyLength || !utf8.ValidString(key) {
		key = uuid.New().String()
	}
	c.Set(HeaderCartSession, key)
	return key
}

func cartOK(c *fiber.Ctx, status int, ct *entity.Cart) error {
	return c.Status(status).JSON(dto.NewCartResponse(ct))
}

// Get godoc
// @Summary      Obtener carrito
// @Tags         cart
// @Produce      json
// @Param        X-Cart-Session  header  string  false  "sesión del carrito"
// @Success      200  {object}  dto.CartResponse
// @Router       /api/cart [get]
func (h *CartHandler) Get(c *fiber.Ctx) error {
	ct, err := h.uc.GetCart(c.UserContext(), sessionKey(c))
	if err != nil {
		return writeError(c, err)
	}
	return cartOK(c, fiber.StatusOK, ct)
}

// AddItem godoc
// @Summary      Agregar producto al carrito
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AddItemRequest  true  "product_id, variant_id opcional, quantity"
// @Success      200  {object}  dto.CartResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/cart/items [post]
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	var in dto.AddItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	ct, err := h.uc.AddItem(c.UserContext(), sessionKey(c), cart.AddItemInput{
		ProductID: in.ProductID,
		VariantID: in.VariantID,
		Quantity:  in.Quantity,
		OwnerID:   GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return cartOK(c, fiber.StatusOK, ct)
}

// UpdateQuantity godoc
// @Summary      Cambiar cantidad de una línea (0 la elimina)
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        itemId  path  string                     true  "ID de la línea"
// @Param        body    body  dto.UpdateQuantityRequest  true  "quantity"
// @Success      200  {object}  dto.CartResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/cart/items/{itemId} [put]
func (h *CartHandler) UpdateQuantity(c *fiber.Ctx) error {
	var in dto.UpdateQuantityRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	ct, err := h.uc.UpdateQuantity(c.UserContext(), sessionKey(c), c.Params("itemId"), in.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return cartOK(c, fiber.StatusOK, ct)
}

// RemoveItem godoc
// @Summary      Quitar línea del carrito
// @Tags         cart
// @Produce      json
// @Param        itemId  path  string  true  "ID de la línea"
// @Success      200  {object}  dto.CartResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/cart/items/{itemId} [delete]
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	ct, err := h.uc.RemoveItem(c.UserContext(), sessionKey(c), c.Params("itemId"))
	if err != nil {
		return writeError(c, err)
	}
	return cartOK(c, fiber.StatusOK, ct)
}

// Clear godoc
// @Summary      Vaciar carrito
// @Tags         cart
// @Produce      json
// @Success      200  {object}  dto.CartResponse
// @Router       /api/cart [delete]
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	ct, err := h.uc.Clear(c.UserContext(), sessionKey(c))
	if err != nil {
		return writeError(c, err)
	}
	return cartOK(c, fiber.StatusOK, ct)
}

// ApplyCoupon godoc
// @Summary      Aplicar cupón
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CouponRequest  true  "code"
// @Success      200  {object}  dto.CartResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/cart/coupon [post]
func (h *CartHandler) ApplyCoupon(c *fiber.Ctx) error {
	var in dto.CouponRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	ct, err := h.uc.ApplyCoupon(c.UserContext(), sessionKey(c), in.Code)
	if err != nil {
		return writeError(c, err)
	}
	return cartOK(c, fiber.StatusOK, ct)
}

// RemoveCoupon godoc
// @Summary      Quitar cupón
// @Tags         cart
// @Produce      json
// @Param        code  path  string  true  "código aplicado"
// @Success      200  {object}  dto.CartResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/cart/coupon/{code} [delete]
func (h *CartHandler) RemoveCoupon(c *fiber.Ctx) error {
	ct, err := h.uc.RemoveCoupon(c.UserContext(), sessionKey(c), c.Params("code"))
	if err != nil {
		return writeError(c, err)
	}
	return cartOK(c, fiber.StatusOK, ct)
}

// Reconcile godoc
// @Summary      Ajustar el carrito al stock actual
// @Tags         cart
// @Produce      json
// @Success      200  {object}  dto.ReconcileResponse
// @Router       /api/cart/reconcile [post]
func (h *CartHandler) Reconcile(c *fiber.Ctx) error {
	res, err := h.uc.ReconcileAvailability(c.UserContext(), sessionKey(c))
	if err != nil {
		return writeError(c, err)
	}
	out := dto.ReconcileResponse{
		Cart:              dto.NewCartResponse(res.Cart),
		ItemsChanged:      make([]dto.ItemChangeDTO, 0, len(res.ItemsChanged)),
		ItemsWithoutStock: res.ItemsWithoutStock,
	}
	if out.ItemsWithoutStock == nil {
		out.ItemsWithoutStock = []string{}
	}
	for _, ch := range res.ItemsChanged {
		out.ItemsChanged = append(out.ItemsChanged, dto.ItemChangeDTO{
			ItemID:       ch.ItemID,
			PreviousQty:  ch.PreviousQty,
			AdjustedQty:  ch.AdjustedQty,
			AvailableQty: ch.AvailableQty,
		})
	}
	return c.JSON(out)
}

// QuoteShipping godoc
// @Summary      Cotizar envío
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ShippingQuoteRequest  true  "departamento, provincia, distrito"
// @Success      200  {array}   entity.ShippingOption
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/cart/shipping/quote [post]
func (h *CartHandler) QuoteShipping(c *fiber.Ctx) error {
	var in dto.ShippingQuoteRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	opts, err := h.uc.QuoteShipping(c.UserContext(), sessionKey(c), in.Destination())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(opts)
}

// SelectShipping godoc
// @Summary      Elegir opción de envío
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SelectShippingRequest  true  "code y destino"
// @Success      200  {object}  dto.CartResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/cart/shipping [put]
func (h *CartHandler) SelectShipping(c *fiber.Ctx) error {
	var in dto.SelectShippingRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	ct, err := h.uc.SelectShipping(c.UserContext(), sessionKey(c), in.Code, in.Destination())
	if err != nil {
		return writeError(c, err)
	}
	return cartOK(c, fiber.StatusOK, ct)
}

// Reserve godoc
// @Summary      Reservar el stock del carrito (checkout)
// @Tags         cart
// @Security     Bearer
// @Produce      json
// @Success      201  {array}   dto.LedgerEntryResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/cart/reserve [post]
func (h *CartHandler) Reserve(c *fiber.Ctx) error {
	ct, err := h.uc.GetCart(c.UserContext(), sessionKey(c))
	if err != nil {
		return writeError(c, err)
	}
	entries, err := h.ledger.ReserveCart(c.UserContext(), ct, GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewLedgerEntryList(entries))
}

// Release godoc
// @Summary      Liberar el stock reservado del carrito
// @Description  Libera lo reservado y pendiente según el ledger. Tras un fallo parcial se puede reintentar.
// @Tags         cart
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.LedgerEntryResponse
// @Router       /api/cart/release [post]
func (h *CartHandler) Release(c *fiber.Ctx) error {
	ct, err := h.uc.GetCart(c.UserContext(), sessionKey(c))
	if err != nil {
		return writeError(c, err)
	}
	entries, err := h.ledger.ReleaseCart(c.UserContext(), ct, GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewLedgerEntryList(entries))
}

// Reservation godoc
// @Summary      Stock reservado y pendiente de liberar del carrito
// @Tags         cart
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.PendingReservationDTO
// @Router       /api/cart/reservation [get]
func (h *CartHandler) Reservation(c *fiber.Ctx) error {
	pending, err := h.ledger.PendingReservation(c.UserContext(), sessionKey(c))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.PendingReservationDTO, 0, len(pending))
	for _, p := range pending {
		out = append(out, dto.PendingReservationDTO{
			ProductID: p.Target.ProductID,
			VariantID: p.Target.VariantID,
			Quantity:  p.Quantity,
		})
	}
	return c.JSON(out)
}
