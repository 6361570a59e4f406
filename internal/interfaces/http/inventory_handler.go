package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/tienda-api/internal/application/dto"
	"github.com/jhoicas/tienda-api/internal/application/inventory"
	"github.com/jhoicas/tienda-api/internal/domain"
	"github.com/jhoicas/tienda-api/internal/domain/entity"
	"github.com/jhoicas/tienda-api/internal/domain/repository"
)

// InventoryHandler maneja las peticiones HTTP del ledger de movimientos (protegido).
type InventoryHandler struct {
	uc *inventory.LedgerUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *inventory.LedgerUseCase) *InventoryHandler {
	return &InventoryHandler{uc: uc}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de stock
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "product_id, variant_id opcional, kind, quantity, reason, reference"
// @Success      201   {object}  dto.LedgerEntryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	kind, err := entity.ParseMovementKind(in.Kind)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	entry, err := h.uc.RecordMovement(c.UserContext(), inventory.MovementInputDTO{
		ProductID: in.ProductID,
		VariantID: in.VariantID,
		Kind:      kind,
		Quantity:  in.Quantity,
		Reason:    in.Reason,
		Reference: in.Reference,
		ActorID:   userID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewLedgerEntryResponse(entry))
}

// GetMovement godoc
// @Summary      Obtener movimiento por ID
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.LedgerEntryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id} [get]
func (h *InventoryHandler) GetMovement(c *fiber.Ctx) error {
	entry, err := h.uc.GetMovement(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewLedgerEntryResponse(entry))
}

// ListByProduct godoc
// @Summary      Movimientos de un producto o variante
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId   path   string  true   "ID del producto"
// @Param        variant_id  query  string  false  "ID de la variante"
// @Param        from        query  string  false  "RFC3339"
// @Param        to          query  string  false  "RFC3339"
// @Param        limit       query  int     false  "máx 100"
// @Param        offset      query  int     false  "desplazamiento"
// @Success      200  {object}  dto.LedgerPageResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{productId}/movements [get]
func (h *InventoryHandler) ListByProduct(c *fiber.Ctx) error {
	from, to, err := parseRange(c)
	if err != nil {
		return writeError(c, err)
	}
	page := pageFromQuery(c)
	target := entity.StockTarget{ProductID: c.Params("productId"), VariantID: c.Query("variant_id")}
	entries, err := h.uc.ListByTarget(c.UserContext(), target, from, to, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.LedgerPageResponse{Items: dto.NewLedgerEntryList(entries), Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Returned: len(entries)}})
}

// ListByActor godoc
// @Summary      Movimientos registrados por un usuario
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        actorId  path   string  true   "ID del usuario"
// @Param        from     query  string  false  "RFC3339"
// @Param        to       query  string  false  "RFC3339"
// @Success      200  {object}  dto.LedgerPageResponse
// @Router       /api/inventory/actors/{actorId}/movements [get]
func (h *InventoryHandler) ListByActor(c *fiber.Ctx) error {
	from, to, err := parseRange(c)
	if err != nil {
		return writeError(c, err)
	}
	page := pageFromQuery(c)
	entries, err := h.uc.ListByActor(c.UserContext(), c.Params("actorId"), from, to, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.LedgerPageResponse{Items: dto.NewLedgerEntryList(entries), Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Returned: len(entries)}})
}

// Report godoc
// @Summary      Resumen del ledger
// @Description  Totales por tipo, variación neta y productos/usuarios con más movimientos.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "filtrar por producto"
// @Param        actor_id    query  string  false  "filtrar por usuario"
// @Param        kind        query  string  false  "entrada | salida | ajuste | reserva | liberacion"
// @Param        top         query  int     false  "tamaño de los rankings (default 5)"
// @Success      200  {object}  dto.LedgerReportResponse
// @Router       /api/inventory/report [get]
func (h *InventoryHandler) Report(c *fiber.Ctx) error {
	from, to, err := parseRange(c)
	if err != nil {
		return writeError(c, err)
	}
	filter := repository.MovementFilter{
		ProductID: c.Query("product_id"),
		ActorID:   c.Query("actor_id"),
		From:      from,
		To:        to,
	}
	if k := c.Query("kind"); k != "" {
		kind, err := entity.ParseMovementKind(k)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		filter.Kind = kind
	}
	report, err := h.uc.Report(c.UserContext(), filter, c.QueryInt("top", 5))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(newReportResponse(report))
}

func newReportResponse(r *inventory.Report) dto.LedgerReportResponse {
	out := dto.LedgerReportResponse{
		TotalEntries: r.Summary.TotalEntries,
		NetChange:    r.Summary.NetChange,
		ByKind:       make([]dto.KindTotalsDTO, 0, len(r.Summary.ByKind)),
		TopProducts:  rankedDTO(r.TopProducts),
		TopActors:    rankedDTO(r.TopActors),
	}
	for _, k := range r.Summary.ByKind {
		out.ByKind = append(out.ByKind, dto.KindTotalsDTO{Kind: k.Kind.String(), Count: k.Count, SignedTotal: k.SignedTotal})
	}
	return out
}

func rankedDTO(in []inventory.RankedEntity) []dto.RankedEntityDTO {
	out := make([]dto.RankedEntityDTO, 0, len(in))
	for _, r := range in {
		out = append(out, dto.RankedEntityDTO{ID: r.ID, Count: r.Count, SignedTotal: r.SignedTotal})
	}
	return out
}

func pageFromQuery(c *fiber.Ctx) dto.PageRequest {
	page := dto.PageRequest{Limit: c.QueryInt("limit"), Offset: c.QueryInt("offset")}
	page.DefaultPage()
	return page
}

// parseRange lee from/to (RFC3339) del query string.
func parseRange(c *fiber.Ctx) (from, to *time.Time, err error) {
	if v := c.Query("from"); v != "" {
		t, perr := time.Parse(time.RFC3339, v)
		if perr != nil {
			return nil, nil, domain.ErrInvalidInput
		}
		from = &t
	}
	if v := c.Query("to"); v != "" {
		t, perr := time.Parse(time.RFC3339, v)
		if perr != nil {
			return nil, nil, domain.ErrInvalidInput
		}
		to = &t
	}
	return from, to, nil
}
