package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/tienda-api/internal/application/cart"
	"github.com/jhoicas/tienda-api/internal/application/inventory"
	"github.com/jhoicas/tienda-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger    *inventory.LedgerUseCase
	Cart      *cart.UseCase
	JWTSecret string
	JWTIssuer string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Ledger de stock (protegido, solo personal)
	inventoryHandler := NewInventoryHandler(deps.Ledger)
	inv := api.Group("/inventory", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer), RequireRole(jwt.RoleAdmin, jwt.RoleAlmacen))
	inv.Post("/movements", inventoryHandler.RegisterMovement)
	inv.Get("/movements/:id", inventoryHandler.GetMovement)
	inv.Get("/products/:productId/movements", inventoryHandler.ListByProduct)
	inv.Get("/actors/:actorId/movements", inventoryHandler.ListByActor)
	inv.Get("/report", RequireRole(jwt.RoleAdmin), inventoryHandler.Report)

	// Carrito (público; el token, si viene, asocia el carrito al usuario)
	cartHandler := NewCartHandler(deps.Cart, deps.Ledger)
	cartGroup := api.Group("/cart", OptionalAuth(deps.JWTSecret, deps.JWTIssuer))
	cartGroup.Get("/", cartHandler.Get)
	cartGroup.Delete("/", cartHandler.Clear)
	cartGroup.Post("/items", cartHandler.AddItem)
	cartGroup.Put("/items/:itemId", cartHandler.UpdateQuantity)
	cartGroup.Delete("/items/:itemId", cartHandler.RemoveItem)
	cartGroup.Post("/coupon", cartHandler.ApplyCoupon)
	cartGroup.Delete("/coupon/:code", cartHandler.RemoveCoupon)
	cartGroup.Post("/reconcile", cartHandler.Reconcile)
	cartGroup.Post("/shipping/quote", cartHandler.QuoteShipping)
	cartGroup.Put("/shipping", cartHandler.SelectShipping)

	// Checkout: el usuario autenticado es el actor de los movimientos
	cartGroup.Post("/reserve", RequireUser(), cartHandler.Reserve)
	cartGroup.Post("/release", RequireUser(), cartHandler.Release)
	cartGroup.Get("/reservation", RequireUser(), cartHandler.Reservation)
}
