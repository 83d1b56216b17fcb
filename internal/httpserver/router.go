package httpserver

import (
	"context"
	"log"

	"parra-checkout/internal/domain"
	"parra-checkout/internal/metrics"
	"parra-checkout/internal/payment"
	cartsvc "parra-checkout/internal/service/cart"
	checkoutsvc "parra-checkout/internal/service/checkout"
	"parra-checkout/internal/service/fulfillment"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Deps carries the services the router exposes. Interfaces are consumer
// side so handler tests can stub them.
type Deps struct {
	Cart        CartService
	Reservation ReservationService
	Merge       MergeService
	Checkout    CheckoutService
	Fulfillment FulfillmentProcessor
	Orders      OrderLister
}

type CartService interface {
	AddLine(ctx context.Context, sessionID string, in cartsvc.AddLineInput) ([]domain.CartLine, error)
	UpdateQuantity(ctx context.Context, sessionID string, ref domain.ItemRef, quantity int) ([]domain.CartLine, error)
	RemoveLine(ctx context.Context, sessionID string, ref domain.ItemRef) ([]domain.CartLine, error)
	Clear(ctx context.Context, sessionID string) error
	Lines(ctx context.Context, sessionID string) ([]domain.CartLine, error)
}

type ReservationService interface {
	Reserve(ctx context.Context, ref domain.ItemRef, quantity int) error
	Release(ctx context.Context, ref domain.ItemRef, quantity int) error
}

type MergeService interface {
	Merge(ctx context.Context, guestSessionID, userSessionID string) (int, error)
}

type CheckoutService interface {
	CreateSession(ctx context.Context, in checkoutsvc.CreateSessionInput) (*payment.CheckoutSession, error)
}

type FulfillmentProcessor interface {
	HandleEvent(ctx context.Context, payload []byte, sigHeader string) (*fulfillment.Result, error)
}

type OrderLister interface {
	ListByEmail(ctx context.Context, email string) ([]domain.Order, error)
	ListBySession(ctx context.Context, sessionID string) ([]domain.Order, error)
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type", "X-Cart-Session"},
	}))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api")
	{
		api.POST("/cart/reserve", reserveHandler(deps.Reservation))
		api.DELETE("/cart/reserve", releaseHandler(deps.Reservation))

		api.GET("/cart", cartGetHandler(deps.Cart))
		api.POST("/cart/lines", cartAddLineHandler(deps.Cart))
		api.PATCH("/cart/lines", cartUpdateLineHandler(deps.Cart))
		api.DELETE("/cart/lines", cartRemoveLineHandler(deps.Cart))
		api.DELETE("/cart", cartClearHandler(deps.Cart))

		api.POST("/cart/merge", mergeHandler(deps.Merge))
		api.POST("/checkout/session", checkoutSessionHandler(deps.Checkout))
		api.POST("/webhooks/payment", webhookHandler(deps.Fulfillment, logger))
		api.GET("/orders", ordersHandler(deps.Orders))
	}

	return router
}
