package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/milkroute/milkroute/internal/billing"
	billingdomain "github.com/milkroute/milkroute/internal/billing/domain"
	"github.com/milkroute/milkroute/internal/clock"
	"github.com/milkroute/milkroute/internal/config"
	"github.com/milkroute/milkroute/internal/customer"
	customerdomain "github.com/milkroute/milkroute/internal/customer/domain"
	"github.com/milkroute/milkroute/internal/delivery"
	deliverydomain "github.com/milkroute/milkroute/internal/delivery/domain"
	"github.com/milkroute/milkroute/internal/ledger"
	ledgerdomain "github.com/milkroute/milkroute/internal/ledger/domain"
	"github.com/milkroute/milkroute/internal/observability/metrics"
	"github.com/milkroute/milkroute/internal/pricing"
	pricingdomain "github.com/milkroute/milkroute/internal/pricing/domain"
	"github.com/milkroute/milkroute/internal/product"
	productdomain "github.com/milkroute/milkroute/internal/product/domain"
	"github.com/milkroute/milkroute/internal/scheduler"
	"github.com/milkroute/milkroute/internal/subscription"
	subscriptiondomain "github.com/milkroute/milkroute/internal/subscription/domain"
	"github.com/milkroute/milkroute/internal/vacation"
	vacationdomain "github.com/milkroute/milkroute/internal/vacation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	customer.Module,
	product.Module,
	subscription.Module,
	vacation.Module,
	pricing.Module,
	delivery.Module,
	ledger.Module,
	billing.Module,
	scheduler.Module,
	fx.Provide(metrics.NewHTTPMetrics),
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(httpMetrics *metrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(httpMetrics *metrics.HTTPMetrics) *gin.Engine {
	return NewEngine(httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	clock           clock.Clock
	customerSvc     customerdomain.Service
	productSvc      productdomain.Service
	subscriptionSvc subscriptiondomain.Service
	vacationSvc     vacationdomain.Service
	pricingSvc      pricingdomain.Service
	deliverySvc     deliverydomain.Service
	ledgerSvc       ledgerdomain.Service
	billingSvc      billingdomain.Service
	scheduler       *scheduler.Scheduler
}

type ServerParams struct {
	fx.In

	Engine          *gin.Engine
	Clock           clock.Clock
	CustomerSvc     customerdomain.Service
	ProductSvc      productdomain.Service
	SubscriptionSvc subscriptiondomain.Service
	VacationSvc     vacationdomain.Service
	PricingSvc      pricingdomain.Service
	DeliverySvc     deliverydomain.Service
	LedgerSvc       ledgerdomain.Service
	BillingSvc      billingdomain.Service
	Scheduler       *scheduler.Scheduler
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:          p.Engine,
		clock:           p.Clock,
		customerSvc:     p.CustomerSvc,
		productSvc:      p.ProductSvc,
		subscriptionSvc: p.SubscriptionSvc,
		vacationSvc:     p.VacationSvc,
		pricingSvc:      p.PricingSvc,
		deliverySvc:     p.DeliverySvc,
		ledgerSvc:       p.LedgerSvc,
		billingSvc:      p.BillingSvc,
		scheduler:       p.Scheduler,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	v1 := s.engine.Group("/v1")

	v1.POST("/customers", s.CreateCustomer)
	v1.GET("/customers", s.ListCustomers)
	v1.GET("/customers/:id", s.GetCustomer)
	v1.DELETE("/customers/:id", s.DeactivateCustomer)
	v1.GET("/customers/:id/subscriptions", s.ListCustomerSubscriptions)
	v1.GET("/customers/:id/vacation-holds", s.ListCustomerHolds)
	v1.GET("/customers/:id/invoices", s.ListCustomerInvoices)
	v1.GET("/customers/:id/ledger", s.ListCustomerLedger)
	v1.GET("/customers/:id/reconciliation", s.ReconcileCustomer)

	v1.POST("/products", s.CreateProduct)
	v1.GET("/products", s.ListProducts)
	v1.GET("/products/:id", s.GetProduct)

	v1.POST("/subscriptions", s.CreateSubscription)
	v1.PATCH("/subscriptions/:id", s.UpdateSubscriptionQuantity)
	v1.DELETE("/subscriptions/:id", s.DeactivateSubscription)

	v1.POST("/vacation-holds", s.CreateVacationHold)
	v1.DELETE("/vacation-holds/:id", s.DeleteVacationHold)

	v1.POST("/price-rules", s.CreatePriceRule)
	v1.GET("/price-rules", s.ListPriceRules)
	v1.DELETE("/price-rules/:id", s.DeactivatePriceRule)
	v1.POST("/price-rules/resolve", s.ResolvePrice)

	v1.POST("/delivery-runs", s.RunDeliverySchedule)
	v1.GET("/deliveries", s.ListDeliveries)
	v1.GET("/deliveries/:id", s.GetDelivery)
	v1.POST("/deliveries/:id/deliver", s.MarkDeliveryDelivered)
	v1.POST("/deliveries/:id/miss", s.MarkDeliveryMissed)
	v1.POST("/deliveries/:id/partial", s.MarkDeliveryPartial)

	v1.POST("/invoices", s.CreateInvoice)
	v1.GET("/invoices/:id", s.GetInvoice)
	v1.POST("/invoices/:id/payments", s.RecordPayment)
	v1.GET("/invoices/:id/payments", s.ListInvoicePayments)
	v1.POST("/invoices/overdue-sweep", s.SweepOverdueInvoices)
}
