package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"goflare.io/redemption/config"
	"goflare.io/redemption/event"
	"goflare.io/redemption/handlers"
	"goflare.io/redemption/redemption"
)

type Server struct {
	echo          *echo.Echo
	DiscountCode  handlers.DiscountCodeHandler
	Reward        handlers.RewardHandler
	Redemption    handlers.RedemptionHandler
	dispatcher    *event.Dispatcher
	redemptions   redemption.Service
	sweepInterval time.Duration
	sweepDone     chan struct{}
	logger        *zap.Logger
}

func NewServer(
	DiscountCode handlers.DiscountCodeHandler,
	Reward handlers.RewardHandler,
	Redemption handlers.RedemptionHandler,
	dispatcher *event.Dispatcher,
	redemptions redemption.Service,
	appConfig *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		echo:          echo.New(),
		DiscountCode:  DiscountCode,
		Reward:        Reward,
		Redemption:    Redemption,
		dispatcher:    dispatcher,
		redemptions:   redemptions,
		sweepInterval: appConfig.Engine.SweepInterval,
		sweepDone:     make(chan struct{}),
		logger:        logger,
	}
}

// Start registers middlewares and routes and listens on the provided address.
func (s *Server) Start(address string) error {
	s.registerMiddlewares()
	s.registerRoutes()
	return s.echo.Start(address)
}

// Run starts the HTTP listener, the event dispatcher and the expiry sweep,
// then blocks until an interrupt or SIGTERM triggers a graceful shutdown.
func (s *Server) Run(address string) error {

	s.dispatcher.Run()
	go s.sweep()

	go func() {
		if err := s.Start(address); err != nil {
			s.echo.Logger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	close(s.sweepDone)
	s.dispatcher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}

// sweep periodically bulk-expires lapsed redemptions. Reads are already
// time-consistent without it; the sweep keeps listings and counters tidy.
func (s *Server) sweep() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.redemptions.ExpireLapsed(context.Background()); err != nil {
				s.logger.Warn("expiry sweep failed", zap.Error(err))
			}
		case <-s.sweepDone:
			return
		}
	}
}

func (s *Server) registerMiddlewares() {
	s.echo.Use(middleware.Recover())
}

func (s *Server) registerRoutes() {

	s.echo.POST("/discount-codes", s.DiscountCode.CreateDiscountCode)
	s.echo.GET("/discount-codes", s.DiscountCode.ListDiscountCodes)
	s.echo.GET("/discount-codes/:id", s.DiscountCode.GetDiscountCode)
	s.echo.PUT("/discount-codes/:id", s.DiscountCode.UpdateDiscountCode)
	s.echo.POST("/discount-codes/:id/deactivate", s.DiscountCode.DeactivateDiscountCode)
	s.echo.GET("/discount-codes/code/:code", s.DiscountCode.GetDiscountCodeByCode)
	s.echo.POST("/discount-codes/preview", s.DiscountCode.PreviewDiscountCode)
	s.echo.POST("/discount-codes/redeem", s.DiscountCode.RedeemDiscountCode)
	s.echo.GET("/discount-codes/:id/usages", s.DiscountCode.ListUsages)
	s.echo.POST("/discount-codes/usages/:id/reverse", s.DiscountCode.ReverseUsage)

	s.echo.POST("/rewards", s.Reward.CreateReward)
	s.echo.GET("/rewards", s.Reward.ListRewards)
	s.echo.GET("/rewards/:id", s.Reward.GetReward)
	s.echo.PUT("/rewards/:id", s.Reward.UpdateReward)
	s.echo.DELETE("/rewards/:id", s.Reward.DeleteReward)
	s.echo.POST("/rewards/:id/deactivate", s.Reward.DeactivateReward)
	s.echo.POST("/rewards/:id/redeem", s.Reward.RedeemReward)
	s.echo.POST("/rewards/verify-code", s.Redemption.VerifyCode)

	s.echo.GET("/redemptions", s.Redemption.ListRedemptions)
	s.echo.GET("/redemptions/:id", s.Redemption.GetRedemption)
	s.echo.PUT("/redemptions/:id/mark-used", s.Redemption.MarkUsed)
	s.echo.POST("/redemptions/:id/refund", s.Redemption.RefundRedemption)
	s.echo.POST("/redemptions/:id/cancel", s.Redemption.CancelRedemption)
}
