//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"goflare.io/redemption/config"
	"goflare.io/redemption/discountcode"
	"goflare.io/redemption/driver"
	"goflare.io/redemption/event"
	"goflare.io/redemption/handlers"
	"goflare.io/redemption/ledger"
	"goflare.io/redemption/member"
	"goflare.io/redemption/redemption"
	"goflare.io/redemption/reward"
	"goflare.io/redemption/server"
)

func InitializeRedemptionService() (*server.Server, error) {

	wire.Build(
		config.ProvideApplicationConfig,
		config.NewLogger,
		config.ProvidePostgresConn,
		config.ProvideEmber,
		config.ProvideIgnite,
		driver.NewTransactionManager,
		event.NewRepository,
		provideDispatcher,
		ledger.NewRepository,
		member.NewRepository,
		discountcode.NewRepository,
		discountcode.NewService,
		reward.NewRepository,
		reward.NewService,
		redemption.NewRepository,
		redemption.NewService,
		handlers.NewDiscountCodeHandler,
		handlers.NewRewardHandler,
		handlers.NewRedemptionHandler,
		server.NewServer,
	)

	return &server.Server{}, nil
}
