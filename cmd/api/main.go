package main

import (
	"log"

	"github.com/joho/godotenv"

	"goflare.io/redemption/config"
	"goflare.io/redemption/migrations"
)

func main() {

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	appConfig, err := config.ProvideApplicationConfig()
	if err != nil {
		log.Fatal(err)
		return
	}
	if err = migrations.Up(appConfig.Postgres.URL); err != nil {
		log.Fatal(err)
		return
	}

	server, err := InitializeRedemptionService()
	if err != nil {
		log.Fatal(err)
		return
	}

	if err = server.Run(config.ServerStartPort); err != nil {
		log.Fatal(err.Error())
	}

}
