package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/suilfg/staking-engine/api"
	"github.com/suilfg/staking-engine/core"
	"github.com/suilfg/staking-engine/env"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println(".env file not found")
	}
	envData := env.New()
	engine := core.NewEngine(envData)
	engineApi := api.New(envData, engine, engine.Logger())
	go engineApi.Run()
	engine.Run()
}
