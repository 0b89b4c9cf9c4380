package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/youruser/srginventory/internal/api"
	"github.com/youruser/srginventory/internal/app"
	"github.com/youruser/srginventory/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	gin.SetMode(cfg.GinMode)

	a, err := app.New(context.Background(), cfg, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()

	if n, err := a.Store.CountCards(context.Background()); err == nil && n == 0 {
		log.Println("catalogue is empty; POST /api/sync/database to load it")
	}

	r := gin.Default()
	api.RegisterRoutes(r, api.NewHandler(a))

	log.Println("starting server on http://localhost:" + cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
