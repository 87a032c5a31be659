package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"flashoff_back_end/internal/config"
	"flashoff_back_end/internal/database"
	"flashoff_back_end/internal/handlers"
	"flashoff_back_end/internal/routes"
	"flashoff_back_end/internal/settings"
	"flashoff_back_end/internal/shopify"
)

func main() {
	config.Load()

	if os.Getenv("SHOPIFY_API_KEY") == "" || os.Getenv("SHOPIFY_API_SECRET") == "" {
		log.Fatal("❌ SHOPIFY_API_KEY et SHOPIFY_API_SECRET sont requis")
	}
	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		log.Fatal("❌ SESSION_SECRET est requis pour signer les cookies OAuth")
	}

	database.ConnectDatabases()
	defer database.CloseDatabases()

	warmupRedisCache()

	var history handlers.HistoryStore
	if database.Scylla != nil {
		history = settings.NewScyllaHistory(database.Scylla)
	}

	api := handlers.NewAPI(
		settings.NewRedisStore(database.Redis),
		history,
		shopify.NewTokenStore(database.Redis),
		database.Redis,
		sessionSecret,
	)

	r := gin.Default()
	routes.RegisterRoutes(r, api)

	port := config.Getenv("PORT", "8080")
	log.Println("🚀 Serveur FlashOff lancé sur le port", port)
	r.Run(":" + port)
}

// warmupRedisCache pré-chauffe le cache Redis pour éviter la latence du premier appel
func warmupRedisCache() {
	ctx := context.Background()
	if err := database.Redis.Ping(ctx).Err(); err == nil {
		log.Println("✅ Cache Redis pré-chauffé")
	}
}
