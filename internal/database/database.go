package database

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/redis/go-redis/v9"
)

// --- Variables Globales ---
var (
	Redis  *redis.Client
	Scylla *gocql.Session // peut rester nil si l'historique est désactivé
)

// --- Initialisation ---
func ConnectDatabases() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 1. Redis : obligatoire (tokens, réglages, sessions visiteurs)
	connectRedis(ctx)

	// 2. ScyllaDB : optionnel (historique des remises)
	connectScylla()

	log.Println("✅ Toutes les bases de données sont connectées")
}

// =============================================
// REDIS
// =============================================
func connectRedis(ctx context.Context) {
	Redis = redis.NewClient(&redis.Options{
		Addr:     os.Getenv("REDIS_HOST"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	if err := Redis.Ping(ctx).Err(); err != nil {
		log.Fatal("❌ Erreur connexion Redis:", err)
	}
	log.Println("✅ Connecté à Redis")
}

// =============================================
// SCYLLA DB (historique des remises)
// =============================================
func connectScylla() {
	hosts := os.Getenv("SCYLLA_HOSTS")
	keyspace := os.Getenv("SCYLLA_KEYSPACE")
	if hosts == "" || keyspace == "" {
		log.Println("⚠️ ScyllaDB non configuré — historique des remises désactivé")
		return
	}

	cluster := gocql.NewCluster(strings.Split(hosts, ",")...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 5 * time.Second
	cluster.NumConns = 4
	cluster.ReconnectInterval = 1 * time.Second
	if user := os.Getenv("SCYLLA_USERNAME"); user != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: user,
			Password: os.Getenv("SCYLLA_PASSWORD"),
		}
	}
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())

	session, err := cluster.CreateSession()
	if err != nil {
		// l'historique est consultatif : on démarre quand même
		log.Printf("⚠️ Connexion ScyllaDB impossible, historique désactivé: %v", err)
		return
	}

	// Note: La table doit être créée via scripts/scylladb_init.cql
	Scylla = session
	log.Printf("✅ Connecté à ScyllaDB (keyspace '%s')", keyspace)
}

// CloseDatabases ferme proprement les connexions au shutdown
func CloseDatabases() {
	if Scylla != nil {
		Scylla.Close()
		log.Println("🔌 Session ScyllaDB fermée")
	}
	if Redis != nil {
		if err := Redis.Close(); err != nil {
			log.Printf("⚠️ Fermeture Redis: %v", err)
		}
	}
}
