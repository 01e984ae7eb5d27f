// ops checks the infrastructure the game depends on: Postgres and Redis
// reachability with the same environment variables the monolith reads.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/Razorrag/reddy-anna-sub005/internal/config"
)

func main() {
	cfg := config.LoadMonolithConfig()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	failed := false

	if err := checkPostgres(ctx, cfg.Game.Database.DSN()); err != nil {
		fmt.Printf("❌ postgres: %v\n", err)
		failed = true
	} else {
		fmt.Println("✅ postgres reachable")
	}

	if err := checkRedis(ctx, cfg.Game.Redis.Addr()); err != nil {
		fmt.Printf("❌ redis: %v\n", err)
		failed = true
	} else {
		fmt.Println("✅ redis reachable")
	}

	if failed {
		os.Exit(1)
	}
}

func checkPostgres(ctx context.Context, dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.PingContext(ctx)
}

func checkRedis(ctx context.Context, addr string) error {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	return rdb.Ping(ctx).Err()
}
