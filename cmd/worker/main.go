package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"presence/internal/config"
	"presence/internal/presence"
	"presence/internal/queue"
	"presence/internal/store"
)

// Worker consumes scan messages and maintains the per-day status counters
// backing the dashboard tile. Listings and summaries always read the record
// store directly; losing these counters loses nothing authoritative.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "presence:scans")
	}

	repo := presence.NewRepository(db.Client)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for scan messages...")
	for msg := range messages {
		if msg.Type != "scan" {
			continue
		}

		id := string(msg.Body)
		rec, err := repo.GetRecord(ctx, id)
		if err != nil {
			log.Printf("fetch record %s failed: %v", id, err)
			continue
		}

		day := rec.ScanTime.UTC().Format("2006-01-02")
		if err := redisClient.IncrDailyStatus(ctx, day, string(rec.Status)); err != nil {
			log.Printf("counter update failed for %s (%s/%s): %v", id, day, rec.Status, err)
			continue
		}
		log.Printf("record %s counted: %s %s", id, day, rec.Status)

		time.Sleep(10 * time.Millisecond)
	}

	log.Println("worker stopped")
}
