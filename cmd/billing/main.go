package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-commerce-checkout/internal/billing"
	"github.com/ariefcatur/go-commerce-checkout/internal/config"
	kafkax "github.com/ariefcatur/go-commerce-checkout/internal/kafka"
	"github.com/ariefcatur/go-commerce-checkout/internal/orders"
	"github.com/ariefcatur/go-commerce-checkout/internal/postgres"
	"github.com/ariefcatur/go-commerce-checkout/internal/redisx"
)

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Producer: invoice.issued
	pInv := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicInvoiceIssued, 1024)
	pInv.Start(ctx)

	issuer := &billing.Issuer{
		Repo:     &billing.Repo{DB: db},
		Orders:   &orders.Repo{DB: db},
		Cache:    redisx.NewInvalidator(rdb),
		Redis:    rdb,
		Producer: pInv,
		Service:  cfg.ServiceName + "-billing",
	}

	// Consumer: auto-issue invoice utk tiap order.placed
	group := getenv("BILLING_GROUP", "billing-svc")
	workers := mustAtoi(os.Getenv("BILLING_WORKERS"), "8")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicOrderPlaced, workers)

	go func() {
		log.Printf("billing consumer started: group=%s topic=%s workers=%d", group, orders.TopicOrderPlaced, workers)
		if err := cons.Start(ctx, issuer.HandleOrderPlaced); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
	pInv.Close()
	pInv.WaitClosed()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
