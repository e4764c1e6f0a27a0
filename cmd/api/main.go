package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/ariefcatur/go-commerce-checkout/internal/billing"
	"github.com/ariefcatur/go-commerce-checkout/internal/config"
	"github.com/ariefcatur/go-commerce-checkout/internal/httpx"
	kafkax "github.com/ariefcatur/go-commerce-checkout/internal/kafka"
	"github.com/ariefcatur/go-commerce-checkout/internal/orders"
	"github.com/ariefcatur/go-commerce-checkout/internal/postgres"
	"github.com/ariefcatur/go-commerce-checkout/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis: invalidator di-inject, bukan singleton proses
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	cache := redisx.NewInvalidator(rdb)

	// Kafka producers (satu per topic)
	pPlaced := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024)
	pPlaced.Start(ctx)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatusChanged, 1024)
	pStatus.Start(ctx)
	pInvoice := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicInvoiceIssued, 1024)
	pInvoice.Start(ctx)

	// Core wiring
	orderRepo := &orders.Repo{DB: db}
	coord := &orders.Coordinator{
		Repo:          orderRepo,
		Cache:         cache,
		Placed:        pPlaced,
		StatusChanged: pStatus,
		Service:       cfg.ServiceName,
		LockWait:      cfg.LockTimeout,
	}
	issuer := &billing.Issuer{
		Repo:     &billing.Repo{DB: db},
		Orders:   orderRepo,
		Cache:    cache,
		Redis:    rdb,
		Producer: pInvoice,
		Service:  cfg.ServiceName,
	}

	router := httpx.NewRouter()
	(&httpx.OrdersHandler{Coord: coord}).Register(router)
	(&httpx.InvoicesHandler{Issuer: issuer}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sig:
		case <-gctx.Done():
		}
		log.Println("shutting down...")
		shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shCancel()
		return srv.Shutdown(shCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("exit: %v", err)
	}

	// flush producer lalu stop loop-nya
	pPlaced.Close()
	pStatus.Close()
	pInvoice.Close()
	cancel()
	pPlaced.WaitClosed()
	pStatus.WaitClosed()
	pInvoice.WaitClosed()
}
