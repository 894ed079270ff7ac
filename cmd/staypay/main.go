package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"staypay/internal/app/audit"
	"staypay/internal/app/commands"
	checkinapp "staypay/internal/app/handlers/checkin"
	invoiceapp "staypay/internal/app/handlers/invoice"
	"staypay/internal/app/middleware"
	appoutbox "staypay/internal/app/outbox"
	"staypay/internal/app/policies"
	"staypay/internal/app/queries"
	"staypay/internal/app/uow"
	domainbooking "staypay/internal/domain/booking"
	domaincode "staypay/internal/domain/checkincode"
	domainowner "staypay/internal/domain/owner"
	"staypay/internal/domain/shared/daterange"
	"staypay/internal/domain/shared/money"
	"staypay/internal/infra/broker/kafka"
	"staypay/internal/infra/config"
	mongodb "staypay/internal/infra/db/mongo"
	ginserver "staypay/internal/infra/http/gin"
	"staypay/internal/infra/obs"
	outboxinfra "staypay/internal/infra/outbox"
	"staypay/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	if cfg.StoreMode == "memory" {
		if path := getenv("FIXTURES_PATH", ""); path != "" {
			if err := app.loadFixtures(ctx, path, logger); err != nil {
				logger.Warn("fixtures load failed", "error", err, "path", path)
			}
		}
	}

	if app.worker != nil {
		go func() {
			if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
		if app.close != nil {
			app.close()
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "store", cfg.StoreMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	worker   *outboxinfra.Worker
	ready    func() error
	close    func()
	seed     seedTargets
}

// seedTargets is only populated in memory mode; fixtures go nowhere else.
type seedTargets struct {
	bookings *memory.BookingRepository
	codes    *memory.CodeRepository
	owners   *memory.OwnerRepository
}

func buildApplication(cfg config.Config, logger *slog.Logger) (application, error) {
	if cfg.StoreMode == "mongo" {
		return buildMongoApplication(cfg, logger)
	}
	return buildMemoryApplication(cfg, logger)
}

func buildMemoryApplication(cfg config.Config, logger *slog.Logger) (application, error) {
	bookingRepo := memory.NewBookingRepository()
	codeRepo := memory.NewCodeRepository()
	invoiceRepo := memory.NewInvoiceRepository()
	ownerRepo := memory.NewOwnerRepository()
	outboxStore := memory.NewOutbox()
	idStore := memory.NewIdempotencyStore()
	auditSink := memory.NewAuditSink()
	commission := memory.NewCommissionResolver(cfg.CommissionPercent)

	uowFactory := memory.Factory{
		BookingRepo: bookingRepo,
		CodeRepo:    codeRepo,
		InvoiceRepo: invoiceRepo,
		OwnerRepo:   ownerRepo,
	}

	handlers := buildHandlers(cfg, busDeps{
		factory:    uowFactory,
		outbox:     outboxStore,
		idStore:    idStore,
		audit:      auditSink,
		commission: commission,
		logger:     logger,
	})
	handlers.Audit = ginserver.AuditHandler{Store: auditSink}

	return application{
		handlers: handlers,
		ready:    func() error { return nil },
		seed: seedTargets{
			bookings: bookingRepo,
			codes:    codeRepo,
			owners:   ownerRepo,
		},
	}, nil
}

func buildMongoApplication(cfg config.Config, logger *slog.Logger) (application, error) {
	client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return application{}, fmt.Errorf("mongo connect: %w", err)
	}

	bookingRepo := mongodb.NewBookingRepository(client.DB)
	codeRepo := mongodb.NewCodeRepository(client.DB)
	invoiceRepo := mongodb.NewInvoiceRepository(client.DB)
	ownerRepo := mongodb.NewOwnerRepository(client.DB)
	outboxStore := outboxinfra.NewStore(client.DB)
	idStore := mongodb.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL)
	auditStore := mongodb.NewAuditStore(client.DB)

	uowFactory := mongodb.Factory{
		DB:          client.DB,
		BookingRepo: bookingRepo,
		CodeRepo:    codeRepo,
		InvoiceRepo: invoiceRepo,
		OwnerRepo:   ownerRepo,
	}

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		return application{}, fmt.Errorf("kafka producer: %w", err)
	}

	handlers := buildHandlers(cfg, busDeps{
		factory:    uowFactory,
		outbox:     outboxStore,
		idStore:    idStore,
		audit:      auditStore,
		commission: policies.StaticCommission{Percent: cfg.CommissionPercent},
		logger:     logger,
	})
	handlers.Audit = ginserver.AuditHandler{Store: auditStore}

	worker := &outboxinfra.Worker{
		Store:       outboxStore,
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
	}

	return application{
		handlers: handlers,
		worker:   worker,
		ready: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(ctx)
		},
		close: func() {
			if err := producer.Close(); err != nil {
				logger.Warn("kafka producer close failed", "error", err)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := client.Close(ctx); err != nil {
				logger.Warn("mongo disconnect failed", "error", err)
			}
		},
	}, nil
}

type busDeps struct {
	factory    uow.UoWFactory
	outbox     appoutbox.Outbox
	idStore    middleware.IdempotencyStore
	audit      audit.Recorder
	commission policies.CommissionPort
	logger     *slog.Logger
}

func buildHandlers(cfg config.Config, deps busDeps) ginserver.Handlers {
	encoder := appoutbox.JSONEventEncoder{}
	prefixes := invoiceapp.ReferencePrefixes{
		CustomerInvoice: cfg.InvoicePrefix,
		OwnerClaim:      cfg.ClaimPrefix,
		Receipt:         cfg.ReceiptPrefix,
		PaymentRef:      cfg.PaymentPrefix,
	}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, checkinapp.ConfirmCheckInCommand{}.Key(), &checkinapp.ConfirmCheckInHandler{
		UoWFactory: deps.factory,
		Outbox:     deps.outbox,
		Encoder:    encoder,
		Audit:      deps.audit,
		Logger:     deps.logger,
	})
	commands.RegisterHandler(commandBus, checkinapp.ConfirmCheckOutCommand{}.Key(), &checkinapp.ConfirmCheckOutHandler{
		UoWFactory: deps.factory,
		Outbox:     deps.outbox,
		Encoder:    encoder,
		Audit:      deps.audit,
		Logger:     deps.logger,
	})
	commands.RegisterHandler(commandBus, checkinapp.CancelBookingCommand{}.Key(), &checkinapp.CancelBookingHandler{
		UoWFactory: deps.factory,
		Outbox:     deps.outbox,
		Encoder:    encoder,
		Audit:      deps.audit,
		Logger:     deps.logger,
	})
	commands.RegisterHandler(commandBus, invoiceapp.CreateOrSubmitCommand{}.Key(), &invoiceapp.CreateOrSubmitHandler{
		UoWFactory:        deps.factory,
		Commission:        deps.commission,
		DefaultTaxPercent: cfg.TaxPercent,
		Outbox:            deps.outbox,
		Encoder:           encoder,
		Audit:             deps.audit,
		Logger:            deps.logger,
	})
	commands.RegisterHandler(commandBus, invoiceapp.VerifyCommand{}.Key(), &invoiceapp.VerifyHandler{
		UoWFactory: deps.factory,
		Outbox:     deps.outbox,
		Encoder:    encoder,
		Audit:      deps.audit,
		Logger:     deps.logger,
	})
	commands.RegisterHandler(commandBus, invoiceapp.ApproveCommand{}.Key(), &invoiceapp.ApproveHandler{
		UoWFactory:        deps.factory,
		Commission:        deps.commission,
		DefaultTaxPercent: cfg.TaxPercent,
		Prefixes:          prefixes,
		Outbox:            deps.outbox,
		Encoder:           encoder,
		Audit:             deps.audit,
		Logger:            deps.logger,
	})
	commands.RegisterHandler(commandBus, invoiceapp.RejectCommand{}.Key(), &invoiceapp.RejectHandler{
		UoWFactory: deps.factory,
		Outbox:     deps.outbox,
		Encoder:    encoder,
		Audit:      deps.audit,
		Logger:     deps.logger,
	})
	commands.RegisterHandler(commandBus, invoiceapp.MarkPaidCommand{}.Key(), &invoiceapp.MarkPaidHandler{
		UoWFactory: deps.factory,
		Prefixes:   prefixes,
		Outbox:     deps.outbox,
		Encoder:    encoder,
		Audit:      deps.audit,
		Logger:     deps.logger,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, checkinapp.PreviewCodeQuery{}.Key(), &checkinapp.PreviewCodeHandler{
		UoWFactory: deps.factory,
	})
	queries.RegisterHandler(queryBus, invoiceapp.GetInvoiceQuery{}.Key(), &invoiceapp.GetInvoiceHandler{
		UoWFactory: deps.factory,
	})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.RetryOnConflict(cfg.ConflictRetries),
		middleware.Idempotency(deps.idStore, nil),
		middleware.Transaction(deps.factory, nil),
		middleware.OutboxFlush(deps.outbox),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	return ginserver.Handlers{
		Checkin: ginserver.CheckinHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
		},
		Invoice: ginserver.InvoiceHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
		},
	}
}

type fixtureFile struct {
	Owners   []fixtureOwner   `json:"owners"`
	Bookings []fixtureBooking `json:"bookings"`
}

type fixtureOwner struct {
	ID     string                    `json:"id"`
	Name   string                    `json:"name"`
	Phone  string                    `json:"phone"`
	Payout domainowner.PayoutProfile `json:"payout"`
}

type fixtureBooking struct {
	ID            string    `json:"id"`
	PropertyID    string    `json:"property_id"`
	OwnerID       string    `json:"owner_id"`
	GuestName     string    `json:"guest_name"`
	GuestPhone    string    `json:"guest_phone"`
	CustomerID    string    `json:"customer_id"`
	CheckIn       time.Time `json:"check_in"`
	CheckOut      time.Time `json:"check_out"`
	TotalAmount   int64     `json:"total_amount"`
	TransportFare int64     `json:"transport_fare"`
	State         string    `json:"state"`
	Currency      string    `json:"currency"`
}

// loadFixtures seeds the in-memory store for local development. Each
// booking gets a fresh check-in code; the visible code is logged so it can
// be exercised against the preview and check-in endpoints.
func (a application) loadFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	if a.seed.bookings == nil {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file fixtureFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return err
	}
	for _, o := range file.Owners {
		a.seed.owners.Put(domainowner.Owner{ID: o.ID, Name: o.Name, Phone: o.Phone, Payout: o.Payout})
	}
	now := time.Now().UTC()
	for _, fb := range file.Bookings {
		stay, err := daterange.New(fb.CheckIn, fb.CheckOut)
		if err != nil {
			return fmt.Errorf("fixture booking %s: %w", fb.ID, err)
		}
		state := domainbooking.BookingState(fb.State)
		if state == "" {
			state = domainbooking.StateConfirmed
		}
		currency := fb.Currency
		if currency == "" {
			currency = "NGN"
		}
		b := &domainbooking.Booking{
			ID:            domainbooking.BookingID(fb.ID),
			PropertyID:    fb.PropertyID,
			OwnerID:       fb.OwnerID,
			GuestName:     fb.GuestName,
			GuestPhone:    fb.GuestPhone,
			CustomerID:    fb.CustomerID,
			Stay:          stay,
			TotalAmount:   money.Money{Amount: fb.TotalAmount, Currency: currency},
			TransportFare: money.Money{Amount: fb.TransportFare, Currency: currency},
			State:         state,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := a.seed.bookings.Save(ctx, b); err != nil {
			return err
		}
		code := domaincode.New(fb.ID, now)
		if err := a.seed.codes.Save(ctx, code); err != nil {
			return err
		}
		logger.Info("fixture booking seeded", "booking_id", fb.ID, "state", state, "code", code.Visible)
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
