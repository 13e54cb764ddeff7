package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/linemk/lego-store/internal/app"
	"github.com/linemk/lego-store/internal/app/handlers"
	"github.com/linemk/lego-store/internal/config"
	"github.com/linemk/lego-store/internal/lib/logger"
	"github.com/linemk/lego-store/internal/lib/logger/handlers/urllog"
	"github.com/linemk/lego-store/internal/receipt"
	"github.com/linemk/lego-store/internal/service"
	"github.com/linemk/lego-store/internal/session"
	"github.com/linemk/lego-store/internal/storage"
	"github.com/pkg/errors"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// объект приложения: конфиг, БД, хранилище сессий, публикатор событий
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer func() {
		if err := application.Close(); err != nil {
			log.Error("failed to close app", slog.Any("error", err))
		}
	}()

	sessions, err := session.NewManager(log, application.Sessions, session.Options{
		Secret:     cfg.Session.Secret,
		TTL:        cfg.Session.TTL,
		CookieName: cfg.Session.CookieName,
		Secure:     cfg.Session.Secure,
	})
	if err != nil {
		panic(errors.Wrap(err, "failed to initialize sessions"))
	}

	views, err := handlers.NewViews()
	if err != nil {
		panic(errors.Wrap(err, "failed to parse templates"))
	}

	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(application.DB)
	productRepo := storage.NewProductRepository(application.DB)
	cartRepo := storage.NewCartRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)

	accountService := service.NewAccountService(log, userRepo)
	catalogService := service.NewCatalogService(log, productRepo)
	cartService := service.NewCartService(log, cartRepo)
	checkoutService := service.NewCheckoutService(log, application.DB, cartRepo, productRepo, orderRepo, application.Publisher)
	historyService := service.NewHistoryService(log, orderRepo)
	renderer := receipt.NewRenderer(cfg.Receipt.StoreName, cfg.Receipt.Footer)

	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)

	router.Get("/healthz", handlers.HealthHandler(log, application.DB))

	// публичные страницы
	router.Get("/", handlers.HomeHandler(log, views, catalogService, sessions))
	router.Get("/products/{id}", handlers.ProductHandler(log, views, catalogService, sessions))
	router.Get("/login", handlers.LoginPageHandler(log, views, sessions))
	router.Post("/login", handlers.LoginHandler(log, views, accountService, sessions))
	router.Get("/register", handlers.RegisterPageHandler(log, views, sessions))
	router.Post("/register", handlers.RegisterHandler(log, views, accountService, sessions))
	router.Get("/logout", handlers.LogoutHandler(log, sessions))
	router.Post("/logout", handlers.LogoutHandler(log, sessions))

	// страницы, доступные только после входа
	auth := session.RequireAuth(sessions, log)
	router.Get("/cart", auth(handlers.CartHandler(log, views, cartService)))
	router.Post("/cart/add", auth(handlers.AddToCartHandler(log, views, cartService)))
	router.Post("/cart/update", auth(handlers.UpdateCartHandler(log, views, cartService)))
	router.Post("/cart/remove", auth(handlers.RemoveFromCartHandler(log, views, cartService)))
	router.Post("/checkout", auth(handlers.CheckoutHandler(log, views, checkoutService, cartService)))
	router.Get("/orders", auth(handlers.OrdersHandler(log, views, historyService)))
	router.Get("/orders/{id}", auth(handlers.OrderHandler(log, views, historyService)))
	router.Get("/orders/{id}/receipt", auth(handlers.ReceiptHandler(log, views, historyService, renderer)))

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}
