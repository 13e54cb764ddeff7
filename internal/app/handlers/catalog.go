package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/lego-store/internal/service"
)

// HomeHandler показывает список товаров, новые первыми
func HomeHandler(log *slog.Logger, views *Views, catalog service.CatalogService, sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.HomeHandler"
		logger := log.With(slog.String("op", op))
		user := currentUser(logger, sessions, r)

		products, err := catalog.ListProducts(r.Context())
		if err != nil {
			logger.Error("failed to list products", slog.Any("error", err))
			status, msg := statusFor(err)
			views.renderError(w, logger, status, user, msg)
			return
		}

		views.render(w, logger, http.StatusOK, "index.html", Page{Title: "Products", User: user, Data: products})
	}
}

// ProductHandler обрабатывает запрос GET /products/{id}
func ProductHandler(log *slog.Logger, views *Views, catalog service.CatalogService, sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ProductHandler"
		logger := log.With(slog.String("op", op))
		user := currentUser(logger, sessions, r)

		id := parseID(chi.URLParam(r, "id"))
		if id == 0 {
			views.renderError(w, logger, http.StatusNotFound, user, "Product not found")
			return
		}

		product, err := catalog.GetProduct(r.Context(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				views.renderError(w, logger, http.StatusNotFound, user, "Product not found")
				return
			}
			logger.Error("failed to get product", slog.Int64("productID", id), slog.Any("error", err))
			status, msg := statusFor(err)
			views.renderError(w, logger, status, user, msg)
			return
		}

		views.render(w, logger, http.StatusOK, "product.html", Page{Title: product.Name, User: user, Data: product})
	}
}
