package handlers

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/lego-store/internal/domain/models"
	"github.com/linemk/lego-store/internal/receipt"
	"github.com/linemk/lego-store/internal/service"
	"github.com/linemk/lego-store/internal/session"
)

// ReceiptRenderer формирует документ чека по заказу
type ReceiptRenderer interface {
	Render(w io.Writer, order *models.Order) error
}

// OrdersHandler показывает историю заказов, новые первыми
func OrdersHandler(log *slog.Logger, views *Views, history service.HistoryService) session.AuthedHandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		const op = "handlers.OrdersHandler"
		logger := log.With(slog.String("op", op), slog.Int64("userID", s.UserID))

		orders, err := history.ListOrders(r.Context(), s.UserID)
		if err != nil {
			logger.Error("failed to list orders", slog.Any("error", err))
			status, msg := statusFor(err)
			views.renderError(w, logger, status, s, msg)
			return
		}

		views.render(w, logger, http.StatusOK, "orders.html", Page{Title: "Orders", User: s, Data: orders})
	}
}

// OrderHandler обрабатывает запрос GET /orders/{id}: билет заказа
func OrderHandler(log *slog.Logger, views *Views, history service.HistoryService) session.AuthedHandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		const op = "handlers.OrderHandler"
		logger := log.With(slog.String("op", op), slog.Int64("userID", s.UserID))

		order, ok := loadOrder(logger, views, history, w, r, s)
		if !ok {
			return
		}

		views.render(w, logger, http.StatusOK, "order.html", Page{Title: "Ticket #" + strconv.FormatInt(order.ID, 10), User: s, Data: order})
	}
}

// ReceiptHandler обрабатывает запрос GET /orders/{id}/receipt: PDF для скачивания
func ReceiptHandler(log *slog.Logger, views *Views, history service.HistoryService, renderer ReceiptRenderer) session.AuthedHandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		const op = "handlers.ReceiptHandler"
		logger := log.With(slog.String("op", op), slog.Int64("userID", s.UserID))

		order, ok := loadOrder(logger, views, history, w, r, s)
		if !ok {
			return
		}

		var buf bytes.Buffer
		if err := renderer.Render(&buf, order); err != nil {
			logger.Error("failed to render receipt", slog.Int64("orderID", order.ID), slog.Any("error", err))
			views.renderError(w, logger, http.StatusInternalServerError, s, "Could not generate the receipt")
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": receipt.FileName(order)}))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		if _, err := buf.WriteTo(w); err != nil {
			logger.Error("failed to write receipt", slog.Any("error", err))
		}
	}
}

// loadOrder читает заказ из пути запроса. Чужой и несуществующий заказ выглядят одинаково - 404
func loadOrder(
	logger *slog.Logger,
	views *Views,
	history service.HistoryService,
	w http.ResponseWriter,
	r *http.Request,
	s *session.Session,
) (*models.Order, bool) {
	id := parseID(chi.URLParam(r, "id"))
	if id == 0 {
		views.renderError(w, logger, http.StatusNotFound, s, "Order not found")
		return nil, false
	}

	order, err := history.GetOrder(r.Context(), id, s.UserID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			views.renderError(w, logger, http.StatusNotFound, s, "Order not found")
			return nil, false
		}
		logger.Error("failed to get order", slog.Int64("orderID", id), slog.Any("error", err))
		status, msg := statusFor(err)
		views.renderError(w, logger, status, s, msg)
		return nil, false
	}
	return order, true
}
