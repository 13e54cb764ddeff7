package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/linemk/lego-store/internal/service"
	"github.com/linemk/lego-store/internal/session"
)

// AddItemForm - форма добавления товара в корзину
type AddItemForm struct {
	ProductID int64 `validate:"required,gt=0"`
}

// UpdateItemForm - форма изменения количества; ноль и меньше удаляют позицию
type UpdateItemForm struct {
	ItemID   int64 `validate:"required,gt=0"`
	Quantity int
}

// RemoveItemForm - форма удаления позиции
type RemoveItemForm struct {
	ItemID int64 `validate:"required,gt=0"`
}

// CartHandler показывает корзину пользователя с итогом
func CartHandler(log *slog.Logger, views *Views, carts service.CartService) session.AuthedHandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		const op = "handlers.CartHandler"
		logger := log.With(slog.String("op", op), slog.Int64("userID", s.UserID))

		cart, err := carts.GetCart(r.Context(), s.UserID)
		if err != nil {
			logger.Error("failed to load cart", slog.Any("error", err))
			status, msg := statusFor(err)
			views.renderError(w, logger, status, s, msg)
			return
		}

		views.render(w, logger, http.StatusOK, "cart.html", Page{Title: "Cart", User: s, Data: cart})
	}
}

// AddToCartHandler обрабатывает запрос POST /cart/add
func AddToCartHandler(log *slog.Logger, views *Views, carts service.CartService) session.AuthedHandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		const op = "handlers.AddToCartHandler"
		logger := log.With(slog.String("op", op), slog.Int64("userID", s.UserID))

		if err := r.ParseForm(); err != nil {
			logger.Error("invalid request: form parsing error", slog.Any("error", err))
			views.renderError(w, logger, http.StatusBadRequest, s, "Invalid request")
			return
		}
		form := AddItemForm{ProductID: parseID(r.PostForm.Get("product_id"))}
		if err := validate.Struct(form); err != nil {
			logger.Warn("invalid request: validation error", slog.Any("error", err))
			views.renderError(w, logger, http.StatusBadRequest, s, "Invalid product")
			return
		}

		if err := carts.AddItem(r.Context(), s.UserID, form.ProductID); err != nil {
			status, msg := statusFor(err)
			if status == http.StatusInternalServerError {
				logger.Error("failed to add item", slog.Any("error", err))
			}
			views.renderError(w, logger, status, s, msg)
			return
		}

		http.Redirect(w, r, "/cart", http.StatusSeeOther)
	}
}

// UpdateCartHandler обрабатывает запрос POST /cart/update
func UpdateCartHandler(log *slog.Logger, views *Views, carts service.CartService) session.AuthedHandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		const op = "handlers.UpdateCartHandler"
		logger := log.With(slog.String("op", op), slog.Int64("userID", s.UserID))

		if err := r.ParseForm(); err != nil {
			logger.Error("invalid request: form parsing error", slog.Any("error", err))
			views.renderError(w, logger, http.StatusBadRequest, s, "Invalid request")
			return
		}
		quantity, err := strconv.Atoi(r.PostForm.Get("quantity"))
		if err != nil {
			logger.Warn("invalid request: bad quantity", slog.Any("error", err))
			views.renderError(w, logger, http.StatusBadRequest, s, "Invalid quantity")
			return
		}
		form := UpdateItemForm{ItemID: parseID(r.PostForm.Get("item_id")), Quantity: quantity}
		if err := validate.Struct(form); err != nil {
			logger.Warn("invalid request: validation error", slog.Any("error", err))
			views.renderError(w, logger, http.StatusBadRequest, s, "Invalid cart item")
			return
		}

		if err := carts.UpdateQuantity(r.Context(), s.UserID, form.ItemID, form.Quantity); err != nil {
			status, msg := statusFor(err)
			if status == http.StatusInternalServerError {
				logger.Error("failed to update item", slog.Any("error", err))
			}
			views.renderError(w, logger, status, s, msg)
			return
		}

		http.Redirect(w, r, "/cart", http.StatusSeeOther)
	}
}

// RemoveFromCartHandler обрабатывает запрос POST /cart/remove
func RemoveFromCartHandler(log *slog.Logger, views *Views, carts service.CartService) session.AuthedHandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		const op = "handlers.RemoveFromCartHandler"
		logger := log.With(slog.String("op", op), slog.Int64("userID", s.UserID))

		if err := r.ParseForm(); err != nil {
			logger.Error("invalid request: form parsing error", slog.Any("error", err))
			views.renderError(w, logger, http.StatusBadRequest, s, "Invalid request")
			return
		}
		form := RemoveItemForm{ItemID: parseID(r.PostForm.Get("item_id"))}
		if err := validate.Struct(form); err != nil {
			logger.Warn("invalid request: validation error", slog.Any("error", err))
			views.renderError(w, logger, http.StatusBadRequest, s, "Invalid cart item")
			return
		}

		if err := carts.RemoveItem(r.Context(), s.UserID, form.ItemID); err != nil {
			status, msg := statusFor(err)
			if status == http.StatusInternalServerError {
				logger.Error("failed to remove item", slog.Any("error", err))
			}
			views.renderError(w, logger, status, s, msg)
			return
		}

		http.Redirect(w, r, "/cart", http.StatusSeeOther)
	}
}
