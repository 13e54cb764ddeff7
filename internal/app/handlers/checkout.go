package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/linemk/lego-store/internal/service"
	"github.com/linemk/lego-store/internal/session"
)

// CheckoutHandler оформляет заказ из корзины. При ошибке корзина показывается снова с сообщением
func CheckoutHandler(log *slog.Logger, views *Views, checkout service.CheckoutService, carts service.CartService) session.AuthedHandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		const op = "handlers.CheckoutHandler"
		logger := log.With(slog.String("op", op), slog.Int64("userID", s.UserID))

		order, err := checkout.Checkout(r.Context(), s.UserID)
		if err != nil {
			status, msg := statusFor(err)
			if status == http.StatusInternalServerError {
				logger.Error("checkout failed", slog.Any("error", err))
			} else {
				logger.Warn("checkout rejected", slog.Any("error", err))
			}

			cart, cartErr := carts.GetCart(r.Context(), s.UserID)
			if cartErr != nil {
				logger.Error("failed to reload cart", slog.Any("error", cartErr))
				views.renderError(w, logger, status, s, msg)
				return
			}
			views.render(w, logger, status, "cart.html", Page{Title: "Cart", User: s, Error: msg, Data: cart})
			return
		}

		http.Redirect(w, r, fmt.Sprintf("/orders/%d", order.ID), http.StatusSeeOther)
	}
}
