package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tcc/restaurant-services/internal/entities"
	"github.com/tcc/restaurant-services/pkg/utils"
)

type OrderService interface {
	List(ctx context.Context) ([]entities.Order, error)
	Get(ctx context.Context, id int64) (entities.Order, error)
	Save(ctx context.Context, order entities.Order) (entities.Order, error)
	UpdateStatus(ctx context.Context, id int64, status string) (entities.Order, error)
	Delete(ctx context.Context, id int64) error
	DelayedOrders(ctx context.Context) ([]entities.Order, error)
}

// DelayedScanner is the on-demand face of the scheduled task.
type DelayedScanner interface {
	Run(ctx context.Context) (int, error)
}

type OrderHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      OrderService
	scanner  DelayedScanner
	now      func() time.Time
}

func NewOrderHandler(logger *slog.Logger, svc OrderService, scanner DelayedScanner) *OrderHandler {
	return &OrderHandler{
		logger:   logger.With(slog.String("handler", "orders")),
		validate: validator.New(),
		svc:      svc,
		scanner:  scanner,
		now:      time.Now,
	}
}

func (h *OrderHandler) Init(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/delayed-view", h.DelayedView)
		r.Post("/trigger-scheduled-task", h.TriggerScheduledTask)
		r.Get("/{id}", h.GetByID)
		r.Patch("/{id}/status", h.UpdateStatus)
		r.Delete("/{id}", h.Delete)
	})
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orders, err := h.svc.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list orders", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	result := make([]Order, 0, len(orders))
	for _, o := range orders {
		result = append(result, OrderEntityToJSON(o))
	}
	utils.WriteJSON(w, result, http.StatusOK)
}

func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	order, err := h.svc.Get(ctx, id)
	if errors.Is(err, entities.ErrOrderNotFound) {
		utils.WriteError(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get order", slog.Any("error", err), slog.Int64("order_id", id))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body Order
	if err := utils.DecodeBody(r, &body); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(body); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	saved, err := h.svc.Save(ctx, OrderJSONToEntity(body))

	var unknown entities.UnknownProductError
	if errors.As(err, &unknown) {
		h.logger.WarnContext(ctx, "order rejected", slog.Int64("product_code", unknown.Code))
		utils.WriteError(w, unknown.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create order", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "order created", slog.Int64("order_id", saved.ID))
	utils.WriteJSON(w, OrderEntityToJSON(saved), http.StatusOK)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var body StatusUpdate
	if err := utils.DecodeBody(r, &body); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.Status == nil {
		utils.WriteError(w, "missing 'status' field", http.StatusBadRequest)
		return
	}

	order, err := h.svc.UpdateStatus(ctx, id, *body.Status)
	if errors.Is(err, entities.ErrInvalidStatus) {
		utils.WriteError(w, "invalid status, accepted values: PENDING, CANCELED, FINISHED", http.StatusBadRequest)
		return
	}
	if errors.Is(err, entities.ErrOrderNotFound) {
		utils.WriteError(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to update order status", slog.Any("error", err), slog.Int64("order_id", id))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "order status updated",
		slog.Int64("order_id", id), slog.String("status", order.Status))
	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	err := h.svc.Delete(ctx, id)
	if errors.Is(err, entities.ErrOrderNotFound) {
		utils.WriteError(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to delete order", slog.Any("error", err), slog.Int64("order_id", id))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "order deleted", slog.Int64("order_id", id))
	w.WriteHeader(http.StatusOK)
}

func (h *OrderHandler) DelayedView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orders, err := h.svc.DelayedOrders(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to fetch delayed orders", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	now := h.now()
	result := make([]DelayedOrder, 0, len(orders))
	for _, o := range orders {
		result = append(result, DelayedOrderToJSON(o, now))
	}
	utils.WriteJSON(w, result, http.StatusOK)
}

// TriggerScheduledTask runs the delayed-order check on demand. Errors
// are reported in the result body, never propagated as a server fault.
func (h *OrderHandler) TriggerScheduledTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	count, err := h.scanner.Run(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to trigger scheduled task", slog.Any("error", err))
		utils.WriteJSON(w, TriggerResult{
			Status:  "error",
			Message: "failed to trigger scheduled task: " + err.Error(),
		}, http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, TriggerResult{
		Status:  "success",
		Message: fmt.Sprintf("scheduled task triggered successfully, %d delayed orders found", count),
	}, http.StatusOK)
}

func (h *OrderHandler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.WriteError(w, "invalid order id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
