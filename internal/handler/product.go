package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tcc/restaurant-services/internal/entities"
	"github.com/tcc/restaurant-services/pkg/utils"
)

type ProductService interface {
	List(ctx context.Context) ([]entities.Product, error)
	Get(ctx context.Context, id int64) (entities.Product, error)
	Create(ctx context.Context, p entities.Product) (entities.Product, error)
	Update(ctx context.Context, id int64, p entities.Product) (entities.Product, error)
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, code int64) (bool, error)
	NamesBatch(ctx context.Context, ids []int64) (map[int64]string, error)
}

type ProductHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      ProductService
}

func NewProductHandler(logger *slog.Logger, svc ProductService) *ProductHandler {
	return &ProductHandler{
		logger:   logger.With(slog.String("handler", "products")),
		validate: validator.New(),
		svc:      svc,
	}
}

func (h *ProductHandler) Init(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/exists/{code}", h.Exists)
		r.Post("/batch-details", h.BatchDetails)
		r.Get("/reload-test", h.ReloadTest)
		r.Get("/{id}", h.GetByID)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	products, err := h.svc.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list products", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	result := make([]Product, 0, len(products))
	for _, p := range products {
		result = append(result, ProductEntityToJSON(p))
	}
	utils.WriteJSON(w, result, http.StatusOK)
}

func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}

	product, err := h.svc.Get(ctx, id)
	if errors.Is(err, entities.ErrProductNotFound) {
		utils.WriteError(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get product", slog.Any("error", err), slog.Int64("product_id", id))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, ProductEntityToJSON(product), http.StatusOK)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body Product
	if err := utils.DecodeBody(r, &body); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(body); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	created, err := h.svc.Create(ctx, ProductJSONToEntity(body))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create product", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "product created", slog.Int64("product_id", created.ID))
	utils.WriteJSON(w, ProductEntityToJSON(created), http.StatusOK)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}

	var body Product
	if err := utils.DecodeBody(r, &body); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(body); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	updated, err := h.svc.Update(ctx, id, ProductJSONToEntity(body))
	if errors.Is(err, entities.ErrProductNotFound) {
		utils.WriteError(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to update product", slog.Any("error", err), slog.Int64("product_id", id))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "product updated", slog.Int64("product_id", id))
	utils.WriteJSON(w, ProductEntityToJSON(updated), http.StatusOK)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}

	err := h.svc.Delete(ctx, id)
	if errors.Is(err, entities.ErrProductNotFound) {
		utils.WriteError(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to delete product", slog.Any("error", err), slog.Int64("product_id", id))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "product deleted", slog.Int64("product_id", id))
	w.WriteHeader(http.StatusOK)
}

// Exists returns a bare boolean, absent products and lookup failures
// both read as false.
func (h *ProductHandler) Exists(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	code, ok := h.parseID(w, r, "code")
	if !ok {
		return
	}

	exists, err := h.svc.Exists(ctx, code)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to check product existence", slog.Any("error", err), slog.Int64("product_code", code))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, exists, http.StatusOK)
}

// BatchDetails maps ids to "name (id)" strings, unresolved ids are
// omitted rather than erroring.
func (h *ProductHandler) BatchDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var ids []int64
	if err := utils.DecodeBody(r, &ids); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	names, err := h.svc.NamesBatch(ctx, ids)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to resolve product names", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, names, http.StatusOK)
}

func (h *ProductHandler) ReloadTest(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Reload Ok"))
}

func (h *ProductHandler) parseID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		utils.WriteError(w, "invalid product id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
