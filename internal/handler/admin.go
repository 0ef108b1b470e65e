package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tcc/restaurant-services/internal/admin"
	"github.com/tcc/restaurant-services/pkg/utils"
)

type RegisterInstance struct {
	Name       string `json:"name" validate:"required"`
	ServiceURL string `json:"serviceUrl" validate:"required,url"`
	HealthURL  string `json:"healthUrl" validate:"omitempty,url"`
}

type InstanceJSON struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ServiceURL   string    `json:"serviceUrl"`
	HealthURL    string    `json:"healthUrl"`
	Status       string    `json:"status"`
	RegisteredAt time.Time `json:"registeredAt"`
}

func InstanceToJSON(inst admin.Instance) InstanceJSON {
	return InstanceJSON{
		ID:           inst.ID,
		Name:         inst.Name,
		ServiceURL:   inst.ServiceURL,
		HealthURL:    inst.HealthURL,
		Status:       inst.Status.Status,
		RegisteredAt: inst.RegisteredAt,
	}
}

type AdminHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	registry *admin.Registry
}

func NewAdminHandler(logger *slog.Logger, registry *admin.Registry) *AdminHandler {
	return &AdminHandler{
		logger:   logger.With(slog.String("handler", "admin")),
		validate: validator.New(),
		registry: registry,
	}
}

func (h *AdminHandler) Init(r chi.Router) {
	r.Route("/instances", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Register)
		r.Delete("/{id}", h.Deregister)
	})
}

func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	instances := h.registry.List()

	result := make([]InstanceJSON, 0, len(instances))
	for _, inst := range instances {
		result = append(result, InstanceToJSON(inst))
	}
	utils.WriteJSON(w, result, http.StatusOK)
}

func (h *AdminHandler) Register(w http.ResponseWriter, r *http.Request) {
	var body RegisterInstance
	if err := utils.DecodeBody(r, &body); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(body); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	healthURL := body.HealthURL
	if healthURL == "" {
		healthURL = body.ServiceURL + "/healthz"
	}

	inst := h.registry.Register(admin.Instance{
		Name:       body.Name,
		ServiceURL: body.ServiceURL,
		HealthURL:  healthURL,
	})

	utils.WriteJSON(w, InstanceToJSON(inst), http.StatusCreated)
}

func (h *AdminHandler) Deregister(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !h.registry.Deregister(id) {
		utils.WriteError(w, "instance not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
