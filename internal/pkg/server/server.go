package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/tim-hellhake/homie-adapter/internal/pkg/database"
	"github.com/tim-hellhake/homie-adapter/internal/pkg/homie"
	"github.com/tim-hellhake/homie-adapter/internal/pkg/model"
)

type deviceRegistry interface {
	Devices() []model.Device
	Properties(deviceID string) ([]model.PropertyState, error)
	SetValue(ctx context.Context, deviceID, property string, value any) error
}

type valueHistory interface {
	GetLatestValues(ctx context.Context) (database.Values, error)
}

type server struct {
	registry deviceRegistry
	history  valueHistory
	hub      *hub
	logger   *zap.Logger
}

func New(registry deviceRegistry) *server {
	return &server{
		registry: registry,
		hub:      newHub(),
		logger:   zap.L(),
	}
}

// WithHistory exposes the stored value history on the HTTP surface.
func (s *server) WithHistory(history valueHistory) *server {
	s.history = history
	return s
}

// Router wires the host-facing HTTP surface. A non-empty apiTokenHash
// puts every route behind bearer-token auth.
func (s *server) Router(apiTokenHash string) *mux.Router {
	r := mux.NewRouter()
	r.Use(LoggingMiddleware)
	if apiTokenHash != "" {
		r.Use(AuthMiddleware(apiTokenHash))
	}
	r.HandleFunc("/devices", s.GetDevices).Methods(http.MethodGet)
	r.HandleFunc("/devices/{id}", s.GetDevice).Methods(http.MethodGet)
	r.HandleFunc("/devices/{id}/properties/{name}", s.PostProperty).Methods(http.MethodPost)
	if s.history != nil {
		r.HandleFunc("/values", s.GetValues).Methods(http.MethodGet)
	}
	r.HandleFunc("/ws", s.ServeWS).Methods(http.MethodGet)
	return r
}

// GetValues returns the most recent stored value per property.
func (s *server) GetValues(w http.ResponseWriter, r *http.Request) {
	values, err := s.history.GetLatestValues(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	if values == nil {
		values = database.Values{}
	}
	writeJSON(w, values)
}

func (s *server) GetDevices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.registry.Devices())
}

type deviceResponse struct {
	ID         string                `json:"id"`
	Properties []model.PropertyState `json:"properties"`
}

func (s *server) GetDevice(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	properties, err := s.registry.Properties(id)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, deviceResponse{ID: id, Properties: properties})
}

type writeRequest struct {
	Value any `json:"value"`
}

func (s *server) PostProperty(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	writeReq, err := unmarshalPayload[writeRequest](r)
	if err != nil {
		handleError(w, err)
		return
	}

	if err := s.registry.SetValue(r.Context(), vars["id"], vars["name"], writeReq.Value); err != nil {
		handleError(w, err)
		return
	}

	s.logger.Info("property written",
		zap.String("device", vars["id"]),
		zap.String("property", vars["name"]))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("success"))
}

func handleError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, homie.ErrUnknownDevice), errors.Is(err, homie.ErrUnknownProperty):
		status = http.StatusNotFound
	case errors.Is(err, homie.ErrNotWritable):
		status = http.StatusForbidden
	}
	w.WriteHeader(status)
	w.Write([]byte(err.Error()))
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}

func unmarshalPayload[T any](r *http.Request) (*T, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
