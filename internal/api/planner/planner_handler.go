package planner

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	appMiddleware "github.com/FACorreiaa/go-travel-planner/app/middleware"
	"github.com/FACorreiaa/go-travel-planner/internal/api"
	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

type Handler struct {
	logger  *slog.Logger
	service Service
}

func NewPlannerHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// PlanTrip handles POST /plan-trip. Works for anonymous callers; when a valid
// token is present the itinerary is attached to the user.
func (h *Handler) PlanTrip(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlannerHandler").Start(r.Context(), "PlanTrip")
	defer span.End()

	l := h.logger.With(slog.String("method", "PlanTrip"))

	var req types.PlanTripRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Invalid request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	userID := appMiddleware.GetUserUUIDFromContext(ctx)

	doc, err := h.service.PlanTrip(ctx, req, userID)
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, types.ErrValidation):
			span.SetStatus(codes.Error, "Validation failed")
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, types.ErrNotFound):
			span.SetStatus(codes.Error, "Destination not found")
			api.ErrorResponse(w, r, http.StatusNotFound, err.Error())
		case errors.Is(err, types.ErrProviderUnavailable):
			span.SetStatus(codes.Error, "Upstream provider unavailable")
			api.ErrorResponse(w, r, http.StatusBadGateway, "An upstream data provider is unavailable, try again shortly")
		default:
			l.ErrorContext(ctx, "Trip planning failed", slog.Any("error", err))
			span.SetStatus(codes.Error, "Planning failed")
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to plan trip")
		}
		return
	}

	span.SetStatus(codes.Ok, "Trip planned")
	api.WriteJSONResponse(w, r, http.StatusOK, doc)
}

// GetItinerary handles GET /itineraries/{itineraryID}.
func (h *Handler) GetItinerary(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlannerHandler").Start(r.Context(), "GetItinerary")
	defer span.End()

	l := h.logger.With(slog.String("method", "GetItinerary"))

	id, err := uuid.Parse(chi.URLParam(r, "itineraryID"))
	if err != nil {
		span.SetStatus(codes.Error, "Invalid itinerary ID")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid itinerary ID")
		return
	}

	doc, err := h.service.GetItinerary(ctx, id)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, types.ErrNotFound) {
			span.SetStatus(codes.Error, "Itinerary not found")
			api.ErrorResponse(w, r, http.StatusNotFound, "Itinerary not found")
			return
		}
		l.ErrorContext(ctx, "Failed to fetch itinerary", slog.String("itinerary_id", id.String()), slog.Any("error", err))
		span.SetStatus(codes.Error, "Fetch failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch itinerary")
		return
	}

	span.SetStatus(codes.Ok, "Itinerary returned")
	api.WriteJSONResponse(w, r, http.StatusOK, doc)
}

// ListMyTrips handles GET /me/trips for authenticated users.
func (h *Handler) ListMyTrips(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlannerHandler").Start(r.Context(), "ListMyTrips")
	defer span.End()

	l := h.logger.With(slog.String("method", "ListMyTrips"))

	userID := appMiddleware.GetUserUUIDFromContext(ctx)
	if userID == nil {
		span.SetStatus(codes.Error, "Not authenticated")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	docs, err := h.service.ListUserItineraries(ctx, *userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list itineraries", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "List failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to list itineraries")
		return
	}
	if docs == nil {
		docs = []types.ItineraryDocument{}
	}

	span.SetStatus(codes.Ok, "Itineraries listed")
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"trips": docs,
		"count": len(docs),
	})
}

// DeleteItinerary handles DELETE /itineraries/{itineraryID}.
func (h *Handler) DeleteItinerary(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlannerHandler").Start(r.Context(), "DeleteItinerary")
	defer span.End()

	l := h.logger.With(slog.String("method", "DeleteItinerary"))

	id, err := uuid.Parse(chi.URLParam(r, "itineraryID"))
	if err != nil {
		span.SetStatus(codes.Error, "Invalid itinerary ID")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid itinerary ID")
		return
	}

	userID := appMiddleware.GetUserUUIDFromContext(ctx)

	if err := h.service.DeleteItinerary(ctx, id, userID); err != nil {
		span.RecordError(err)
		if errors.Is(err, types.ErrNotFound) {
			span.SetStatus(codes.Error, "Itinerary not found")
			api.ErrorResponse(w, r, http.StatusNotFound, "Itinerary not found")
			return
		}
		l.ErrorContext(ctx, "Failed to delete itinerary", slog.String("itinerary_id", id.String()), slog.Any("error", err))
		span.SetStatus(codes.Error, "Delete failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to delete itinerary")
		return
	}

	span.SetStatus(codes.Ok, "Itinerary deleted")
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}
