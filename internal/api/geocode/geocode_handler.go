package geocode

import (
	"log/slog"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-travel-planner/internal/api"
)

type Handler struct {
	logger  *slog.Logger
	service Service
}

func NewGeocodeHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// SearchCities handles GET /cities/search?q=... for origin/destination
// autocomplete. Queries under two characters return an empty list.
func (h *Handler) SearchCities(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("GeocodeHandler").Start(r.Context(), "SearchCities")
	defer span.End()

	l := h.logger.With(slog.String("method", "SearchCities"))

	query := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	cities, err := h.service.SearchCities(ctx, query, limit)
	if err != nil {
		l.ErrorContext(ctx, "City search failed", slog.String("query", query), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "City search failed")
		api.ErrorResponse(w, r, http.StatusBadGateway, "City search is temporarily unavailable")
		return
	}

	span.SetStatus(codes.Ok, "Cities returned")
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"cities": cities,
		"count":  len(cities),
	})
}
