package planner

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-travel-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

func newRepoFixture(t *testing.T) (*PostgresPlannerRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	metrics.InitAppMetrics()

	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	return NewPostgresPlannerRepository(mockPool, slog.Default()), mockPool
}

func sampleDocument(userID *uuid.UUID) *types.ItineraryDocument {
	return &types.ItineraryDocument{
		ID:              uuid.New(),
		UserID:          userID,
		OriginCity:      "Delhi",
		DestinationCity: "Jaipur",
		Summary:         "Three days in the Pink City.",
		Hotels: types.HotelsSection{
			Hotels: []types.Hotel{{PlaceID: "osm-node-9", Name: "Palace Stay", City: "Jaipur"}},
			HotelsByDay: map[int][]types.Hotel{
				1: {{PlaceID: "osm-node-9", Name: "Palace Stay"}},
				2: {{PlaceID: "osm-node-9", Name: "Palace Stay"}},
			},
			Count: 1,
		},
		EstimatedTotals: types.CostBreakdown{GrandTotal: 42000, Currency: "INR"},
		CreatedAt:       time.Now().UTC().Truncate(time.Second),
	}
}

func TestRepositorySaveItinerary(t *testing.T) {
	repo, mockPool := newRepoFixture(t)
	doc := sampleDocument(nil)

	mockPool.ExpectExec("INSERT INTO itineraries").
		WithArgs(doc.ID, doc.UserID, doc.OriginCity, doc.DestinationCity, pgxmock.AnyArg(), doc.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.SaveItinerary(context.Background(), doc)

	assert.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepositoryGetItinerary(t *testing.T) {
	t.Run("round-trips the stored document", func(t *testing.T) {
		repo, mockPool := newRepoFixture(t)
		doc := sampleDocument(nil)
		payload, err := json.Marshal(doc)
		require.NoError(t, err)

		mockPool.ExpectQuery("SELECT document FROM itineraries").
			WithArgs(doc.ID).
			WillReturnRows(pgxmock.NewRows([]string{"document"}).AddRow(payload))

		got, err := repo.GetItinerary(context.Background(), doc.ID)

		require.NoError(t, err)
		assert.Equal(t, doc.ID, got.ID)
		assert.Equal(t, doc.Summary, got.Summary)
		// Day-keyed hotel maps are stored with string keys and decode back
		// into integer keys without loss.
		require.Len(t, got.Hotels.HotelsByDay, 2)
		assert.Equal(t, "Palace Stay", got.Hotels.HotelsByDay[1][0].Name)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("missing row maps to not found", func(t *testing.T) {
		repo, mockPool := newRepoFixture(t)
		id := uuid.New()

		mockPool.ExpectQuery("SELECT document FROM itineraries").
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows([]string{"document"}))

		got, err := repo.GetItinerary(context.Background(), id)

		assert.Nil(t, got)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestRepositoryListByUser(t *testing.T) {
	repo, mockPool := newRepoFixture(t)
	userID := uuid.New()

	first, _ := json.Marshal(sampleDocument(&userID))
	second, _ := json.Marshal(sampleDocument(&userID))

	mockPool.ExpectQuery("SELECT document FROM itineraries WHERE user_id").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"document"}).AddRow(first).AddRow(second))

	docs, err := repo.ListByUser(context.Background(), userID)

	require.NoError(t, err)
	assert.Len(t, docs, 2)
	for _, d := range docs {
		require.NotNil(t, d.UserID)
		assert.Equal(t, userID, *d.UserID)
	}
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepositoryDelete(t *testing.T) {
	t.Run("deletes owned itinerary", func(t *testing.T) {
		repo, mockPool := newRepoFixture(t)
		id := uuid.New()
		userID := uuid.New()

		mockPool.ExpectExec("DELETE FROM itineraries").
			WithArgs(id, &userID).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		assert.NoError(t, repo.Delete(context.Background(), id, &userID))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("no matching row maps to not found", func(t *testing.T) {
		repo, mockPool := newRepoFixture(t)
		id := uuid.New()

		mockPool.ExpectExec("DELETE FROM itineraries").
			WithArgs(id, (*uuid.UUID)(nil)).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err := repo.Delete(context.Background(), id, nil)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestHotelsByDayKeysAreStringsOnDisk(t *testing.T) {
	doc := sampleDocument(nil)
	payload, err := json.Marshal(doc)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &raw))

	var hotels map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw["hotels"], &hotels))

	var byDay map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(hotels["hotels_by_day"], &byDay))
	assert.Contains(t, byDay, "1")
	assert.Contains(t, byDay, "2")
}
