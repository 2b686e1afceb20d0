package pms

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := chi.NewRouter()
	NewHandler(logger, NewService(logger, NewRepository(rdb))).MountRoutes(router)
	return router
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, reader))
	return rec
}

func seed(t *testing.T, router http.Handler, body map[string]any) {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/__seed/guest", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestSeedAndLookup(t *testing.T) {
	router := newTestRouter(t)
	seed(t, router, map[string]any{"room": "101", "lastName": "Smith", "guestName": "John Smith"})

	rec := do(t, router, http.MethodGet, "/rsv/v1/hotels/HOTEL1/reservations?roomId=101&surname=Smith", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view ReservationView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "RES-555", view.ReservationID)
	assert.Equal(t, "John Smith", view.GuestName)
	assert.Equal(t, "HOTEL1", view.HotelID)
	assert.Equal(t, 1, view.FolioWindow)
	assert.True(t, view.InHouse)
}

func TestLookupSurnameCaseInsensitive(t *testing.T) {
	router := newTestRouter(t)
	seed(t, router, map[string]any{"room": "101", "lastName": "Smith"})

	rec := do(t, router, http.MethodGet, "/rsv/v1/hotels/HOTEL1/reservations?roomId=101&surname=SMITH", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLookupNumericRoomInSeed(t *testing.T) {
	router := newTestRouter(t)
	// seeding tools send the room as a JSON number
	seed(t, router, map[string]any{"room": 101, "lastName": "Smith"})

	rec := do(t, router, http.MethodGet, "/rsv/v1/hotels/HOTEL1/reservations?roomId=101&surname=Smith", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLookupMissingParams(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/rsv/v1/hotels/HOTEL1/reservations?roomId=101", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "surname")
}

func TestLookupUnknownGuest(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/rsv/v1/hotels/HOTEL1/reservations?roomId=999&surname=Nobody", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Guest not found or not in-house")
}

func TestLookupGuestNotInHouse(t *testing.T) {
	router := newTestRouter(t)
	seed(t, router, map[string]any{"room": "101", "lastName": "Smith", "inHouse": false})

	rec := do(t, router, http.MethodGet, "/rsv/v1/hotels/HOTEL1/reservations?roomId=101&surname=Smith", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostChargeAndRetrieveFolio(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/csh/v1/hotels/HOTEL1/reservations/RES-555/charges", map[string]any{
		"amount": 33.32, "transactionCode": "ROOM_SERVICE",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var charge ChargeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &charge))
	assert.Equal(t, "RES-555", charge.ReservationID)
	assert.NotEmpty(t, charge.PostingID)
	assert.Equal(t, 33.32, charge.Line.Amount)
	assert.Equal(t, "ROOM_SERVICE", charge.Line.TrxCode)

	rec = do(t, router, http.MethodGet, "/csh/v1/hotels/HOTEL1/reservations/RES-555/folios", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view FolioView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Lines, 1)
	assert.Equal(t, charge.PostingID, view.Lines[0].PostingID)
	assert.Equal(t, 1, view.FolioWindowNo)
}

func TestPostChargeDefaultsTransactionCode(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/csh/v1/hotels/HOTEL1/reservations/RES-555/charges", map[string]any{
		"amount": 10.0,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var charge ChargeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &charge))
	assert.Equal(t, "ROOM_SERVICE", charge.Line.TrxCode)
}

func TestFolioFetchInstructions(t *testing.T) {
	router := newTestRouter(t)

	for _, c := range []map[string]any{
		{"amount": 20.0, "transactionCode": "ROOM_SERVICE"},
		{"amount": 5.5, "transactionCode": "MINIBAR"},
		{"amount": -25.0, "transactionCode": "PAY_CASH"},
	} {
		rec := do(t, router, http.MethodPost, "/csh/v1/hotels/HOTEL1/reservations/RES-555/charges", c)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := do(t, router, http.MethodGet,
		"/csh/v1/hotels/HOTEL1/reservations/RES-555/folios?fetchInstructions=Totalbalance,Payment,Postings,Transactioncodes", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view FolioView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Len(t, view.Lines, 3)
	assert.InDelta(t, 0.5, view.TotalBalance, 1e-9)
	require.Len(t, view.Payments, 1)
	assert.Equal(t, "PAY_CASH", view.Payments[0].TrxCode)
	assert.Len(t, view.Postings, 2)
	assert.ElementsMatch(t, []string{"ROOM_SERVICE", "MINIBAR", "PAY_CASH"}, view.TransactionCodes)
}

func TestFolioForUnknownReservationIsEmpty(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/csh/v1/hotels/HOTEL1/reservations/RES-999/folios?fetchInstructions=Totalbalance", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view FolioView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Empty(t, view.Lines)
	assert.Zero(t, view.TotalBalance)
}

func TestSeedRequiresRoomAndLastName(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/__seed/guest", map[string]any{"room": "101"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReseedOverwritesGuest(t *testing.T) {
	router := newTestRouter(t)
	seed(t, router, map[string]any{"room": "101", "lastName": "Smith", "reservationId": "RES-111"})
	seed(t, router, map[string]any{"room": "101", "lastName": "Smith", "reservationId": "RES-222"})

	rec := do(t, router, http.MethodGet, "/rsv/v1/hotels/HOTEL1/reservations?roomId=101&surname=Smith", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view ReservationView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "RES-222", view.ReservationID)
}
