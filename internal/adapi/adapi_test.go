package adapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"adboard-booking/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAdBoards tests that boards are decoded from the upstream list
func TestAdBoards(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/adBoard", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"id": "b1", "boardName": "Main Street"},
			{"id": "b2", "boardName": "Airport"},
		})
	}))
	defer server.Close()

	s := New(server.URL, time.Second)

	boards, err := s.AdBoards(context.Background())
	require.NoError(t, err)
	require.Len(t, boards, 2)
	assert.Equal(t, models.BoardOption{Value: "b2", Label: "Airport"}, boards[1].Option())
}

func TestCreatives(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/creative", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"id": "c1", "title": "Summer Sale", "duration": 15},
		})
	}))
	defer server.Close()

	creatives, err := New(server.URL+"/", time.Second).Creatives(context.Background())
	require.NoError(t, err)
	require.Len(t, creatives, 1)
	assert.Equal(t, "Summer Sale", creatives[0].Title)
}

// TestCreateBookings checks the whole batch is posted in one request
func TestCreateBookings(t *testing.T) {
	var (
		calls int
		got   []models.Draft
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/booking", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"count":2}`))
	}))
	defer server.Close()

	drafts := []models.Draft{
		{ID: "d1", AdBoardID: "b1", AdID: "c1", StartDate: "2024-01-01", EndDate: "2024-01-05"},
		{ID: "d2", AdBoardID: "b2", AdID: "c1", StartDate: "2024-02-01", EndDate: "2024-02-05"},
	}

	err := New(server.URL, time.Second).CreateBookings(context.Background(), drafts)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, drafts, got)
}

func TestUpdateBookings_EmptyBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		var body []json.RawMessage
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotNil(t, body)
		assert.Empty(t, body)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	err := New(server.URL, time.Second).UpdateBookings(context.Background(), nil)
	assert.NoError(t, err)
}

// TestCreateBookings_ServerError checks the server message is carried in the error detail
func TestCreateBookings_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"board already booked"}`))
	}))
	defer server.Close()

	err := New(server.URL, time.Second).CreateBookings(context.Background(), []models.Draft{{ID: "d1"}})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "failed to create bookings: 409 - board already booked", err.Error())
}

func TestUpdateBookings_ServerErrorWithoutMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := New(server.URL, time.Second).UpdateBookings(context.Background(), []models.Draft{{ID: "d1"}})
	require.Error(t, err)
	assert.True(t, IsAPIError(err))
	assert.Equal(t, "failed to update bookings: 500 - Unknown error", err.Error())
}

// TestCreateBookings_InvalidSuccessBody treats an OK response without JSON as a failure
func TestCreateBookings_InvalidSuccessBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	err := New(server.URL, time.Second).CreateBookings(context.Background(), []models.Draft{{ID: "d1"}})
	require.Error(t, err)
	assert.False(t, IsAPIError(err))
}

func TestHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))

	s := New(server.URL, time.Second)
	assert.Equal(t, "up", s.Health(context.Background())["status"])

	server.Close()
	stats := s.Health(context.Background())
	assert.Equal(t, "down", stats["status"])
	assert.Contains(t, stats["error"], "booking api down")
}

func TestCreatives_ResponseTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat(" ", maxResponseBytes+1024)))
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	creatives, err := New(server.URL, 5*time.Second).Creatives(context.Background())
	assert.ErrorIs(t, err, ErrResponseTooLarge)
	assert.Nil(t, creatives)
}
