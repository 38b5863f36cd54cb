package repository

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/raceday/internal/store"
)

type patchCapture struct {
	Path  string
	Query string
	Body  string
}

func newPatchServer(t *testing.T) (*store.Client, *patchCapture) {
	t.Helper()
	captured := &patchCapture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		captured.Path = r.URL.Path
		captured.Query = r.URL.RawQuery
		captured.Body = string(body)
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	client, err := store.NewClient(store.Config{BaseURL: srv.URL, ServiceKey: "service-key"}, logrus.New())
	require.NoError(t, err)
	return client, captured
}

// The result feed spells horse names in its own casing, so the position
// PATCH must filter case-insensitively or it silently matches zero rows.
func TestEntrySetFinishingPositionFoldsNameCase(t *testing.T) {
	client, captured := newPatchServer(t)
	repo := NewStoreEntryRepository(client)
	raceID := uuid.New()

	err := repo.SetFinishingPosition(context.Background(), raceID, " THUNDER BAY ", 1,
		time.Date(2025, 6, 14, 14, 40, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.Equal(t, "/race_entries", captured.Path)
	assert.Contains(t, captured.Query, "race_id=eq."+raceID.String())
	assert.Contains(t, captured.Query, "horse_name=ilike.THUNDER+BAY")
	assert.Contains(t, captured.Body, `"finishing_position":1`)
}

func TestSelectionAndShortlistPositionFoldNameCase(t *testing.T) {
	raceID := uuid.New()

	tests := []struct {
		name string
		path string
		call func(t *testing.T, client *store.Client) error
	}{
		{
			name: "selections",
			path: "/selections",
			call: func(t *testing.T, client *store.Client) error {
				return NewStoreSelectionRepository(client).SetFinishingPosition(context.Background(), raceID, "thunder bay", 2)
			},
		},
		{
			name: "shortlist items",
			path: "/shortlist_items",
			call: func(t *testing.T, client *store.Client) error {
				return NewStoreShortlistRepository(client).SetFinishingPosition(context.Background(), raceID, "thunder bay", 2)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, captured := newPatchServer(t)
			require.NoError(t, tt.call(t, client))
			assert.Equal(t, tt.path, captured.Path)
			assert.Contains(t, captured.Query, "horse_name=ilike.thunder+bay")
			assert.Contains(t, captured.Body, `"finishing_position":2`)
		})
	}
}
