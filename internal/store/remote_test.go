package store_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mflores/dayplan/internal/remote"
	"github.com/mflores/dayplan/internal/store"
)

func newRemoteStore(t *testing.T, handler http.HandlerFunc) *store.RemoteStore {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := remote.NewClient(srv.URL, "anon-key")
	client.SetToken("user-token")
	return store.NewRemoteStore(client)
}

func TestRemoteListByDate(t *testing.T) {
	s := newRemoteStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/tasks", r.URL.Path)
		assert.Equal(t, "eq.user-1", r.URL.Query().Get("user_id"))
		assert.Equal(t, "eq.2026-08-28", r.URL.Query().Get("task_date"))
		assert.Equal(t, "created_at.asc,id.asc", r.URL.Query().Get("order"))
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": 101, "user_id": "user-1", "title": "Comprar pan", "notes": null,
			 "task_date": "2026-08-28", "completed": false,
			 "created_at": "2026-08-28T08:00:00Z", "updated_at": "2026-08-28T08:00:00Z"},
			{"id": 102, "user_id": "user-1", "title": "Dentista", "notes": "a las 10",
			 "task_date": "2026-08-28", "completed": true,
			 "created_at": "2026-08-28T09:00:00Z", "updated_at": "2026-08-28T09:30:00Z"}
		]`))
	})

	tasks, err := s.ListByDate(context.Background(), "user-1", "2026-08-28")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "101", tasks[0].ID)
	// Null notes come back as the empty string.
	assert.Equal(t, "", tasks[0].Notes)
	assert.Equal(t, "a las 10", tasks[1].Notes)
	assert.True(t, tasks[1].Completed)
}

func TestRemoteListByMonthRange(t *testing.T) {
	s := newRemoteStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "(task_date.gte.2026-08-01,task_date.lte.2026-08-31)", r.URL.Query().Get("and"))
		w.Write([]byte(`[]`))
	})

	tasks, err := s.ListByMonth(context.Background(), "user-1", 2026, 8)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestRemoteAdd(t *testing.T) {
	s := newRemoteStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		var body []map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body, 1)
		assert.Equal(t, "user-1", body[0]["user_id"])
		assert.Equal(t, "Comprar pan", body[0]["title"])
		assert.Nil(t, body[0]["notes"])
		assert.Equal(t, false, body[0]["completed"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[{"id": 7, "user_id": "user-1", "title": "Comprar pan",
			"notes": null, "task_date": "2026-08-28", "completed": false,
			"created_at": "2026-08-28T08:00:00Z", "updated_at": "2026-08-28T08:00:00Z"}]`))
	})

	task, err := s.Add(context.Background(), "user-1", " Comprar pan ", "  ", "2026-08-28")
	require.NoError(t, err)
	assert.Equal(t, "7", task.ID)
	assert.Equal(t, "Comprar pan", task.Title)
}

func TestRemoteAddEmptyTitle(t *testing.T) {
	s := newRemoteStore(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := s.Add(context.Background(), "user-1", "   ", "", "2026-08-28")
	assert.ErrorIs(t, err, store.ErrEmptyTitle)

	_, err = s.Add(context.Background(), "", "ok", "", "2026-08-28")
	assert.ErrorIs(t, err, store.ErrUnauthenticated)
}

func TestRemoteUpdate(t *testing.T) {
	s := newRemoteStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.7", r.URL.Query().Get("id"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Cambiado", body["title"])
		assert.Equal(t, true, body["completed"])

		w.Write([]byte(`[{"id": 7, "user_id": "user-1", "title": "Cambiado",
			"notes": null, "task_date": "2026-08-28", "completed": true,
			"created_at": "2026-08-28T08:00:00Z", "updated_at": "2026-08-28T10:00:00Z"}]`))
	})

	title := " Cambiado "
	done := true
	task, err := s.Update(context.Background(), "7", store.Patch{Title: &title, Completed: &done})
	require.NoError(t, err)
	assert.Equal(t, "Cambiado", task.Title)
	assert.True(t, task.Completed)
}

func TestRemoteUpdateMissingRow(t *testing.T) {
	s := newRemoteStore(t, func(w http.ResponseWriter, r *http.Request) {
		// The row API answers a patch on a missing row with an empty set.
		w.Write([]byte(`[]`))
	})

	done := true
	_, err := s.Update(context.Background(), "999", store.Patch{Completed: &done})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRemoteRemoveToleratesMissing(t *testing.T) {
	s := newRemoteStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
	})

	assert.NoError(t, s.Remove(context.Background(), "7"))
}

func TestRemoteAuthError(t *testing.T) {
	s := newRemoteStore(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"JWT expired"}`, http.StatusUnauthorized)
	})

	_, err := s.ListByDate(context.Background(), "user-1", "2026-08-28")
	require.Error(t, err)
	assert.True(t, remote.IsAuthError(err))
}
