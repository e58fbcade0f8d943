package wits_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syncbridge/pms-wits-sync/internal/wits"
)

func TestQueryCreatedSinceRoundTrip(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/_apis/wit/wiql", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Query, "[System.CreatedDate] >=")
		assert.Contains(t, req.Query, "[System.TeamProject] = 'DEMO'")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"workItems": []map[string]int{{"id": 42}},
		})
	})
	mux.HandleFunc("/_apis/wit/workitemsbatch", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"value": []wits.WorkItem{
				{ID: 42, Fields: wits.WorkItemFields{Title: "Login fails"}},
			},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := wits.NewClient(server.URL, "DEMO", "svc", "pw")
	items, err := client.QueryCreatedSince(context.Background(), "DEMO", time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 42, items[0].ID)
}

func TestQueryNoResultsReturnsEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/_apis/wit/wiql", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"workItems": []map[string]int{}})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := wits.NewClient(server.URL, "DEMO", "svc", "pw")
	items, err := client.QueryChangedSince(context.Background(), "DEMO", time.Now())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestQueryCapErrorSurfacesSentinelSubstring(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/_apis/wit/wiql", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("TF401268: VS402337: the query returned too many results"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := wits.NewClient(server.URL, "DEMO", "svc", "pw")
	_, err := client.QueryCreatedSince(context.Background(), "DEMO", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VS402337")
}

func TestCreateWorkItemUsesJSONPatchContentType(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/_apis/wit/workitems/$Bug", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json-patch+json", r.Header.Get("Content-Type"))
		_ = json.NewEncoder(w).Encode(wits.WorkItem{ID: 100, Fields: wits.WorkItemFields{Title: "New Bug"}})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := wits.NewClient(server.URL, "DEMO", "svc", "pw")
	ops := []wits.PatchOperation{{Op: "add", Path: "/fields/System.Title", Value: "New Bug"}}
	wi, err := client.CreateWorkItem(context.Background(), "Bug", ops)
	require.NoError(t, err)
	assert.Equal(t, 100, wi.ID)
}

func TestSetStateTwoStepSave(t *testing.T) {
	var gotOps []wits.PatchOperation
	mux := http.NewServeMux()
	mux.HandleFunc("/_apis/wit/workitems/7", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotOps))
		_ = json.NewEncoder(w).Encode(wits.WorkItem{ID: 7})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := wits.NewClient(server.URL, "DEMO", "svc", "pw")
	_, err := client.SetState(context.Background(), 7, "Active", "New submission")
	require.NoError(t, err)
	require.Len(t, gotOps, 2)
	assert.Equal(t, "/fields/System.State", gotOps[0].Path)
	assert.Equal(t, "/fields/System.Reason", gotOps[1].Path)
}

func TestGetWorkItemNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/_apis/wit/workitems/999", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := wits.NewClient(server.URL, "DEMO", "svc", "pw")
	_, ok, err := client.GetWorkItem(context.Background(), 999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNetworkCredentialsClientSkipsBasicAuth(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/_apis/wit/workitems/1", func(w http.ResponseWriter, r *http.Request) {
		_, _, hasBasic := r.BasicAuth()
		assert.False(t, hasBasic)
		_ = json.NewEncoder(w).Encode(wits.WorkItem{ID: 1})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := wits.NewNetworkCredentialsClient(server.URL, "DEMO", "CORP").WithEndpoint(server.URL)
	assert.True(t, client.UsesNetworkCredentials())
	_, _, err := client.GetWorkItem(context.Background(), 1)
	require.NoError(t, err)
}
