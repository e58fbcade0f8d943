package wits_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syncbridge/pms-wits-sync/internal/wits"
)

func TestAddComment(t *testing.T) {
	var gotOps []wits.PatchOperation
	mux := http.NewServeMux()
	mux.HandleFunc("/_apis/wit/workitems/7", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotOps))
		_ = json.NewEncoder(w).Encode(wits.WorkItem{ID: 7})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := wits.NewClient(server.URL, "DEMO", "svc", "pw")
	require.NoError(t, client.AddComment(context.Background(), 7, "Reopened by customer"))
	require.Len(t, gotOps, 1)
	assert.Equal(t, "/fields/System.History", gotOps[0].Path)
	assert.Equal(t, "Reopened by customer", gotOps[0].Value)
}
