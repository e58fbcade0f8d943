package wits_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syncbridge/pms-wits-sync/internal/linkbridge"
	"github.com/syncbridge/pms-wits-sync/internal/wits"
)

func TestListLinksClassifiesHyperlinkAndRelated(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/_apis/wit/workitems/7", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id": 7,
			"relations": []map[string]interface{}{
				{"rel": "Hyperlink", "url": "https://pms.example.com/incidents/42"},
				{"rel": "System.LinkTypes.Related-Forward", "url": "https://demo.example.com/_apis/wit/workItems/99"},
			},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := wits.NewClient(server.URL, "DEMO", "svc", "pw")
	links, err := client.ListLinks(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, linkbridge.LinkHyperlink, links[0].Kind)
	assert.Equal(t, linkbridge.LinkRelatedWorkItem, links[1].Kind)
	assert.Equal(t, 99, links[1].TargetID)
}

func TestListAttachmentsFiltersAttachedFileRelations(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/_apis/wit/workitems/7", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id": 7,
			"relations": []map[string]interface{}{
				{"rel": "Hyperlink", "url": "https://pms.example.com/incidents/42"},
				{"rel": "AttachedFile", "url": "https://demo.example.com/_apis/wit/attachments/abc", "attributes": map[string]string{"comment": "screenshot.png"}},
			},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := wits.NewClient(server.URL, "DEMO", "svc", "pw")
	attachments, err := client.ListAttachments(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, attachments, 1)
	assert.Equal(t, "screenshot.png", attachments[0].Name)
}

func TestAddHyperlink(t *testing.T) {
	var gotOps []wits.PatchOperation
	mux := http.NewServeMux()
	mux.HandleFunc("/_apis/wit/workitems/7", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotOps))
		_ = json.NewEncoder(w).Encode(wits.WorkItem{ID: 7})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := wits.NewClient(server.URL, "DEMO", "svc", "pw")
	require.NoError(t, client.AddHyperlink(context.Background(), 7, "https://pms.example.com/incidents/42"))
	require.Len(t, gotOps, 1)
	assert.Equal(t, "/relations/-", gotOps[0].Path)
}

func TestLookupDisplayNameByLoginMiss(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/_apis/identities", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"value": []wits.User{}})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := wits.NewClient(server.URL, "DEMO", "svc", "pw")
	_, ok, err := client.LookupDisplayNameByLogin(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}
