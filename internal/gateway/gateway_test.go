package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelman/internal/transport"
)

func newTestGateway(t *testing.T, handler http.Handler) *Gateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := transport.NewClient(transport.Config{BaseURL: server.URL})
	return New(transport.NewDeduplicator(client, 0))
}

func TestGateway_ListFolders(t *testing.T) {
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, BasePath+"/folders", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"folders": []Folder{
			{ID: "checkpoints", Name: "Checkpoints", ModelCount: 3},
		}})
	}))

	folders, err := gw.ListFolders(context.Background())
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, "checkpoints", folders[0].ID)
}

func TestGateway_ListModels(t *testing.T) {
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, BasePath+"/folders/loras/models", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"models": []Model{
			{ID: "lora-1", FolderID: "loras", Name: "detail-tweaker"},
		}})
	}))

	models, err := gw.ListModels(context.Background(), "loras")
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "lora-1", models[0].ID)
}

func TestGateway_GetModel(t *testing.T) {
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, BasePath+"/models/ckpt-1", r.URL.Path)
		json.NewEncoder(w).Encode(ModelDetail{
			Model:   Model{ID: "ckpt-1", Name: "dreamshaper"},
			Version: "8.0",
		})
	}))

	detail, err := gw.GetModel(context.Background(), "ckpt-1")
	require.NoError(t, err)
	assert.Equal(t, "dreamshaper", detail.Name)
	assert.Equal(t, "8.0", detail.Version)
}

func TestGateway_ErrorsCarryOperationName(t *testing.T) {
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"code": "MODEL_NOT_FOUND", "message": "no such model"})
	}))

	_, err := gw.GetModel(context.Background(), "nope")
	var te *transport.Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "get model", te.Op)
	assert.True(t, te.IsNotFound())
	assert.Equal(t, "no such model", te.Message)
}

func TestGateway_SearchBuildsQueryAndRanks(t *testing.T) {
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, BasePath+"/search", r.URL.Path)
		assert.Equal(t, "dream", r.URL.Query().Get("q"))
		assert.Equal(t, "checkpoints", r.URL.Query().Get("folder"))
		json.NewEncoder(w).Encode(map[string]any{"models": []Model{
			{ID: "m1", Name: "hyperrealistic-dreamlike-photo"},
			{ID: "m2", Name: "dreams"},
			{ID: "m3", Name: "dream"},
		}})
	}))

	models, err := gw.Search(context.Background(), "dream", "checkpoints")
	require.NoError(t, err)
	require.Len(t, models, 3)
	// Closest names first.
	assert.Equal(t, "m3", models[0].ID)
	assert.Equal(t, "m2", models[1].ID)
	assert.Equal(t, "m1", models[2].ID)
}

func TestGateway_UpdateMetadata(t *testing.T) {
	rating := 5
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, BasePath+"/models/ckpt-1/metadata", r.URL.Path)

		var patch MetadataPatch
		require.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
		require.NotNil(t, patch.Rating)
		assert.Equal(t, 5, *patch.Rating)

		json.NewEncoder(w).Encode(ModelDetail{
			Model:    Model{ID: "ckpt-1", Name: "dreamshaper"},
			Metadata: Metadata{Rating: 5},
		})
	}))

	detail, err := gw.UpdateMetadata(context.Background(), "ckpt-1", MetadataPatch{Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, 5, detail.Metadata.Rating)
}

func TestRankByDistance_EmptyQueryPreservesOrder(t *testing.T) {
	models := []Model{{ID: "a"}, {ID: "b"}}
	ranked := rankByDistance(models, "")
	assert.Equal(t, models, ranked)
}
