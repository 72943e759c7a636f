// Package gateway is the typed facade over the transport client exposing
// the model-library domain operations.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"modelman/internal/transport"
)

// BasePath is the URL prefix of the backend API.
const BasePath = "/api/v1"

// Gateway builds request descriptors per operation and hands them to the
// deduplicating transport. It contains no business logic; failures come
// back in the transport taxonomy, decorated with the operation name.
type Gateway struct {
	dd *transport.Deduplicator
}

// New creates a gateway over the given deduplicating transport.
func New(dd *transport.Deduplicator) *Gateway {
	return &Gateway{dd: dd}
}

// decorate stamps the operation name onto transport failures.
func decorate(op string, err error) error {
	if err == nil {
		return nil
	}
	te := transport.AsError(err)
	if te.Op == "" {
		te.Op = op
	}
	return te
}

// ListFolders fetches all folders.
func (g *Gateway) ListFolders(ctx context.Context) ([]Folder, error) {
	var resp foldersResponse
	err := g.dd.DoJSON(ctx, transport.Descriptor{
		Method: http.MethodGet,
		Path:   BasePath + "/folders",
	}, &resp)
	if err != nil {
		return nil, decorate("list folders", err)
	}
	return resp.Folders, nil
}

// ListModels fetches the models of one folder.
func (g *Gateway) ListModels(ctx context.Context, folderID string) ([]Model, error) {
	var resp modelsResponse
	err := g.dd.DoJSON(ctx, transport.Descriptor{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("%s/folders/%s/models", BasePath, url.PathEscape(folderID)),
	}, &resp)
	if err != nil {
		return nil, decorate("list models", err)
	}
	return resp.Models, nil
}

// GetModel fetches the enriched record for one model.
func (g *Gateway) GetModel(ctx context.Context, modelID string) (*ModelDetail, error) {
	var detail ModelDetail
	err := g.dd.DoJSON(ctx, transport.Descriptor{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("%s/models/%s", BasePath, url.PathEscape(modelID)),
	}, &detail)
	if err != nil {
		return nil, decorate("get model", err)
	}
	return &detail, nil
}

// Search queries models by name, optionally scoped to a folder. Results
// are re-ranked client-side by edit distance to the query so near-exact
// names surface first.
func (g *Gateway) Search(ctx context.Context, query, folderID string) ([]Model, error) {
	values := url.Values{}
	values.Set("q", query)
	if folderID != "" {
		values.Set("folder", folderID)
	}

	var resp modelsResponse
	err := g.dd.DoJSON(ctx, transport.Descriptor{
		Method: http.MethodGet,
		Path:   BasePath + "/search?" + values.Encode(),
	}, &resp)
	if err != nil {
		return nil, decorate("search models", err)
	}
	return rankByDistance(resp.Models, query), nil
}

// UpdateMetadata patches a model's metadata and returns the updated
// record. Writes bypass deduplication.
func (g *Gateway) UpdateMetadata(ctx context.Context, modelID string, patch MetadataPatch) (*ModelDetail, error) {
	var detail ModelDetail
	err := g.dd.DoJSON(ctx, transport.Descriptor{
		Method: http.MethodPut,
		Path:   fmt.Sprintf("%s/models/%s/metadata", BasePath, url.PathEscape(modelID)),
		Body:   patch,
	}, &detail)
	if err != nil {
		return nil, decorate("update metadata", err)
	}
	return &detail, nil
}

// rankByDistance orders models by levenshtein distance between the query
// and the model name, stable so the backend's order breaks ties.
func rankByDistance(models []Model, query string) []Model {
	if query == "" || len(models) < 2 {
		return models
	}
	q := strings.ToLower(query)
	ranked := make([]Model, len(models))
	copy(ranked, models)
	sort.SliceStable(ranked, func(i, j int) bool {
		return levenshtein.ComputeDistance(q, strings.ToLower(ranked[i].Name)) <
			levenshtein.ComputeDistance(q, strings.ToLower(ranked[j].Name))
	})
	return ranked
}
