package devserver

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelman/internal/gateway"
	"modelman/internal/transport"
)

// newTestGateway wires the real transport stack against the fixture
// server, exercising the full client path end to end.
func newTestGateway(t *testing.T) *gateway.Gateway {
	t.Helper()
	ts := httptest.NewServer(New().Handler())
	t.Cleanup(ts.Close)
	client := transport.NewClient(transport.Config{BaseURL: ts.URL})
	return gateway.New(transport.NewDeduplicator(client, 10*time.Millisecond))
}

func TestFixtureCatalog(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	folders, err := gw.ListFolders(ctx)
	require.NoError(t, err)
	require.Len(t, folders, 2)
	assert.Equal(t, "checkpoints", folders[0].ID)

	models, err := gw.ListModels(ctx, "checkpoints")
	require.NoError(t, err)
	require.Len(t, models, 2)

	detail, err := gw.GetModel(ctx, "ckpt-1")
	require.NoError(t, err)
	assert.Equal(t, "dreamshaper-v8", detail.Name)
	assert.Equal(t, "1.0", detail.Version)
}

func TestUnknownResourcesReturn404(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	_, err := gw.ListModels(ctx, "nope")
	var te *transport.Error
	require.ErrorAs(t, err, &te)
	assert.True(t, te.IsNotFound())

	_, err = gw.GetModel(ctx, "nope")
	require.ErrorAs(t, err, &te)
	assert.True(t, te.IsNotFound())
	assert.Contains(t, te.Message, "nope")
}

func TestSearchScopedToFolder(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	all, err := gw.Search(ctx, "v", "")
	require.NoError(t, err)
	assert.Len(t, all, 2, "dreamshaper-v8 and realistic-vision-v5 match")

	scoped, err := gw.Search(ctx, "detail", "loras")
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "lora-1", scoped[0].ID)

	none, err := gw.Search(ctx, "detail", "checkpoints")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMetadataPatchReflectedInListing(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	rating := 5
	tags := []string{"favorite", "portrait"}
	detail, err := gw.UpdateMetadata(ctx, "ckpt-2", gateway.MetadataPatch{Rating: &rating, Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, 5, detail.Metadata.Rating)
	assert.Equal(t, tags, detail.Tags)

	// The deduplicator's grace window is short enough that this list call
	// reaches the server and observes the patch.
	time.Sleep(20 * time.Millisecond)
	models, err := gw.ListModels(ctx, "checkpoints")
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, tags, models[1].Tags)
}

func TestMetadataPatchPartialUpdate(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	notes := "my go-to checkpoint"
	detail, err := gw.UpdateMetadata(ctx, "ckpt-1", gateway.MetadataPatch{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, notes, detail.Metadata.Notes)
	assert.Equal(t, "dreamshaper-v8", detail.Name, "unset fields stay untouched")
}
