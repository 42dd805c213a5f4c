package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priceowl/priceowl/internal/common"
	"github.com/priceowl/priceowl/internal/extract"
	"github.com/priceowl/priceowl/internal/llm"
	"github.com/priceowl/priceowl/internal/model"
	"github.com/priceowl/priceowl/internal/prompt"
	"github.com/priceowl/priceowl/internal/testutil"
)

// fakeProvider replays a scripted extraction text.
type fakeProvider struct {
	text    string
	err     error
	prompts []string
}

func (f *fakeProvider) Extract(_ context.Context, p string) (llm.Completion, error) {
	f.prompts = append(f.prompts, p)
	if f.err != nil {
		return llm.Completion{}, f.err
	}
	return llm.Completion{
		Text: f.text,
		Evidence: []model.SearchEvidence{
			{URL: "https://exito.com/leche", Title: "Leche Entera", HTTPStatus: 200},
		},
	}, nil
}

func (f *fakeProvider) Summarize(_ context.Context, _ string) (string, error) {
	return "", errors.New("not used in search")
}

func newTestService(t *testing.T, provider llm.Client) (*Service, *testutil.TestDB) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	client := extract.NewClient(provider, extract.Config{
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
		RateLimit:  600,
	}, nil)
	t.Cleanup(client.Close)

	builder, err := prompt.NewBuilder(prompt.KindSearch, prompt.Options{Currency: "COP"})
	require.NoError(t, err)

	normalizer := extract.NewNormalizer("COP", nil)
	return NewService(db.Storage, client, normalizer, builder, nil), db
}

const providerText = `Found these prices:
{"results": [
	{"product": "Leche Entera 1L", "store": "Exito", "price": 4900, "url": "https://exito.com/leche", "date": "2026-08-15"},
	{"product": "Leche Entera 1L", "store": "Carulla", "price": 5100, "url": "https://carulla.com/leche", "date": "2026-08-15"},
	{"product": "Sin precio", "store": "D1", "price": 0, "url": "https://d1.com/x"},
]}`

func TestRunStoresAndAttachesRecords(t *testing.T) {
	provider := &fakeProvider{text: providerText}
	svc, db := newTestService(t, provider)
	ctx := context.Background()

	user := "user-a"
	result, err := svc.Run(ctx, model.SearchIntent{
		Product: "Leche Entera",
		City:    "Bogotá",
	}, &user)
	require.NoError(t, err)

	// The zero-price sentinel row is dropped; the valid rows survive.
	require.Len(t, result.Results, 2)
	for _, r := range result.Results {
		assert.Greater(t, r.ID, int64(0))
		require.NotNil(t, r.Metadata.QueryID)
		assert.Equal(t, result.ID, *r.Metadata.QueryID)
	}

	// Records are queryable as market data.
	stored, err := db.Storage.LatestByProduct(ctx, "leche", 10)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	// And attached to the user's history.
	history, err := svc.History(ctx, user, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Len(t, history[0].Results, 2)
}

func TestRunPromptIncludesIntent(t *testing.T) {
	provider := &fakeProvider{text: `{"results": []}`}
	svc, _ := newTestService(t, provider)

	unit := "g"
	_, err := svc.Run(context.Background(), model.SearchIntent{
		Product:  "Arroz Diana",
		Quantity: 500,
		Unit:     &unit,
		City:     "Medellín",
	}, nil)
	require.NoError(t, err)

	require.Len(t, provider.prompts, 1)
	assert.Contains(t, provider.prompts[0], "Arroz Diana")
	assert.Contains(t, provider.prompts[0], "Medellín")
	assert.Contains(t, provider.prompts[0], "500")
}

func TestRunRequiresProduct(t *testing.T) {
	svc, _ := newTestService(t, &fakeProvider{text: `{"results": []}`})

	_, err := svc.Run(context.Background(), model.SearchIntent{Product: "  "}, nil)
	require.Error(t, err)

	var vErr *common.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "product", vErr.Field)
}

func TestRunProviderFailureSurfacesClassified(t *testing.T) {
	provider := &fakeProvider{err: common.ErrTimeout}
	svc, _ := newTestService(t, provider)

	_, err := svc.Run(context.Background(), model.SearchIntent{Product: "Leche"}, nil)
	require.Error(t, err)

	var provErr *common.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, common.ProviderTimeout, provErr.Kind)
	// Exactly the retry budget of attempts was spent.
	assert.Len(t, provider.prompts, 3)
}

func TestRunUnparseableResponseIsUserError(t *testing.T) {
	provider := &fakeProvider{text: "I could not find any structured data today."}
	svc, _ := newTestService(t, provider)

	_, err := svc.Run(context.Background(), model.SearchIntent{Product: "Leche"}, nil)
	require.Error(t, err)

	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, "could not process provider response", userErr.UserMessage)
	require.ErrorIs(t, err, common.ErrMalformedResponse)
}

func TestRunEmptyResultsStillRecordsSearch(t *testing.T) {
	provider := &fakeProvider{text: `{"results": []}`}
	svc, _ := newTestService(t, provider)
	ctx := context.Background()

	user := "user-a"
	result, err := svc.Run(ctx, model.SearchIntent{Product: "Producto Rarisimo"}, &user)
	require.NoError(t, err)
	assert.Empty(t, result.Results)

	history, err := svc.History(ctx, user, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Producto Rarisimo", history[0].Product)
}

func TestClearHistory(t *testing.T) {
	provider := &fakeProvider{text: providerText}
	svc, db := newTestService(t, provider)
	ctx := context.Background()

	user := "user-a"
	_, err := svc.Run(ctx, model.SearchIntent{Product: "Leche Entera"}, &user)
	require.NoError(t, err)

	deleted, err := svc.ClearHistory(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	history, err := svc.History(ctx, user, 10)
	require.NoError(t, err)
	assert.Empty(t, history)

	// Market data persists after history deletion.
	stored, err := db.Storage.LatestByProduct(ctx, "leche", 10)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestSearchesThisMonth(t *testing.T) {
	provider := &fakeProvider{text: `{"results": []}`}
	svc, _ := newTestService(t, provider)
	ctx := context.Background()

	user := "user-a"
	for i := 0; i < 3; i++ {
		_, err := svc.Run(ctx, model.SearchIntent{Product: "Leche"}, &user)
		require.NoError(t, err)
	}

	count, err := svc.SearchesThisMonth(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
