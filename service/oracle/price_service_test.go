package oracle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendrisk/core"
	"lendrisk/pkg/number"
)

func TestPullQuotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/prices", r.URL.Path)
		assert.Equal(t, "SUI,USDC,DEEP", r.URL.Query().Get("assets"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"asset_id":"SUI","price":"1.5","smoothed_price":"1.4","confidence":"0.001","publish_time":1700000000},
			{"asset_id":"USDC","price":"1","confidence":"0.5","publish_time":"1700000001"},
			{"asset_id":"DEEP","price":"0","publish_time":1700000000}
		]`))
	}))
	defer srv.Close()

	s := New(Config{EndPoint: srv.URL, MaxConfidenceBps: 100})
	quotes, err := s.PullQuotes(context.Background(), []core.AssetID{"SUI", "USDC", "DEEP"})
	require.NoError(t, err)

	require.Len(t, quotes, 1)
	sui := quotes["SUI"]
	assert.Equal(t, "1.5", sui.Price.String())
	assert.EqualValues(t, 1700000000, sui.PublishTimeS)

	lo, hi := sui.Bounds()
	assert.Equal(t, "1.4", lo.String())
	assert.Equal(t, "1.5", hi.String())
}

func TestQuote(t *testing.T) {
	s := &PriceService{Config: Config{MaxConfidenceBps: 10}}

	quote, err := s.quote(priceTicker{AssetID: "USDC", Price: number.MustFromString("0.999"), Confidence: number.MustFromString("0.0005"), PublishTime: "1700000001"})
	require.NoError(t, err)
	assert.Equal(t, "0.999", quote.SmoothedPrice.String())
	assert.EqualValues(t, 1700000001, quote.PublishTimeS)

	_, err = s.quote(priceTicker{AssetID: "USDC", Price: number.MustFromString("0.999"), Confidence: number.MustFromString("0.5"), PublishTime: 1700000001})
	assert.True(t, errors.Is(err, ErrRejectedQuote))

	_, err = s.quote(priceTicker{AssetID: "USDC", Price: number.One(), PublishTime: "soon"})
	assert.True(t, errors.Is(err, ErrRejectedQuote))
}
