package marketdata

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewClient(baseURL, "test-key", log)
}

const sampleResponse = `{
  "response": {
    "body": {
      "items": {
        "item": [
          {
            "basDt": "20250829",
            "srtnCd": "005930",
            "isinCd": "KR7005930003",
            "itmsNm": "삼성전자",
            "mrktCtg": "KOSPI",
            "clpr": "71000",
            "vs": "-500",
            "fltRt": "-0.70",
            "mkp": "71500",
            "hipr": "71800",
            "lopr": "70900",
            "trqu": "12345678",
            "trPrc": "876543210000"
          }
        ]
      }
    }
  }
}`

func TestFetchQuotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("serviceKey"))
		assert.Equal(t, "json", r.URL.Query().Get("resultType"))
		assert.Equal(t, "005930", r.URL.Query().Get("likeSrtnCd"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	quotes, err := client.FetchQuotes(context.Background(), "005930")
	require.NoError(t, err)
	require.Len(t, quotes, 1)

	q := quotes[0]
	assert.Equal(t, "20250829", q.BaseDate)
	assert.Equal(t, "005930", q.ShortCode)
	assert.Equal(t, "KOSPI", q.MarketCategory)
	assert.True(t, q.ClosingPrice.Equal(decimal.NewFromInt(71000)))
	assert.True(t, q.FluctuationRate.Equal(decimal.RequireFromString("-0.70")))
	assert.EqualValues(t, 12345678, q.TradeQuantity)
}

func TestFetchQuotes_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.FetchQuotes(context.Background(), "005930")
	assert.Error(t, err)
}

// A malformed row is dropped; the rest of the batch still comes through.
func TestFetchQuotes_SkipsMalformedRows(t *testing.T) {
	payload := `{"response":{"body":{"items":{"item":[
		{"basDt":"20250829","srtnCd":"005930","clpr":"not-a-number"},
		{"basDt":"20250829","srtnCd":"005930","isinCd":"KR7005930003","itmsNm":"삼성전자","mrktCtg":"KOSPI",
		 "clpr":"71000","vs":"-500","fltRt":"-0.70","mkp":"71500","hipr":"71800","lopr":"70900",
		 "trqu":"12345678","trPrc":"876543210000"}
	]}}}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	quotes, err := client.FetchQuotes(context.Background(), "005930")
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.True(t, quotes[0].ClosingPrice.Equal(decimal.NewFromInt(71000)))
}
