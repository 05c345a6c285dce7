// Package marketdata fetches and caches quotes from the public stock-price
// API. The cache is an injectable object rather than a package-global, so the
// HTTP layer and the websocket stream depend on an interface with defined
// staleness instead of a module-level variable.
package marketdata

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Quote is one daily price row, normalized from the upstream field names.
type Quote struct {
	BaseDate           string          `json:"baseDate"`
	ShortCode          string          `json:"shortCode"`
	ISINCode           string          `json:"isinCode"`
	ItemName           string          `json:"itemName"`
	MarketCategory     string          `json:"marketCategory"`
	ClosingPrice       decimal.Decimal `json:"closingPrice"`
	ComparedToPrevious decimal.Decimal `json:"comparedToPrevious"`
	FluctuationRate    decimal.Decimal `json:"fluctuationRate"`
	MarketPrice        decimal.Decimal `json:"marketPrice"`
	HighPrice          decimal.Decimal `json:"highPrice"`
	LowPrice           decimal.Decimal `json:"lowPrice"`
	TradeQuantity      int64           `json:"tradeQuantity"`
	TradePrice         decimal.Decimal `json:"tradePrice"`
}

// apiResponse mirrors the upstream JSON envelope. All numeric values arrive
// as strings.
type apiResponse struct {
	Response struct {
		Body struct {
			Items struct {
				Item []apiItem `json:"item"`
			} `json:"items"`
		} `json:"body"`
	} `json:"response"`
}

type apiItem struct {
	BasDt   string `json:"basDt"`
	SrtnCd  string `json:"srtnCd"`
	IsinCd  string `json:"isinCd"`
	ItmsNm  string `json:"itmsNm"`
	MrktCtg string `json:"mrktCtg"`
	Clpr    string `json:"clpr"`
	Vs      string `json:"vs"`
	FltRt   string `json:"fltRt"`
	Mkp     string `json:"mkp"`
	Hipr    string `json:"hipr"`
	Lopr    string `json:"lopr"`
	Trqu    string `json:"trqu"`
	TrPrc   string `json:"trPrc"`
}

// Client fetches quotes for configured stock codes.
type Client struct {
	http       *resty.Client
	serviceKey string
	log        *logrus.Logger
}

func NewClient(apiURL, serviceKey string, log *logrus.Logger) *Client {
	return &Client{
		http:       resty.New().SetBaseURL(apiURL),
		serviceKey: serviceKey,
		log:        log,
	}
}

// FetchQuotes requests the daily price rows for one stock code.
func (c *Client) FetchQuotes(ctx context.Context, code string) ([]Quote, error) {
	var body apiResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"serviceKey": c.serviceKey,
			"resultType": "json",
			"likeSrtnCd": code,
			"numOfRows":  "100",
			"pageNo":     "1",
		}).
		SetResult(&body).
		Get("")
	if err != nil {
		return nil, fmt.Errorf("market data request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("market data request failed: status %d", resp.StatusCode())
	}

	items := body.Response.Body.Items.Item
	quotes := make([]Quote, 0, len(items))
	for _, it := range items {
		q, err := it.toQuote()
		if err != nil {
			// One bad row must not poison the whole refresh.
			c.log.WithError(err).WithFields(logrus.Fields{
				"code":     code,
				"baseDate": it.BasDt,
			}).Warn("skipping malformed market data row")
			continue
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

func (it apiItem) toQuote() (Quote, error) {
	q := Quote{
		BaseDate:       it.BasDt,
		ShortCode:      it.SrtnCd,
		ISINCode:       it.IsinCd,
		ItemName:       it.ItmsNm,
		MarketCategory: it.MrktCtg,
	}

	fields := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&q.ClosingPrice, it.Clpr},
		{&q.ComparedToPrevious, it.Vs},
		{&q.FluctuationRate, it.FltRt},
		{&q.MarketPrice, it.Mkp},
		{&q.HighPrice, it.Hipr},
		{&q.LowPrice, it.Lopr},
		{&q.TradePrice, it.TrPrc},
	}
	for _, f := range fields {
		d, err := decimal.NewFromString(f.src)
		if err != nil {
			return Quote{}, err
		}
		*f.dst = d
	}

	qty, err := decimal.NewFromString(it.Trqu)
	if err != nil {
		return Quote{}, err
	}
	q.TradeQuantity = qty.IntPart()
	return q, nil
}
