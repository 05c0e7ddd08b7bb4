package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/air-quality-collector/internal/airquality"
	"github.com/i474232898/air-quality-collector/internal/observability"
)

// DefaultAirKoreaURL is the per-province real-time measurement endpoint.
const DefaultAirKoreaURL = "http://apis.data.go.kr/B552584/ArpltnStatsSvc/getCtprvnMesureSidoLIst"

const (
	pageSize        = 100
	searchCondition = "DAILY"
	resultCodeOK    = "00"
)

// AirKoreaProvider implements airquality.Fetcher for the AirKorea sido measurement API.
type AirKoreaProvider struct {
	name     string
	apiKey   string
	baseURL  string
	client   *http.Client
	breakers *breakerSet
	logger   *zap.Logger
}

// NewAirKoreaProvider creates a provider. An empty baseURL selects DefaultAirKoreaURL.
func NewAirKoreaProvider(client *http.Client, apiKey, baseURL string, breaker BreakerConfig, logger *zap.Logger) *AirKoreaProvider {
	if baseURL == "" {
		baseURL = DefaultAirKoreaURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AirKoreaProvider{
		name:     "airkorea",
		apiKey:   apiKey,
		baseURL:  baseURL,
		client:   client,
		breakers: newBreakerSet("airkorea", breaker, logger),
		logger:   logger,
	}
}

func (p *AirKoreaProvider) Name() string {
	return p.name
}

// Fetch issues a single request for the region's current-day measurements.
// Every returned record is tagged with region, whatever the payload says.
func (p *AirKoreaProvider) Fetch(ctx context.Context, region string) ([]airquality.RawMeasurement, error) {
	start := time.Now()
	records, err := p.fetch(ctx, region)

	outcome := Outcome(err)
	observability.FetchesTotal.WithLabelValues(region, outcome).Inc()
	observability.FetchDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, &airquality.FetchError{Region: region, Err: err}
	}
	p.logger.Debug("airkorea fetch ok",
		zap.String("region", region),
		zap.Int("records", len(records)),
		zap.Duration("duration", time.Since(start)))
	return records, nil
}

func (p *AirKoreaProvider) fetch(ctx context.Context, region string) ([]airquality.RawMeasurement, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("serviceKey", p.apiKey)
		values.Set("returnType", "json")
		values.Set("numOfRows", strconv.Itoa(pageSize))
		values.Set("pageNo", "1")
		values.Set("sidoName", region)
		values.Set("searchCondition", searchCondition)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := doRequest(ctx, p.client, p.breakers.get(region), buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", airquality.ErrTransport, err)
	}

	items, err := decodeSidoItems(body)
	if err != nil {
		return nil, err
	}

	out := make([]airquality.RawMeasurement, 0, len(items))
	for _, it := range items {
		out = append(out, airquality.RawMeasurement{
			Region:   region,
			Station:  string(it.CityName),
			DataTime: string(it.DataTime),
			SO2:      string(it.SO2),
			CO:       string(it.CO),
			O3:       string(it.O3),
			NO2:      string(it.NO2),
			PM10:     string(it.PM10),
			PM25:     string(it.PM25),
		})
	}
	return out, nil
}

type sidoItem struct {
	DataTime flexString `json:"dataTime"`
	CityName flexString `json:"cityName"`
	SO2      flexString `json:"so2Value"`
	CO       flexString `json:"coValue"`
	O3       flexString `json:"o3Value"`
	NO2      flexString `json:"no2Value"`
	PM10     flexString `json:"pm10Value"`
	PM25     flexString `json:"pm25Value"`
}

type sidoResponse struct {
	Response *struct {
		Header struct {
			ResultCode string `json:"resultCode"`
			ResultMsg  string `json:"resultMsg"`
		} `json:"header"`
		Body *struct {
			Items *[]sidoItem `json:"items"`
		} `json:"body"`
	} `json:"response"`
}

// decodeSidoItems extracts response.body.items. Anything else, including the
// XML error documents the API sends for key problems, is ErrEnvelopeMissing.
func decodeSidoItems(body []byte) ([]sidoItem, error) {
	var payload sidoResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", airquality.ErrEnvelopeMissing, err)
	}
	if payload.Response == nil {
		return nil, fmt.Errorf("%w: response missing", airquality.ErrEnvelopeMissing)
	}
	if code := payload.Response.Header.ResultCode; code != "" && code != resultCodeOK {
		return nil, fmt.Errorf("%w: result %s %s", airquality.ErrEnvelopeMissing, code, payload.Response.Header.ResultMsg)
	}
	if payload.Response.Body == nil || payload.Response.Body.Items == nil {
		return nil, fmt.Errorf("%w: body.items missing", airquality.ErrEnvelopeMissing)
	}
	return *payload.Response.Body.Items, nil
}

// flexString accepts a JSON string, number or null and keeps its text form.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(b)
	return nil
}
