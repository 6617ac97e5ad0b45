package interpret

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/firewatch/env-data-aggregation/internal/httpx"
)

// ErrMalformedTable marks an attribute table response that could not be
// parsed into code/label pairs.
var ErrMalformedTable = errors.New("malformed attribute table")

// ErrUnsupportedProduct marks a decode request for a product with no
// categorical attribute table.
var ErrUnsupportedProduct = errors.New("unsupported categorical product")

// HTTPTableLoader fetches CSV attribute tables from the table store. Each
// product maps to <baseURL>/<product>.csv with a VALUE column for the code
// and one of the product's label columns for the name.
type HTTPTableLoader struct {
	baseURL string
	cfg     httpx.ClientConfig
	breaker *gobreaker.CircuitBreaker
}

// NewHTTPTableLoader creates a loader against the given table store base URL.
func NewHTTPTableLoader(baseURL string, client *http.Client) *HTTPTableLoader {
	return &HTTPTableLoader{
		baseURL: strings.TrimRight(baseURL, "/"),
		cfg: httpx.ClientConfig{
			Client:  client,
			Backoff: httpx.DefaultBackoff(),
		},
		breaker: httpx.NewBreaker("attribute-tables"),
	}
}

// Load fetches and parses the attribute table for a categorical product.
func (l *HTTPTableLoader) Load(ctx context.Context, product Product) (map[int]string, error) {
	if !product.Categorical() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProduct, product)
	}

	url := fmt.Sprintf("%s/%s.csv", l.baseURL, product)
	resp, err := httpx.DoRequestWithResilience(ctx, l.cfg, l.breaker, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, url, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch attribute table %s: %w", product, err)
	}
	defer resp.Body.Close()

	return ParseAttributeTable(resp.Body, product)
}

// ParseAttributeTable reads a CSV attribute table. The first matching label
// column in the product's precedence list wins.
func ParseAttributeTable(r io.Reader, product Product) (map[int]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
	}

	valueCol := -1
	labelCol := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "VALUE") {
			valueCol = i
		}
	}
	for _, candidate := range product.LabelColumns() {
		for i, name := range header {
			if strings.EqualFold(strings.TrimSpace(name), candidate) {
				labelCol = i
				break
			}
		}
		if labelCol >= 0 {
			break
		}
	}
	if valueCol < 0 || labelCol < 0 {
		return nil, fmt.Errorf("%w: missing VALUE or label column", ErrMalformedTable)
	}

	entries := make(map[int]string)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
		}
		if valueCol >= len(record) || labelCol >= len(record) {
			continue
		}

		code, err := strconv.Atoi(strings.TrimSpace(record[valueCol]))
		if err != nil {
			// Header repeats and stray notes show up in real tables.
			continue
		}
		label := strings.TrimSpace(record[labelCol])
		if label == "" {
			continue
		}
		entries[code] = label
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no usable rows", ErrMalformedTable)
	}
	return entries, nil
}
