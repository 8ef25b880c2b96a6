// Package geo wraps the public countriesnow API that serves cascading
// country, state and city lists for listing locations.
package geo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client is a thin request/response client for the geography service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Client against the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type apiResponse struct {
	Error bool            `json:"error"`
	Msg   string          `json:"msg"`
	Data  json.RawMessage `json:"data"`
}

// Countries lists the known country names.
func (c *Client) Countries(ctx context.Context) ([]string, error) {
	var data []struct {
		Country string `json:"country"`
	}
	if err := c.call(ctx, http.MethodGet, "/countries/positions", nil, &data); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(data))
	for _, entry := range data {
		names = append(names, entry.Country)
	}
	return names, nil
}

// States lists the states of a country.
func (c *Client) States(ctx context.Context, country string) ([]string, error) {
	body := map[string]string{"country": country}
	var data struct {
		States []struct {
			Name string `json:"name"`
		} `json:"states"`
	}
	if err := c.call(ctx, http.MethodPost, "/countries/states", body, &data); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(data.States))
	for _, s := range data.States {
		names = append(names, s.Name)
	}
	return names, nil
}

// Cities lists the cities of a state.
func (c *Client) Cities(ctx context.Context, country, state string) ([]string, error) {
	body := map[string]string{"country": country, "state": state}
	var cities []string
	if err := c.call(ctx, http.MethodPost, "/countries/state/cities", body, &cities); err != nil {
		return nil, err
	}
	return cities, nil
}

func (c *Client) call(ctx context.Context, method, path string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("geo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("geo request: unexpected status %d", resp.StatusCode)
	}

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("geo response: %w", err)
	}
	if envelope.Error {
		return fmt.Errorf("geo response: %s", envelope.Msg)
	}
	return json.Unmarshal(envelope.Data, out)
}
