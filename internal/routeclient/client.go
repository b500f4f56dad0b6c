// Package routeclient talks to the remote route service over JSON/HTTP.
package routeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"

	"mapa_rutas/core-go/internal/graph"
)

const (
	PathComputeRoutes = "/api/calcular-rutas"
	PathChangeBudget  = "/api/cambiar-kilometraje"
	PathClearRoute    = "/api/limpiar-ruta"

	OpComputeRoutes = "compute routes"
	OpChangeBudget  = "change distance budget"
	OpClearRoute    = "clear route"
	OpFetchMap      = "fetch map"

	statusSuccess = "success"

	// maxBodyBytes bounds how much of a response is read.
	maxBodyBytes = 1 << 20
)

// ComputeRequest is the body of a route computation. Remote-view callers set
// MapType; fallback callers send the node lists instead.
type ComputeRequest struct {
	MapType       string       `json:"tipoMapa,omitempty"`
	Kilometraje   float64      `json:"kilometraje"`
	ResponseNodes []graph.Node `json:"nodosRespuesta,omitempty"`
	RiskNodes     []graph.Node `json:"nodosRiesgo,omitempty"`
}

type envelope struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Rutas   []graph.Route `json:"rutas"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL. A nil httpClient means
// http.DefaultClient; deadlines come from the caller's context.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) ComputeRoutes(ctx context.Context, req ComputeRequest) ([]graph.Route, error) {
	env, err := c.post(ctx, OpComputeRoutes, PathComputeRoutes, req)
	if err != nil {
		return nil, err
	}
	routes := env.Rutas
	if routes == nil {
		routes = []graph.Route{}
	}
	return routes, nil
}

func (c *Client) ChangeDistanceBudget(ctx context.Context, km float64) error {
	_, err := c.post(ctx, OpChangeBudget, PathChangeBudget, map[string]float64{"kilometraje": km})
	return err
}

func (c *Client) ClearRoute(ctx context.Context) error {
	_, err := c.post(ctx, OpClearRoute, PathClearRoute, struct{}{})
	return err
}

// FetchMap loads the GeoJSON layer served at /mapa/{mapType}.
func (c *Client) FetchMap(ctx context.Context, mapType string) (*geojson.FeatureCollection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/mapa/"+mapType, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", OpFetchMap, err)
	}
	req.Header.Set("Accept", "application/geo+json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: OpFetchMap, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{Op: OpFetchMap, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env envelope
		_ = json.Unmarshal(raw, &env)
		return nil, &StatusError{Op: OpFetchMap, HTTPStatus: resp.StatusCode, Status: env.Status, Message: env.Message}
	}

	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, &TransportError{Op: OpFetchMap, Err: fmt.Errorf("decode map: %w", err)}
	}
	return fc, nil
}

func (c *Client) post(ctx context.Context, op, path string, body any) (envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return envelope{}, fmt.Errorf("%s: encode request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return envelope{}, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return envelope{}, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return envelope{}, &TransportError{Op: op, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return envelope{}, &StatusError{Op: op, HTTPStatus: resp.StatusCode}
		}
		return envelope{}, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 || env.Status != statusSuccess {
		return envelope{}, &StatusError{
			Op:         op,
			HTTPStatus: resp.StatusCode,
			Status:     env.Status,
			Message:    env.Message,
		}
	}
	return env, nil
}
