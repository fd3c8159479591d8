package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"AgentDesk/internal/domain/models"
	domrepo "AgentDesk/internal/domain/repository"
	xhttp "AgentDesk/pkg/http"
)

// Upstream paths of the agent backend.
const (
	pathCreateAgent      = "/agent/create"
	pathAgentsByUser     = "/agent/user"
	pathFeatures         = "/features"
	pathPredict          = "/prediction/predict"
	pathUserPredictions  = "/prediction/userPredictions"
	pathAgentPredictions = "/prediction/agent/"
)

// maxRelayBody caps a relayed auth response.
const maxRelayBody = 1 << 20

// Client implements AgentBackend and AuthRelay over the agent REST API.
type Client struct {
	http *xhttp.Client
}

func NewClient(c *xhttp.Client) *Client {
	return &Client{http: c}
}

func (c *Client) CreateAgent(ctx context.Context, cookies []*http.Cookie, p models.AgentPayload) (bool, error) {
	var created bool
	if err := c.send(ctx, xhttp.MethodPost, pathCreateAgent, cookies, p, &created); err != nil {
		return false, fmt.Errorf("create agent: %w", err)
	}
	return created, nil
}

func (c *Client) Features(ctx context.Context, cookies []*http.Cookie) (models.FeatureCatalog, error) {
	var out models.FeatureCatalog
	if err := c.send(ctx, xhttp.MethodGet, pathFeatures, cookies, nil, &out); err != nil {
		return models.FeatureCatalog{}, fmt.Errorf("features: %w", err)
	}
	return out, nil
}

func (c *Client) AgentsByUser(ctx context.Context, cookies []*http.Cookie) ([]models.Agent, error) {
	out := []models.Agent{}
	if err := c.send(ctx, xhttp.MethodGet, pathAgentsByUser, cookies, nil, &out); err != nil {
		return nil, fmt.Errorf("agents by user: %w", err)
	}
	return out, nil
}

func (c *Client) Predict(ctx context.Context, cookies []*http.Cookie, req models.PredictionRequest) (*models.Prediction, error) {
	var out models.Prediction
	if err := c.send(ctx, xhttp.MethodPost, pathPredict, cookies, req, &out); err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	return &out, nil
}

func (c *Client) UserPredictions(ctx context.Context, cookies []*http.Cookie) ([]models.Prediction, error) {
	out := []models.Prediction{}
	if err := c.send(ctx, xhttp.MethodGet, pathUserPredictions, cookies, nil, &out); err != nil {
		return nil, fmt.Errorf("user predictions: %w", err)
	}
	return out, nil
}

func (c *Client) AgentPredictions(ctx context.Context, cookies []*http.Cookie, agentID int64) ([]models.Prediction, error) {
	out := []models.Prediction{}
	path := pathAgentPredictions + strconv.FormatInt(agentID, 10)
	if err := c.send(ctx, xhttp.MethodGet, path, cookies, nil, &out); err != nil {
		return nil, fmt.Errorf("agent predictions: %w", err)
	}
	return out, nil
}

// Relay forwards an auth call and returns the backend's status, body and
// Set-Cookie headers untouched, whatever the status.
func (c *Client) Relay(ctx context.Context, req models.RelayRequest) (*models.RelayResponse, error) {
	headers := map[string]string{}
	if req.ContentType != "" {
		headers["Content-Type"] = req.ContentType
	}
	var body interface{}
	if len(req.Body) > 0 {
		body = req.Body
	}
	resp, err := c.http.SendRequest(ctx, &xhttp.RequestOptions{
		Method:  req.Method,
		Path:    req.Path,
		Headers: headers,
		Cookies: req.Cookies,
		Body:    body,
	})
	if err != nil {
		return nil, fmt.Errorf("relay %s: %w", req.Path, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxRelayBody))
	if err != nil {
		return nil, fmt.Errorf("relay %s: read body: %w", req.Path, err)
	}
	return &models.RelayResponse{
		Status:      resp.StatusCode,
		Body:        b,
		ContentType: resp.Header.Get("Content-Type"),
		SetCookies:  resp.Header.Values("Set-Cookie"),
	}, nil
}

func (c *Client) send(ctx context.Context, method, path string, cookies []*http.Cookie, body, dest interface{}) error {
	_, err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  method,
		Path:    path,
		Cookies: cookies,
		Body:    body,
	}, dest)
	return err
}

var (
	_ domrepo.AgentBackend = (*Client)(nil)
	_ domrepo.AuthRelay    = (*Client)(nil)
)
