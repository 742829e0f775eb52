package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/case-framework/records-portal/pkg/apihelpers"
	"github.com/case-framework/records-portal/pkg/metrics"
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 4096
)

type ClientConfig struct {
	RootURL              string                       `json:"root_url" yaml:"root_url" validate:"required,url"`
	APIKey               string                       `json:"api_key" yaml:"api_key"`
	MTLSCertificatePaths *apihelpers.CertificatePaths `json:"mtls_certificate_paths" yaml:"mtls_certificate_paths"`
	Timeout              time.Duration                `json:"timeout" yaml:"timeout"`
}

// Envelope is the uniform body every backend endpoint answers with.
type Envelope struct {
	Status    string          `json:"status"`
	Data      json.RawMessage `json:"data,omitempty"`
	Message   string          `json:"message,omitempty"`
	Code      int             `json:"code"`
	Path      string          `json:"path,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// DecodeData unmarshals the data field of the envelope into out.
func (e *Envelope) DecodeData(out interface{}) error {
	if e == nil || len(e.Data) == 0 || string(e.Data) == "null" {
		return ErrEmptyData
	}
	return json.Unmarshal(e.Data, out)
}

// Request describes one backend call. Route is the low-cardinality route
// template used as metric label, e.g. "/documents/:id/checkin".
type Request struct {
	Method      string
	Path        string
	Route       string
	Query       url.Values
	Payload     interface{}
	RawBody     []byte
	ContentType string
	Token       string
}

type Client struct {
	rootURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(conf ClientConfig) (*Client, error) {
	if conf.RootURL == "" {
		return nil, ErrMissingRootURL
	}

	transport, err := getTransportWithMTLSConfig(conf.MTLSCertificatePaths)
	if err != nil {
		slog.Error("Error creating transport with mTLS config", slog.String("error", err.Error()))
		return nil, err
	}

	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &http.Client{
		Timeout: timeout,
	}
	if transport != nil {
		client.Transport = transport
	}

	return &Client{
		rootURL:    strings.TrimSuffix(conf.RootURL, "/"),
		apiKey:     conf.APIKey,
		httpClient: client,
	}, nil
}

// Do runs the request and decodes the envelope. Non-2xx answers are returned
// as *APIError, connection problems wrap ErrTransport.
func (c *Client) Do(ctx context.Context, r Request) (*Envelope, error) {
	body, contentType, err := r.body()
	if err != nil {
		return nil, err
	}

	u := c.rootURL + r.Path
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, u, body)
	if err != nil {
		slog.Error("unexpected error in preparing http request", slog.String("error", err.Error()))
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Api-Key", c.apiKey)
	}
	if r.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.Token)
	}

	route := r.Route
	if route == "" {
		route = r.Path
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveBackendCall(r.Method, route, 0, time.Since(start))
		slog.Error("unexpected error in http call", slog.String("method", r.Method), slog.String("route", route), slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %s", ErrTransport, err.Error())
	}
	defer resp.Body.Close()
	metrics.ObserveBackendCall(r.Method, route, resp.StatusCode, time.Since(start))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("Error reading response", slog.String("route", route), slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %s", ErrTransport, err.Error())
	}

	var env Envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr != nil {
			env = Envelope{
				Code:    resp.StatusCode,
				Status:  http.StatusText(resp.StatusCode),
				Message: truncate(string(raw), maxErrorBody),
			}
		}
		apiErr := &APIError{StatusCode: resp.StatusCode, Envelope: env}
		slog.Warn("backend returned error",
			slog.String("method", r.Method),
			slog.String("route", route),
			slog.Int("status", resp.StatusCode),
			slog.String("message", env.Message),
		)
		return &env, apiErr
	}

	if decodeErr != nil {
		if len(raw) == 0 {
			return &Envelope{Code: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}, nil
		}
		slog.Error("Error decoding response", slog.String("route", route), slog.String("error", decodeErr.Error()))
		return nil, fmt.Errorf("%w: %s", ErrInvalidEnvelope, decodeErr.Error())
	}
	return &env, nil
}

func (r Request) body() (io.Reader, string, error) {
	if r.RawBody != nil {
		ct := r.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		return bytes.NewReader(r.RawBody), ct, nil
	}
	if r.Payload == nil {
		return nil, "", nil
	}
	jsonData, err := json.Marshal(r.Payload)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(jsonData), "application/json", nil
}

func getTransportWithMTLSConfig(mTLSCertificatePaths *apihelpers.CertificatePaths) (*http.Transport, error) {
	if mTLSCertificatePaths == nil {
		return nil, nil
	}

	tlsConfig, err := apihelpers.LoadClientTLSConfig(*mTLSCertificatePaths)
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig
	return transport, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
