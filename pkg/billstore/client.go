// Package billstore provides the client for the remote bill store API.
package billstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/pigeonworks-llc/billed/pkg/bills"
)

// Store is the narrow view of the remote store used by the controllers.
type Store interface {
	// ListBills returns every bill visible to the caller.
	ListBills(ctx context.Context) ([]bills.BillRecord, error)

	// CreateOrUpdateBill persists the record and returns it as stored.
	// Records without an ID are created; others are upserted by ID.
	CreateOrUpdateBill(ctx context.Context, record bills.BillRecord) (*bills.BillRecord, error)

	// UploadFile stores a receipt and returns a durable reference to it.
	// Callers must run the receipt validator first.
	UploadFile(ctx context.Context, file bills.UploadedFile) (*bills.FileRef, error)
}

// Ensure Client implements Store
var _ Store = (*Client)(nil)

// ClientConfig represents the configuration for the bill store client.
type ClientConfig struct {
	APIURL       string
	AccessToken  string
	ClientID     string
	ClientSecret string
	UserEmail    string        // sent with uploads when set
	Timeout      time.Duration // Default: 30 seconds
	HTTPClient   *http.Client  // optional base client (transport, cookies)
}

// Client is a bill store API client. It never retries or caches.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userEmail  string
}

// NewClient creates a new bill store client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	base := config.HTTPClient
	if base == nil {
		base = &http.Client{}
	}
	baseURL := strings.TrimSuffix(config.APIURL, "/")

	// oauth2 picks the transport up from the context.
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)

	var httpClient *http.Client
	switch {
	case config.ClientID != "" && config.ClientSecret != "":
		cc := clientcredentials.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			TokenURL:     baseURL + "/oauth/token",
			AuthStyle:    oauth2.AuthStyleInParams,
		}
		httpClient = cc.Client(ctx)
	case config.AccessToken != "":
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.AccessToken, TokenType: "Bearer"})
		httpClient = oauth2.NewClient(ctx, src)
	default:
		httpClient = &http.Client{Transport: base.Transport, Jar: base.Jar}
	}
	httpClient.Timeout = timeout

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		userEmail:  config.UserEmail,
	}
}

// ListBills handles GET /api/v1/bills.
// When a user email is configured only that employee's bills are requested.
// Any body that is not a JSON array is reported as a TransportError.
func (c *Client) ListBills(ctx context.Context) ([]bills.BillRecord, error) {
	endpoint := c.baseURL + "/api/v1/bills"
	if c.userEmail != "" {
		endpoint += "?" + url.Values{"email": {c.userEmail}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req, "list")
	if err != nil {
		return nil, err
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(body, &elems); err != nil || elems == nil {
		return nil, &bills.TransportError{Op: "list", Err: errors.New("response is not a list of bills")}
	}

	records := make([]bills.BillRecord, 0, len(elems))
	for _, elem := range elems {
		records = append(records, decodeBill(elem))
	}
	return records, nil
}

// CreateOrUpdateBill handles POST /api/v1/bills and PUT /api/v1/bills/{id}.
func (c *Client) CreateOrUpdateBill(ctx context.Context, record bills.BillRecord) (*bills.BillRecord, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bill: %w", err)
	}

	method, endpoint, op := http.MethodPost, c.baseURL+"/api/v1/bills", "create"
	if record.ID != "" {
		method, endpoint, op = http.MethodPut, c.baseURL+"/api/v1/bills/"+url.PathEscape(record.ID), "update"
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req, op)
	if err != nil {
		return nil, err
	}

	var saved bills.BillRecord
	if err := json.Unmarshal(body, &saved); err != nil {
		return nil, &bills.TransportError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return &saved, nil
}

// UploadFile handles POST /api/v1/files (multipart/form-data).
func (c *Client) UploadFile(ctx context.Context, file bills.UploadedFile) (*bills.FileRef, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if c.userEmail != "" {
		if err := mw.WriteField("email", c.userEmail); err != nil {
			return nil, fmt.Errorf("failed to write email field: %w", err)
		}
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, fmt.Errorf("failed to write file part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/files", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := c.do(req, "upload")
	if err != nil {
		return nil, err
	}

	var ref bills.FileRef
	if err := json.Unmarshal(body, &ref); err != nil {
		return nil, &bills.TransportError{Op: "upload", Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if ref.FileURL == "" || ref.Key == "" {
		return nil, &bills.TransportError{Op: "upload", Err: errors.New("response is missing fileUrl or key")}
	}
	return &ref, nil
}

// do sends the request once and returns the body of a 2xx response.
func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &bills.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &bills.TransportError{Op: op, Code: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseError(op, resp.StatusCode, body)
	}
	return body, nil
}

// ErrorResponse represents an error body returned by the store.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// parseError builds a TransportError from a non-2xx response.
func parseError(op string, status int, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		text := strings.TrimSpace(string(body))
		if text == "" {
			text = http.StatusText(status)
		}
		return &bills.TransportError{Op: op, Code: status, Err: errors.New(text)}
	}

	if errResp.ErrorDescription != "" {
		return &bills.TransportError{Op: op, Code: status, Err: fmt.Errorf("%s - %s", errResp.Error, errResp.ErrorDescription)}
	}
	return &bills.TransportError{Op: op, Code: status, Err: errors.New(errResp.Error)}
}
