package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pigeonworks-llc/go-portalloc/pkg/ports"

	"github.com/pigeonworks-llc/billed/emulator/internal/api"
	"github.com/pigeonworks-llc/billed/emulator/internal/oauth"
	"github.com/pigeonworks-llc/billed/emulator/internal/store"
	"github.com/pigeonworks-llc/billed/pkg/bills"
	"github.com/pigeonworks-llc/billed/pkg/billslist"
	"github.com/pigeonworks-llc/billed/pkg/billstore"
	"github.com/pigeonworks-llc/billed/pkg/newbill"
)

type parallelTestClient struct {
	baseURL string
	token   string
}

func setupParallelTestServer(t *testing.T) *parallelTestClient {
	t.Helper()

	// Allocate a free port using go-portalloc
	allocator := ports.NewAllocator(nil)
	port, err := allocator.AllocateRange(1)
	if err != nil {
		t.Fatalf("Failed to allocate port: %v", err)
	}

	dir := t.TempDir()
	st, err := store.New(filepath.Join(dir, "billstore.db"))
	if err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", port)
	handler := api.NewRouter(api.RouterConfig{
		Store:     st,
		Tokens:    oauth.NewTokenManager(),
		UploadDir: filepath.Join(dir, "receipts"),
		PublicURL: baseURL,
		Quiet:     true,
	})

	// Start server in background
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: handler,
	}

	go func() {
		_ = server.ListenAndServe()
	}()

	// Wait for server to be ready
	maxRetries := 10
	for i := 0; i < maxRetries; i++ {
		resp, err := http.Get(baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			break
		}
		if i == maxRetries-1 {
			_ = st.Close()
			t.Fatalf("Server did not start: %v", err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Cleanup(func() {
		_ = server.Close()
		_ = st.Close()
	})

	return &parallelTestClient{baseURL: baseURL}
}

// getToken fetches an access token with the client_credentials grant.
func getToken(t *testing.T, baseURL string) string {
	t.Helper()

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {testClientID},
		"client_secret": {testClientSecret},
	}
	resp, err := http.PostForm(baseURL+"/oauth/token", form)
	if err != nil {
		t.Fatalf("Failed to get token: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Token request failed with %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp oauth.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		t.Fatalf("Failed to decode token response: %v", err)
	}

	return tokenResp.AccessToken
}

func (c *parallelTestClient) request(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()

	if c.token == "" {
		c.token = getToken(t, c.baseURL)
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to send request: %v", err)
	}

	return resp
}

func TestParallelOAuth2(t *testing.T) {
	t.Parallel()

	client := setupParallelTestServer(t)

	t.Run("Get access token", func(t *testing.T) {
		token := getToken(t, client.baseURL)
		if token == "" {
			t.Fatal("Expected non-empty token")
		}
	})

	t.Run("Use token for API call", func(t *testing.T) {
		resp := client.request(t, "GET", "/api/v1/bills", nil)
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("Expected status 200, got %d", resp.StatusCode)
		}
	})

	t.Run("Refresh token", func(t *testing.T) {
		resp, err := http.PostForm(client.baseURL+"/oauth/token", url.Values{
			"grant_type": {"client_credentials"},
		})
		if err != nil {
			t.Fatalf("Failed to get token: %v", err)
		}
		var first oauth.TokenResponse
		_ = json.NewDecoder(resp.Body).Decode(&first)
		resp.Body.Close()

		refresh := url.Values{"grant_type": {"refresh_token"}, "refresh_token": {first.RefreshToken}}
		for i, want := range []int{http.StatusOK, http.StatusBadRequest} {
			resp, err := http.PostForm(client.baseURL+"/oauth/token", refresh)
			if err != nil {
				t.Fatalf("Failed to refresh token: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != want {
				t.Errorf("refresh #%d: expected status %d, got %d", i+1, want, resp.StatusCode)
			}
		}
	})
}

func TestParallelBillOperations(t *testing.T) {
	t.Parallel()

	client := setupParallelTestServer(t)
	data := NewTestDataBuilder(testEmail)

	t.Run("Create and retrieve bill", func(t *testing.T) {
		resp := client.request(t, "POST", "/api/v1/bills", data.Bill("Train", 64, "2025-03-01"))
		if resp.StatusCode != http.StatusCreated {
			body, _ := io.ReadAll(resp.Body)
			t.Fatalf("Expected status 201, got %d: %s", resp.StatusCode, string(body))
		}

		var created bills.BillRecord
		_ = json.NewDecoder(resp.Body).Decode(&created)
		resp.Body.Close()

		resp = client.request(t, "GET", "/api/v1/bills/"+created.ID, nil)
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("Expected status 200, got %d", resp.StatusCode)
		}
	})

	t.Run("Filter by email", func(t *testing.T) {
		other := NewTestDataBuilder("someone@else.tld").Bill("Hotel", 90, "2025-03-02")
		resp := client.request(t, "POST", "/api/v1/bills", other)
		resp.Body.Close()

		resp = client.request(t, "GET", "/api/v1/bills?email="+url.QueryEscape(testEmail), nil)
		defer resp.Body.Close()

		var list []bills.BillRecord
		if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
			t.Fatalf("Failed to decode bills: %v", err)
		}
		for _, b := range list {
			if b.Email != testEmail {
				t.Errorf("unexpected bill of %s", b.Email)
			}
		}
	})

	t.Run("Missing bill", func(t *testing.T) {
		resp := client.request(t, "GET", "/api/v1/bills/does-not-exist", nil)
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", resp.StatusCode)
		}
	})

	t.Run("Delete bill", func(t *testing.T) {
		resp := client.request(t, "PUT", "/api/v1/bills/to-delete", data.Bill("Taxi", 12, ""))
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d", resp.StatusCode)
		}

		resp = client.request(t, "DELETE", "/api/v1/bills/to-delete", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("Expected status 204, got %d", resp.StatusCode)
		}
	})
}

func TestParallelEmployees(t *testing.T) {
	t.Parallel()

	client := setupParallelTestServer(t)
	bs := billstore.NewClient(billstore.ClientConfig{
		APIURL:      client.baseURL,
		AccessToken: getToken(t, client.baseURL),
	})

	dates := GenerateDateSequence(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), 5)

	var wg sync.WaitGroup
	errs := make(chan error, len(dates))
	for i, date := range dates {
		wg.Add(1)
		go func(i int, date string) {
			defer wg.Done()

			data := NewTestDataBuilder(fmt.Sprintf("employee%d@test.tld", i))
			nb := newbill.New(bs, data.Session(), nil)
			if err := nb.SelectFile(context.Background(), data.JPEG(fmt.Sprintf("receipt-%d.jpg", i))); err != nil {
				errs <- err
				return
			}
			if err := nb.Submit(context.Background(), data.Form("Repas", int64(10*(i+1)), date)); err != nil {
				errs <- err
			}
		}(i, date)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("submission failed: %v", err)
	}

	result := billslist.New(bs, billslist.Options{}).LoadBills(context.Background())
	if result.Err != nil {
		t.Fatalf("LoadBills() error = %v", result.Err)
	}
	if len(result.Bills) != len(dates) {
		t.Fatalf("expected %d bills, got %d", len(dates), len(result.Bills))
	}
	for i, b := range result.Bills {
		if want := dates[len(dates)-1-i]; b.Date != want {
			t.Errorf("bill %d date = %s, expected %s", i, b.Date, want)
		}
	}
}
