package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wan2gp/wanctl/pkg/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestClient_Submit(t *testing.T) {
	var gotPayload models.GenerationPayload
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/jobs" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected JSON content type, got %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("Failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"jobId": "job-123", "status": "queued"})
	})

	jobID, err := client.Submit(context.Background(), models.GenerationPayload{
		Model:      "ltx2",
		Parameters: map[string]interface{}{"prompt": "a boat"},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if jobID != "job-123" {
		t.Errorf("Expected job-123, got %q", jobID)
	}
	if gotPayload.Model != "ltx2" {
		t.Errorf("Expected model ltx2 on the wire, got %q", gotPayload.Model)
	}
}

func TestClient_Submit_MissingJobID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "queued"})
	})

	_, err := client.Submit(context.Background(), models.GenerationPayload{Model: "ltx2"})
	re, ok := AsError(err)
	if !ok || re.Kind != ErrMalformedResponse {
		t.Errorf("Expected malformed response error, got %v", err)
	}
}

func TestClient_Status(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/jobs/job-1" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jobId":    "job-1",
			"status":   "running",
			"progress": 0.4,
		})
	})

	status, err := client.Status(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.JobID != "job-1" || status.Status != "running" {
		t.Errorf("Unexpected status: %+v", status)
	}
	if status.Progress == nil || *status.Progress != 0.4 {
		t.Errorf("Expected progress 0.4, got %v", status.Progress)
	}
}

func TestClient_Status_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Job not found", http.StatusNotFound)
	})

	_, err := client.Status(context.Background(), "missing")
	re, ok := AsError(err)
	if !ok || re.Kind != ErrHTTP {
		t.Fatalf("Expected HTTP error, got %v", err)
	}
	if re.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", re.Code)
	}
}

func TestClient_Status_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	})

	_, err := client.Status(context.Background(), "job-1")
	re, ok := AsError(err)
	if !ok || re.Kind != ErrMalformedResponse {
		t.Errorf("Expected malformed response error, got %v", err)
	}
}

func TestClient_UnreachableHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	client, err := NewClient(addr)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	_, err = client.Status(context.Background(), "job-1")
	re, ok := AsError(err)
	if !ok || re.Kind != ErrUnreachableHost {
		t.Errorf("Expected unreachable host error, got %v", err)
	}
	if !Retryable(err) {
		t.Error("Unreachable host should be retryable")
	}
}

func TestClient_Assets(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/jobs/job-1/assets" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jobId": "job-1",
			"assets": []map[string]string{
				{"id": "a1", "url": "/assets/a1.mp4", "mimeType": "video/mp4", "fileName": "a1.mp4"},
				{"id": "a2", "url": "http://example.com/a2.png"},
			},
		})
	})

	assets, err := client.Assets(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("Assets failed: %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("Expected 2 assets, got %d", len(assets))
	}
	if assets[0].ID != "a1" || assets[0].MimeType != "video/mp4" {
		t.Errorf("Unexpected first asset: %+v", assets[0])
	}
	if assets[1].URL != "http://example.com/a2.png" {
		t.Errorf("Unexpected second asset URL: %s", assets[1].URL)
	}
}

func TestClient_Cancel(t *testing.T) {
	cancelled := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" && r.URL.Path == "/jobs/job-1/cancel" {
			cancelled = true
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := client.Cancel(context.Background(), "job-1"); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if !cancelled {
		t.Error("Expected cancel endpoint to be called")
	}
}

func TestClient_Retry(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/jobs/job-1/retry" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"jobId": "job-2"})
	})

	newID, err := client.Retry(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if newID != "job-2" {
		t.Errorf("Expected job-2, got %q", newID)
	}
}

func TestClient_Download(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/assets/ok.png":
			w.Write([]byte("png-bytes"))
		case "/assets/empty.png":
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	})

	data, err := client.Download(context.Background(), client.BaseURL()+"assets/ok.png")
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("Unexpected asset bytes: %q", data)
	}

	_, err = client.Download(context.Background(), client.BaseURL()+"assets/empty.png")
	if re, ok := AsError(err); !ok || re.Kind != ErrAssetDownload {
		t.Errorf("Expected asset download error for empty body, got %v", err)
	}

	_, err = client.Download(context.Background(), client.BaseURL()+"assets/missing.png")
	if re, ok := AsError(err); !ok || re.Kind != ErrAssetDownload {
		t.Errorf("Expected asset download error for 404, got %v", err)
	}
}

func TestNewClient_InvalidAddress(t *testing.T) {
	_, err := NewClient("192.168.1.25:99999")
	re, ok := AsError(err)
	if !ok || re.Kind != ErrInvalidAddress {
		t.Fatalf("Expected invalid address error, got %v", err)
	}
	if Retryable(err) {
		t.Error("Invalid address should not be retryable")
	}
}
