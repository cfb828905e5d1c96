package workflow

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Om1001-OPS/mkol/internal/services"
	wf "github.com/Om1001-OPS/mkol/workflow"
)

// stubConfig tunes the canned collaborator responses for one test.
type stubConfig struct {
	loginStatus      int
	preprocessStatus int
	role             string
	nextStep         string

	valid            bool
	reason           string
	validationErrors []string

	extractedFields  map[string]any
	extractedDocType wf.DocType
	ocrText          string

	labels []wf.LabelScore
}

func defaultStubConfig() *stubConfig {
	return &stubConfig{
		loginStatus:      http.StatusOK,
		preprocessStatus: http.StatusOK,
		role:             "user",
		nextStep:         wf.DecisionIntake,
		valid:            true,
		extractedFields:  map[string]any{"name": "Alice"},
		extractedDocType: wf.DocTypeIDProof,
	}
}

// stub is an httptest server standing in for every collaborator, counting
// calls per path and recording the last JSON payload it received.
type stub struct {
	mux *http.ServeMux
	srv *httptest.Server

	mu       sync.Mutex
	calls    map[string]int
	payloads map[string]map[string]any
}

func (s *stub) record(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls[r.URL.Path]++

	if r.Header.Get("Content-Type") == "application/json" {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
			s.payloads[r.URL.Path] = payload
		}
	}
}

func (s *stub) count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

func (s *stub) payload(path string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payloads[path]
}

func (s *stub) totalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// newStub builds the collaborator stub for cfg and a Runtime pointed at it.
func newStub(t *testing.T, cfg *stubConfig) (*Runtime, *stub) {
	t.Helper()

	s := &stub{
		mux:      http.NewServeMux(),
		calls:    make(map[string]int),
		payloads: make(map[string]map[string]any),
	}

	s.mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		if cfg.loginStatus != http.StatusOK {
			w.WriteHeader(cfg.loginStatus)
			json.NewEncoder(w).Encode(map[string]string{"detail": "bad credentials"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"token":    "Bearer test-token",
			"role":     cfg.role,
			"username": "alice01",
			"mobile":   "5550100",
			"email":    "alice@example.com",
		})
	})

	s.mux.HandleFunc("POST /route", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		json.NewEncoder(w).Encode(map[string]string{"next_step": cfg.nextStep})
	})

	s.mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, header, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"previews": []map[string]string{
				{"filename": header.Filename, "file_path": "/store/" + header.Filename},
			},
		})
	})

	s.mux.HandleFunc("GET /files", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		json.NewEncoder(w).Encode(map[string][]map[string]string{
			"alice01": {
				{"filename": "claim.pdf", "local_path": "/data/alice01/claim.pdf"},
			},
		})
	})

	s.mux.HandleFunc("POST /preprocess", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		if cfg.preprocessStatus != http.StatusOK {
			w.WriteHeader(cfg.preprocessStatus)
			json.NewEncoder(w).Encode(map[string]string{"detail": "renderer offline"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"preprocessed_image_paths": []string{"/data/alice01/claim-page-1.png"},
			"per_page":                 []map[string]any{{"page": 1, "dpi": 300}},
		})
	})

	s.mux.HandleFunc("POST /extract", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		json.NewEncoder(w).Encode(map[string]any{
			"doc_type": cfg.extractedDocType,
			"results": []map[string]any{
				{"extracted_fields": cfg.extractedFields, "ocr_text": cfg.ocrText},
			},
		})
	})

	s.mux.HandleFunc("POST /validate", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		json.NewEncoder(w).Encode(map[string]any{
			"valid":   cfg.valid,
			"verdict": "checked",
			"reason":  cfg.reason,
			"errors":  cfg.validationErrors,
		})
	})

	s.mux.HandleFunc("POST /sync/batch", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		json.NewEncoder(w).Encode(map[string]any{"status": "accepted", "synced_records": 1})
	})

	s.mux.HandleFunc("GET /records", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		json.NewEncoder(w).Encode([]map[string]any{{"record_id": "r1"}})
	})

	s.mux.HandleFunc("POST /feedback", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		labels := cfg.labels
		if labels == nil {
			labels = []wf.LabelScore{{Label: "data_mismatch", Score: 0.9}}
		}
		json.NewEncoder(w).Encode(map[string]any{
			"classified_agent": "Validation Agent",
			"issue_category":   "data_mismatch",
			"labels_scores":    labels,
		})
	})

	s.mux.HandleFunc("POST /notify", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		status, _ := s.payload("/notify")["status"].(string)
		json.NewEncoder(w).Encode(map[string]any{
			"status":  status,
			"message": "delivered on 2 of 2 channels",
			"summary": "run summary",
		})
	})

	s.srv = httptest.NewServer(s.mux)
	t.Cleanup(s.srv.Close)

	return newRuntimeFor(t, s.srv.URL), s
}

func newRuntimeFor(t *testing.T, baseURL string) *Runtime {
	t.Helper()

	svcCfg := &services.Config{
		Identity:      baseURL,
		Routing:       baseURL,
		Intake:        baseURL,
		Preprocessing: baseURL,
		Extraction:    baseURL,
		Validation:    baseURL,
		Persistence:   baseURL,
		Feedback:      baseURL,
		Notification:  baseURL,
	}
	if err := svcCfg.Finalize(nil); err != nil {
		t.Fatalf("finalize services config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := services.New(svcCfg, logger)
	if err != nil {
		t.Fatalf("create services client: %v", err)
	}

	return &Runtime{Services: client, Logger: logger}
}

// writeUpload creates a real file for the intake step to open.
func writeUpload(t *testing.T) string {
	return writeUploadNamed(t, "claim.pdf")
}

func writeUploadNamed(t *testing.T, name string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("%PDF-1.4 test"), 0o600); err != nil {
		t.Fatalf("write upload file: %v", err)
	}
	return path
}

func testRequest(path string) *wf.Request {
	return &wf.Request{
		Credentials: wf.Credentials{
			Identifier: "alice01",
			Secret:     "hunter2x",
		},
		DocType:          wf.DocTypeIDProof,
		Action:           "upload",
		UploadedFilePath: path,
	}
}
