// wan2gp-mock is a development stand-in for a wan2gp server. It
// implements the job API the client consumes (submit, status, assets,
// cancel, retry) with an in-memory store, advances jobs on a timer and
// exposes Prometheus metrics.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	jobsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wan2gp_mock_jobs_submitted_total",
		Help: "Total number of jobs submitted",
	})
	jobsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wan2gp_mock_jobs_finished_total",
		Help: "Total number of jobs reaching a terminal state",
	}, []string{"status"})
	jobsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wan2gp_mock_jobs_in_flight",
		Help: "Number of jobs currently queued or running",
	})
)

type job struct {
	ID        string                 `json:"jobId"`
	Model     string                 `json:"model"`
	Params    map[string]interface{} `json:"parameters"`
	Status    string                 `json:"status"`
	Progress  float64                `json:"progress"`
	Error     string                 `json:"error,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

type store struct {
	mu   sync.Mutex
	jobs map[string]*job
}

func newStore() *store {
	return &store{jobs: make(map[string]*job)}
}

type server struct {
	store      *store
	tick       time.Duration
	failJobs   bool
	assetCount int
}

func main() {
	port := flag.String("port", "7860", "listen port")
	tick := flag.Duration("tick", 2*time.Second, "interval between job progress steps")
	failJobs := flag.Bool("fail", false, "make every job fail instead of completing")
	assetCount := flag.Int("assets", 2, "number of assets per completed job")
	flag.Parse()

	s := &server{
		store:      newStore(),
		tick:       *tick,
		failJobs:   *failJobs,
		assetCount: *assetCount,
	}

	r := mux.NewRouter()
	r.HandleFunc("/jobs", s.submitJob).Methods("POST")
	r.HandleFunc("/jobs/{id}", s.getJob).Methods("GET")
	r.HandleFunc("/jobs/{id}/assets", s.getAssets).Methods("GET")
	r.HandleFunc("/jobs/{id}/cancel", s.cancelJob).Methods("POST")
	r.HandleFunc("/jobs/{id}/retry", s.retryJob).Methods("POST")
	r.HandleFunc("/assets/{name}", s.serveAsset).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}).Methods("GET")

	log.Printf("wan2gp-mock listening on :%s (tick=%s, fail=%v, assets=%d)", *port, *tick, *failJobs, *assetCount)
	if err := http.ListenAndServe(":"+*port, r); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func (s *server) submitJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model      string                 `json:"model"`
		Parameters map[string]interface{} `json:"parameters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Model == "" {
		http.Error(w, "model is required", http.StatusBadRequest)
		return
	}

	j := &job{
		ID:        uuid.New().String(),
		Model:     req.Model,
		Params:    req.Parameters,
		Status:    "queued",
		CreatedAt: time.Now(),
	}
	s.store.mu.Lock()
	s.store.jobs[j.ID] = j
	s.store.mu.Unlock()

	jobsSubmitted.Inc()
	jobsInFlight.Inc()
	go s.runJob(j.ID)

	log.Printf("Job created: %s (%s)", j.ID, j.Model)
	writeJSON(w, http.StatusCreated, map[string]string{"jobId": j.ID, "status": j.Status})
}

// runJob advances a job from queued through running to a terminal
// state, one progress step per tick
func (s *server) runJob(id string) {
	steps := 5
	for i := 0; i <= steps; i++ {
		time.Sleep(s.tick)

		s.store.mu.Lock()
		j, ok := s.store.jobs[id]
		if !ok || j.Status == "cancelled" {
			s.store.mu.Unlock()
			return
		}
		if i < steps {
			j.Status = "running"
			j.Progress = float64(i+1) / float64(steps+1)
			s.store.mu.Unlock()
			continue
		}
		if s.failJobs {
			j.Status = "failed"
			j.Error = "generation failed (mock)"
		} else {
			j.Status = "completed"
			j.Progress = 1.0
		}
		jobsFinished.WithLabelValues(j.Status).Inc()
		jobsInFlight.Dec()
		log.Printf("Job %s -> %s", id, j.Status)
		s.store.mu.Unlock()
		return
	}
}

func (s *server) getJob(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	j, ok := s.store.jobs[mux.Vars(r)["id"]]
	if !ok {
		s.store.mu.Unlock()
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	resp := map[string]interface{}{
		"jobId":    j.ID,
		"status":   j.Status,
		"progress": j.Progress,
	}
	if j.Error != "" {
		resp["error"] = j.Error
	}
	s.store.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) getAssets(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.store.mu.Lock()
	j, ok := s.store.jobs[id]
	if !ok {
		s.store.mu.Unlock()
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	status := j.Status
	model := j.Model
	s.store.mu.Unlock()

	if status != "completed" {
		http.Error(w, "Job has no assets yet", http.StatusConflict)
		return
	}

	mimeType := "image/png"
	ext := "png"
	if model == "ltx2" || model == "ace_step_15" {
		mimeType = "video/mp4"
		ext = "mp4"
	}

	assets := make([]map[string]string, 0, s.assetCount)
	for i := 0; i < s.assetCount; i++ {
		name := fmt.Sprintf("%s_%d.%s", id, i, ext)
		assets = append(assets, map[string]string{
			"id":       fmt.Sprintf("%s-%d", id, i),
			"url":      "/assets/" + name,
			"mimeType": mimeType,
			"fileName": name,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"jobId": id, "assets": assets})
}

func (s *server) cancelJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.store.mu.Lock()
	j, ok := s.store.jobs[id]
	if !ok {
		s.store.mu.Unlock()
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	if j.Status != "completed" && j.Status != "failed" && j.Status != "cancelled" {
		j.Status = "cancelled"
		jobsFinished.WithLabelValues("cancelled").Inc()
		jobsInFlight.Dec()
	}
	s.store.mu.Unlock()

	log.Printf("Job %s cancelled", id)
	w.WriteHeader(http.StatusOK)
}

func (s *server) retryJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.store.mu.Lock()
	prev, ok := s.store.jobs[id]
	if !ok {
		s.store.mu.Unlock()
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	if prev.Status != "failed" && prev.Status != "cancelled" {
		s.store.mu.Unlock()
		http.Error(w, "Only failed or cancelled jobs can be retried", http.StatusBadRequest)
		return
	}

	j := &job{
		ID:        uuid.New().String(),
		Model:     prev.Model,
		Params:    prev.Params,
		Status:    "queued",
		CreatedAt: time.Now(),
	}
	s.store.jobs[j.ID] = j
	s.store.mu.Unlock()

	jobsSubmitted.Inc()
	jobsInFlight.Inc()
	go s.runJob(j.ID)

	log.Printf("Job %s queued for retry as %s", id, j.ID)
	writeJSON(w, http.StatusOK, map[string]string{"jobId": j.ID})
}

// serveAsset returns deterministic placeholder bytes for any asset name
func (s *server) serveAsset(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	w.Header().Set("Content-Type", "application/octet-stream")
	fmt.Fprintf(w, "wan2gp-mock asset %s", name)
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
