// Command report-server exposes generated report bundles over HTTP for the
// rendering pipeline. It serves what opsreport wrote; it computes nothing.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/mtnhydro/opsreport/internal/log"
	"github.com/mtnhydro/opsreport/internal/report"
)

type server struct {
	dataDir string
}

func main() {
	dataDir := flag.String("data", "output", "Directory of generated report bundles")
	listenAddr := flag.String("listen-addr", "", "Address to listen on (default all interfaces)")
	port := flag.Int("port", 8085, "Port to listen on")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	s := &server{dataDir: *dataDir}

	router := mux.NewRouter()
	router.HandleFunc("/api/bundles/{year}/{month}", s.handleBundle).Methods("GET")
	router.HandleFunc("/api/bundles/{year}/{month}/schedule", s.handlePlot("schedule")).Methods("GET")
	router.HandleFunc("/api/bundles/{year}/{month}/precipitation", s.handlePlot("precipitation")).Methods("GET")
	router.HandleFunc("/api/bundles/{year}/{month}/snow-depth", s.handlePlot("snow-depth")).Methods("GET")

	addr := fmt.Sprintf("%s:%d", *listenAddr, *port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Infof("report-server listening on %s, serving %s", addr, *dataDir)
	if err := srv.ListenAndServe(); err != nil {
		log.Errorf("server error: %v", err)
		os.Exit(1)
	}
}

func (s *server) loadBundle(r *http.Request) (*report.Bundle, error) {
	vars := mux.Vars(r)
	year, err := strconv.Atoi(vars["year"])
	if err != nil {
		return nil, fmt.Errorf("bad year %q", vars["year"])
	}
	month, err := strconv.Atoi(vars["month"])
	if err != nil || month < 1 || month > 12 {
		return nil, fmt.Errorf("bad month %q", vars["month"])
	}

	// The msgpack cache is authoritative; fall back to the JSON artifact
	// for bundles generated before caching existed.
	bundle, err := report.ReadCache(s.dataDir, year, month)
	if err == nil {
		return bundle, nil
	}

	path := filepath.Join(s.dataDir, fmt.Sprintf("%04d%02d_bundle.json", year, month))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("no bundle for %04d-%02d", year, month)
	}
	var b report.Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("corrupt bundle for %04d-%02d: %w", year, month, err)
	}
	return &b, nil
}

func (s *server) handleBundle(w http.ResponseWriter, r *http.Request) {
	bundle, err := s.loadBundle(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, bundle)
}

func (s *server) handlePlot(plot string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bundle, err := s.loadBundle(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		switch plot {
		case "schedule":
			writeJSON(w, bundle.Schedule)
		case "precipitation":
			writeJSON(w, bundle.Precipitation)
		case "snow-depth":
			writeJSON(w, bundle.SnowDepth)
		default:
			http.Error(w, "unknown plot type", http.StatusNotFound)
		}
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("encode response: %v", err)
	}
}
