// In file: internal/nwis/nwistest/server.go

// Package nwistest runs a fake NWIS backend for tests. It serves recorded
// answers for a few well-known sites and mimics how the real services report
// missing data, bad requests and outages.
package nwistest

import (
	"embed"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/dileep-u-k/waterdata-mcp/internal/nwis"
)

//go:embed testdata
var fixtures embed.FS

const (
	// SiteDaily has a site record, 2020 daily discharge, stats, peaks, measurements and ratings.
	SiteDaily = "09415000"
	// SiteInstant has instantaneous water temperature.
	SiteInstant = "07374000"
	// SiteWell has groundwater levels.
	SiteWell = "375907091432201"
	// SiteOutage always answers 503.
	SiteOutage = "00000000"
	// UnknownHUC matches no sites.
	UnknownHUC = "99999999"
)

var siteNumber = regexp.MustCompile(`^\d{8,15}$`)

// Server is a fake NWIS backend.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	requests []*url.URL
}

// NewServer starts a fake backend. Callers must Close it.
func NewServer() *Server {
	s := &Server{}
	mux := http.NewServeMux()
	mux.HandleFunc("/nwis/site/", s.handleSite)
	mux.HandleFunc("/nwis/dv/", s.bySite("sites", map[string]string{SiteDaily: "dv_09415000.json"}, "application/json"))
	mux.HandleFunc("/nwis/iv/", s.bySite("sites", map[string]string{SiteInstant: "iv_07374000.json"}, "application/json"))
	mux.HandleFunc("/nwis/stat/", s.bySite("sites", map[string]string{SiteDaily: "stat_09415000.rdb"}, "text/plain"))
	mux.HandleFunc("/nwis/gwlevels/", s.bySite("sites", map[string]string{SiteWell: "gwlevels_375907091432201.rdb"}, "text/plain"))
	mux.HandleFunc("/nwis/peak", s.bySite("site_no", map[string]string{SiteDaily: "peak_09415000.rdb"}, "text/plain"))
	mux.HandleFunc("/nwis/measurements", s.bySite("site_no", map[string]string{SiteDaily: "measurements_09415000.rdb"}, "text/plain"))
	mux.HandleFunc("/nwisweb/get_ratings", s.bySite("site_no", map[string]string{SiteDaily: "ratings_09415000.rdb"}, "text/plain"))
	mux.HandleFunc("/code/parameter_cd_nm_query", s.handleParameterCodes)
	mux.HandleFunc("/pa/nwis/water_use", s.handleWaterUse)
	s.Server = httptest.NewServer(s.record(mux))
	return s
}

// Config points an nwis client at this server with fast retries.
func (s *Server) Config() nwis.Config {
	return nwis.Config{
		WaterServicesURL: s.URL + "/nwis",
		WaterDataURL:     s.URL,
		HelpURL:          s.URL,
		Timeout:          5 * time.Second,
		MaxRetries:       3,
		RetryDelay:       time.Millisecond,
	}
}

// Client returns an nwis client bound to this server.
func (s *Server) Client() *nwis.Client {
	return nwis.NewClient(s.Config(), s.Server.Client())
}

// Requests returns every request URL received so far.
func (s *Server) Requests() []*url.URL {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*url.URL, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		u := *r.URL
		s.requests = append(s.requests, &u)
		s.mu.Unlock()

		q := r.URL.Query()
		if q.Get("sites") == SiteOutage || q.Get("site_no") == SiteOutage {
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case q.Get("sites") != "":
		for _, site := range strings.Split(q.Get("sites"), ",") {
			if !siteNumber.MatchString(site) {
				http.Error(w, "Error 400 - Bad Request: sites value '"+site+"' is not a valid site number", http.StatusBadRequest)
				return
			}
		}
		if q.Get("sites") == SiteDaily {
			serve(w, "site_09415000.rdb", "text/plain")
			return
		}
	case q.Get("stateCd") != "":
		serve(w, "sites_state.rdb", "text/plain")
		return
	}
	http.Error(w, "No sites found matching all criteria", http.StatusNotFound)
}

func (s *Server) bySite(key string, files map[string]string, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		site := r.URL.Query().Get(key)
		if site == "" {
			site = r.URL.Query().Get("multiple_site_no")
		}
		if file, ok := files[site]; ok {
			serve(w, file, contentType)
			return
		}
		http.Error(w, "No sites/data found using the selection criteria specified", http.StatusNotFound)
	}
}

func (s *Server) handleParameterCodes(w http.ResponseWriter, r *http.Request) {
	if strings.Trim(r.URL.Query().Get("parm_nm_cd"), "%") == "00060" {
		serve(w, "pmcodes_00060.rdb", "text/plain")
		return
	}
	// The help service answers unmatched lookups with just the header.
	_, _ = w.Write([]byte("# no matches\nparameter_cd\tparm_nm\n5s\t170s\n"))
}

func (s *Server) handleWaterUse(w http.ResponseWriter, r *http.Request) {
	year := r.URL.Query().Get("wu_year")
	if year == "2015" || year == "ALL" {
		serve(w, "water_use_pa_2015.rdb", "text/plain")
		return
	}
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte("<!DOCTYPE html><html><body><p>No data found for the selected year.</p></body></html>"))
}

func serve(w http.ResponseWriter, name, contentType string) {
	body, err := fixtures.ReadFile("testdata/" + name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(body)
}
