package web

import "net/http"

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/pick", s.handlePick)
	mux.HandleFunc("/select", s.handleSelect)
	mux.HandleFunc("/config", s.handleConfig)
	mux.HandleFunc("/apply", s.handleApply)
	mux.HandleFunc("/api/plan", s.handleAPIPlan)
	mux.HandleFunc("/", s.handleIndex)
}
