package handler

import "net/http"

// MetaResponse describes the service for the root endpoint
type MetaResponse struct {
	Name   string `json:"name"`
	Docs   string `json:"docs"`
	Health string `json:"health"`
}

// Meta handles GET / with basic service info
func Meta(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MetaResponse{
		Name:   "Job Tracker API",
		Docs:   "/docs",
		Health: "/health",
	})
}
