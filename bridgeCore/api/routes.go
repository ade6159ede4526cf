package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const v1 = "/api/v1"

// setupRoutes configures all HTTP routes for the API server. Routes are
// registered on the root router with full paths so a method mismatch is
// answered with 405.
func (s *Server) setupRoutes() *mux.Router {
	r := mux.NewRouter()

	// Health check endpoint
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	// Registry
	r.HandleFunc(v1+"/params", s.handleParams).Methods(http.MethodGet)
	r.HandleFunc(v1+"/oracles", s.handleOracles).Methods(http.MethodGet)

	// Submissions and claims
	r.HandleFunc(v1+"/submissions/{id}", s.handleSubmission).Methods(http.MethodGet)
	r.HandleFunc(v1+"/submissions/{id}/signatures", s.handleSubmitSignature).Methods(http.MethodPost)
	r.HandleFunc(v1+"/submissions/{id}/check", s.handleCheckSubmission).Methods(http.MethodPost)
	r.HandleFunc(v1+"/claims", s.handleClaim).Methods(http.MethodPost)

	// Assets
	r.HandleFunc(v1+"/assets/confirm", s.handleConfirmAsset).Methods(http.MethodPost)
	r.HandleFunc(v1+"/assets/{id}", s.handleAsset).Methods(http.MethodGet)
	r.HandleFunc(v1+"/deploys/{id}", s.handleDeployInfo).Methods(http.MethodGet)

	// Orders
	r.HandleFunc(v1+"/orders", s.handleCreateOrder).Methods(http.MethodPost)
	r.HandleFunc(v1+"/orders/{id}", s.handleOrder).Methods(http.MethodGet)
	r.HandleFunc(v1+"/orders/{id}/patch", s.handlePatchOrder).Methods(http.MethodPost)
	r.HandleFunc(v1+"/orders/{id}/claim-unlock", s.handleClaimUnlock).Methods(http.MethodPost)
	r.HandleFunc(v1+"/orders/{id}/claim-cancel", s.handleClaimCancel).Methods(http.MethodPost)
	r.HandleFunc(v1+"/orders/{id}/affiliate-fee", s.handleAffiliateFee).Methods(http.MethodPost)

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	return r
}
