// Package api serves the cap-table operations as a JSON REST interface.
package api

import (
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/fairshare/internal/auth"
	"github.com/mmynk/fairshare/internal/calculator"
	"github.com/mmynk/fairshare/internal/metrics"
	"github.com/mmynk/fairshare/internal/middleware"
	"github.com/mmynk/fairshare/internal/models"
	"github.com/mmynk/fairshare/internal/onboarding"
	"github.com/mmynk/fairshare/internal/service"
	"github.com/mmynk/fairshare/internal/storage/memory"
)

// Server routes HTTP requests to the services.
type Server struct {
	store    *memory.Store
	capTable *service.CapTableService
	auth     *service.AuthService
	jwt      *auth.JWTManager
	metrics  *metrics.Recorder
	mux      *http.ServeMux
}

// NewServer wires the services over store and registers every route.
func NewServer(store *memory.Store, authSvc *service.AuthService, jwtManager *auth.JWTManager, recorder *metrics.Recorder) *Server {
	s := &Server{
		store:    store,
		capTable: service.NewCapTableService(store),
		auth:     authSvc,
		jwt:      jwtManager,
		metrics:  recorder,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /signin", s.handleSignIn)
	s.mux.HandleFunc("POST /user/new", s.handleCreateUser)
	s.mux.HandleFunc("POST /company/new", s.handleCreateCompany)
	s.mux.HandleFunc("GET /company", s.handleGetCompany)
	s.mux.HandleFunc("GET /company/marketcap", s.handleMarketCap)
	s.mux.HandleFunc("POST /shareholder/new", s.handleCreateShareholder)
	s.mux.HandleFunc("POST /shareholder/{id}/edit", s.handleEditShareholder)
	s.mux.HandleFunc("GET /shareholders", s.handleListShareholders)
	s.mux.HandleFunc("GET /shareholders/{id}", s.handleGetShareholder)
	s.mux.HandleFunc("GET /shareholders/{id}/summary", s.handleShareholderSummary)
	s.mux.HandleFunc("POST /grant/new", s.handleCreateGrant)
	s.mux.HandleFunc("GET /grants", s.handleListGrants)
	s.mux.HandleFunc("GET /grants/{mode}", s.handleGrantStats)
	s.mux.HandleFunc("POST /onboarding/complete", s.handleCompleteOnboarding)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		s.mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, r *http.Request) {
			s.metrics.SetEntityCounts(s.store.Counts())
			s.metrics.Handler().ServeHTTP(w, r)
		})
	}
}

// Handler returns the routed handler wrapped in CORS, optional
// authentication and request logging.
func (s *Server) Handler() http.Handler {
	var observer middleware.RequestObserver
	if s.metrics != nil {
		observer = s.metrics
	}
	return middleware.CORS(
		middleware.OptionalAuth(s.jwt)(
			middleware.Logging(observer)(s.mux),
		),
	)
}

type signInRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.auth.SignIn(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Authorization", "Bearer "+res.Token)
	writeJSON(w, http.StatusOK, res.User)
}

type createUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := s.auth.Register(r.Context(), req.Email, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var c models.Company
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.capTable.CreateCompany(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (s *Server) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	c, err := s.capTable.GetCompany(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleMarketCap(w http.ResponseWriter, r *http.Request) {
	mc, err := s.capTable.MarketCap(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mc)
}

type createShareholderRequest struct {
	Name   string       `json:"name"`
	Email  string       `json:"email"`
	Grants []int        `json:"grants"`
	Group  models.Group `json:"group"`
}

func (s *Server) handleCreateShareholder(w http.ResponseWriter, r *http.Request) {
	var req createShareholderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sh, err := s.capTable.CreateShareholder(r.Context(), models.Shareholder{
		Name:   req.Name,
		Email:  req.Email,
		Grants: req.Grants,
		Group:  req.Group,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sh)
}

type editShareholderRequest struct {
	ID    *int         `json:"id"`
	Name  string       `json:"name"`
	Group models.Group `json:"group"`
}

func (s *Server) handleEditShareholder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req editShareholderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.ID != nil && *req.ID != id {
		writeError(w, r, connect.NewError(connect.CodeInvalidArgument, errIDMismatch))
		return
	}
	sh, err := s.capTable.EditShareholder(r.Context(), service.EditShareholderRequest{
		ID:    id,
		Name:  req.Name,
		Group: req.Group,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sh)
}

func (s *Server) handleListShareholders(w http.ResponseWriter, r *http.Request) {
	shareholders, err := s.capTable.ListShareholders(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shareholders)
}

func (s *Server) handleGetShareholder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	detail, err := s.capTable.GetShareholder(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleShareholderSummary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := s.capTable.ShareholderSummary(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type createGrantRequest struct {
	ShareholderID *int         `json:"shareholderID"`
	Grant         models.Grant `json:"grant"`
}

func (s *Server) handleCreateGrant(w http.ResponseWriter, r *http.Request) {
	var req createGrantRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.capTable.CreateGrant(r.Context(), req.ShareholderID, req.Grant)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleListGrants(w http.ResponseWriter, r *http.Request) {
	grants, err := s.capTable.ListGrants(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grants)
}

func (s *Server) handleGrantStats(w http.ResponseWriter, r *http.Request) {
	byValue := r.URL.Query().Get("byValue") == "true"
	buckets, err := s.capTable.GrantStats(r.Context(), calculator.Mode(r.PathValue("mode")), byValue)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

type completeOnboardingRequest struct {
	Actions []onboarding.Envelope `json:"actions"`
}

type completeOnboardingResponse struct {
	User  models.User      `json:"user"`
	Draft onboarding.Draft `json:"draft"`
}

// onboardingBackend lets Commit drive both services.
type onboardingBackend struct {
	*service.AuthService
	*service.CapTableService
}

func (s *Server) handleCompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	var req completeOnboardingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	draft, err := onboarding.ReduceAll(onboarding.NewDraft(), onboarding.Actions(req.Actions))
	if err != nil {
		writeError(w, r, connect.NewError(connect.CodeInvalidArgument, err))
		return
	}
	if err := draft.Validate(); err != nil {
		writeError(w, r, connect.NewError(connect.CodeInvalidArgument, err))
		return
	}

	res, err := onboarding.Commit(r.Context(), draft, onboardingBackend{s.auth, s.capTable})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, completeOnboardingResponse{User: res.User, Draft: draft})
}
