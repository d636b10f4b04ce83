package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	reputationledger "atomsi/contexts/community-experience/reputation-ledger"
	proposallifecycle "atomsi/contexts/governance/proposal-lifecycle"
	memberregistry "atomsi/contexts/identity-access/member-registry"
	treasuryapproval "atomsi/contexts/treasury/treasury-approval"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "atomsi/internal/platform/httpserver/docs"
)

// ActorHeader carries the acting member address on write requests.
const ActorHeader = "X-Member-Address"

type Modules struct {
	Members    memberregistry.Module
	Proposals  proposallifecycle.Module
	Treasury   treasuryapproval.Module
	Reputation reputationledger.Module
}

type Server struct {
	mux           *http.ServeMux
	logger        *slog.Logger
	addr          string
	httpServer    *http.Server
	members       memberregistry.Module
	proposals     proposallifecycle.Module
	treasury      treasuryapproval.Module
	reputation    reputationledger.Module
	notifications *Notifier
}

func New(modules Modules, notifications *Notifier, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:           http.NewServeMux(),
		logger:        logger,
		addr:          addr,
		members:       modules.Members,
		proposals:     modules.Proposals,
		treasury:      modules.Treasury,
		reputation:    modules.Reputation,
		notifications: notifications,
	}
	s.registerRoutes()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and closes notification sessions.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.notifications != nil {
		s.notifications.CloseAll()
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /v1/members", s.handleRegisterMember)
	s.mux.HandleFunc("GET /v1/members", s.handleListMembers)
	s.mux.HandleFunc("GET /v1/members/{address}", s.handleGetMember)
	s.mux.HandleFunc("PATCH /v1/members/{address}", s.handleUpdateMember)
	s.mux.HandleFunc("GET /v1/members/{address}/activities", s.handleListMemberActivities)

	s.mux.HandleFunc("POST /v1/proposals", s.handleSubmitProposal)
	s.mux.HandleFunc("GET /v1/proposals", s.handleListProposals)
	s.mux.HandleFunc("GET /v1/proposals/{proposal_id}", s.handleGetProposal)
	s.mux.HandleFunc("POST /v1/proposals/{proposal_id}/activate", s.handleActivateProposal)
	s.mux.HandleFunc("POST /v1/proposals/{proposal_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("GET /v1/proposals/{proposal_id}/votes", s.handleListVotes)
	s.mux.HandleFunc("POST /v1/proposals/{proposal_id}/finalize", s.handleFinalizeProposal)
	s.mux.HandleFunc("POST /v1/proposals/{proposal_id}/execute", s.handleExecuteProposal)
	s.mux.HandleFunc("POST /v1/proposals/{proposal_id}/cancel", s.handleCancelProposal)

	s.mux.HandleFunc("POST /v1/treasury/transactions", s.handleProposeTransaction)
	s.mux.HandleFunc("GET /v1/treasury/transactions", s.handleListTransactions)
	s.mux.HandleFunc("GET /v1/treasury/transactions/{transaction_id}", s.handleGetTransaction)
	s.mux.HandleFunc("POST /v1/treasury/transactions/{transaction_id}/approvals", s.handleApproveTransaction)
	s.mux.HandleFunc("GET /v1/treasury/transactions/{transaction_id}/approvals", s.handleListApprovals)
	s.mux.HandleFunc("POST /v1/treasury/transactions/{transaction_id}/reject", s.handleRejectTransaction)
	s.mux.HandleFunc("POST /v1/treasury/deposits", s.handleDeposit)
	s.mux.HandleFunc("GET /v1/treasury/balances/{token}", s.handleGetBalance)
	s.mux.HandleFunc("GET /v1/treasury/balances/{token}/{holder}", s.handleGetBalance)

	s.mux.HandleFunc("GET /v1/activities", s.handleListActivities)
	s.mux.HandleFunc("GET /v1/activities/{activity_id}", s.handleGetActivity)

	if s.notifications != nil {
		s.mux.HandleFunc("GET /ws", s.notifications.HandleWebSocket)
		s.mux.HandleFunc("GET /ws/info", s.notifications.HandleInfo)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// requireActor reads the acting member address; a missing header is 401.
func requireActor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actor := strings.TrimSpace(r.Header.Get(ActorHeader))
	if actor == "" {
		writeError(w, http.StatusUnauthorized, "missing_actor", ActorHeader+" header is required")
		return "", false
	}
	return actor, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
		return 0, false
	}
	return limit, true
}
