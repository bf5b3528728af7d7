package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	govengine "stakegov/contexts/token-governance/gov-engine"
	goverrors "stakegov/contexts/token-governance/gov-engine/domain/errors"
	govhttp "stakegov/contexts/token-governance/gov-engine/transport/http"
	"stakegov/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	_ "stakegov/internal/platform/httpserver/docs"
)

type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
	addr   string
	gov    govengine.Module
}

func New(gov govengine.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:    http.NewServeMux(),
		logger: logger,
		addr:   addr,
		gov:    gov,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.Handle("/metrics", promhttp.Handler())

	s.mux.HandleFunc("POST /gov/v1/hooks/deposit", s.instrument("/gov/v1/hooks/deposit", s.handleDepositHook))
	s.mux.HandleFunc("POST /gov/v1/stakers/{address}/withdraw", s.instrument("/gov/v1/stakers/{address}/withdraw", s.handleWithdraw))
	s.mux.HandleFunc("POST /gov/v1/polls/{poll_id}/votes", s.instrument("/gov/v1/polls/{poll_id}/votes", s.handleCastVote))
	s.mux.HandleFunc("POST /gov/v1/polls/{poll_id}/snapshot", s.instrument("/gov/v1/polls/{poll_id}/snapshot", s.handleSnapshotPoll))
	s.mux.HandleFunc("POST /gov/v1/polls/{poll_id}/end", s.instrument("/gov/v1/polls/{poll_id}/end", s.handleEndPoll))
	s.mux.HandleFunc("POST /gov/v1/polls/{poll_id}/execute", s.instrument("/gov/v1/polls/{poll_id}/execute", s.handleExecutePoll))
	s.mux.HandleFunc("POST /gov/v1/polls/{poll_id}/expire", s.instrument("/gov/v1/polls/{poll_id}/expire", s.handleExpirePoll))
	s.mux.HandleFunc("POST /gov/v1/config", s.instrument("/gov/v1/config", s.handleUpdateConfig))
	s.mux.HandleFunc("POST /gov/v1/token", s.instrument("/gov/v1/token", s.handleRegisterToken))

	s.mux.HandleFunc("GET /gov/v1/config", s.instrument("/gov/v1/config", s.handleGetConfig))
	s.mux.HandleFunc("GET /gov/v1/state", s.instrument("/gov/v1/state", s.handleGetState))
	s.mux.HandleFunc("GET /gov/v1/polls", s.instrument("/gov/v1/polls", s.handleListPolls))
	s.mux.HandleFunc("GET /gov/v1/polls/{poll_id}", s.instrument("/gov/v1/polls/{poll_id}", s.handleGetPoll))
	s.mux.HandleFunc("GET /gov/v1/polls/{poll_id}/voters", s.instrument("/gov/v1/polls/{poll_id}/voters", s.handleListVoters))
	s.mux.HandleFunc("GET /gov/v1/stakers/{address}", s.instrument("/gov/v1/stakers/{address}", s.handleGetStaker))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(recorder, r)
		metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(recorder.status)).Inc()
	}
}

// handleDepositHook godoc
//
//	@Summary	Apply a token deposit notification (stake or create_poll)
//	@Tags		governance
//	@Accept		json
//	@Produce	json
//	@Router		/gov/v1/hooks/deposit [post]
func (s *Server) handleDepositHook(w http.ResponseWriter, r *http.Request) {
	var req govhttp.DepositHookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.gov.Handler.DepositHookHandler(r.Context(), req)
	if err != nil {
		writeGovDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	var req govhttp.WithdrawRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeGovError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
			return
		}
	}
	resp, err := s.gov.Handler.WithdrawHandler(r.Context(), address, req)
	if err != nil {
		writeGovDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	pollID, ok := parsePollID(w, r)
	if !ok {
		return
	}
	var req govhttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.gov.Handler.CastVoteHandler(r.Context(), pollID, req)
	if err != nil {
		writeGovDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSnapshotPoll(w http.ResponseWriter, r *http.Request) {
	pollID, ok := parsePollID(w, r)
	if !ok {
		return
	}
	var req govhttp.HeightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.gov.Handler.SnapshotPollHandler(r.Context(), pollID, req)
	if err != nil {
		writeGovDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEndPoll(w http.ResponseWriter, r *http.Request) {
	pollID, ok := parsePollID(w, r)
	if !ok {
		return
	}
	var req govhttp.HeightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.gov.Handler.EndPollHandler(r.Context(), pollID, req)
	if err != nil {
		writeGovDomainError(w, err)
		return
	}
	metrics.PollTransitions.WithLabelValues(resp.Status).Inc()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExecutePoll(w http.ResponseWriter, r *http.Request) {
	pollID, ok := parsePollID(w, r)
	if !ok {
		return
	}
	var req govhttp.HeightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.gov.Handler.ExecutePollHandler(r.Context(), pollID, req)
	if err != nil {
		writeGovDomainError(w, err)
		return
	}
	metrics.PollTransitions.WithLabelValues(resp.Status).Inc()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExpirePoll(w http.ResponseWriter, r *http.Request) {
	pollID, ok := parsePollID(w, r)
	if !ok {
		return
	}
	var req govhttp.HeightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.gov.Handler.ExpirePollHandler(r.Context(), pollID, req)
	if err != nil {
		writeGovDomainError(w, err)
		return
	}
	metrics.PollTransitions.WithLabelValues(resp.Status).Inc()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req govhttp.UpdateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.gov.Handler.UpdateConfigHandler(r.Context(), req); err != nil {
		writeGovDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRegisterToken(w http.ResponseWriter, r *http.Request) {
	var req govhttp.RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.gov.Handler.RegisterTokenHandler(r.Context(), req); err != nil {
		writeGovDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	resp, err := s.gov.Handler.ConfigHandler(r.Context())
	if err != nil {
		writeGovDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	resp, err := s.gov.Handler.StateHandler(r.Context())
	if err != nil {
		writeGovDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPolls(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var startAfter *uint64
	if raw := query.Get("start_after"); raw != "" {
		value, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeGovError(w, http.StatusBadRequest, "invalid_start_after", "start_after must be an unsigned integer")
			return
		}
		startAfter = &value
	}
	limit := 0
	if raw := query.Get("limit"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			writeGovError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = value
	}

	resp, err := s.gov.Handler.PollsHandler(
		r.Context(),
		strings.TrimSpace(query.Get("status")),
		startAfter,
		limit,
		strings.TrimSpace(query.Get("order")),
	)
	if err != nil {
		writeGovDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPoll(w http.ResponseWriter, r *http.Request) {
	pollID, ok := parsePollID(w, r)
	if !ok {
		return
	}
	resp, err := s.gov.Handler.PollHandler(r.Context(), pollID)
	if err != nil {
		writeGovDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListVoters(w http.ResponseWriter, r *http.Request) {
	pollID, ok := parsePollID(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	limit := 0
	if raw := query.Get("limit"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			writeGovError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = value
	}
	resp, err := s.gov.Handler.VotersHandler(
		r.Context(),
		pollID,
		strings.TrimSpace(query.Get("start_after")),
		limit,
		strings.TrimSpace(query.Get("order")),
	)
	if err != nil {
		writeGovDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetStaker(w http.ResponseWriter, r *http.Request) {
	resp, err := s.gov.Handler.StakerHandler(r.Context(), r.PathValue("address"))
	if err != nil {
		writeGovDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func parsePollID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	pollID, err := strconv.ParseUint(r.PathValue("poll_id"), 10, 64)
	if err != nil {
		writeGovError(w, http.StatusBadRequest, "invalid_poll_id", "poll_id must be an unsigned integer")
		return 0, false
	}
	return pollID, true
}

func writeGovDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, goverrors.ErrPollNotFound):
		writeGovError(w, http.StatusNotFound, "poll_not_found", err.Error())
	case errors.Is(err, goverrors.ErrNotInitialized):
		writeGovError(w, http.StatusNotFound, "not_initialized", err.Error())
	case errors.Is(err, goverrors.ErrAlreadyInitialized):
		writeGovError(w, http.StatusConflict, "already_initialized", err.Error())
	case errors.Is(err, goverrors.ErrUnauthorized):
		writeGovError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, goverrors.ErrAlreadyVoted),
		errors.Is(err, goverrors.ErrSnapshotAlreadyTaken),
		errors.Is(err, goverrors.ErrConflict):
		writeGovError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, goverrors.ErrPollNotInProgress),
		errors.Is(err, goverrors.ErrPollNotPassed),
		errors.Is(err, goverrors.ErrVotingNotExpired),
		errors.Is(err, goverrors.ErrTimelockNotExpired),
		errors.Is(err, goverrors.ErrExpirationNotReached),
		errors.Is(err, goverrors.ErrSnapshotWindowNotOpen):
		writeGovError(w, http.StatusUnprocessableEntity, "invalid_poll_state", err.Error())
	case errors.Is(err, goverrors.ErrNothingStaked),
		errors.Is(err, goverrors.ErrExceedsBalance),
		errors.Is(err, goverrors.ErrInsufficientStake),
		errors.Is(err, goverrors.ErrInsufficientFunds),
		errors.Is(err, goverrors.ErrInsufficientDeposit):
		writeGovError(w, http.StatusUnprocessableEntity, "insufficient_funds", err.Error())
	case errors.Is(err, goverrors.ErrInvalidVoteOption),
		errors.Is(err, goverrors.ErrInvalidDepositMsg),
		errors.Is(err, goverrors.ErrInvalidQuorum),
		errors.Is(err, goverrors.ErrInvalidThreshold),
		errors.Is(err, goverrors.ErrTitleTooShort),
		errors.Is(err, goverrors.ErrTitleTooLong),
		errors.Is(err, goverrors.ErrDescriptionTooShort),
		errors.Is(err, goverrors.ErrDescriptionTooLong),
		errors.Is(err, goverrors.ErrLinkTooShort),
		errors.Is(err, goverrors.ErrLinkTooLong):
		writeGovError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeGovError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeGovError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, govhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
