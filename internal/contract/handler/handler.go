// Package handler exposes the contract to its host over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"postledger/internal/contract/models"
	"postledger/internal/platform/metrics"
	"postledger/internal/platform/middleware"
	dErrors "postledger/pkg/domain-errors"
	"postledger/pkg/platform/httputil"
	"postledger/pkg/requestcontext"
)

// Service defines the contract operations served over HTTP.
type Service interface {
	Instantiate(ctx context.Context, info models.MessageInfo, msg models.InstantiateMsg) (*models.Response, error)
	Execute(ctx context.Context, info models.MessageInfo, msg models.ExecuteMsg) (*models.Response, error)
	PostCount(ctx context.Context) (*models.PostCountResponse, error)
	LatestPosts(ctx context.Context, limit *uint8) (*models.LatestPostsResponse, error)
	GetBalance(ctx context.Context, address string) (*models.GetBalanceResponse, error)
}

// TokenRevoker revokes posting tokens before they expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, token string) error
}

// Limiter decides whether a sender may execute now.
type Limiter interface {
	Allow(key string) bool
}

// Handler serves the contract endpoints.
type Handler struct {
	logger         *slog.Logger
	contract       Service
	revoker        TokenRevoker
	limiter        Limiter
	metrics        *metrics.Metrics
	hostToken      string
	requestTimeout time.Duration
}

// New creates a contract Handler. revoker and limiter may be nil.
func New(
	contract Service,
	revoker TokenRevoker,
	limiter Limiter,
	hostToken string,
	logger *slog.Logger,
	metrics *metrics.Metrics,
) *Handler {
	return &Handler{
		logger:         logger,
		contract:       contract,
		revoker:        revoker,
		limiter:        limiter,
		metrics:        metrics,
		hostToken:      hostToken,
		requestTimeout: 30 * time.Second,
	}
}

// WithRequestTimeout overrides the per-request deadline.
func (h *Handler) WithRequestTimeout(d time.Duration) *Handler {
	if d > 0 {
		h.requestTimeout = d
	}
	return h
}

// Register mounts the contract routes on r.
func (h *Handler) Register(r chi.Router) {
	contractRouter := chi.NewRouter()
	contractRouter.Use(middleware.Recovery(h.logger))
	contractRouter.Use(middleware.RequestID)
	contractRouter.Use(middleware.Logger(h.logger))
	contractRouter.Use(middleware.Timeout(h.requestTimeout))
	contractRouter.Use(middleware.ContentTypeJSON)
	contractRouter.Use(middleware.LatencyMiddleware(h.metrics))
	contractRouter.Use(middleware.RequireHostToken(h.hostToken, h.logger))

	contractRouter.Post("/instantiate", h.handleInstantiate)
	contractRouter.Post("/execute", h.handleExecute)
	contractRouter.Post("/tokens/revoke", h.handleRevokeToken)
	contractRouter.Get("/query/post_count", h.handlePostCount)
	contractRouter.Get("/query/latest_posts", h.handleLatestPosts)
	contractRouter.Get("/query/balance/{address}", h.handleGetBalance)

	r.Mount("/", contractRouter)
}

func (h *Handler) handleInstantiate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[InstantiateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	ctx = requestcontext.WithSender(ctx, req.Sender)

	resp, err := h.contract.Instantiate(ctx, req.Info(), req.Msg)
	if err != nil {
		h.writeFailure(ctx, w, "instantiate", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ExecuteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	ctx = requestcontext.WithSender(ctx, req.Sender)

	if h.limiter != nil && !h.limiter.Allow(req.Sender.String()) {
		h.metrics.IncrementRateLimited()
		h.logger.WarnContext(ctx, "execute rate limited",
			"request_id", requestID,
			"sender", req.Sender,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests from sender"))
		return
	}

	resp, err := h.contract.Execute(ctx, req.Info(), req.Msg)
	if err != nil {
		h.writeFailure(ctx, w, req.Msg.Kind(), err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleRevokeToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	if h.revoker == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "token revocation is disabled"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[RevokeTokenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.revoker.Revoke(ctx, req.Token); err != nil {
		h.writeFailure(ctx, w, "revoke_token", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePostCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp, err := h.contract.PostCount(ctx)
	if err != nil {
		h.writeFailure(ctx, w, "post_count", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleLatestPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var limit *uint8
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 8)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be an integer between 0 and 255"))
			return
		}
		v := uint8(n)
		limit = &v
	}

	resp, err := h.contract.LatestPosts(ctx, limit)
	if err != nil {
		h.writeFailure(ctx, w, "latest_posts", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp, err := h.contract.GetBalance(ctx, chi.URLParam(r, "address"))
	if err != nil {
		h.writeFailure(ctx, w, "balance", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeFailure(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "contract call failed",
			"request_id", middleware.GetRequestID(ctx),
			"operation", operation,
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
