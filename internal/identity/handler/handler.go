// Package handler is the thin HTTP layer over the registry service. It
// decodes requests, delegates, and translates outcomes; no business logic
// lives here.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"idregistry/internal/identity/models"
	"idregistry/internal/identity/service"
	"idregistry/pkg/platform/httputil"
	"idregistry/pkg/requestcontext"
)

// Handler wires registry endpoints to the registry service.
type Handler struct {
	registry     *service.Registry
	logger       *slog.Logger
	expiryWindow time.Duration
}

// New constructs a registry handler.
func New(registry *service.Registry, logger *slog.Logger, expiryWindow time.Duration) *Handler {
	return &Handler{registry: registry, logger: logger, expiryWindow: expiryWindow}
}

// Register mounts registry endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/credentials", h.handleMint)
	r.Post("/credentials/self-mint", h.handleSelfMint)
	r.Get("/credentials/{id}", h.handleGet)
	r.Delete("/credentials/{id}", h.handleBurn)
	r.Post("/credentials/{id}/renew", h.handleRenew)
	r.Put("/credentials/{id}/traits/{name}", h.handleSetTrait)
	r.Delete("/credentials/{id}/traits/{name}", h.handleRemoveTrait)
	r.Post("/credentials/{id}/sanctions", h.handleAddSanctions)
	r.Post("/credentials/{id}/transfer", h.handleTransfer)
	r.Get("/owners/{address}/credentials", h.handleOwnerCredentials)
	r.Put("/config/mint-cost", h.handleSetMintCost)
	r.Put("/config/authority", h.handleTransferAuthority)
	r.Post("/config/withdraw", h.handleWithdraw)
}

func credentialID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "bad_request",
			"error_description": "credential id must be a positive integer",
		})
		return 0, false
	}
	return id, true
}

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[MintRequest](w, r)
	if !ok {
		return
	}
	domainReq, err := req.toDomain()
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error": "bad_request", "error_description": err.Error(),
		})
		return
	}

	id, err := h.registry.Mint(r.Context(), domainReq)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "mint handled",
		"request_id", requestcontext.RequestID(r.Context()),
		"credential_id", id,
	)
	httputil.WriteJSON(w, http.StatusCreated, MintResponse{ID: id})
}

func (h *Handler) handleSelfMint(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[SelfMintRequest](w, r)
	if !ok {
		return
	}
	domainReq, err := req.toDomain()
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error": "bad_request", "error_description": err.Error(),
		})
		return
	}

	id, err := h.registry.SelfMint(r.Context(), domainReq)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, MintResponse{ID: id})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := credentialID(w, r)
	if !ok {
		return
	}

	credential, err := h.registry.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	now := requestcontext.Now(r.Context())
	httputil.WriteJSON(w, http.StatusOK, toCredentialResponse(credential, now, h.expiryWindow))
}

func (h *Handler) handleBurn(w http.ResponseWriter, r *http.Request) {
	id, ok := credentialID(w, r)
	if !ok {
		return
	}
	if err := h.registry.Burn(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRenew(w http.ResponseWriter, r *http.Request) {
	id, ok := credentialID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[RenewRequest](w, r)
	if !ok {
		return
	}

	err := h.registry.Renew(r.Context(), id, service.RenewRequest{
		URI:         req.URI,
		Traits:      req.Traits,
		Citizenship: req.Citizenship,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetTrait(w http.ResponseWriter, r *http.Request) {
	id, ok := credentialID(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")

	req, ok := httputil.Decode[SetTraitRequest](w, r)
	if !ok {
		return
	}

	var err error
	if req.Value == nil {
		err = h.registry.AddTrait(r.Context(), id, name)
	} else {
		err = h.registry.SetTrait(r.Context(), id, name, *req.Value)
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRemoveTrait(w http.ResponseWriter, r *http.Request) {
	id, ok := credentialID(w, r)
	if !ok {
		return
	}
	if err := h.registry.RemoveTrait(r.Context(), id, chi.URLParam(r, "name")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAddSanctions(w http.ResponseWriter, r *http.Request) {
	id, ok := credentialID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[SanctionsRequest](w, r)
	if !ok {
		return
	}
	if err := h.registry.AddSanctions(r.Context(), id, req.Jurisdiction); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	id, ok := credentialID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[TransferRequest](w, r)
	if !ok {
		return
	}
	if err := h.registry.Transfer(r.Context(), id, models.Address(req.To)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleOwnerCredentials(w http.ResponseWriter, r *http.Request) {
	owner := models.Address(chi.URLParam(r, "address"))
	ctx := r.Context()

	balance, err := h.registry.BalanceOf(ctx, owner)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	ids := make([]uint64, 0, balance)
	for i := 0; i < balance; i++ {
		id, err := h.registry.CredentialOfOwnerByIndex(ctx, owner, i)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		ids = append(ids, id)
	}
	httputil.WriteJSON(w, http.StatusOK, OwnerCredentialsResponse{
		Owner:       string(owner.Normalize()),
		Credentials: ids,
	})
}

func (h *Handler) handleSetMintCost(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[MintCostRequest](w, r)
	if !ok {
		return
	}
	if err := h.registry.SetMintCost(r.Context(), req.MintCost); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTransferAuthority(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[AuthorityRequest](w, r)
	if !ok {
		return
	}
	if err := h.registry.TransferAuthority(r.Context(), models.Address(req.Authority)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	amount, err := h.registry.Withdraw(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, WithdrawResponse{Amount: amount})
}
