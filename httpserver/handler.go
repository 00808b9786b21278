package httpserver

import (
	"crypto/ecdh"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ruteri/wingedcap-client/api"
	"github.com/ruteri/wingedcap-client/interfaces"
	"go.uber.org/atomic"
)

// maxBodySize is the maximum allowed request body size (1MB).
const maxBodySize = 1024 * 1024

// Handler serves the sealed key server endpoints.
type Handler struct {
	store     *KeyStore
	serverKey *ecdh.PrivateKey
	hub       []interfaces.ServerWithMeta
	next      atomic.Uint64
	log       *slog.Logger
}

// NewHandler creates a handler decrypting requests with serverKey.
//
// Parameters:
//   - store: Slot storage
//   - serverKey: Private key matching the pk clients seal requests to
//   - hub: Servers handed out by get_server, in round-robin order
//   - log: Structured logger
func NewHandler(store *KeyStore, serverKey *ecdh.PrivateKey, hub []interfaces.ServerWithMeta, log *slog.Logger) *Handler {
	return &Handler{
		store:     store,
		serverKey: serverKey,
		hub:       hub,
		log:       log,
	}
}

func (h *Handler) HandleCreateKey(w http.ResponseWriter, r *http.Request) {
	var in api.CreateKeyInput
	replyPub, ok := h.open(w, r, &in)
	if !ok {
		return
	}

	id, err := h.store.Create(in.Timelock)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Debug("Key created", "id", id, "timelock", in.Timelock)
	h.reply(w, replyPub, api.CreateKeyOutput{ID: id})
}

func (h *Handler) HandleBindKey(w http.ResponseWriter, r *http.Request) {
	var in api.BindKeyInput
	replyPub, ok := h.open(w, r, &in)
	if !ok {
		return
	}

	if err := h.store.Bind(in.ID, in.Key); err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Debug("Key bound", "id", in.ID)
	h.reply(w, replyPub, api.BindKeyOutput{})
}

func (h *Handler) HandlePingKey(w http.ResponseWriter, r *http.Request) {
	var in api.PingKeyInput
	replyPub, ok := h.open(w, r, &in)
	if !ok {
		return
	}

	state, err := h.store.Ping(in.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.reply(w, replyPub, api.PingKeyOutput{State: state})
}

func (h *Handler) HandleGetKey(w http.ResponseWriter, r *http.Request) {
	var in api.GetKeyInput
	replyPub, ok := h.open(w, r, &in)
	if !ok {
		return
	}

	state, share, err := h.store.Get(in.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.reply(w, replyPub, api.GetKeyOutput{State: state, Key: share})
}

func (h *Handler) HandleGetServer(w http.ResponseWriter, r *http.Request) {
	var in api.GetServerInput
	replyPub, ok := h.open(w, r, &in)
	if !ok {
		return
	}

	if len(h.hub) == 0 {
		h.writeJSON(w, http.StatusServiceUnavailable, api.ErrorResponse{Error: "no servers available"})
		return
	}

	i := (h.next.Inc() - 1) % uint64(len(h.hub))
	h.reply(w, replyPub, h.hub[i])
}

// open reads and decrypts a request envelope. On failure it has already
// written the error response.
func (h *Handler) open(w http.ResponseWriter, r *http.Request, in any) (*ecdh.PublicKey, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "failed to read request body"})
		return nil, false
	}

	var env api.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		h.writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "invalid request envelope"})
		return nil, false
	}

	replyPub, err := api.OpenRequest(h.serverKey, &env, in)
	if err != nil {
		h.log.Debug("Rejected sealed request", "path", r.URL.Path, "err", err)
		h.writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "could not open request"})
		return nil, false
	}
	return replyPub, true
}

func (h *Handler) reply(w http.ResponseWriter, replyPub *ecdh.PublicKey, out any) {
	env, err := api.SealResponse(replyPub, out)
	if err != nil {
		h.log.Error("Failed to seal response", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
		return
	}
	h.writeJSON(w, http.StatusOK, env)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, ErrKeyNotFound) {
		status = http.StatusNotFound
	}
	h.writeJSON(w, status, api.ErrorResponse{Error: err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}
