package ws

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"service-dispatch/internal/auth"
	"service-dispatch/internal/logx"
)

// Handler authenticates and upgrades GET /ws/delivery.
type Handler struct {
	hub      *Hub
	verifier TokenVerifier
	accounts Accounts
	stream   Stream
	logger   logx.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates the streaming endpoint.
func NewHandler(hub *Hub, verifier TokenVerifier, accounts Accounts, stream Stream, logger logx.Logger) *Handler {
	return &Handler{
		hub:      hub,
		verifier: verifier,
		accounts: accounts,
		stream:   stream,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP rejects bad tokens with 401 and banned accounts with 403 before
// upgrading, then serves the connection until it closes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		raw, _ = auth.BearerToken(r.Header.Get("Authorization"))
	}
	if raw == "" {
		writeError(w, http.StatusUnauthorized, "missing access token")
		return
	}
	userID, err := h.verifier.Verify(raw)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid access token")
		return
	}

	acc, err := h.accounts.GetAccount(r.Context(), userID)
	if err != nil {
		h.logger.Error("websocket account lookup failed", logx.String("user_id", userID.String()), logx.Err(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if acc == nil {
		writeError(w, http.StatusUnauthorized, "unknown account")
		return
	}
	if acc.IsBanned {
		writeError(w, http.StatusForbidden, "account is banned")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", logx.Err(err))
		return
	}

	c := newClient(h.hub, conn, userID, h.stream, h.logger)
	h.hub.register(c)
	h.logger.Debug("websocket connected", logx.String("user_id", userID.String()), logx.Int("clients", h.hub.Count()))

	go c.writePump()
	c.readPump(r.Context())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
