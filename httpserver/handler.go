package httpserver

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/ruteri/kongcloak/metrics"
)

const (
	// DefaultClientID is the realm client whose roles guard the data.
	DefaultClientID = "demo-client"

	// DefaultRole grants access to the data.
	DefaultRole = "subscribed"
)

// DefaultItems is the demo payload returned to subscribed callers.
var DefaultItems = []string{"cat", "dog", "cow"}

// ErrMalformedToken is returned when the bearer token cannot be decoded.
var ErrMalformedToken = errors.New("malformed bearer token")

//go:embed index.html
var indexHTML []byte

// AccessClaims are the token claims the data handler reads.
type AccessClaims struct {
	jwt.RegisteredClaims

	ResourceAccess map[string]ClientAccess `json:"resource_access,omitempty"`
}

// ClientAccess lists the roles a token carries for one client.
type ClientAccess struct {
	Roles []string `json:"roles"`
}

// HasClientRole reports whether the claims grant role on client.
func (c *AccessClaims) HasClientRole(client, role string) bool {
	access, ok := c.ResourceAccess[client]
	return ok && slices.Contains(access.Roles, role)
}

// DataHandler serves the protected demo resource behind the gateway. The
// gateway has already verified the token signature, so the handler only
// decodes the payload.
type DataHandler struct {
	clientID string
	role     string
	items    []string
	parser   *jwt.Parser
	log      *slog.Logger
}

// NewDataHandler creates a data handler granting DefaultItems to tokens
// carrying role for clientID.
func NewDataHandler(clientID, role string, log *slog.Logger) *DataHandler {
	return &DataHandler{
		clientID: clientID,
		role:     role,
		items:    DefaultItems,
		parser:   jwt.NewParser(),
		log:      log,
	}
}

func (h *DataHandler) Register(r chi.Router) {
	r.Get("/data", h.HandleData)
}

// HandleData returns the item list to subscribed callers and an empty list to
// everyone else. A request without credentials gets an empty 200 response.
//
// URL format: GET /data
// Optional headers:
//   - Authorization: Bearer <JWT>
func (h *DataHandler) HandleData(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		metrics.DataRequests.WithLabelValues("anonymous").Inc()
		w.WriteHeader(http.StatusOK)
		return
	}

	claims, err := h.decode(auth)
	if err != nil {
		metrics.DataRequests.WithLabelValues("invalid").Inc()
		h.log.Warn("Rejected data request", "err", err)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	items := []string{}
	if claims.HasClientRole(h.clientID, h.role) {
		metrics.DataRequests.WithLabelValues("granted").Inc()
		items = h.items
	} else {
		metrics.DataRequests.WithLabelValues("denied").Inc()
	}

	h.log.Debug("Served data request",
		slog.String("subject", claims.Subject),
		slog.Int("items", len(items)))
	writeJSON(w, http.StatusOK, items)
}

func (h *DataHandler) decode(header string) (*AccessClaims, error) {
	raw, _ := strings.CutPrefix(header, "Bearer ")
	raw = strings.TrimSpace(raw)

	claims := &AccessClaims{}
	if _, _, err := h.parser.ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return claims, nil
}

// IndexHandler serves the demo single-page client.
type IndexHandler struct{}

func (IndexHandler) Register(r chi.Router) {
	r.Get("/", HandleIndex)
}

// HandleIndex writes the embedded client page.
func HandleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(indexHTML)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	writeJSON(w, code, map[string]string{"status": status})
}
