package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/ckbfs-faucet/internal/apierror"
	"github.com/prn-tf/ckbfs-faucet/internal/auth"
	"github.com/prn-tf/ckbfs-faucet/internal/domain"
	"github.com/prn-tf/ckbfs-faucet/internal/service"
)

// ClaimService is the claim event logic the handler depends on.
type ClaimService interface {
	Create(ctx context.Context, input service.CreateClaimInput) (*domain.ClaimEvent, error)
	Get(ctx context.Context, productID int64, id string) (*domain.ClaimEvent, error)
	Health(ctx context.Context) (*service.HealthReport, error)
}

// ClaimObserver is notified of every stored claim (optional).
type ClaimObserver interface {
	ClaimCreated(product string)
}

// ClaimHandler serves the claim_events resource.
type ClaimHandler struct {
	claims   ClaimService
	observer ClaimObserver
	logger   zerolog.Logger
}

// ClaimHandlerConfig contains configuration for the claim handler.
type ClaimHandlerConfig struct {
	Claims   ClaimService
	Observer ClaimObserver
	Logger   zerolog.Logger
}

// NewClaimHandler creates a new ClaimHandler.
func NewClaimHandler(cfg ClaimHandlerConfig) *ClaimHandler {
	return &ClaimHandler{
		claims:   cfg.Claims,
		observer: cfg.Observer,
		logger:   cfg.Logger.With().Str("handler", "claim_events").Logger(),
	}
}

// RegisterRoutes registers the authenticated claim routes.
func (h *ClaimHandler) RegisterRoutes(r chi.Router) {
	r.Post("/claim_events", h.handleCreate)
	r.Get("/claim_events/{id}", h.handleGet)
}

// =============================================================================
// Documents
// =============================================================================

type resourceDocument struct {
	Data resource `json:"data"`
}

type resource struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes any    `json:"attributes"`
}

type claimEventAttributes struct {
	Status string `json:"status"`
	TxHash string `json:"tx_hash,omitempty"`
}

func claimEventDocument(event *domain.ClaimEvent) resourceDocument {
	return resourceDocument{Data: resource{
		ID:   event.ID.String(),
		Type: auth.ResourceType,
		Attributes: claimEventAttributes{
			Status: string(event.Status),
			TxHash: event.TxHash,
		},
	}}
}

func writeDocument(w http.ResponseWriter, status int, doc resourceDocument) {
	w.Header().Set("Content-Type", apierror.MediaType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(doc)
}

// =============================================================================
// Handlers
// =============================================================================

func (h *ClaimHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	authenticated, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, r, errors.New("claim request reached handler unauthenticated"))
		return
	}

	attrs, err := decodeClaimAttributes(r.Body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	caller := authenticated.Caller
	event, err := h.claims.Create(r.Context(), service.CreateClaimInput{
		Attributes:       attrs,
		ProductID:        caller.ProductID,
		AccessKeyID:      caller.AccessKeyID,
		Signature:        authenticated.Signature,
		RequestTimestamp: authenticated.Timestamp,
	})
	if err != nil {
		h.logger.Debug().Err(err).Object("caller", caller).Msg("claim rejected")
		h.writeError(w, r, err)
		return
	}

	if h.observer != nil {
		h.observer.ClaimCreated(caller.ProductName)
	}

	writeDocument(w, http.StatusOK, claimEventDocument(event))
}

func (h *ClaimHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	authenticated, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, r, errors.New("claim request reached handler unauthenticated"))
		return
	}

	event, err := h.claims.Get(r.Context(), authenticated.Caller.ProductID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeDocument(w, http.StatusOK, claimEventDocument(event))
}

func (h *ClaimHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	report, err := h.claims.Health(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeDocument(w, http.StatusOK, resourceDocument{Data: resource{
		ID:         strconv.FormatInt(time.Now().Unix(), 10),
		Type:       "health",
		Attributes: report,
	}})
}

// =============================================================================
// Attribute decoding
// =============================================================================

var (
	requestTypeNames = map[string]int{"type0": 0, "type1": 1}
	acpTypeNames     = map[string]int{"old": 0, "new": 1}
)

// invalidEnum is outside every enum and fails validation.
const invalidEnum = -1

// decodeClaimAttributes reads data.attributes of a claim_event document.
// Values of the wrong JSON type are replaced with values that fail
// validation, so the service reports the first invalid attribute.
func decodeClaimAttributes(body io.Reader) (service.ClaimAttributes, error) {
	var doc struct {
		Data struct {
			Attributes map[string]json.RawMessage `json:"attributes"`
		} `json:"data"`
	}
	if err := json.NewDecoder(body).Decode(&doc); err != nil {
		return service.ClaimAttributes{}, auth.ErrRequestBodyInvalid
	}
	raw := doc.Data.Attributes

	var attrs service.ClaimAttributes
	_ = json.Unmarshal(raw["request_uuid"], &attrs.RequestUUID)
	_ = json.Unmarshal(raw["pk160"], &attrs.Pk160)

	if v, ok := raw["request_type"]; ok && string(v) != "null" {
		attrs.RequestType = decodeEnum(v, requestTypeNames)
	}
	if v, ok := raw["acp_type"]; ok && string(v) != "null" {
		attrs.AcpType = decodeEnum(v, acpTypeNames)
	}

	return attrs, nil
}

// decodeEnum accepts an integer, a numeric string or an enum name.
func decodeEnum(raw json.RawMessage, names map[string]int) *int {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, ok := names[s]; ok {
			return &v
		}
		if v, err := strconv.Atoi(s); err == nil {
			return &v
		}
	}

	v := invalidEnum
	return &v
}
