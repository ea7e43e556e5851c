package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jonny/instance-bot/internal/adapter/inbound/webhook/middleware"
	"github.com/jonny/instance-bot/internal/domain/model"
	"github.com/jonny/instance-bot/internal/domain/port/inbound"
	"github.com/jonny/instance-bot/pkg/apierror"
	"github.com/jonny/instance-bot/pkg/metrics"
)

// Outcome labels recorded per interaction.
const (
	OutcomeHandshake      = "handshake"
	OutcomeCommand        = "command"
	OutcomeUnknownCommand = "unknown_command"
	OutcomeUnauthorized   = "unauthorized"
	OutcomeMalformed      = "malformed"
	OutcomeUnsupported    = "unsupported"
	OutcomeInternalError  = "internal_error"
)

const unknownCommandMessage = "Unknown command"

// HandlerOptions holds optional Handler dependencies.
type HandlerOptions struct {
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	MaxBodyBytes int64
}

// Handler verifies, parses and dispatches chat platform interactions.
type Handler struct {
	verifier     *Verifier
	commands     inbound.CommandPort
	logger       *slog.Logger
	metrics      *metrics.Metrics
	maxBodyBytes int64
}

// NewHandler creates a Handler.
func NewHandler(verifier *Verifier, commands inbound.CommandPort, opts HandlerOptions) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = middleware.DefaultMaxBodyBytes
	}
	return &Handler{
		verifier:     verifier,
		commands:     commands,
		logger:       logger,
		metrics:      opts.Metrics,
		maxBodyBytes: maxBody,
	}
}

// ServeHTTP handles one interaction:
// 1. Verifies the signature over the raw body.
// 2. Parses the payload.
// 3. Answers pings, or runs the named command.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := middleware.RawBody(r, h.maxBodyBytes)
	if err != nil {
		h.reject(w, r, OutcomeUnauthorized, apierror.Unauthorized(), err)
		return
	}

	if err := h.verifier.Verify(r.Header, body); err != nil {
		h.reject(w, r, OutcomeUnauthorized, apierror.Unauthorized(), err)
		return
	}

	interaction, err := ParseInteraction(body)
	if err != nil {
		h.reject(w, r, OutcomeMalformed, apierror.InvalidBody(), err)
		return
	}
	h.logger.Debug("interaction received",
		"type", interaction.Type.String(),
		"interactionID", interaction.ID,
		"applicationID", interaction.ApplicationID,
		"guildID", interaction.GuildID,
	)

	switch interaction.Type {
	case model.InteractionTypePing:
		h.metrics.ObserveInteraction(OutcomeHandshake)
		writeJSON(w, http.StatusOK, model.PongResponse())
	case model.InteractionTypeApplicationCommand:
		h.handleCommand(w, r, interaction)
	default:
		h.reject(w, r, OutcomeUnsupported, apierror.UnsupportedInteraction(),
			fmt.Errorf("%w: %d", model.ErrUnsupportedInteraction, interaction.Type))
	}
}

func (h *Handler) handleCommand(w http.ResponseWriter, r *http.Request, interaction model.Interaction) {
	resp, err := h.commands.Execute(r.Context(), inbound.CommandRequest{
		Name:          interaction.Data.Name,
		InteractionID: interaction.ID,
		GuildID:       interaction.GuildID,
		UserID:        interaction.InvokerID(),
	})
	switch {
	case errors.Is(err, model.ErrUnknownCommand):
		h.logger.Info("unknown command", "command", interaction.Data.Name, "interactionID", interaction.ID)
		h.metrics.ObserveInteraction(OutcomeUnknownCommand)
		writeJSON(w, http.StatusOK, model.MessageResponse(unknownCommandMessage))
	case err != nil:
		h.logger.Error("command failed",
			"command", interaction.Data.Name,
			"interactionID", interaction.ID,
			"requestID", middleware.RequestID(r.Context()),
			"error", err,
		)
		h.metrics.ObserveInteraction(OutcomeInternalError)
		apierror.Write(w, apierror.Internal())
	default:
		h.logger.Info("command handled",
			"command", interaction.Data.Name,
			"interactionID", interaction.ID,
			"userID", interaction.InvokerID(),
			"mutated", resp.Mutated,
		)
		h.metrics.ObserveInteraction(OutcomeCommand)
		writeJSON(w, http.StatusOK, model.MessageResponse(resp.Content))
	}
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request, outcome string, apiErr *apierror.Error, cause error) {
	h.logger.Warn("interaction rejected",
		"outcome", outcome,
		"status", apiErr.Status,
		"requestID", middleware.RequestID(r.Context()),
		"error", cause,
	)
	h.metrics.ObserveInteraction(outcome)
	apierror.Write(w, apiErr)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		apierror.Write(w, apierror.Internal())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

// HealthHandler returns an http.HandlerFunc for the /health endpoint.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
