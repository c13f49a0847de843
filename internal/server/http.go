package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"gopkg.in/op/go-logging.v1"

	"deaddrop/internal/domain"
	"deaddrop/internal/instrument"
)

// DefaultMaxRequestBytes bounds every request body.
const DefaultMaxRequestBytes = 1 << 20

// Handler serves the HTTP API of a Service.
type Handler struct {
	svc      *Service
	log      *logging.Logger
	maxBytes int64
}

// NewRouter builds the API router for svc. maxBytes <= 0 selects
// DefaultMaxRequestBytes.
func NewRouter(svc *Service, log *logging.Logger, maxBytes int64) *mux.Router {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestBytes
	}
	h := &Handler{svc: svc, log: log, maxBytes: maxBytes}

	r := mux.NewRouter()
	r.Use(h.instrument)
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.HandleFunc("/pki", h.getPKI).Methods(http.MethodGet)
	r.HandleFunc("/journalists", h.register).Methods(http.MethodPost)
	r.HandleFunc("/journalists", h.listJournalists).Methods(http.MethodGet)
	r.HandleFunc("/ephemeral_keys", h.publishKeys).Methods(http.MethodPost)
	r.HandleFunc("/ephemeral_keys", h.fetchKeys).Methods(http.MethodGet)
	r.HandleFunc("/message", h.deposit).Methods(http.MethodPost)
	r.HandleFunc("/message/{id}", h.getMessage).Methods(http.MethodGet)
	r.HandleFunc("/message/{id}", h.deleteMessage).Methods(http.MethodDelete)
	r.HandleFunc("/discovery", h.beginDiscovery).Methods(http.MethodGet)
	r.HandleFunc("/discovery/{challenge_id}", h.redeemDiscovery).Methods(http.MethodPost)
	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "OK\n")
}

func (h *Handler) getPKI(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.FetchIntermediate(r.Context())
	h.reply(w, a, err)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var reg domain.Registration
	if !h.decode(w, r, &reg) {
		return
	}
	uid, err := h.svc.Register(r.Context(), reg)
	h.reply(w, domain.RegistrationResult{UID: uid}, err)
}

func (h *Handler) listJournalists(w http.ResponseWriter, r *http.Request) {
	js, err := h.svc.ListJournalists(r.Context())
	h.reply(w, domain.JournalistList{Journalists: js}, err)
}

func (h *Handler) publishKeys(w http.ResponseWriter, r *http.Request) {
	var batch domain.EphemeralKeyBatch
	if !h.decode(w, r, &batch) {
		return
	}
	res, err := h.svc.PublishEphemeralKeys(r.Context(), batch)
	h.reply(w, res, err)
}

func (h *Handler) fetchKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.svc.FetchEphemeralKeys(r.Context())
	h.reply(w, domain.EphemeralKeyList{Keys: keys}, err)
}

func (h *Handler) deposit(w http.ResponseWriter, r *http.Request) {
	var env domain.MessageEnvelope
	if !h.decode(w, r, &env) {
		return
	}
	id, err := h.svc.Deposit(r.Context(), env)
	h.reply(w, domain.DepositResult{ID: id}, err)
}

func (h *Handler) getMessage(w http.ResponseWriter, r *http.Request) {
	env, err := h.svc.FetchMessage(r.Context(), domain.MessageID(mux.Vars(r)["id"]))
	h.reply(w, env, err)
}

func (h *Handler) deleteMessage(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeleteMessage(r.Context(), domain.MessageID(mux.Vars(r)["id"]))
	if err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) beginDiscovery(w http.ResponseWriter, r *http.Request) {
	ch, err := h.svc.BeginDiscovery(r.Context())
	if ch.Blinded == nil {
		ch.Blinded = []domain.Point{}
	}
	h.reply(w, ch, err)
}

func (h *Handler) redeemDiscovery(w http.ResponseWriter, r *http.Request) {
	var resp domain.ChallengeResponse
	if !h.decode(w, r, &resp) {
		return
	}
	resp.SessionID = domain.SessionID(mux.Vars(r)["challenge_id"])
	ids, err := h.svc.RedeemDiscovery(r.Context(), resp)
	if ids == nil {
		ids = []domain.MessageID{}
	}
	h.reply(w, domain.DiscoveryResult{Messages: ids}, err)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		h.fail(w, fmt.Errorf("%w: %v", domain.ErrMalformed, err))
		return false
	}
	return true
}

func (h *Handler) reply(w http.ResponseWriter, v any, err error) {
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Errorf("encode response: %v", err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	code := StatusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		h.log.Errorf("internal error: %v", err)
		msg = http.StatusText(code)
	}
	h.writeError(w, code, msg)
}

func (h *Handler) writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(domain.ErrorResult{Error: msg})
}

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrMalformed):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrChainVerification), errors.Is(err, domain.ErrSignatureInvalid):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrSessionExpiredOrUnknown):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMessageTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (h *Handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)
		route := "unknown"
		if cr := mux.CurrentRoute(r); cr != nil {
			if tpl, err := cr.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		instrument.HTTPRequest(route, sw.code)
		h.log.Debugf("%s %s %d", r.Method, route, sw.code)
	})
}
