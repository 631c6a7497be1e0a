package relay

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/tuongmengleang/firechat/internal/domain"
	"github.com/tuongmengleang/firechat/internal/observability"
)

// maxBodyBytes caps request bodies accepted by the server.
const maxBodyBytes = 1 << 20

type ackRequest struct {
	Count int `json:"count"`
}

// Server exposes a Backend over the relay HTTP API. It only ever sees
// ciphertext and routing metadata.
type Server struct {
	backend Backend
	metrics *observability.Metrics
	log     *observability.Logger
}

// NewServer returns a relay server over backend.
func NewServer(backend Backend, metrics *observability.Metrics, log *observability.Logger) *Server {
	return &Server{backend: backend, metrics: metrics, log: log}
}

// Handler returns the HTTP routes of the relay.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("PUT /users/{id}", s.route("put_user", s.putUser))
	mux.Handle("GET /users/{id}", s.route("get_user", s.getUser))
	mux.Handle("POST /msg/{user}", s.route("post_msg", s.postMessage))
	mux.Handle("GET /msg/{user}", s.route("fetch_msg", s.fetchMessages))
	mux.Handle("POST /msg/{user}/ack", s.route("ack_msg", s.ackMessages))
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

func (s *Server) putUser(w http.ResponseWriter, r *http.Request) int {
	id := domain.UserID(r.PathValue("id"))
	var rec domain.PublicKeyRecord
	if err := decodeBody(w, r, &rec); err != nil {
		return fail(w, http.StatusBadRequest, err.Error())
	}
	if id == "" || rec.UserID != id || rec.PublicKey == "" {
		return fail(w, http.StatusBadRequest, "record user id must match path and carry a public key")
	}
	if err := s.backend.PutPublicKeyRecord(r.Context(), rec); err != nil {
		s.log.Error(err, "put public key record")
		return fail(w, http.StatusInternalServerError, "store failed")
	}
	w.WriteHeader(http.StatusNoContent)
	return http.StatusNoContent
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) int {
	rec, found, err := s.backend.GetPublicKeyRecord(r.Context(), domain.UserID(r.PathValue("id")))
	if err != nil {
		s.log.Error(err, "get public key record")
		return fail(w, http.StatusInternalServerError, "lookup failed")
	}
	if !found {
		return fail(w, http.StatusNotFound, "not found")
	}
	return writeJSON(w, http.StatusOK, rec)
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) int {
	recipient := domain.UserID(r.PathValue("user"))
	var msg domain.EncryptedMessage
	if err := decodeBody(w, r, &msg); err != nil {
		return fail(w, http.StatusBadRequest, err.Error())
	}
	if recipient == "" || msg.RecipientID != recipient || msg.SenderID == "" {
		return fail(w, http.StatusBadRequest, "recipient must match path and sender must be set")
	}
	if err := s.backend.PostMessage(r.Context(), msg); err != nil {
		s.log.Error(err, "post message")
		return fail(w, http.StatusInternalServerError, "store failed")
	}
	s.refreshQueued(r)
	w.WriteHeader(http.StatusAccepted)
	return http.StatusAccepted
}

func (s *Server) fetchMessages(w http.ResponseWriter, r *http.Request) int {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fail(w, http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = n
	}
	msgs, err := s.backend.FetchMessages(r.Context(), domain.UserID(r.PathValue("user")), limit)
	if err != nil {
		s.log.Error(err, "fetch messages")
		return fail(w, http.StatusInternalServerError, "fetch failed")
	}
	if msgs == nil {
		msgs = []domain.EncryptedMessage{}
	}
	return writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) ackMessages(w http.ResponseWriter, r *http.Request) int {
	var req ackRequest
	if err := decodeBody(w, r, &req); err != nil {
		return fail(w, http.StatusBadRequest, err.Error())
	}
	if req.Count < 0 {
		return fail(w, http.StatusBadRequest, "count must be non-negative")
	}
	if err := s.backend.AckMessages(r.Context(), domain.UserID(r.PathValue("user")), req.Count); err != nil {
		s.log.Error(err, "ack messages")
		return fail(w, http.StatusInternalServerError, "ack failed")
	}
	s.refreshQueued(r)
	w.WriteHeader(http.StatusNoContent)
	return http.StatusNoContent
}

func (s *Server) refreshQueued(r *http.Request) {
	n, err := s.backend.Queued(r.Context())
	if err != nil {
		return
	}
	s.metrics.RelayQueuedMessages.Set(float64(n))
}

// route wraps a handler with the access log line and request counter.
func (s *Server) route(name string, h func(http.ResponseWriter, *http.Request) int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		code := h(w, r)
		s.metrics.RelayRequestsTotal.WithLabelValues(name, strconv.Itoa(code)).Inc()
		s.log.RequestServed(r.Method, r.URL.Path, code, time.Since(start))
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(out); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return errors.New("request body too large")
		}
		return errors.New("invalid JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) int {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
	return code
}

func fail(w http.ResponseWriter, code int, msg string) int {
	http.Error(w, msg, code)
	return code
}
