// Package api serves the cipher and the meet-in-the-middle attack over HTTP
// and WebSocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/sebastienfdz/PRESENT24-MitM/internal/logger"
	"github.com/sebastienfdz/PRESENT24-MitM/internal/mitm"
	"github.com/sebastienfdz/PRESENT24-MitM/internal/present24"
)

var errBusy = errors.New("too many attacks running, try again later")

// Server represents the API server
type Server struct {
	addr     string
	attacker *mitm.Attacker
	jobs     chan struct{}
	log      *logger.Logger
	router   *mux.Router
}

// New creates a new API server. At most maxJobs attacks run at once.
func New(addr string, attacker *mitm.Attacker, maxJobs int, log *logger.Logger) *Server {
	if maxJobs < 1 {
		maxJobs = 1
	}
	s := &Server{
		addr:     addr,
		attacker: attacker,
		jobs:     make(chan struct{}, maxJobs),
		log:      log,
	}

	router := mux.NewRouter()
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("PRESENT24 API Server"))
	}).Methods("GET")

	router.HandleFunc("/api/encrypt", s.handleEncrypt).Methods("POST")
	router.HandleFunc("/api/decrypt", s.handleDecrypt).Methods("POST")
	router.HandleFunc("/api/double/{direction:encrypt|decrypt}", s.handleDouble).Methods("POST")
	router.HandleFunc("/api/attack", s.handleAttack).Methods("POST")
	router.HandleFunc("/ws/attack", s.handleAttackStream)
	s.router = router

	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("API server listening on " + s.addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

type cipherRequest struct {
	Key   string `json:"key"`
	Block string `json:"block"`
}

type doubleRequest struct {
	Key1  string `json:"key1"`
	Key2  string `json:"key2"`
	Block string `json:"block"`
}

type blockResponse struct {
	Result string `json:"result"`
}

type pairJSON struct {
	Plain  string `json:"plain"`
	Cipher string `json:"cipher"`
}

type attackRequest struct {
	Pairs []pairJSON `json:"pairs"`
}

type candidateJSON struct {
	Key1 string `json:"key_1"`
	Key2 string `json:"key_2"`
}

type attackResponse struct {
	Candidates []candidateJSON `json:"candidates"`
	Collisions int             `json:"collisions"`
	ElapsedMS  int64           `json:"elapsed_ms"`
}

// streamMessage is one message on /ws/attack. Type is "phase", "result" or "error".
type streamMessage struct {
	Type       string          `json:"type"`
	Phase      string          `json:"phase,omitempty"`
	ElapsedMS  int64           `json:"elapsed_ms,omitempty"`
	Collisions int             `json:"collisions,omitempty"`
	Result     *attackResponse `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleEncrypt(w http.ResponseWriter, r *http.Request) {
	s.handleSingle(w, r, present24.Encrypt)
}

func (s *Server) handleDecrypt(w http.ResponseWriter, r *http.Request) {
	s.handleSingle(w, r, present24.Decrypt)
}

func (s *Server) handleSingle(w http.ResponseWriter, r *http.Request, op func(*present24.RoundKeys, present24.Block) present24.Block) {
	var req cipherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	key, err := present24.ParseKey(req.Key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	block, err := present24.ParseBlock(req.Block)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rk := present24.Schedule(key)
	writeJSON(w, http.StatusOK, blockResponse{Result: op(&rk, block).Hex()})
}

func (s *Server) handleDouble(w http.ResponseWriter, r *http.Request) {
	var req doubleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	k1, err := present24.ParseKey(req.Key1)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	k2, err := present24.ParseKey(req.Key2)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	block, err := present24.ParseBlock(req.Block)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var out present24.Block
	if mux.Vars(r)["direction"] == "encrypt" {
		out = present24.DoubleEncrypt(k1, k2, block)
	} else {
		out = present24.DoubleDecrypt(k1, k2, block)
	}
	writeJSON(w, http.StatusOK, blockResponse{Result: out.Hex()})
}

func (req attackRequest) parse() ([]mitm.Pair, error) {
	if len(req.Pairs) < 2 {
		return nil, mitm.ErrTooFewPairs
	}
	pairs := make([]mitm.Pair, len(req.Pairs))
	for i, p := range req.Pairs {
		plain, err := present24.ParseBlock(p.Plain)
		if err != nil {
			return nil, err
		}
		cipher, err := present24.ParseBlock(p.Cipher)
		if err != nil {
			return nil, err
		}
		pairs[i] = mitm.Pair{Plain: plain, Cipher: cipher}
	}
	return pairs, nil
}

func toResponse(res *mitm.Result) *attackResponse {
	out := &attackResponse{
		Candidates: make([]candidateJSON, len(res.Candidates)),
		Collisions: res.Collisions,
		ElapsedMS:  res.Elapsed.Milliseconds(),
	}
	for i, c := range res.Candidates {
		out.Candidates[i] = candidateJSON{Key1: c.Key1.Hex(), Key2: c.Key2.Hex()}
	}
	return out
}

// acquire takes a job slot without waiting.
func (s *Server) acquire() bool {
	select {
	case s.jobs <- struct{}{}:
		return true
	default:
		return false
	}
}

func (s *Server) release() { <-s.jobs }

func (s *Server) handleAttack(w http.ResponseWriter, r *http.Request) {
	var req attackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	pairs, err := req.parse()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !s.acquire() {
		http.Error(w, errBusy.Error(), http.StatusServiceUnavailable)
		return
	}
	defer s.release()

	res, err := s.attacker.Attack(r.Context(), pairs...)
	if err != nil {
		s.log.Error("attack failed", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(res))
}

// handleAttackStream runs one attack per connection. The client sends an
// attackRequest, the server answers with one "phase" message per completed
// phase and a final "result" or "error". Closing the connection aborts the
// attack.
func (s *Server) handleAttackStream(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("WebSocket upgrade error", err)
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	var req attackRequest
	if err := conn.ReadJSON(&req); err != nil {
		s.log.Warn("WebSocket attack request unreadable", err)
		return
	}
	conn.SetReadDeadline(time.Time{})

	send := func(msg streamMessage) {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(msg); err != nil {
			s.log.Debug("WebSocket write failed", err)
		}
	}

	pairs, err := req.parse()
	if err != nil {
		send(streamMessage{Type: "error", Error: err.Error()})
		return
	}
	if !s.acquire() {
		send(streamMessage{Type: "error", Error: errBusy.Error()})
		return
	}
	defer s.release()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Any read error, including a close frame, means the client is gone.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	attacker := s.attacker.WithProgress(func(ev mitm.Event) {
		send(streamMessage{
			Type:       "phase",
			Phase:      ev.Phase.String(),
			ElapsedMS:  ev.Elapsed.Milliseconds(),
			Collisions: ev.Collisions,
		})
	})
	res, err := attacker.Attack(ctx, pairs...)
	if err != nil {
		if ctx.Err() != nil {
			s.log.Info("attack aborted by client")
			return
		}
		send(streamMessage{Type: "error", Error: err.Error()})
		return
	}
	send(streamMessage{Type: "result", Result: toResponse(res)})
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
