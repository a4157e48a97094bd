package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"articlegen/internal/auth"
	"articlegen/internal/config"
	"articlegen/internal/game"
	"articlegen/internal/host"
	"articlegen/internal/num"
	"articlegen/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

var errDuplicateRequest = errors.New("duplicate idempotency key")

const (
	maxClicksPerRequest = 100
	idempotencyKeys     = 4096
)

type Server struct {
	cfg    config.APIConfig
	log    *slog.Logger
	auth   *auth.TokenVerifier
	host   *host.Host
	mux    *chi.Mux
	seen   *lru.Cache[string, struct{}]
	upgr   websocket.Upgrader
	every  time.Duration
	limMu  sync.Mutex
	limits map[string]*rate.Limiter

	viewMu  sync.Mutex
	viewers map[string]int
}

// New wires the routes. A nil verifier leaves /v1 open.
func New(cfg config.APIConfig, logger *slog.Logger, verifier *auth.TokenVerifier, h *host.Host) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ClickRate <= 0 {
		cfg.ClickRate = 20
	}
	if cfg.ClickBurst <= 0 {
		cfg.ClickBurst = 40
	}
	seen, err := lru.New[string, struct{}](idempotencyKeys)
	if err != nil {
		panic(err)
	}
	s := &Server{
		cfg:     cfg,
		log:     logger,
		auth:    verifier,
		host:    h,
		mux:     chi.NewRouter(),
		seen:    seen,
		every:   time.Second,
		limits:  make(map[string]*rate.Limiter),
		viewers: make(map[string]int),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		// The stream outlives the request timeout.
		r.Get("/slots/{slot}/stream", s.handleStream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			r.Get("/slots", s.handleListSlots)
			r.Post("/slots", s.handleCreateSlot)
			r.Post("/slots/import", s.handleImport)
			r.Get("/slots/{slot}", s.handleSnapshot)
			r.Delete("/slots/{slot}", s.handleDeleteSlot)
			r.Get("/slots/{slot}/export", s.handleExport)

			r.Get("/slots/{slot}/units/{id}/quote", s.handleQuote)
			r.Post("/slots/{slot}/action", s.handleAction)
			r.Post("/slots/{slot}/visibility", s.handleVisibility)

			r.Group(func(r chi.Router) {
				r.Use(s.idempotent)
				r.Post("/slots/{slot}/click", s.handleClick)
				r.Post("/slots/{slot}/units/{id}/buy", s.handleBuyUnit)
				r.Post("/slots/{slot}/multipliers/cheapest/buy", s.handleBuyCheapest)
				r.Post("/slots/{slot}/multipliers/{id}/buy", s.handleBuyMultiplier)
				r.Post("/slots/{slot}/prestige", s.handlePrestige)
				r.Post("/slots/{slot}/modifiers/{id}/buy", s.handleBuyModifier)
				r.Post("/slots/{slot}/bonus/claim", s.handleClaimBonus)
			})
		})
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.auth == nil {
			next.ServeHTTP(w, r)
			return
		}
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if err := s.auth.Verify(token); err != nil {
			writeError(w, http.StatusUnauthorized, fmt.Sprintf("invalid token: %v", err))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) game(w http.ResponseWriter, r *http.Request) (*game.Game, bool) {
	g, err := s.host.Get(r.Context(), chi.URLParam(r, "slot"))
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return g, true
}

// idempotent rejects a replayed Idempotency-Key while the first request runs
// or after it succeeded. A key whose request failed is released for retry.
func (s *Server) idempotent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := idempotencyKey(r)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		key = chi.URLParam(r, "slot") + "/" + key
		if seen, _ := s.seen.ContainsOrAdd(key, struct{}{}); seen {
			writeDomainError(w, errDuplicateRequest)
			return
		}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		if ww.Status() >= http.StatusMultipleChoices {
			s.seen.Remove(key)
		}
	})
}

func (s *Server) handleListSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := s.host.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": slots})
}

func (s *Server) handleCreateSlot(w http.ResponseWriter, r *http.Request) {
	slot, g, err := s.host.Create(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"slot": slot, "state": g.Snapshot()})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Data string `json:"data"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	raw, err := store.DecodeExport(in.Data)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	slot, report, err := s.host.Import(r.Context(), raw)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"slot": slot, "report": report})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	g, ok := s.game(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, g.Snapshot())
}

func (s *Server) handleDeleteSlot(w http.ResponseWriter, r *http.Request) {
	if err := s.host.Delete(r.Context(), chi.URLParam(r, "slot")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.host.Export(r.Context(), chi.URLParam(r, "slot"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Count int `json:"count"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if in.Count == 0 {
		in.Count = 1
	}
	if in.Count < 0 || in.Count > maxClicksPerRequest {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("count must be between 1 and %d", maxClicksPerRequest))
		return
	}
	g, ok := s.game(w, r)
	if !ok {
		return
	}
	if !s.limiter(chi.URLParam(r, "slot")).AllowN(time.Now(), in.Count) {
		writeError(w, http.StatusTooManyRequests, "click rate exceeded")
		return
	}
	earned := num.Zero
	for i := 0; i < in.Count; i++ {
		earned = earned.Add(g.Click())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"earned":  earned,
		"balance": g.Snapshot().Balance,
	})
}

func (s *Server) limiter(slot string) *rate.Limiter {
	s.limMu.Lock()
	defer s.limMu.Unlock()
	l, ok := s.limits[slot]
	if !ok {
		l = rate.NewLimiter(rate.Limit(s.cfg.ClickRate), s.cfg.ClickBurst)
		s.limits[slot] = l
	}
	return l
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, game.ErrUnknownUnit)
		return
	}
	mode, err := game.ParsePurchaseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	g, ok := s.game(w, r)
	if !ok {
		return
	}
	count, cost, err := g.Quote(id, mode)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": count, "cost": cost, "mode": mode.String()})
}

func (s *Server) handleBuyUnit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, game.ErrUnknownUnit)
		return
	}
	var in struct {
		Mode string `json:"mode"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	mode, err := game.ParsePurchaseMode(in.Mode)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	g, ok := s.game(w, r)
	if !ok {
		return
	}
	bought, spent, err := g.PurchaseUnit(id, mode)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bought":  bought,
		"spent":   spent,
		"balance": g.Snapshot().Balance,
	})
}

func (s *Server) handleBuyMultiplier(w http.ResponseWriter, r *http.Request) {
	g, ok := s.game(w, r)
	if !ok {
		return
	}
	bought, err := g.PurchaseMultiplier(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bought": bought, "balance": g.Snapshot().Balance})
}

func (s *Server) handleBuyCheapest(w http.ResponseWriter, r *http.Request) {
	g, ok := s.game(w, r)
	if !ok {
		return
	}
	id := g.PurchaseCheapestMultiplier()
	writeJSON(w, http.StatusOK, map[string]any{"bought": id != "", "id": id, "balance": g.Snapshot().Balance})
}

func (s *Server) handlePrestige(w http.ResponseWriter, r *http.Request) {
	g, ok := s.game(w, r)
	if !ok {
		return
	}
	gain, err := g.CommitPrestige()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"gain": gain, "prestige": g.Snapshot().Prestige})
}

func (s *Server) handleBuyModifier(w http.ResponseWriter, r *http.Request) {
	g, ok := s.game(w, r)
	if !ok {
		return
	}
	bought, err := g.PurchasePermanentModifier(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bought": bought, "prestige": g.Snapshot().Prestige})
}

func (s *Server) handleClaimBonus(w http.ResponseWriter, r *http.Request) {
	g, ok := s.game(w, r)
	if !ok {
		return
	}
	claimed := g.ClaimBonusEvent()
	writeJSON(w, http.StatusOK, map[string]any{"claimed": claimed, "bonus": g.Snapshot().Bonus})
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	g, ok := s.game(w, r)
	if !ok {
		return
	}
	g.NotifyUserAction()
	writeJSON(w, http.StatusOK, map[string]any{"idle": g.Snapshot().Idle})
}

func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Visible *bool `json:"visible"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.Visible == nil {
		writeError(w, http.StatusBadRequest, "visible is required")
		return
	}
	g, ok := s.game(w, r)
	if !ok {
		return
	}
	g.SetVisible(*in.Visible)
	writeJSON(w, http.StatusOK, map[string]any{"idle": g.Snapshot().Idle})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errDuplicateRequest):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrNotEligible):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrUnknownUnit), errors.Is(err, game.ErrUnknownMultiplier),
		errors.Is(err, game.ErrUnknownModifier), errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrInvalidPurchaseMode), errors.Is(err, store.ErrInvalidSlot):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, game.ErrCorruptSave), errors.Is(err, store.ErrChecksum),
		errors.Is(err, store.ErrMalformedExport):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

func idempotencyKey(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("Idempotency-Key"))
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
