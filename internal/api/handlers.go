package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"solana-avatar-lab/internal/domain"
	"solana-avatar-lab/internal/gradient"
	"solana-avatar-lab/internal/identity"
	"solana-avatar-lab/internal/idhash"
	"solana-avatar-lab/internal/metadata"
	"solana-avatar-lab/internal/observability"
	"solana-avatar-lab/internal/palette"
	"solana-avatar-lab/internal/storage"
)

// deriveFromRequest validates the address parameter and derives its identity.
// On failure it writes the error response and returns nil.
func (s *Server) deriveFromRequest(w http.ResponseWriter, r *http.Request, address string) (*domain.Identity, balanceState) {
	if err := domain.ValidateAddress(address); err != nil {
		observability.RecordInvalidAddress()
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, balanceFixed
	}
	bal, state, err := s.resolveBalance(r.Context(), r, address)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, balanceFixed
	}
	id, err := identity.Derive(address, bal)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, balanceFixed
	}
	return id, state
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	address := strings.TrimSuffix(ps.ByName("address"), ".json")
	id, state := s.deriveFromRequest(w, r, address)
	if id == nil {
		return
	}

	// The balance can change, so metadata is only briefly cacheable.
	if state == balanceDegraded {
		w.Header().Set("Cache-Control", noCache)
	} else {
		w.Header().Set("Cache-Control", shortCache)
	}
	writeJSON(w, http.StatusOK, metadata.Build(id, s.meta))
}

// IdentityResponse is the JSON view of a derived identity.
type IdentityResponse struct {
	Address     string             `json:"address"`
	Balance     float64            `json:"balance"`
	Hash        uint32             `json:"hash"`
	Serial      string             `json:"serial"`
	Rarity      string             `json:"rarity"`
	Tier        int                `json:"tier"`
	TierName    string             `json:"tierName"`
	AvatarColor string             `json:"avatarColor"`
	Background  BackgroundResponse `json:"background"`
	Gradient    GradientResponse   `json:"gradient"`
	AvatarIndex int                `json:"avatarIndex"`
	Kind        string             `json:"kind"`
}

type BackgroundResponse struct {
	Mode   string   `json:"mode"`
	Colors []string `json:"colors"`
}

type GradientResponse struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

func newIdentityResponse(id *domain.Identity) IdentityResponse {
	resp := IdentityResponse{
		Address:     id.Address,
		Balance:     id.Balance,
		Hash:        id.Hash,
		Serial:      id.SerialNumber,
		Rarity:      string(id.Rarity),
		Tier:        id.Tier,
		TierName:    id.TierName,
		AvatarColor: id.AvatarColor,
		AvatarIndex: id.AvatarIndex(),
		Kind:        string(id.Kind),
	}
	if id.Background != nil {
		resp.Background = BackgroundResponse{
			Mode:   string(id.Background.Mode()),
			Colors: id.Background.Colors(),
		}
	}
	resp.Gradient = GradientResponse{Index: id.GradientIndex, Name: gradient.ForHash(id.Hash).Name}
	return resp
}

func (s *Server) handleIdentity(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, _ := s.deriveFromRequest(w, r, ps.ByName("address"))
	if id == nil {
		return
	}
	writeJSON(w, http.StatusOK, newIdentityResponse(id))
}

// TierResponse describes the tier unlocked by a balance and its colors.
type TierResponse struct {
	palette.TierInfo
	Balance float64  `json:"balance"`
	Colors  []string `json:"colors"`
}

func (s *Server) handleTier(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	bal, _, err := parseBalance(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, TierResponse{
		TierInfo: palette.TierFromBalance(bal),
		Balance:  bal,
		Colors:   palette.AvailableColors(bal),
	})
}

// ShareResponse is returned when a share link is registered.
type ShareResponse struct {
	ID       string `json:"id"`
	Address  string `json:"address"`
	URL      string `json:"url"`
	ImageURL string `json:"image_url"`
	PostURL  string `json:"post_url"`
	Created  bool   `json:"created"`
}

func (s *Server) baseURL() string {
	return strings.TrimRight(s.meta.BaseURL, "/")
}

func (s *Server) handleCreateShare(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	address := ps.ByName("address")
	if err := domain.ValidateAddress(address); err != nil {
		observability.RecordInvalidAddress()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	link := &domain.ShareLink{
		ID:        idhash.ComputeShareID(address),
		Address:   address,
		CreatedAt: s.now().UnixMilli(),
	}

	status := http.StatusCreated
	err := s.shares.Insert(r.Context(), link)
	switch {
	case err == nil:
		observability.RecordShareLinkCreated()
		s.logger.Info("share link created", "id", link.ID, "address", address)
	case errors.Is(err, storage.ErrDuplicateKey):
		// Ids are derived from the address, so re-registration is a no-op.
		status = http.StatusOK
	default:
		s.logger.Error("create share link failed", "address", address, "error", err)
		writeError(w, http.StatusInternalServerError, "could not create share link")
		return
	}

	shareURL := s.baseURL() + "/s/" + link.ID
	serial := identity.Serial(idhash.Sum(address))
	text := fmt.Sprintf("Meet my %s #%s", s.brand.Name, serial)

	writeJSON(w, status, ShareResponse{
		ID:       link.ID,
		Address:  address,
		URL:      shareURL,
		ImageURL: metadata.ImageURL(s.baseURL(), address),
		PostURL:  "https://x.com/intent/post?text=" + url.QueryEscape(text) + "&url=" + url.QueryEscape(shareURL),
		Created:  status == http.StatusCreated,
	})
}

func (s *Server) handleShareRedirect(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	link, err := s.shares.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "share link not found")
			return
		}
		s.logger.Error("resolve share link failed", "id", ps.ByName("id"), "error", err)
		writeError(w, http.StatusInternalServerError, "could not resolve share link")
		return
	}
	http.Redirect(w, r, metadata.ImageURL(s.baseURL(), link.Address), http.StatusFound)
}

// Render history limits for /api/renders.
const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// RenderResponse is one served render in an address's history.
type RenderResponse struct {
	Renderer   string    `json:"renderer"`
	Format     string    `json:"format"`
	Balance    float64   `json:"balance"`
	Serial     string    `json:"serial"`
	Rasterized bool      `json:"rasterized"`
	DurationMs int64     `json:"duration_ms"`
	CacheHit   bool      `json:"cache_hit"`
	Time       time.Time `json:"time"`
}

// HistoryResponse lists the most recent renders of an address, newest first.
type HistoryResponse struct {
	Address string           `json:"address"`
	Renders []RenderResponse `json:"renders"`
}

func (s *Server) handleRenders(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	address := ps.ByName("address")
	if err := domain.ValidateAddress(address); err != nil {
		observability.RecordInvalidAddress()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.events == nil {
		writeError(w, http.StatusServiceUnavailable, "render history is disabled")
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxHistoryLimit))
			return
		}
		limit = n
	}

	events, err := s.events.GetByAddress(r.Context(), address, limit)
	if err != nil {
		s.logger.Error("load render history failed", "address", address, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load render history")
		return
	}

	resp := HistoryResponse{Address: address, Renders: make([]RenderResponse, 0, len(events))}
	for _, e := range events {
		resp.Renders = append(resp.Renders, RenderResponse{
			Renderer:   e.Renderer,
			Format:     e.Format,
			Balance:    e.Balance,
			Serial:     e.Serial,
			Rasterized: e.Rasterized,
			DurationMs: e.DurationMs,
			CacheHit:   e.CacheHit,
			Time:       time.UnixMilli(e.Timestamp).UTC(),
		})
	}
	w.Header().Set("Cache-Control", noCache)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status          string                `json:"status"`
	Uptime          string                `json:"uptime"`
	Started         time.Time             `json:"started"`
	Renders         []domain.RenderTotals `json:"renders,omitempty"`
	CachedOutputs   int                   `json:"cached_outputs"`
	FeedSubscribers int                   `json:"feed_subscribers"`
	BalanceSource   string                `json:"balance_source"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	resp := StatusResponse{
		Status:        "running",
		Uptime:        s.now().Sub(s.started).Round(time.Second).String(),
		Started:       s.started,
		CachedOutputs: s.cache.Len(),
		BalanceSource: s.balance.Name(),
	}
	if s.feed != nil {
		resp.FeedSubscribers = s.feed.Subscribers()
	}
	if s.events != nil {
		totals, err := s.events.Totals(r.Context())
		if err != nil {
			s.logger.Warn("render totals unavailable", "error", err)
		}
		resp.Renders = totals
	}
	writeJSON(w, http.StatusOK, resp)
}
