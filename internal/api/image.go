package api

import (
	"context"
	"errors"
	"math"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"solana-avatar-lab/internal/assets"
	"solana-avatar-lab/internal/balance"
	"solana-avatar-lab/internal/domain"
	"solana-avatar-lab/internal/identity"
	"solana-avatar-lab/internal/idhash"
	"solana-avatar-lab/internal/observability"
	"solana-avatar-lab/internal/render"
)

// Output formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"

	contentTypePNG = "image/png"
	immutableCache = "public, max-age=31536000, immutable"
	shortCache     = "public, max-age=60"
	noCache        = "no-cache"
)

// balanceState tells how far a request's balance, and so its output, can be cached.
type balanceState int

const (
	// balanceFixed: the output never changes for this URL (balance-blind route,
	// ?balance= override or a static provider).
	balanceFixed balanceState = iota
	// balanceLive: looked up from a provider whose value can change.
	balanceLive
	// balanceDegraded: the lookup failed and 0 was substituted.
	balanceDegraded
)

func (b balanceState) cacheControl() string {
	switch b {
	case balanceLive:
		return shortCache
	case balanceDegraded:
		return noCache
	default:
		return immutableCache
	}
}

var (
	errUnsupportedFormat = errors.New("unsupported format: use .svg or .png")
	errInvalidBalance    = errors.New("balance must be a non-negative number")
)

type renderKey struct {
	renderer string
	format   string
	address  string
	balance  float64
}

type cachedRender struct {
	body        []byte
	contentType string
	serial      string
}

// parseFile splits "<address>.<ext>" into address and format. No extension means SVG.
func parseFile(file string) (address, format string, err error) {
	ext := path.Ext(file)
	switch strings.ToLower(ext) {
	case "", ".svg":
		return strings.TrimSuffix(file, ext), FormatSVG, nil
	case ".png":
		return strings.TrimSuffix(file, ext), FormatPNG, nil
	default:
		return "", "", errUnsupportedFormat
	}
}

// parseBalance reads a ?balance= override. ok is false when none is given.
func parseBalance(r *http.Request) (value float64, ok bool, err error) {
	raw := r.URL.Query().Get("balance")
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, errInvalidBalance
	}
	return v, true, nil
}

// resolveBalance returns the balance for a request: the override when allowed,
// otherwise the provider's value with failures degraded to 0.
func (s *Server) resolveBalance(ctx context.Context, r *http.Request, address string) (float64, balanceState, error) {
	if s.allowOverride {
		v, ok, err := parseBalance(r)
		if err != nil {
			return 0, balanceFixed, err
		}
		if ok {
			return v, balanceFixed, nil
		}
	}
	v, ok := balance.Resolve(ctx, s.balance, address, s.logger)
	switch {
	case !ok:
		return v, balanceDegraded, nil
	case balance.Stable(s.balance):
		return v, balanceFixed, nil
	default:
		return v, balanceLive, nil
	}
}

// etagMatches reports whether an If-None-Match header matches etag.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

func (s *Server) handleImage(name string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		start := time.Now()
		route := s.routes[name]

		address, format, err := parseFile(ps.ByName("file"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := domain.ValidateAddress(address); err != nil {
			observability.RecordInvalidAddress()
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var bal float64
		state := balanceFixed
		if route.balanceAware {
			bal, state, err = s.resolveBalance(r.Context(), r, address)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}

		// A degraded render carries no validator: the next request must look again.
		etag := idhash.ComputeRenderETag(name, format, address, bal)
		if state != balanceDegraded && etagMatches(r.Header.Get("If-None-Match"), etag) {
			observability.RecordNotModified()
			w.Header().Set("ETag", etag)
			w.Header().Set("Cache-Control", state.cacheControl())
			w.WriteHeader(http.StatusNotModified)
			return
		}

		key := renderKey{renderer: name, format: format, address: address, balance: bal}
		out, hit := s.cache.Get(key)
		observability.RecordOutputCache(name, hit)

		rasterized := format == FormatPNG
		if !hit {
			var cacheable bool
			out, cacheable, err = s.render(route.renderer, address, bal, format)
			if err != nil {
				observability.RecordRender(name, format, "error", time.Since(start).Seconds())
				if errors.Is(err, assets.ErrMissingAsset) {
					s.logger.Error("avatar asset missing", "renderer", name, "address", address, "error", err)
				} else {
					s.logger.Error("render failed", "renderer", name, "address", address, "error", err)
				}
				s.writeFallback(w)
				return
			}
			if cacheable {
				s.cache.Add(key, out)
			} else {
				rasterized = false
			}
		}

		w.Header().Set("Content-Type", out.contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(out.body)))
		switch {
		case !rasterized && format == FormatPNG:
			// PNG requested, SVG served: let the next request retry rasterization.
			w.Header().Set("Cache-Control", noCache)
		case state == balanceDegraded:
			w.Header().Set("Cache-Control", noCache)
		default:
			w.Header().Set("Cache-Control", state.cacheControl())
			w.Header().Set("ETag", etag)
		}
		w.WriteHeader(http.StatusOK)
		w.Write(out.body)

		elapsed := time.Since(start)
		observability.RecordRender(name, format, "ok", elapsed.Seconds())
		if s.recorder != nil {
			s.recorder.Record(&domain.RenderEvent{
				Address:    address,
				Renderer:   name,
				Format:     format,
				Balance:    bal,
				Serial:     out.serial,
				Rasterized: rasterized,
				DurationMs: elapsed.Milliseconds(),
				CacheHit:   hit,
				Timestamp:  s.now().UnixMilli(),
			})
		}
	}
}

// render derives the identity and produces the output. cacheable is false when a
// PNG was requested but rasterization failed and the SVG is returned instead.
func (s *Server) render(r render.Renderer, address string, bal float64, format string) (out cachedRender, cacheable bool, err error) {
	id, err := identity.Derive(address, bal)
	if err != nil {
		return cachedRender{}, false, err
	}

	doc, err := r.Render(id)
	if err != nil {
		return cachedRender{}, false, err
	}

	if format == FormatSVG {
		return cachedRender{body: doc, contentType: render.ContentType, serial: id.SerialNumber}, true, nil
	}

	png, err := s.rasterizer.Rasterize(doc, s.density)
	if err != nil {
		observability.RecordRasterFallback(r.Name())
		s.logger.Warn("rasterization failed, serving svg", "renderer", r.Name(), "address", address, "error", err)
		return cachedRender{body: doc, contentType: render.ContentType, serial: id.SerialNumber}, false, nil
	}
	return cachedRender{body: png, contentType: contentTypePNG, serial: id.SerialNumber}, true, nil
}
