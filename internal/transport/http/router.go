package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"

	"trivia-room-service/internal/app"
	"trivia-room-service/internal/domain"
)

const qrSize = 320

// NewRouter wires the websocket endpoint and the read-only HTTP API.
func NewRouter(service *app.RoomService, ws *WSHandler, publicURL string, logger zerolog.Logger) http.Handler {
	api := &apiHandler{service: service, publicURL: strings.TrimRight(publicURL, "/")}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)
	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", api.stats)
		r.Get("/rooms/{pin}", api.room)
		r.Get("/rooms/{pin}/qr", api.qr)
	})
	return r
}

type apiHandler struct {
	service   *app.RoomService
	publicURL string
}

func (a *apiHandler) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.service.Stats())
}

func (a *apiHandler) room(w http.ResponseWriter, r *http.Request) {
	info, err := a.service.RoomInfo(chi.URLParam(r, "pin"))
	if errors.Is(err, domain.ErrRoomNotFound) {
		writeJSON(w, http.StatusNotFound, domain.MessagePayload{Code: ErrCodeRoomNotFound, Message: "Room not found"})
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// qr renders the player join link for a live room as a PNG.
func (a *apiHandler) qr(w http.ResponseWriter, r *http.Request) {
	pin := chi.URLParam(r, "pin")
	if _, err := a.service.Lookup(pin); err != nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	link := a.publicURL + "/player.html?pin=" + url.QueryEscape(pin)
	png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}
