package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/forPelevin/hlsync/internal/export"
	"github.com/forPelevin/hlsync/internal/logging"
	"github.com/forPelevin/hlsync/internal/session"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.Logger = logging.OrDiscard(cfg.Logger)
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Route("/session", func(r chi.Router) {
		r.Get("/", snapshotHandler(cfg))
		r.Post("/video", loadVideoHandler(cfg))
		r.Patch("/video/duration", durationHandler(cfg))
		r.Post("/clips/generate", generateClipsHandler(cfg))
		r.Post("/captions/generate", generateCaptionsHandler(cfg))
		r.Post("/select", selectHandler(cfg))
		r.Post("/play", playHandler(cfg))
		r.Post("/pause", pauseHandler(cfg))
		r.Post("/seek", timeHandler(cfg, cfg.Session.Seek))
		r.Post("/time", timeHandler(cfg, cfg.Session.TimeUpdate))
		r.Post("/tick", tickHandler(cfg))
		r.Put("/settings", settingsHandler(cfg))
		r.Post("/export", exportHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

// snapshotHandler only reads; playback advances through /time and /tick.
func snapshotHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, cfg.Session.Snapshot())
	}
}

// tickHandler samples the server's media clock and feeds the position back
// as a time update, which may stop and rewind at the clip end.
func tickHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Session.Tick(); err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Session.Snapshot())
	}
}

func loadVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoadVideoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}
		if req.Name == "" {
			req.Name = req.Path
		}

		epoch := cfg.Session.LoadVideo(r.Context(), req.Name, req.Path, req.Duration)
		WriteJSON(w, http.StatusCreated, LoadVideoResponse{
			Epoch:    epoch,
			Duration: cfg.Session.Snapshot().Video.Duration,
		})
	}
}

func durationHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DurationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Duration == nil {
			WriteError(w, http.StatusBadRequest, "duration is required", "BAD_REQUEST")
			return
		}
		if *req.Duration < 0 {
			WriteError(w, http.StatusBadRequest, "duration must be >= 0", "BAD_REQUEST")
			return
		}
		if err := cfg.Session.SetDuration(*req.Duration); err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Session.Snapshot())
	}
}

func generateClipsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GenerateClipsRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
				return
			}
		}
		snap, err := cfg.Session.GenerateClips(r.Context(), session.ClipsRequest{
			Context: req.Context,
			Min:     req.MinDuration,
			Max:     req.MaxDuration,
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, snap)
	}
}

func generateCaptionsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := cfg.Session.GenerateCaptions(r.Context())
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, snap)
	}
}

func selectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SelectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		var err error
		if req.ClipID == "" {
			err = cfg.Session.Deselect()
		} else {
			err = cfg.Session.Select(req.ClipID)
		}
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Session.Snapshot())
	}
}

func playHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Session.Play(); err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Session.Snapshot())
	}
}

func pauseHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Session.Pause(); err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Session.Snapshot())
	}
}

func timeHandler(cfg ServerConfig, apply func(float64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TimeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Time == nil {
			WriteError(w, http.StatusBadRequest, "time is required", "BAD_REQUEST")
			return
		}
		if err := apply(*req.Time); err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Session.Snapshot())
	}
}

func settingsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SettingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		st := cfg.Session.Settings()
		if req.AutoSubtitle != nil {
			st.AutoSubtitle = *req.AutoSubtitle
		}
		if req.ExportQuality != "" {
			st.ExportQuality = req.ExportQuality
		}
		if req.ShowWatermark != nil {
			st.ShowWatermark = *req.ShowWatermark
		}
		if err := cfg.Session.UpdateSettings(st); err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, st)
	}
}

func exportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := export.Write(cfg.Session.Snapshot(), cfg.OutDir, cfg.Now())
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, res)
	}
}

func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNoVideo):
		WriteError(w, http.StatusConflict, err.Error(), "NO_VIDEO")
	case errors.Is(err, session.ErrNoDuration):
		WriteError(w, http.StatusConflict, err.Error(), "NO_DURATION")
	case errors.Is(err, session.ErrStaleEpoch):
		WriteError(w, http.StatusConflict, err.Error(), "STALE_VIDEO")
	case errors.Is(err, session.ErrUnknownClip):
		WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, export.ErrNothingSelected):
		WriteError(w, http.StatusConflict, err.Error(), "NOTHING_SELECTED")
	case errors.Is(err, session.ErrInvalidSettings):
		WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}
