package web

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vbonduro/foodgram/internal/mediastore"
)

func (s *Server) handleGetMedia(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	reader, mimeType, err := s.media.Open(r.Context(), key)
	if err != nil {
		if !errors.Is(err, mediastore.ErrNotFound) {
			s.logger.Warn("open media failed", "key", key, "error", err)
		}
		http.NotFound(w, r)
		return
	}
	defer closeWithLog(reader, "media reader", s.logger)

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write media failed", "key", key, "error", err)
	}
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
