package handler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pavelanni/scaffold/internal/llm"
	"github.com/pavelanni/scaffold/internal/model"
	"github.com/pavelanni/scaffold/internal/study"
)

// parseCrop reads an optional crop rectangle from form values. All four
// fields must be present for a crop to apply.
func parseCrop(r *http.Request) (*model.Crop, error) {
	fields := []string{"crop_x", "crop_y", "crop_width", "crop_height"}
	vals := make([]int, len(fields))
	present := 0
	for i, f := range fields {
		raw := r.FormValue(f)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", llm.ErrInvalidCrop, f, err)
		}
		vals[i] = n
		present++
	}
	switch present {
	case 0:
		return nil, nil
	case len(fields):
	default:
		return nil, fmt.Errorf("%w: incomplete rectangle", llm.ErrInvalidCrop)
	}
	c := &model.Crop{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}
	if err := validate.Struct(c); err != nil {
		return nil, fmt.Errorf("%w: %w", llm.ErrInvalidCrop, err)
	}
	return c, nil
}

// cacheKey identifies an extraction by image content and crop.
func cacheKey(data []byte, crop *model.Crop) string {
	h := sha256.New()
	h.Write(data)
	if crop != nil {
		fmt.Fprintf(h, "|%d,%d,%d,%d", crop.X, crop.Y, crop.Width, crop.Height)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (h *Handler) handleCreateOCRSession(w http.ResponseWriter, r *http.Request) {
	if h.llm == nil {
		respondError(w, r, errors.New("ocr extractor not configured"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	if err := r.ParseMultipartForm(h.config.MaxUploadSize); err != nil {
		respondError(w, r, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: no image uploaded: %w", errBadRequest, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, err)
		return
	}
	crop, err := parseCrop(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	opts, err := stepOption(r.FormValue("step"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	key := cacheKey(data, crop)
	cached, ok, err := h.store.CachedExtraction(r.Context(), key)
	if err != nil {
		slog.Warn("ocr cache lookup failed", "error", err)
	}
	if ok {
		logRequest(r, "ocr cache hit", "file", header.Filename, "key", key[:12])
		h.createReady(w, r, cached, opts...)
		return
	}

	usage, err := h.store.Usage(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if usage.Status == model.UsageLimitReached {
		respondError(w, r, llm.ErrUsageLimit)
		return
	}

	title := h.config.DefaultTitle
	id := h.sessions.Load(func(ctx context.Context) (model.Payload, error) {
		p, err := h.llm.Extract(ctx, data, crop, title)
		if err != nil {
			return model.Payload{}, err
		}
		if _, err := h.store.ConsumeUsage(ctx, 1); err != nil {
			return model.Payload{}, err
		}
		if err := h.store.PutExtraction(ctx, key, p); err != nil {
			slog.Warn("failed to cache extraction", "key", key[:12], "error", err)
		}
		return p, nil
	}, opts...)

	logRequest(r, "ocr session loading", "id", id, "file", header.Filename, "size", len(data))
	respondJSON(w, http.StatusAccepted, sessionResponse{ID: id, Status: study.StatusLoading})
}

func (h *Handler) handleUsage(w http.ResponseWriter, r *http.Request) {
	u, err := h.store.Usage(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}
