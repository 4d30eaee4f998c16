package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dgnsrekt/parrot/internal/tts/engines"
	"github.com/dgnsrekt/parrot/internal/ttypes"
)

type synthesis struct {
	id     string
	result ttypes.SynthesisResult
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) speech(w http.ResponseWriter, r *http.Request) {
	var req engines.SpeechRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Text = strings.TrimSpace(req.Text)
	req.Provider = strings.ToLower(strings.TrimSpace(req.Provider))
	req.Model = strings.TrimSpace(req.Model)
	if req.Text == "" {
		respondError(w, http.StatusBadRequest, engines.ErrEmptyText.Error())
		return
	}
	if len(req.Text) > engines.MaxTextSize {
		respondError(w, http.StatusBadRequest, engines.ErrTextTooLong.Error())
		return
	}
	if req.Provider == "" {
		req.Provider = engines.ProviderEcho
	}
	apiKey := bearerToken(r)

	// Identical requests in flight share one upstream call, detached from
	// any single client's context.
	key := flightKey(req, apiKey)
	v, err, shared := s.flight.Do(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.cfg.SynthesisTimeout)
		defer cancel()

		res, err := s.synth.Synthesize(ctx, ttypes.SynthesisRequest{
			Text:     req.Text,
			Provider: req.Provider,
			Model:    req.Model,
			APIKey:   apiKey,
		})
		if err != nil {
			return nil, err
		}
		return synthesis{id: uuid.NewString(), result: res}, nil
	})
	if err != nil {
		s.logger.Warn("synthesis failed", "provider", req.Provider, "err", err)
		respondError(w, statusFor(err), err.Error())
		return
	}

	out := v.(synthesis)
	s.logger.Debug("synthesized",
		"id", out.id,
		"requested", req.Provider,
		"provider", out.result.Provider,
		"bytes", len(out.result.Audio),
		"shared", shared,
	)

	h := w.Header()
	h.Set("Content-Type", "application/octet-stream")
	h.Set("Content-Length", strconv.Itoa(len(out.result.Audio)))
	h.Set(engines.HeaderProvider, out.result.Provider)
	h.Set(engines.HeaderModel, out.result.Model)
	h.Set(engines.HeaderSynthesisID, out.id)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.result.Audio)
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func flightKey(req engines.SpeechRequest, apiKey string) string {
	sum := sha256.Sum256([]byte(req.Provider + "|" + req.Model + "|" + req.Text + "|" + apiKey))
	return hex.EncodeToString(sum[:])
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, engines.ErrEmptyText), errors.Is(err, engines.ErrTextTooLong):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(engines.ErrorBody{Error: message})
}
