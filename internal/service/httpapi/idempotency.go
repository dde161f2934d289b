package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyTTL       = 24 * time.Hour

	// Ограничение на тело запроса, чтобы не кэшировать гигантские payload'ы.
	maxRequestBody = 1 << 20
)

// withIdempotency выполняет handler под защитой idempotency-key.
//
// Без заголовка (или без репозитория) запрос выполняется напрямую.
// Повтор с тем же ключом и телом воспроизводит закэшированный ответ;
// повтор с другим телом отклоняется.
func (s *Server) withIdempotency(w http.ResponseWriter, r *http.Request, handler func(body []byte) (int, envelope)) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "failed to read request body"})
		return
	}

	idemKey := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
	if idemKey == "" || s.idemRepo == nil {
		status, resp := handler(body)
		s.writeJSON(w, status, resp)
		return
	}

	reqHash := buildRequestHash(r.Method, r.URL.Path, body)
	record, err := s.idemRepo.CreateProcessing(idemKey, reqHash, time.Now().UTC().Add(idempotencyTTL))
	if err != nil {
		s.replayIdempotency(w, err, record)
		return
	}

	status, resp := handler(body)

	cached, marshalErr := json.Marshal(resp)
	if marshalErr != nil {
		s.logger.WithError(marshalErr).WithField("idempotency_key", idemKey).Warn("failed to encode idempotency cache entry")
		cached = nil
	}

	if status < http.StatusBadRequest {
		if err := s.idemRepo.MarkDone(idemKey, cached, status); err != nil {
			s.logger.WithError(err).WithField("idempotency_key", idemKey).Warn("failed to store idempotent success response")
		}
	} else {
		if err := s.idemRepo.MarkFailed(idemKey, cached, status); err != nil {
			s.logger.WithError(err).WithField("idempotency_key", idemKey).Warn("failed to store idempotency failure response")
		}
	}

	s.writeJSON(w, status, resp)
}

func (s *Server) replayIdempotency(w http.ResponseWriter, createErr error, record domain.IdempotencyRecord) {
	switch {
	case errors.Is(createErr, domain.ErrIdempotencyHashMismatch):
		s.writeJSON(w, http.StatusConflict, envelope{
			Success: false,
			Message: domain.ErrIdempotencyHashMismatch.Error(),
		})
	case errors.Is(createErr, domain.ErrIdempotencyKeyAlreadyExists):
		switch record.Status {
		case domain.IdempotencyStatusDone, domain.IdempotencyStatusFailed:
			s.replayCached(w, record)
		case domain.IdempotencyStatusProcessing:
			s.writeJSON(w, http.StatusConflict, envelope{
				Success: false,
				Message: "request with the same idempotency key is already processing",
			})
		default:
			s.writeJSON(w, http.StatusInternalServerError, envelope{Success: false, Message: "Error"})
		}
	default:
		s.logger.WithError(createErr).Warn("failed to create idempotency record")
		s.writeJSON(w, http.StatusInternalServerError, envelope{Success: false, Message: "Error"})
	}
}

func (s *Server) replayCached(w http.ResponseWriter, record domain.IdempotencyRecord) {
	status := record.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}

	if len(record.ResponseBody) == 0 {
		s.writeJSON(w, http.StatusInternalServerError, envelope{Success: false, Message: "idempotency cache is empty"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(record.ResponseBody); err != nil {
		s.logger.WithError(err).WithField("idempotency_key", record.Key).Warn("failed to replay cached response")
	}
}

func buildRequestHash(method, path string, body []byte) string {
	sum := sha256.New()
	sum.Write([]byte(method))
	sum.Write([]byte(":"))
	sum.Write([]byte(path))
	sum.Write([]byte(":"))
	sum.Write(body)
	return hex.EncodeToString(sum.Sum(nil))
}
