package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/service/order"
)

// Server обслуживает HTTP API оформления и сверки заказов.
type Server struct {
	orders   *order.Service
	identity domain.IdentityResolver
	idemRepo domain.IdempotencyRepository
	logger   *log.Entry
}

// NewServer создаёт HTTP-слой поверх сервиса заказов.
func NewServer(
	orders *order.Service,
	identity domain.IdentityResolver,
	idemRepo domain.IdempotencyRepository,
	logger *log.Entry,
) *Server {
	if logger == nil {
		logger = log.New().WithField("component", "httpapi")
	}
	return &Server{
		orders:   orders,
		identity: identity,
		idemRepo: idemRepo,
		logger:   logger,
	}
}

// Routes возвращает маршруты API.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/order/place", s.handlePlace)
	mux.HandleFunc("POST /api/order/verify", s.handleVerify)
	mux.HandleFunc("POST /api/order/userorders", s.handleUserOrders)
	return mux
}

// envelope — единый формат ответа API.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type itemDTO struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int32  `json:"quantity"`
}

type orderDTO struct {
	ID       string             `json:"id"`
	UserID   string             `json:"userId"`
	Items    []itemDTO          `json:"items"`
	Amount   int64              `json:"amount"`
	Address  domain.Address     `json:"address"`
	Status   string             `json:"status"`
	Payment  bool               `json:"payment"`
	Date     time.Time          `json:"date"`
	Timeline []timelineEventDTO `json:"timeline,omitempty"`
}

type timelineEventDTO struct {
	Type     string    `json:"type"`
	Reason   string    `json:"reason,omitempty"`
	Occurred time.Time `json:"occurred"`
}

type placeRequest struct {
	UserID  string         `json:"userId"`
	Items   []itemDTO      `json:"items"`
	Amount  int64          `json:"amount"`
	Address domain.Address `json:"address"`
}

type verifyRequest struct {
	OrderID string  `json:"orderId"`
	Success boolish `json:"success"`
}

// boolish принимает исход и как bool, и как строку "true"/"false":
// redirect-параметры приходят строками.
type boolish bool

func (b *boolish) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*b = boolish(s == "true")
		return nil
	}
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = boolish(v)
		return nil
	}
	return fmt.Errorf("success must be a boolean or \"true\"/\"false\"")
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	ownerID, err := s.resolveOwner(r)
	if err != nil {
		s.writeJSON(w, http.StatusUnauthorized, envelope{Success: false, Message: "invalid or missing credential"})
		return
	}

	s.withIdempotency(w, r, func(body []byte) (int, envelope) {
		var req placeRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return http.StatusBadRequest, envelope{Success: false, Message: "invalid request body"}
		}
		if req.UserID != "" && req.UserID != ownerID {
			return http.StatusBadRequest, envelope{Success: false, Message: domain.ErrOwnerMismatch.Error()}
		}

		items := make([]domain.OrderItem, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, domain.OrderItem{
				Name:  item.Name,
				Price: item.Price,
				Qty:   item.Quantity,
			})
		}

		result, err := s.orders.Place(r.Context(), order.PlaceRequest{
			OwnerID: ownerID,
			Items:   items,
			Amount:  req.Amount,
			Address: req.Address,
		})
		if err != nil {
			return s.mapError(err)
		}

		return http.StatusOK, envelope{
			Success: true,
			Data: map[string]interface{}{
				"orderId":     result.Order.ID,
				"session_url": result.RedirectURL,
			},
		}
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "invalid request body"})
		return
	}

	result, err := s.orders.Verify(r.Context(), req.OrderID, bool(req.Success))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPaymentUnconfirmed):
			// Заявленный успех без подтверждения шлюза — не системный сбой.
			s.writeJSON(w, http.StatusOK, envelope{Success: false, Message: "Not Paid"})
		default:
			status, resp := s.mapError(err)
			s.writeJSON(w, status, resp)
		}
		return
	}

	switch result.Outcome {
	case order.VerifyOutcomePaid:
		s.writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Paid"})
	case order.VerifyOutcomeDeleted:
		s.writeJSON(w, http.StatusOK, envelope{Success: false, Message: "Not Paid"})
	case order.VerifyOutcomeNotFound:
		s.writeJSON(w, http.StatusOK, envelope{Success: false, Message: "order not found"})
	default:
		s.writeJSON(w, http.StatusInternalServerError, envelope{Success: false, Message: "Error"})
	}
}

func (s *Server) handleUserOrders(w http.ResponseWriter, r *http.Request) {
	ownerID, err := s.resolveOwner(r)
	if err != nil {
		s.writeJSON(w, http.StatusUnauthorized, envelope{Success: false, Message: "invalid or missing credential"})
		return
	}

	orders, err := s.orders.ListByOwner(r.Context(), ownerID, 0)
	if err != nil {
		status, resp := s.mapError(err)
		s.writeJSON(w, status, resp)
		return
	}

	// Пустая история — явный отказ, а не пустой успешный ответ.
	if len(orders) == 0 {
		s.writeJSON(w, http.StatusNotFound, envelope{Success: false, Message: "no orders found"})
		return
	}

	dtos := make([]orderDTO, 0, len(orders))
	for _, o := range orders {
		dto := toOrderDTO(o)
		if events, err := s.orders.Timeline(o.ID); err == nil {
			for _, event := range events {
				dto.Timeline = append(dto.Timeline, timelineEventDTO{
					Type:     event.Type,
					Reason:   event.Reason,
					Occurred: event.Occurred,
				})
			}
		}
		dtos = append(dtos, dto)
	}

	s.writeJSON(w, http.StatusOK, envelope{Success: true, Data: dtos})
}

func toOrderDTO(o domain.Order) orderDTO {
	items := make([]itemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, itemDTO{Name: item.Name, Price: item.Price, Quantity: item.Qty})
	}
	return orderDTO{
		ID:      o.ID,
		UserID:  o.OwnerID,
		Items:   items,
		Amount:  o.Amount,
		Address: o.Address,
		Status:  string(o.Status),
		Payment: o.Paid,
		Date:    o.CreatedAt,
	}
}

// resolveOwner восстанавливает владельца из заголовка token или Authorization.
func (s *Server) resolveOwner(r *http.Request) (string, error) {
	credential := r.Header.Get("token")
	if credential == "" {
		credential = r.Header.Get("Authorization")
	}
	if credential == "" {
		return "", domain.ErrUnauthenticated
	}
	return s.identity.Resolve(credential)
}

func (s *Server) mapError(err error) (int, envelope) {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest, envelope{Success: false, Message: err.Error()}
	case errors.Is(err, domain.ErrGatewayUnavailable):
		return http.StatusBadGateway, envelope{Success: false, Message: domain.ErrGatewayUnavailable.Error()}
	case errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusOK, envelope{Success: false, Message: "order not found"}
	default:
		s.logger.WithError(err).Error("request failed")
		return http.StatusInternalServerError, envelope{Success: false, Message: "Error"}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, resp envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.WithError(err).Warn("failed to encode response")
	}
}
