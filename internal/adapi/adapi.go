package adapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"adboard-booking/internal/models"

	"github.com/rs/zerolog/log"
)

// Service represents a client of the upstream booking API.
type Service interface {
	// Health returns a map of health status information.
	// The keys and values in the map are service-specific.
	Health(ctx context.Context) map[string]string

	Creatives(ctx context.Context) ([]models.Creative, error)
	AdBoards(ctx context.Context) ([]models.AdBoard, error)

	// CreateBookings and UpdateBookings send the whole draft batch in one request.
	CreateBookings(ctx context.Context, drafts []models.Draft) error
	UpdateBookings(ctx context.Context, drafts []models.Draft) error
}

// maxResponseBytes caps how much of an upstream response body is read.
const maxResponseBytes = 8 << 20

var ErrResponseTooLarge = errors.New("upstream response too large")

// APIError is a non-OK response from the upstream API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "Unknown error"
	}
	return fmt.Sprintf("%d - %s", e.Status, msg)
}

// IsAPIError reports whether err carries a server-reported failure.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

const (
	creativePath = "/api/creative"
	adBoardPath  = "/api/adBoard"
	bookingPath  = "/api/booking"
)

type service struct {
	baseURL string
	client  *http.Client
}

// New returns a client for the booking API rooted at baseURL.
func New(baseURL string, timeout time.Duration) Service {
	return &service{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Health checks the upstream API by listing ad boards.
func (s *service) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	stats := make(map[string]string)
	start := time.Now()

	if _, err := s.AdBoards(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("booking api down: %v", err)
		log.Warn().Err(err).Str("upstream", s.baseURL).Msg("Booking API health check failed")
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"
	stats["upstream"] = s.baseURL
	stats["latency"] = time.Since(start).String()
	return stats
}

func (s *service) Creatives(ctx context.Context) ([]models.Creative, error) {
	var creatives []models.Creative
	if err := s.do(ctx, http.MethodGet, creativePath, nil, &creatives); err != nil {
		return nil, fmt.Errorf("fetch creatives: %w", err)
	}
	return creatives, nil
}

func (s *service) AdBoards(ctx context.Context) ([]models.AdBoard, error) {
	var boards []models.AdBoard
	if err := s.do(ctx, http.MethodGet, adBoardPath, nil, &boards); err != nil {
		return nil, fmt.Errorf("fetch ad boards: %w", err)
	}
	return boards, nil
}

func (s *service) CreateBookings(ctx context.Context, drafts []models.Draft) error {
	if err := s.do(ctx, http.MethodPost, bookingPath, batch(drafts), nil); err != nil {
		return fmt.Errorf("failed to create bookings: %w", err)
	}
	return nil
}

func (s *service) UpdateBookings(ctx context.Context, drafts []models.Draft) error {
	if err := s.do(ctx, http.MethodPut, bookingPath, batch(drafts), nil); err != nil {
		return fmt.Errorf("failed to update bookings: %w", err)
	}
	return nil
}

// batch keeps an empty collection encoded as [] rather than null.
func batch(drafts []models.Draft) []models.Draft {
	if drafts == nil {
		return []models.Draft{}
	}
	return drafts
}

// do sends one JSON request. A nil out still requires the response to carry a JSON body.
func (s *service) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return err
	}
	if len(raw) > maxResponseBytes {
		return ErrResponseTooLarge
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &errBody); err != nil {
			log.Debug().Err(err).Int("status", resp.StatusCode).Msg("Error response carried no JSON body")
		}
		return &APIError{Status: resp.StatusCode, Message: errBody.Message}
	}

	if out == nil {
		var ignored json.RawMessage
		return json.Unmarshal(raw, &ignored)
	}
	return json.Unmarshal(raw, out)
}
