// Package cartsession maps a request to the cart slot it owns.
package cartsession

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"koperasi-storefront/internal/cart"
	"koperasi-storefront/internal/domain"

	"github.com/google/uuid"
)

var ErrInvalidSession = errors.New("invalid cart session")

type Service struct {
	slots  cart.Slots
	logger *log.Logger
}

func New(slots cart.Slots, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{slots: slots, logger: logger}
}

// Issue returns a fresh opaque cart session id.
func (s *Service) Issue() string {
	return uuid.NewString()
}

// Key picks the slot key for a request. An explicit session id wins; without
// one an authenticated actor gets a cart tied to the account.
func (s *Service) Key(sessionID string, actor *domain.Actor) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID != "" {
		id, err := uuid.Parse(sessionID)
		if err != nil {
			return "", ErrInvalidSession
		}
		return "session:" + id.String(), nil
	}
	if actor != nil {
		return "account:" + actor.ID, nil
	}
	return "", ErrInvalidSession
}

// Open loads the cart for a request.
func (s *Service) Open(ctx context.Context, sessionID string, actor *domain.Actor) (*cart.Store, error) {
	key, err := s.Key(sessionID, actor)
	if err != nil {
		return nil, err
	}
	return cart.Load(ctx, s.slots.Slot(key), s.logger), nil
}
