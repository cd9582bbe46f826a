package access

import (
	"context"
	"fmt"

	"koperasi-storefront/internal/domain"
)

// Level is the minimum actor a page or route requires.
type Level int

const (
	Anonymous Level = iota
	Authenticated
	Admin
)

func (l Level) String() string {
	switch l {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	case Admin:
		return "admin"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

type sessions interface {
	LookupByToken(ctx context.Context, token string) (*domain.Actor, error)
}

type roles interface {
	IsAdmin(ctx context.Context, accountID string) (bool, error)
}

// Guard decides whether the caller behind a session token may proceed.
// It runs on every request and keeps no state between calls.
type Guard struct {
	sessions sessions
	roles    roles
}

func New(sessions sessions, roles roles) *Guard {
	return &Guard{sessions: sessions, roles: roles}
}

// Require resolves the actor for token and checks it against level. For
// Anonymous the actor may be nil. Missing sessions yield domain.ErrAuthRequired,
// non-admins at the Admin level yield domain.ErrPermissionDenied.
func (g *Guard) Require(ctx context.Context, token string, level Level) (*domain.Actor, error) {
	if level == Anonymous && token == "" {
		return nil, nil
	}
	actor, err := g.sessions.LookupByToken(ctx, token)
	if err != nil {
		if level == Anonymous {
			return nil, nil
		}
		return nil, err
	}
	if level < Admin {
		return actor, nil
	}
	ok, err := g.roles.IsAdmin(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("role lookup: %w", err)
	}
	if !ok {
		return actor, domain.ErrPermissionDenied
	}
	return actor, nil
}
