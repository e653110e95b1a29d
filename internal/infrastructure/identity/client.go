package identity

import (
	"context"
	"errors"
	"sync"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
	"github.com/alphabeta/chapter-portal/internal/core/ports"
)

const eventBuffer = 8

// client is the per-session view of the provider.
type client struct {
	svc    *Service
	events chan ports.AuthEvent

	mu    sync.Mutex
	token string
}

func (c *client) CurrentSession(ctx context.Context) (*ports.Session, error) {
	token := c.currentToken()
	if token == "" {
		return nil, nil
	}
	sess, err := c.svc.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNoSession) {
			c.setToken("")
			c.emit(ports.AuthEvent{Type: ports.AuthSignedOut})
			return nil, nil
		}
		return nil, err
	}
	return sess, nil
}

func (c *client) SignIn(ctx context.Context, email, password string) (*ports.Session, error) {
	sess, err := c.svc.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	c.setToken(sess.Token)
	c.emit(ports.AuthEvent{Type: ports.AuthSignedIn, Session: sess})
	return sess, nil
}

func (c *client) SignOut(ctx context.Context) error {
	token := c.currentToken()
	if token == "" {
		return nil
	}
	if err := c.svc.Revoke(ctx, token); err != nil {
		return err
	}
	c.setToken("")
	c.emit(ports.AuthEvent{Type: ports.AuthSignedOut})
	return nil
}

func (c *client) Events() <-chan ports.AuthEvent { return c.events }

// emit drops the event when nobody keeps up with the stream.
func (c *client) emit(ev ports.AuthEvent) {
	select {
	case c.events <- ev:
	default:
		c.svc.log.Debug().Str("event", string(ev.Type)).Msg("auth event dropped")
	}
}

func (c *client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}
