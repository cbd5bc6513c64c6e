package services

import (
	"context"
	"fmt"
	"time"

	"wardrobeapi/models"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type SessionProvider interface {
	ActiveSession(ctx context.Context) (*models.Session, error)
}

type sessionContextKey struct{}

func WithSession(ctx context.Context, session models.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// ContextSessionProvider reads the session that the auth middleware put on
// the request context.
type ContextSessionProvider struct {
	Now func() time.Time
}

func (p ContextSessionProvider) ActiveSession(ctx context.Context) (*models.Session, error) {
	session, ok := ctx.Value(sessionContextKey{}).(models.Session)
	if !ok {
		return nil, ErrUnauthorized
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	if session.Expired(now()) {
		return nil, fmt.Errorf("%w: session expired", ErrUnauthorized)
	}
	return &session, nil
}

// SessionFromToken builds a session from a validated JWT. The subject must
// be the user uuid.
func SessionFromToken(token *jwt.Token) (models.Session, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return models.Session{}, ErrUnauthorized
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return models.Session{}, fmt.Errorf("%w: bad subject", ErrUnauthorized)
	}
	session := models.Session{UserID: userID}
	if exp, ok := claims["exp"].(float64); ok {
		session.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return session, nil
}
