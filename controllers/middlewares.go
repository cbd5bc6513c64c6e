package controllers

import (
	"fmt"
	"log"
	"net/http"

	"wardrobeapi/services"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// UserSessionMiddleware turns the validated JWT into a session on the
// request context, where the upload pipeline looks for it.
func UserSessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userRaw := c.Get("user")
		if userRaw == nil {
			return echo.ErrUnauthorized
		}
		token, ok := userRaw.(*jwt.Token)
		if !ok {
			return echo.ErrUnauthorized
		}
		session, err := services.SessionFromToken(token)
		if err != nil {
			log.Println("Error while getting the token information!", err)
			return echo.ErrUnauthorized
		}

		req := c.Request()
		c.SetRequest(req.WithContext(services.WithSession(req.Context(), session)))
		c.Set("session", session)
		return next(c)
	}
}

// OwnerMiddleware only lets a user reach their own /users/:userId routes.
func OwnerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ownerID, err := uuid.Parse(c.Param("userId"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
		}
		session, err := services.ContextSessionProvider{}.ActiveSession(c.Request().Context())
		if err != nil {
			return echo.ErrUnauthorized
		}
		if session.UserID != ownerID {
			fmt.Printf("[Auth] User %s tried to access wardrobe of %s\n", session.UserID, ownerID)
			return echo.ErrForbidden
		}
		c.Set("ownerID", ownerID)
		return next(c)
	}
}
