package api

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/groupscholar/opportunity-radar/internal/catalog"
	"github.com/groupscholar/opportunity-radar/internal/models"
)

// Storage is the slice of the db.Store the handlers need. Kept as an
// interface so handler tests can run against a stub.
type Storage interface {
	ListOpportunities(ctx context.Context, clientID string) ([]models.Opportunity, error)
	UpsertCustom(ctx context.Context, clientID string, o models.Opportunity) error
	DeleteCustom(ctx context.Context, clientID, id string) error
	ListWatchlist(ctx context.Context, clientID string) ([]string, error)
	SetWatch(ctx context.Context, clientID, opportunityID string, active bool) error
	SeedCatalog(ctx context.Context, items []models.Opportunity) (int, error)
}

type Server struct {
	Store Storage
	Echo  *echo.Echo

	log       *zap.Logger
	sanitizer *bluemonday.Policy

	adminOnce   sync.Once
	adminSecret string
	adminErr    error
	cfgSecret   string
}

// Options carries the server-relevant pieces of the app config.
type Options struct {
	AdminSecret string
	CORSOrigins []string
}

func NewServer(store Storage, log *zap.Logger, opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	allowedOrigins := []string{"http://localhost:4200"}
	allowedOrigins = append(allowedOrigins, opts.CORSOrigins...)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, "X-Client-Id", "X-Admin-Secret"},
	}))

	s := &Server{
		Store:     store,
		Echo:      e,
		log:       log.Named("api"),
		sanitizer: bluemonday.StrictPolicy(),
		cfgSecret: opts.AdminSecret,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)

	s.Echo.GET("/opportunities", s.handleListOpportunities)
	s.Echo.POST("/opportunities", s.handleUpsertOpportunity)
	s.Echo.DELETE("/opportunities", s.handleDeleteOpportunity)

	s.Echo.GET("/watchlist", s.handleListWatchlist)
	s.Echo.POST("/watchlist", s.handleToggleWatchlist)

	admin := s.Echo.Group("/admin")
	admin.Use(s.adminMiddleware)
	admin.POST("/seed", s.handleSeed)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// clientID resolves the client identifier from the query string or the
// X-Client-Id header. The identifier is self-asserted and trusted as-is.
func clientID(c echo.Context) string {
	if id := strings.TrimSpace(c.QueryParam("clientId")); id != "" {
		return id
	}
	return strings.TrimSpace(c.Request().Header.Get("X-Client-Id"))
}

func (s *Server) handleListOpportunities(c echo.Context) error {
	client := clientID(c)
	if client == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "clientId required"})
	}

	opps, err := s.Store.ListOpportunities(c.Request().Context(), client)
	if err != nil {
		s.log.Error("failed to list opportunities", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load opportunities"})
	}
	return c.JSON(http.StatusOK, opps)
}

type upsertRequest struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Deadline string      `json:"deadline"`
	Region   string      `json:"region"`
	Type     string      `json:"type"`
	Stage    string      `json:"stage"`
	Owner    string      `json:"owner"`
	Funding  interface{} `json:"funding"`
	Fit      interface{} `json:"fit"`
	Focus    string      `json:"focus"`
	Link     string      `json:"link"`
	ClientID string      `json:"clientId"`
}

func (s *Server) handleUpsertOpportunity(c echo.Context) error {
	var req upsertRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	client := req.ClientID
	if client == "" {
		client = clientID(c)
	}
	if client == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "clientId required"})
	}

	entry := models.Opportunity{
		ID:       strings.TrimSpace(req.ID),
		Name:     s.clean(req.Name),
		Deadline: strings.TrimSpace(req.Deadline),
		Region:   s.clean(req.Region),
		Type:     s.clean(req.Type),
		Stage:    s.clean(req.Stage),
		Owner:    s.clean(req.Owner),
		Funding:  models.CoerceFunding(req.Funding),
		Fit:      models.CoerceFit(req.Fit),
		Focus:    s.clean(req.Focus),
		Link:     strings.TrimSpace(req.Link),
		Custom:   true,
	}

	if entry.ID == "" || entry.Name == "" || entry.Deadline == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "id, name, and deadline are required"})
	}
	if _, err := models.ParseDeadline(entry.Deadline); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "deadline must be YYYY-MM-DD"})
	}

	if err := s.Store.UpsertCustom(c.Request().Context(), client, entry); err != nil {
		s.log.Error("failed to save opportunity", zap.String("id", entry.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save opportunity"})
	}

	return c.JSON(http.StatusCreated, entry)
}

func (s *Server) handleDeleteOpportunity(c echo.Context) error {
	client := clientID(c)
	if client == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "clientId required"})
	}
	id := strings.TrimSpace(c.QueryParam("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "id required"})
	}

	if err := s.Store.DeleteCustom(c.Request().Context(), client, id); err != nil {
		s.log.Error("failed to delete opportunity", zap.String("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete opportunity"})
	}

	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleListWatchlist(c echo.Context) error {
	client := clientID(c)
	if client == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "clientId required"})
	}

	ids, err := s.Store.ListWatchlist(c.Request().Context(), client)
	if err != nil {
		s.log.Error("failed to list watchlist", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load watchlist"})
	}
	return c.JSON(http.StatusOK, ids)
}

type watchRequest struct {
	ClientID      string `json:"clientId"`
	OpportunityID string `json:"opportunityId"`
	Active        bool   `json:"active"`
}

func (s *Server) handleToggleWatchlist(c echo.Context) error {
	var req watchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	client := req.ClientID
	if client == "" {
		client = clientID(c)
	}
	if client == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "clientId required"})
	}
	if strings.TrimSpace(req.OpportunityID) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "opportunityId required"})
	}

	if err := s.Store.SetWatch(c.Request().Context(), client, req.OpportunityID, req.Active); err != nil {
		s.log.Error("failed to update watchlist", zap.String("opportunity", req.OpportunityID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update watchlist"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"ok": true, "active": req.Active})
}

func (s *Server) handleSeed(c echo.Context) error {
	base, err := catalog.Base()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	count, err := s.Store.SeedCatalog(c.Request().Context(), base)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Seed complete",
		"count":   count,
	})
}

// clean strips any markup from a free-text field before it reaches storage.
func (s *Server) clean(value string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(value))
}

func (s *Server) adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		secret, err := s.resolveAdminSecret()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Server admin configuration error"})
		}

		authHeader := c.Request().Header.Get("Authorization")
		adminHeader := c.Request().Header.Get("X-Admin-Secret")

		if adminHeader == secret {
			return next(c)
		}
		if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") && authHeader[7:] == secret {
			return next(c)
		}

		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized admin access"})
	}
}

// resolveAdminSecret uses the configured secret, or generates an ephemeral
// in-memory one so an unconfigured server never exposes seeding unprotected.
func (s *Server) resolveAdminSecret() (string, error) {
	s.adminOnce.Do(func() {
		if s.cfgSecret != "" {
			s.adminSecret = s.cfgSecret
			return
		}

		buf := make([]byte, 48)
		if _, err := rand.Read(buf); err != nil {
			s.adminErr = err
			return
		}
		s.adminSecret = base64.RawURLEncoding.EncodeToString(buf)
		s.log.Warn("ADMIN_SECRET is not set; using ephemeral in-memory fallback secret")
	})

	if s.adminErr != nil {
		return "", s.adminErr
	}
	return s.adminSecret, nil
}

func (s *Server) Start(addr string) error {
	return s.Echo.Start(addr)
}
