package api

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/rowanhq/grantmatch/internal/auth"
	"github.com/rowanhq/grantmatch/internal/db"
	"github.com/rowanhq/grantmatch/internal/match"
	"github.com/rowanhq/grantmatch/internal/models"
)

type Server struct {
	Store       *db.Store
	AuthService *auth.Service
	Matcher     *match.Service
	Rematches   *match.Queue
	Echo        *echo.Echo
	DB          *pgxpool.Pool
}

var (
	adminSecretOnce    sync.Once
	adminSecretRuntime string
	adminSecretErr     error
)

func NewServer(pool *pgxpool.Pool) *Server {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// CORS: allow frontend origins from env or default to localhost
	allowedOrigins := []string{"http://localhost:4200"}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				allowedOrigins = append(allowedOrigins, o)
			}
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-Admin-Secret"},
	}))

	store := db.NewStore(pool)

	vocab := match.DefaultVocabulary()
	if path := strings.TrimSpace(os.Getenv("MATCH_VOCAB_PATH")); path != "" {
		loaded, err := match.LoadVocabulary(path)
		if err != nil {
			log.Fatalf("Failed to load vocabulary from %s: %v", path, err)
		}
		vocab = loaded
	}

	matcher := match.NewService(store, vocab)

	s := &Server{
		DB:          pool,
		Store:       store,
		AuthService: auth.NewService(pool),
		Matcher:     matcher,
		Rematches:   match.NewQueue(matcher),
		Echo:        e,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)
	api := s.Echo.Group("/api/v1")

	// Auth Routes
	api.POST("/auth/signup", s.handleSignup)
	api.POST("/auth/login", s.handleLogin)

	// Public grant catalog
	api.GET("/grants", s.handleListGrants)

	// Company Routes (JWT-protected)
	company := api.Group("/company")
	company.Use(auth.Middleware)
	company.GET("/profile", s.handleGetProfile)
	company.PUT("/profile", s.handleSaveProfile)
	company.GET("/documents", s.handleGetDocuments)
	company.PUT("/documents", s.handleSaveDocument)
	company.GET("/matches", s.handleGetMatches)

	// Admin Routes
	admin := api.Group("/admin")
	admin.Use(s.adminMiddleware)
	admin.POST("/match", s.handleTriggerMatch)
	admin.POST("/grants", s.handleCreateGrant)
	admin.GET("/grants/:id/rules", s.handleListRules)
	admin.POST("/grants/:id/rules", s.handleCreateRule)
	admin.PATCH("/rules/:id", s.handleUpdateRule)
	admin.DELETE("/rules/:id", s.handleDeleteRule)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) handleSignup(c echo.Context) error {
	var req auth.SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	resp, err := s.AuthService.Signup(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleLogin(c echo.Context) error {
	var req auth.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	resp, err := s.AuthService.Login(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCreds) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) companyID(c echo.Context) (uuid.UUID, error) {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return uuid.Nil, err
	}
	return s.AuthService.CompanyIDForUser(c.Request().Context(), userID)
}

func (s *Server) handleGetProfile(c echo.Context) error {
	companyID, err := s.companyID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	profile, err := s.Store.GetCompanyProfile(c.Request().Context(), companyID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"profile": profile})
}

// handleSaveProfile upserts the profile, recomputes the derived readiness
// score, then enqueues a rematch against every active grant without blocking
// the response. Callers must re-fetch matches and tolerate stale=true until
// the queued computation lands.
func (s *Server) handleSaveProfile(c echo.Context) error {
	companyID, err := s.companyID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	var profile models.CompanyProfile
	if err := c.Bind(&profile); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	profile.CompanyID = companyID
	profile.ReadinessScore = match.ProfileCompleteness(&profile)

	if err := s.Store.UpsertCompanyProfile(c.Request().Context(), &profile); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	s.Rematches.EnqueueCompanyRematch(companyID)

	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "profile": profile})
}

func (s *Server) handleGetDocuments(c echo.Context) error {
	companyID, err := s.companyID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	docs, err := s.Store.ListDocuments(c.Request().Context(), companyID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if docs == nil {
		docs = []models.DocumentInventory{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"documents": docs})
}

func (s *Server) handleSaveDocument(c echo.Context) error {
	companyID, err := s.companyID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	var doc models.DocumentInventory
	if err := c.Bind(&doc); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if doc.DocType == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "doc_type required"})
	}
	doc.CompanyID = companyID

	if err := s.Store.UpsertDocument(c.Request().Context(), &doc); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "document": doc})
}

func (s *Server) handleGetMatches(c echo.Context) error {
	companyID, err := s.companyID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	matches, err := s.Store.ListMatchesForCompany(c.Request().Context(), companyID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"matches": matches})
}

func (s *Server) handleListGrants(c echo.Context) error {
	grants, err := s.Store.ListGrants(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if grants == nil {
		grants = []models.PublicGrant{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"grants": grants})
}

func (s *Server) handleCreateGrant(c echo.Context) error {
	var grant models.PublicGrant
	if err := c.Bind(&grant); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if grant.Title == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "title required"})
	}
	if grant.Status == "" {
		grant.Status = "open"
	}

	if err := s.Store.CreateGrant(c.Request().Context(), &grant); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{"success": true, "grant": grant})
}

// handleTriggerMatch recomputes matches on demand.
// Body {"grant_id": ...}: mark the grant's matches stale, then recompute it
// across every company. Body {"company_id": ...}: recompute that company
// across every active grant.
func (s *Server) handleTriggerMatch(c echo.Context) error {
	var req struct {
		GrantID   *uuid.UUID `json:"grant_id"`
		CompanyID *uuid.UUID `json:"company_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	ctx := c.Request().Context()

	if req.GrantID != nil {
		if err := s.Matcher.MarkMatchesStale(ctx, *req.GrantID); err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		if err := s.Matcher.ComputeMatchesForAllCompanies(ctx, *req.GrantID); err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"message": "Matching complete for grant"})
	}

	if req.CompanyID != nil {
		if err := s.Matcher.ComputeMatchesForCompany(ctx, *req.CompanyID); err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"message": "Matching complete for company"})
	}

	return c.JSON(http.StatusBadRequest, map[string]string{"error": "Provide grant_id or company_id"})
}

func (s *Server) handleListRules(c echo.Context) error {
	grantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid grant ID"})
	}

	rules, err := s.Store.ListRules(c.Request().Context(), grantID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if rules == nil {
		rules = []models.EligibilityRule{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"rules": rules})
}

func (s *Server) handleCreateRule(c echo.Context) error {
	grantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid grant ID"})
	}

	var rule models.EligibilityRule
	if err := c.Bind(&rule); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if rule.Field == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "field is required"})
	}
	rule.PublicGrantID = grantID
	if rule.Operator == "" {
		rule.Operator = "eq"
	}
	if rule.ValueType == "" {
		rule.ValueType = "string"
	}
	if rule.ConfidenceLevel == "" {
		rule.ConfidenceLevel = "certain"
	}

	ctx := c.Request().Context()

	// Readers see a staleness indicator from the moment the rule set changes
	// until recomputation lands.
	if err := s.Matcher.MarkMatchesStale(ctx, grantID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if err := s.Store.CreateRule(ctx, &rule); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	s.Rematches.EnqueueGrantRematch(grantID)

	return c.JSON(http.StatusCreated, map[string]interface{}{"success": true, "rule": rule})
}

func (s *Server) handleUpdateRule(c echo.Context) error {
	ruleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid rule ID"})
	}

	ctx := c.Request().Context()

	rule, err := s.Store.GetRule(ctx, ruleID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Rule not found"})
	}

	if err := c.Bind(rule); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	rule.ID = ruleID

	if err := s.Matcher.MarkMatchesStale(ctx, rule.PublicGrantID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if err := s.Store.UpdateRule(ctx, rule); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	s.Rematches.EnqueueGrantRematch(rule.PublicGrantID)

	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "rule": rule})
}

func (s *Server) handleDeleteRule(c echo.Context) error {
	ruleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid rule ID"})
	}

	ctx := c.Request().Context()

	rule, err := s.Store.GetRule(ctx, ruleID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Rule not found"})
	}

	if err := s.Matcher.MarkMatchesStale(ctx, rule.PublicGrantID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if err := s.Store.DeleteRule(ctx, ruleID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	s.Rematches.EnqueueGrantRematch(rule.PublicGrantID)

	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

func (s *Server) adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		secret, err := adminSecret()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Server admin configuration error"})
		}

		// Check X-Admin-Secret header or Bearer token
		authHeader := c.Request().Header.Get("Authorization")
		adminHeader := c.Request().Header.Get("X-Admin-Secret")

		if adminHeader == secret {
			return next(c)
		}
		if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
			if authHeader[7:] == secret {
				return next(c)
			}
		}

		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized admin access"})
	}
}

func adminSecret() (string, error) {
	adminSecretOnce.Do(func() {
		secret := strings.TrimSpace(os.Getenv("ADMIN_SECRET"))
		if secret != "" {
			adminSecretRuntime = secret
			return
		}

		buf := make([]byte, 48)
		if _, err := rand.Read(buf); err != nil {
			adminSecretErr = fmt.Errorf("failed to generate ADMIN_SECRET fallback: %w", err)
			return
		}

		adminSecretRuntime = base64.RawURLEncoding.EncodeToString(buf)
		log.Print("ADMIN_SECRET is not set; using ephemeral in-memory fallback secret")
	})

	if adminSecretErr != nil {
		return "", adminSecretErr
	}
	if adminSecretRuntime == "" {
		return "", fmt.Errorf("admin secret unavailable")
	}

	return adminSecretRuntime, nil
}
