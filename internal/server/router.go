package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rosehollow/cookbook/backend/internal/admin"
	"github.com/rosehollow/cookbook/backend/internal/backup"
	"github.com/rosehollow/cookbook/backend/internal/recipes"
	"github.com/rosehollow/cookbook/backend/internal/store"
	"go.uber.org/zap"
)

const adminSubjectContextKey = "cookbook_admin_subject"

var (
	errMissingRepository    = errors.New("recipe repository dependency required")
	errMissingSynchronizer  = errors.New("backup synchronizer dependency required")
	errMissingGuard         = errors.New("admin guard dependency required")
	errMissingTokenIssuer   = errors.New("token issuer dependency required")
	errInvalidAuthorization = errors.New("authorization header missing or invalid")
)

// Dependencies carries the collaborators the HTTP surface exposes.
type Dependencies struct {
	Repository   *recipes.Repository
	Synchronizer *backup.Synchronizer
	Guard        *admin.Guard
	Tokens       *admin.TokenIssuer
	Logger       *zap.Logger
}

// NewHTTPHandler assembles the gin router for the cookbook API. Read access
// to recipes is public; every write and every backup operation requires an
// authenticated admin session together with a valid bearer token.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Repository == nil {
		return nil, errMissingRepository
	}
	if deps.Synchronizer == nil {
		return nil, errMissingSynchronizer
	}
	if deps.Guard == nil {
		return nil, errMissingGuard
	}
	if deps.Tokens == nil {
		return nil, errMissingTokenIssuer
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		repository:   deps.Repository,
		synchronizer: deps.Synchronizer,
		guard:        deps.Guard,
		tokens:       deps.Tokens,
		logger:       logger,
	}

	router.GET("/recipes", handler.handleListRecipes)
	router.GET("/recipes/:id", handler.handleGetRecipe)
	router.POST("/admin/login", handler.handleLogin)
	router.GET("/admin/session", handler.handleSessionStatus)

	protected := router.Group("/")
	protected.Use(handler.authorizeAdmin)
	protected.POST("/admin/logout", handler.handleLogout)
	protected.POST("/recipes", handler.handleCreateRecipe)
	protected.PATCH("/recipes/:id", handler.handleUpdateRecipe)
	protected.DELETE("/recipes/:id", handler.handleDeleteRecipe)
	protected.POST("/backup/full", handler.handleFullBackup)
	protected.POST("/backup/restore", handler.handleRestore)
	protected.GET("/backup/connection", handler.handleConnectionTest)

	return router, nil
}

type httpHandler struct {
	repository   *recipes.Repository
	synchronizer *backup.Synchronizer
	guard        *admin.Guard
	tokens       *admin.TokenIssuer
	logger       *zap.Logger
}

type loginRequestPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponsePayload struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	var request loginRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Username) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	if !h.guard.Authenticate(request.Username, request.Password) {
		h.logger.Warn("admin login rejected", zap.String("username", request.Username))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	token, expiresIn, err := h.tokens.IssueToken(request.Username)
	if err != nil {
		h.logger.Error("failed to issue admin token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	c.JSON(http.StatusOK, loginResponsePayload{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
	})
}

func (h *httpHandler) handleLogout(c *gin.Context) {
	h.guard.Logout()
	h.logger.Info("admin logged out", zap.String("subject", c.GetString(adminSubjectContextKey)))
	c.JSON(http.StatusOK, gin.H{"logged_out": true})
}

type sessionResponsePayload struct {
	Authenticated bool   `json:"authenticated"`
	EstablishedAt string `json:"established_at,omitempty"`
}

func (h *httpHandler) handleSessionStatus(c *gin.Context) {
	response := sessionResponsePayload{Authenticated: h.guard.IsAuthenticated()}
	if establishedAt, ok := h.guard.EstablishedAt(); ok {
		response.EstablishedAt = establishedAt.UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, response)
}

func (h *httpHandler) handleListRecipes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"recipes": h.repository.Snapshot()})
}

func (h *httpHandler) handleGetRecipe(c *gin.Context) {
	id, ok := parseRecipeID(c)
	if !ok {
		return
	}
	recipe, err := h.repository.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe_not_found"})
		return
	}
	c.JSON(http.StatusOK, recipe)
}

type recipeWritePayload struct {
	Recipe recipes.Recipe `json:"recipe"`
}

type recipeWriteResponse struct {
	Recipe        recipes.Recipe `json:"recipe"`
	BackupWarning string         `json:"backup_warning,omitempty"`
}

func (h *httpHandler) handleCreateRecipe(c *gin.Context) {
	var request recipeWritePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	outcome, err := h.synchronizer.SaveWithBackup(c.Request.Context(), request.Recipe)
	if err != nil {
		h.writeRecipeError(c, err)
		return
	}

	response := recipeWriteResponse{Recipe: outcome.Recipe}
	if outcome.BackupErr != nil {
		response.BackupWarning = store.Describe(outcome.BackupErr)
	}
	c.JSON(http.StatusCreated, response)
}

func (h *httpHandler) handleUpdateRecipe(c *gin.Context) {
	id, ok := parseRecipeID(c)
	if !ok {
		return
	}

	var request recipeWritePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	outcome, err := h.synchronizer.UpdateWithBackup(c.Request.Context(), id, request.Recipe)
	if err != nil {
		h.writeRecipeError(c, err)
		return
	}

	response := recipeWriteResponse{Recipe: outcome.Recipe}
	if outcome.BackupErr != nil {
		response.BackupWarning = store.Describe(outcome.BackupErr)
	}
	c.JSON(http.StatusOK, response)
}

func (h *httpHandler) handleDeleteRecipe(c *gin.Context) {
	id, ok := parseRecipeID(c)
	if !ok {
		return
	}

	if err := h.repository.Delete(c.Request.Context(), id); err != nil {
		h.writeRecipeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true, "remaining": h.repository.Len()})
}

type backupResultPayload struct {
	Attempted int      `json:"attempted"`
	Succeeded int      `json:"succeeded"`
	Failures  []string `json:"failures"`
}

func backupResultResponse(result backup.Result) backupResultPayload {
	failures := make([]string, 0, len(result.Failures))
	for _, failure := range result.Failures {
		failures = append(failures, failure.Error())
	}
	return backupResultPayload{
		Attempted: result.Attempted,
		Succeeded: result.Succeeded,
		Failures:  failures,
	}
}

func (h *httpHandler) handleFullBackup(c *gin.Context) {
	result, err := h.synchronizer.FullBackup(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, backup.ErrBackupInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": "backup_in_progress"})
		case errors.Is(err, backup.ErrNoRecipes):
			c.JSON(http.StatusBadRequest, gin.H{"error": "no_recipes_loaded"})
		default:
			h.logger.Error("full backup failed", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "backup_failed", "detail": store.Describe(err)})
		}
		return
	}
	c.JSON(http.StatusOK, backupResultResponse(result))
}

type restoreRequestPayload struct {
	Confirm bool `json:"confirm"`
}

func (h *httpHandler) handleRestore(c *gin.Context) {
	var request restoreRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	confirm := backup.ConfirmFunc(func(int) bool { return request.Confirm })
	result, err := h.synchronizer.RestoreAll(c.Request.Context(), confirm)
	if err != nil {
		switch {
		case errors.Is(err, backup.ErrRestoreDeclined):
			c.JSON(http.StatusBadRequest, gin.H{"error": "confirmation_required"})
		case errors.Is(err, backup.ErrNoBackupRecords):
			c.JSON(http.StatusNotFound, gin.H{"error": "no_backup_records"})
		default:
			h.logger.Error("restore failed", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "restore_failed", "detail": store.Describe(err)})
		}
		return
	}
	c.JSON(http.StatusOK, backupResultResponse(result))
}

func (h *httpHandler) handleConnectionTest(c *gin.Context) {
	status, err := h.synchronizer.TestConnection(c.Request.Context())
	if err != nil {
		h.logger.Warn("backup connection test failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, status)
}

func (h *httpHandler) writeRecipeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, recipes.ErrIncompleteRecipe):
		c.JSON(http.StatusBadRequest, gin.H{"error": "incomplete_recipe", "detail": err.Error()})
	case errors.Is(err, recipes.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe_not_found"})
	default:
		h.logger.Error("recipe write failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "store_unavailable", "detail": store.Describe(err)})
	}
}

func (h *httpHandler) authorizeAdmin(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	subject, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.Warn("admin token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if !h.guard.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_expired"})
		return
	}
	c.Set(adminSubjectContextKey, subject)
	c.Next()
}

func parseRecipeID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_recipe_id"})
		return 0, false
	}
	return id, true
}
