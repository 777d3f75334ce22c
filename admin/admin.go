package admin

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"tessera/access"
	"tessera/blocks"
	"tessera/cache"
	"tessera/models"
	"tessera/render"
	"tessera/store"
)

const passwordCost = 12

type AdminModule struct {
	db         *gorm.DB
	store      *store.Store
	catalog    *blocks.Catalog
	registry   *render.Registry
	normalizer *blocks.Normalizer
	cache      *cache.Cache
	log        *zap.Logger
}

// NewAdminModule wires the login pages and the editor API. c may be nil
// when page caching is off.
func NewAdminModule(db *gorm.DB, st *store.Store, catalog *blocks.Catalog, registry *render.Registry, c *cache.Cache, log *zap.Logger) *AdminModule {
	return &AdminModule{
		db:         db,
		store:      st,
		catalog:    catalog,
		registry:   registry,
		normalizer: blocks.NewNormalizer(catalog, log),
		cache:      c,
		log:        log,
	}
}

func (a *AdminModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/login", a.loginPage)
	router.POST("/login", a.loginPost)
	router.GET("/logout", a.logout)
	router.GET("/admin", a.adminRoot)

	apiGroup := router.Group("/admin/api/:tenant")
	apiGroup.Use(a.requireAuth, a.loadTenant)
	{
		apiGroup.GET("/blocks", a.listBlocks)
		apiGroup.POST("/blocks/validate", a.validateBlock)
		apiGroup.POST("/cache/purge", a.purgeCache)
	}
}

func (a *AdminModule) currentUser(c *gin.Context) (*models.User, bool) {
	session := sessions.Default(c)
	userID := session.Get("user_id")
	if userID == nil {
		return nil, false
	}
	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		return nil, false
	}
	return &user, true
}

// requireAuth answers API calls without a valid session with 401 and puts
// the user into the request context otherwise.
func (a *AdminModule) requireAuth(c *gin.Context) {
	user, ok := a.currentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not logged in"})
		return
	}
	c.Set("user_email", user.Email)
	c.Request = c.Request.WithContext(access.WithUser(c.Request.Context(), access.FromModel(user)))
	c.Next()
}

// loadTenant resolves :tenant and checks the user may work on it.
func (a *AdminModule) loadTenant(c *gin.Context) {
	code := c.Param("tenant")
	tenant, err := a.store.FindOne(c.Request.Context(), store.Tenants, store.Filter{"code": code}, store.FindOptions{})
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Tenant not found"})
		return
	case err != nil:
		a.log.Error("failed to load tenant", zap.String("tenant", code), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.Set("tenant", tenant)
	c.Next()
}

func (a *AdminModule) adminRoot(c *gin.Context) {
	user, ok := a.currentUser(c)
	if !ok {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"email":  user.Email,
		"tenant": user.TenantID,
		"roles":  user.RoleList(),
	})
}

func (a *AdminModule) loginPage(c *gin.Context) {
	if _, ok := a.currentUser(c); ok {
		c.Redirect(http.StatusFound, "/admin")
		return
	}
	c.HTML(http.StatusOK, "admin_login.html", gin.H{})
}

func (a *AdminModule) loginPost(c *gin.Context) {
	email := strings.ToLower(strings.TrimSpace(c.PostForm("email")))
	password := c.PostForm("password")

	var user models.User
	if err := a.db.Where("email = ?", email).First(&user).Error; err != nil || !CheckPasswordHash(password, user.PasswordHash) {
		a.log.Info("failed login", zap.String("email", email))
		c.HTML(http.StatusUnauthorized, "admin_login.html", gin.H{
			"error": "Invalid email or password",
			"email": email,
		})
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	if err := session.Save(); err != nil {
		a.log.Error("failed to save session", zap.Error(err))
		c.HTML(http.StatusInternalServerError, "admin_login.html", gin.H{"error": "Could not log in"})
		return
	}

	next := c.Query("next")
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = "/admin"
	}
	c.Redirect(http.StatusFound, next)
}

func (a *AdminModule) logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	c.Redirect(http.StatusFound, "/login")
}

type fieldInfo struct {
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	Label    string      `json:"label,omitempty"`
	Required bool        `json:"required,omitempty"`
	Fields   []fieldInfo `json:"fields,omitempty"`
}

func describeFields(fields []blocks.Field) []fieldInfo {
	out := make([]fieldInfo, 0, len(fields))
	for _, f := range fields {
		out = append(out, fieldInfo{
			Name:     f.Name,
			Type:     string(f.Type),
			Label:    f.Label,
			Required: f.Required,
			Fields:   describeFields(f.Fields),
		})
	}
	return out
}

// listBlocks returns the kinds the tenant can place on a page, each with
// its field list and a ready-to-insert preset.
func (a *AdminModule) listBlocks(c *gin.Context) {
	code := c.Param("tenant")

	presets := map[string]map[string]any{}
	for _, p := range a.catalog.Presets(code) {
		if name, ok := p["blockType"].(string); ok {
			presets[name] = p
		}
	}

	kinds := []gin.H{}
	for _, k := range a.catalog.Kinds(code) {
		preset, ok := presets[k.Name]
		if !ok {
			preset = a.catalog.Preset(k.Name)
		}
		kinds = append(kinds, gin.H{
			"name":     k.Name,
			"label":    k.Label,
			"fields":   describeFields(k.Fields),
			"preset":   preset,
			"renderer": a.registry.IsKnown(k.Name),
		})
	}

	known := []string{}
	for _, kind := range a.registry.ListKnown() {
		if blocks.TenantOf(kind) == code {
			known = append(known, kind)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"tenant": code,
		"kinds":  kinds,
		"known":  known,
	})
}

type validateRequest struct {
	Block map[string]any `json:"block"`
}

// validateBlock normalizes a block the editor is about to save and reports
// field errors. Blocks of another tenant are rejected.
func (a *AdminModule) validateBlock(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Block == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "block is required"})
		return
	}

	block, err := a.normalizer.Normalize(req.Block)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind, _, _ := blocks.KindOf(block)
	if blocks.TenantOf(kind) != c.Param("tenant") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "block type does not belong to this tenant"})
		return
	}

	errs := a.catalog.Validate(block)
	c.JSON(http.StatusOK, gin.H{
		"valid":  len(errs) == 0,
		"known":  a.registry.IsKnown(kind),
		"errors": append(blocks.FieldErrors{}, errs...),
		"block":  block,
	})
}

func (a *AdminModule) purgeCache(c *gin.Context) {
	tenant := c.MustGet("tenant").(store.Doc)
	if a.cache != nil {
		if err := a.cache.InvalidateTenant(tenant.String("code")); err != nil {
			a.log.Error("failed to purge cache", zap.String("tenant", tenant.String("code")), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to purge cache"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cache purged"})
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
