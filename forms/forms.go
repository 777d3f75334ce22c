package forms

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tessera/store"
)

// Notifier tells someone about a new submission.
type Notifier interface {
	NotifySubmission(ctx context.Context, form *Form, data map[string]any) error
}

type FormsModule struct {
	store    *store.Store
	notifier Notifier
	log      *zap.Logger
}

// NewFormsModule expects a guarded store: forms are read and submissions
// created as the anonymous caller.
func NewFormsModule(st *store.Store, log *zap.Logger) *FormsModule {
	return &FormsModule{store: st, log: log}
}

// WithNotifier makes the module send forms with a notify address to n.
func (f *FormsModule) WithNotifier(n Notifier) *FormsModule {
	f.notifier = n
	return f
}

func (f *FormsModule) RegisterRoutes(router *gin.Engine) {
	router.POST("/api/forms/submit", f.submit)
}

type submitRequest struct {
	FormSlug string         `json:"formSlug"`
	Data     map[string]any `json:"data"`
	// Tenant is an optional tenant code narrowing the form lookup.
	Tenant string `json:"tenant"`
}

// clientIP is the first X-Forwarded-For entry, else X-Real-IP.
func clientIP(r *http.Request) string {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = r.Header.Get("X-Real-IP")
	}
	first, _, _ := strings.Cut(ip, ",")
	return strings.TrimSpace(first)
}

func (f *FormsModule) findForm(c *gin.Context, req submitRequest) (*Form, error) {
	filter := store.Filter{"slug": req.FormSlug, "status": "active"}
	if req.Tenant != "" {
		tenant, err := f.store.FindOne(c.Request.Context(), store.Tenants, store.Filter{"code": req.Tenant}, store.FindOptions{OverrideAccess: true})
		if err != nil {
			return nil, err
		}
		filter["tenant"] = tenant.ID()
	}
	doc, err := f.store.FindOne(c.Request.Context(), store.Forms, filter, store.FindOptions{})
	if err != nil {
		return nil, err
	}
	return FromDoc(doc)
}

func (f *FormsModule) submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FormSlug == "" || req.Data == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "formSlug and data are required"})
		return
	}

	form, err := f.findForm(c, req)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Form not found or inactive"})
		return
	}
	if err != nil {
		f.log.Error("failed to load form", zap.String("form", req.FormSlug), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if errs := form.Validate(req.Data); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "errors": errs})
		return
	}

	submission, err := f.store.Create(c.Request.Context(), store.FormSubmissions, store.Doc{
		"form":    form.ID,
		"tenant":  form.Tenant,
		"payload": req.Data,
		"metadata": map[string]any{
			"ip":        clientIP(c.Request),
			"userAgent": c.Request.UserAgent(),
		},
	}, store.WriteOptions{})
	if err != nil {
		f.log.Error("failed to create submission", zap.String("form", form.Slug), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save submission"})
		return
	}
	f.log.Info("submission created",
		zap.String("id", submission.ID()),
		zap.String("form", form.Slug),
		zap.String("tenant", form.Tenant))

	if form.NotifyEmail != "" && f.notifier != nil {
		if err := f.notifier.NotifySubmission(c.Request.Context(), form, req.Data); err != nil {
			f.log.Warn("submission notification failed", zap.String("form", form.Slug), zap.Error(err))
		}
	}

	resp := gin.H{"success": true, "message": form.Message()}
	if form.RedirectURL != "" {
		resp["redirectUrl"] = form.RedirectURL
	}
	c.JSON(http.StatusOK, resp)
}
