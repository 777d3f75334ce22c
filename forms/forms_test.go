package forms

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tessera/access"
	"tessera/database"
	"tessera/store"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	return store.New(db)
}

func setupTestRouter(st *store.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewFormsModule(st.WithGuard(access.DefaultPolicy()), zap.NewNop()).RegisterRoutes(router)
	return router
}

func createTestTenant(t *testing.T, st *store.Store, code string) string {
	t.Helper()
	doc, err := st.Create(context.Background(), store.Tenants, store.Doc{"code": code, "name": code}, store.WriteOptions{})
	require.NoError(t, err)
	return doc.ID()
}

func postJSON(router *gin.Engine, body any, headers map[string]string) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/forms/submit", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestValidate(t *testing.T) {
	form := DefaultForms("t1")[1]

	valid := map[string]any{
		"childFirstName": "Maria",
		"childLastName":  "P",
		"age":            "9",
		"parentName":     "Eleni",
		"phone":          "+30 210 000",
		"email":          "eleni@example.gr",
		"department":     "rhythmic",
		"terms":          true,
	}
	assert.Empty(t, form.Validate(valid))

	tests := []struct {
		name  string
		field string
		value any
		want  string
	}{
		{"missing required", "childFirstName", "", "Child's first name is required"},
		{"unchecked checkbox", "terms", false, "I accept the Terms of Use and Privacy Policy is required"},
		{"checkbox as string", "terms", "true", "I accept the Terms of Use and Privacy Policy is required"},
		{"bad email", "email", "not-an-email", "Email must be a valid email"},
		{"email with space", "email", "a b@example.com", "Email must be a valid email"},
		{"not a number", "age", "nine", "Age must be a number"},
		{"unknown option", "department", "ballet", "Program has an invalid value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := map[string]any{}
			for k, v := range valid {
				data[k] = v
			}
			data[tt.field] = tt.value
			errs := form.Validate(data)
			assert.Equal(t, map[string]string{tt.field: tt.want}, errs)
		})
	}

	t.Run("numeric age", func(t *testing.T) {
		data := map[string]any{}
		for k, v := range valid {
			data[k] = v
		}
		data["age"] = float64(9)
		assert.Empty(t, form.Validate(data))
	})
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	assert.Equal(t, "", clientIP(r))
	r.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", clientIP(r))
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientIP(r))
}

func TestSubmit(t *testing.T) {
	st := setupTestStore(t)
	tenantID := createTestTenant(t, st, "acme")
	created, err := EnsureDefaults(context.Background(), st, tenantID, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 2, created)
	router := setupTestRouter(st)

	w := postJSON(router, map[string]any{
		"formSlug": "contact",
		"data": map[string]any{
			"firstName": "Nikos",
			"lastName":  "K",
			"email":     "nikos@example.gr",
			"subject":   "Hi",
			"message":   "Hello",
		},
	}, map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1", "User-Agent": "test-agent"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Thank you! Your message has been sent.", body["message"])
	assert.NotContains(t, body, "redirectUrl")

	res, err := st.Find(context.Background(), store.FormSubmissions, nil, store.FindOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 1, res.TotalDocs)
	sub := res.Docs[0]
	assert.Equal(t, tenantID, sub["tenant"])
	assert.Equal(t, map[string]any{"ip": "203.0.113.7", "userAgent": "test-agent"}, sub["metadata"])
	assert.Equal(t, "Nikos", sub["payload"].(map[string]any)["firstName"])
}

func TestSubmit_Errors(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	tenantID := createTestTenant(t, st, "acme")
	_, err := EnsureDefaults(ctx, st, tenantID, zap.NewNop())
	require.NoError(t, err)

	inactive := &Form{Tenant: tenantID, Name: "Old", Slug: "old", Status: "inactive", Fields: []Field{{Type: TypeText, Label: "Name", Name: "name"}}}
	_, err = st.Create(ctx, store.Forms, inactive.Doc(), store.WriteOptions{})
	require.NoError(t, err)

	router := setupTestRouter(st)

	tests := []struct {
		name string
		body any
		code int
	}{
		{"missing slug", map[string]any{"data": map[string]any{}}, http.StatusBadRequest},
		{"missing data", map[string]any{"formSlug": "contact"}, http.StatusBadRequest},
		{"unknown form", map[string]any{"formSlug": "nope", "data": map[string]any{}}, http.StatusNotFound},
		{"inactive form", map[string]any{"formSlug": "old", "data": map[string]any{}}, http.StatusNotFound},
		{"unknown tenant", map[string]any{"formSlug": "contact", "tenant": "other", "data": map[string]any{}}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(router, tt.body, nil)
			assert.Equal(t, tt.code, w.Code)
		})
	}

	t.Run("validation errors", func(t *testing.T) {
		w := postJSON(router, map[string]any{"formSlug": "contact", "tenant": "acme", "data": map[string]any{"email": "bad"}}, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.Equal(t, "Validation failed", body["error"])
		errs := body["errors"].(map[string]any)
		assert.Equal(t, "Email must be a valid email", errs["email"])
		assert.Equal(t, "First name is required", errs["firstName"])
		assert.NotContains(t, errs, "phone")
	})
}

func TestSubmit_Redirect(t *testing.T) {
	st := setupTestStore(t)
	tenantID := createTestTenant(t, st, "acme")
	form := &Form{Tenant: tenantID, Name: "News", Slug: "news", Status: "active", RedirectURL: "/thanks",
		Fields: []Field{{Type: TypeEmail, Label: "Email", Name: "email", Required: true}}}
	_, err := st.Create(context.Background(), store.Forms, form.Doc(), store.WriteOptions{})
	require.NoError(t, err)

	w := postJSON(setupTestRouter(st), map[string]any{"formSlug": "news", "data": map[string]any{"email": "a@b.co"}}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "/thanks", body["redirectUrl"])
	assert.Equal(t, DefaultSuccessMessage, body["message"])
}

func TestEnsureDefaults_Idempotent(t *testing.T) {
	st := setupTestStore(t)
	tenantID := createTestTenant(t, st, "acme")
	ctx := context.Background()

	_, err := EnsureDefaults(ctx, st, tenantID, zap.NewNop())
	require.NoError(t, err)
	created, err := EnsureDefaults(ctx, st, tenantID, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	doc, err := st.FindOne(ctx, store.Forms, store.Filter{"tenant": tenantID, "slug": "registration"}, store.FindOptions{})
	require.NoError(t, err)
	form, err := FromDoc(doc)
	require.NoError(t, err)
	assert.Len(t, form.Fields, 9)
	assert.Len(t, form.Fields[6].Options, 6)
}

type recordingNotifier struct {
	forms []string
	data  []map[string]any
	err   error
}

func (r *recordingNotifier) NotifySubmission(_ context.Context, form *Form, data map[string]any) error {
	r.forms = append(r.forms, form.Slug)
	r.data = append(r.data, data)
	return r.err
}

func TestSubmit_Notifies(t *testing.T) {
	st := setupTestStore(t)
	tenantID := createTestTenant(t, st, "acme")
	ctx := context.Background()
	for _, f := range []*Form{
		{Tenant: tenantID, Name: "News", Slug: "news", Status: "active", NotifyEmail: "office@acme.gr",
			Fields: []Field{{Type: TypeEmail, Label: "Email", Name: "email", Required: true}}},
		{Tenant: tenantID, Name: "Quiet", Slug: "quiet", Status: "active",
			Fields: []Field{{Type: TypeText, Label: "Name", Name: "name"}}},
	} {
		_, err := st.Create(ctx, store.Forms, f.Doc(), store.WriteOptions{})
		require.NoError(t, err)
	}

	notifier := &recordingNotifier{err: errors.New("smtp down")}
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewFormsModule(st.WithGuard(access.DefaultPolicy()), zap.NewNop()).WithNotifier(notifier).RegisterRoutes(router)

	w := postJSON(router, map[string]any{"formSlug": "news", "data": map[string]any{"email": "a@b.co"}}, nil)
	assert.Equal(t, http.StatusOK, w.Code, "a failed notification does not fail the submission")
	w = postJSON(router, map[string]any{"formSlug": "quiet", "data": map[string]any{"name": "x"}}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, []string{"news"}, notifier.forms)
	assert.Equal(t, "a@b.co", notifier.data[0]["email"])
}
