package admin

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminRoot_NotLoggedIn(t *testing.T) {
	f := setupFixture(t)

	w := f.get("/admin")

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/login")
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, CheckPasswordHash("correct horse", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestLoginPage(t *testing.T) {
	f := setupFixture(t)

	w := f.get("/login")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="password"`)
}

func TestLoginPost_Success(t *testing.T) {
	f := setupFixture(t)
	f.createUser(t, "editor@example.gr", "secret123", f.tenantID, "user")

	session := f.login(t, " Editor@Example.gr ", "secret123")
	w := f.get("/admin", session)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "editor@example.gr", body["email"])
	assert.Equal(t, f.tenantID, body["tenant"])
	assert.Equal(t, []any{"user"}, body["roles"])

	assert.Equal(t, http.StatusFound, f.get("/login", session).Code)
}

func TestLoginPost_Next(t *testing.T) {
	f := setupFixture(t)
	f.createUser(t, "editor@example.gr", "secret123", f.tenantID, "user")
	form := url.Values{"email": {"editor@example.gr"}, "password": {"secret123"}}

	tests := []struct {
		next string
		want string
	}{
		{"/preview?tenant=kallitechnia", "/preview?tenant=kallitechnia"},
		{"//evil.example.com", "/admin"},
		{"https://evil.example.com", "/admin"},
		{"", "/admin"},
	}
	for _, tt := range tests {
		t.Run(tt.next, func(t *testing.T) {
			w := f.postForm("/login?next="+url.QueryEscape(tt.next), form)
			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, tt.want, w.Header().Get("Location"))
		})
	}
}

func TestLoginPost_Failure(t *testing.T) {
	f := setupFixture(t)
	f.createUser(t, "editor@example.gr", "secret123", f.tenantID, "user")

	tests := []struct {
		name  string
		email string
		pass  string
	}{
		{"wrong password", "editor@example.gr", "nope"},
		{"unknown user", "ghost@example.gr", "secret123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.postForm("/login", url.Values{"email": {tt.email}, "password": {tt.pass}})
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "Invalid email or password")
		})
	}
}

func TestLogout(t *testing.T) {
	f := setupFixture(t)
	f.createUser(t, "editor@example.gr", "secret123", f.tenantID, "user")
	session := f.login(t, "editor@example.gr", "secret123")

	w := f.get("/logout", session)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	cleared := w.Result().Cookies()
	require.NotEmpty(t, cleared)
	assert.Equal(t, http.StatusFound, f.get("/admin", cleared[0]).Code)
}
