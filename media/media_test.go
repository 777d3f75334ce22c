package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tessera/database"
	"tessera/store"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func setupTestLibrary(t *testing.T) (*store.Store, *Library) {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	st := store.New(db)
	return st, NewLibrary(st, NewStorage(t.TempDir()), zap.NewNop())
}

func TestStorage_Save(t *testing.T) {
	s := NewStorage(t.TempDir())

	file, err := s.Save("t1", "My Photo.png", bytes.NewReader(testPNG(t, 4, 3)))
	require.NoError(t, err)
	assert.Equal(t, "image/png", file.MimeType)
	assert.Equal(t, 4, file.Width)
	assert.Equal(t, 3, file.Height)
	assert.True(t, strings.HasSuffix(file.Filename, "-My-Photo.png"))
	assert.FileExists(t, file.Path)

	_, err = s.Save("t1", "notes.txt", strings.NewReader("plain text"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	require.NoError(t, s.Remove("t1", file.Filename))
	assert.NoFileExists(t, file.Path)
	assert.NoError(t, s.Remove("t1", file.Filename))
}

func TestCleanName(t *testing.T) {
	assert.Equal(t, "passwd", cleanName("../../etc/passwd"))
	assert.Equal(t, "a-b.png", cleanName("a b.png"))
	assert.Equal(t, "file", cleanName(".."))
	assert.Equal(t, "x.jpg", cleanName(`C:\images\x.jpg`))
}

func TestAltFromFilename(t *testing.T) {
	assert.Equal(t, "Team photo 2024", AltFromFilename("team-photo_2024.jpg"))
	assert.Equal(t, "Image", AltFromFilename(".png"))
	assert.Equal(t, "Ελλάδα", AltFromFilename("ελλάδα.png"))
}

func TestFilenameFromURL(t *testing.T) {
	assert.Equal(t, "hero image.jpg", FilenameFromURL("https://cdn.example.com/a/hero%20image.jpg?w=100"))
	assert.Equal(t, "image.jpg", FilenameFromURL("https://cdn.example.com/"))
}

func TestLibrary_Create(t *testing.T) {
	st, lib := setupTestLibrary(t)
	ctx := context.Background()

	doc, err := lib.Create(ctx, Upload{Tenant: "t1", Name: "logo.png", Source: "/assets/logo.png", Body: bytes.NewReader(testPNG(t, 2, 2))}, store.WriteOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Logo", doc["alt"])
	assert.Equal(t, "t1", doc["tenant"])
	assert.True(t, strings.HasPrefix(doc.String("url"), "/media/t1/"))

	found, err := lib.FindBySource(ctx, "t1", "/assets/logo.png")
	require.NoError(t, err)
	assert.Equal(t, doc.ID(), found.ID())

	_, err = lib.FindBySource(ctx, "t2", "/assets/logo.png")
	assert.ErrorIs(t, err, store.ErrNotFound)

	res, err := st.Find(ctx, store.Media, nil, store.FindOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.TotalDocs)
}

func TestHydrator(t *testing.T) {
	_, lib := setupTestLibrary(t)
	ctx := context.Background()
	pngData := testPNG(t, 8, 8)

	downloads := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		downloads++
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngData)
	}))
	defer server.Close()

	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "assets"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "assets", "local.png"), pngData, 0644))

	assets := []Asset{
		{Path: server.URL + "/hero.png", Type: AssetExternal},
		{Path: server.URL + "/hero.png", Type: AssetExternal},
		{Path: server.URL + "/missing.png", Type: AssetExternal},
		{Path: "assets/local.png", Type: AssetLocal},
		{Path: "assets/gone.png", Type: AssetLocal},
		{Path: "whatever", Type: "ftp"},
	}

	hydrator := NewHydrator(lib, "t1", base, zap.NewNop()).WithClient(server.Client())
	mapping, stats := hydrator.Hydrate(ctx, assets)

	assert.Equal(t, HydrationStats{Uploaded: 2, Reused: 1, Failed: 2, Skipped: 1}, stats)
	assert.Len(t, mapping, 2)
	assert.NotEmpty(t, mapping[server.URL+"/hero.png"])
	assert.NotEmpty(t, mapping["assets/local.png"])

	again, stats := hydrator.Hydrate(ctx, assets[:1])
	assert.Equal(t, 1, stats.Reused)
	assert.Equal(t, mapping[server.URL+"/hero.png"], again[server.URL+"/hero.png"])
	assert.Equal(t, 1, downloads)
}

func TestPopulator(t *testing.T) {
	st, lib := setupTestLibrary(t)
	ctx := context.Background()
	st.SetPopulator(NewPopulator(st))

	media, err := lib.Create(ctx, Upload{Tenant: "t1", Name: "hero.png", Body: bytes.NewReader(testPNG(t, 5, 5))}, store.WriteOptions{})
	require.NoError(t, err)

	page, err := st.Create(ctx, store.Pages, store.Doc{
		"tenant": "t1",
		"slug":   "home",
		"sections": []any{
			map[string]any{"blockType": "acme.hero", "backgroundImage": media.ID(), "title": "Hi"},
			map[string]any{"blockType": "acme.hero", "backgroundImage": "missing-id"},
			map[string]any{"blockType": "acme.hero", "backgroundImage": "https://cdn.example.com/x.png"},
		},
	}, store.WriteOptions{})
	require.NoError(t, err)

	shallow, err := st.FindByID(ctx, store.Pages, page.ID(), store.FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, media.ID(), shallow["sections"].([]any)[0].(map[string]any)["backgroundImage"])

	deep, err := st.FindByID(ctx, store.Pages, page.ID(), store.FindOptions{Depth: 1})
	require.NoError(t, err)
	sections := deep["sections"].([]any)
	image := sections[0].(map[string]any)["backgroundImage"].(map[string]any)
	assert.Equal(t, media.ID(), image["id"])
	assert.Equal(t, media["url"], image["url"])
	assert.EqualValues(t, 5, image["width"])
	assert.Equal(t, "missing-id", sections[1].(map[string]any)["backgroundImage"])
	assert.Equal(t, "https://cdn.example.com/x.png", sections[2].(map[string]any)["backgroundImage"])
}

func TestMediaModule_Serve(t *testing.T) {
	gin.SetMode(gin.TestMode)
	storage := NewStorage(t.TempDir())
	file, err := storage.Save("t1", "pic.png", bytes.NewReader(testPNG(t, 1, 1)))
	require.NoError(t, err)

	router := gin.New()
	NewMediaModule(storage).RegisterRoutes(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media/t1/"+file.Filename, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media/t1/nope.png", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
