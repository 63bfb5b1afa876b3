package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightroom/brightroom/adapters/decoder"
	"github.com/brightroom/brightroom/adapters/encoder"
	"github.com/brightroom/brightroom/adapters/storage"
	"github.com/brightroom/brightroom/auth"
	"github.com/brightroom/brightroom/config"
	"github.com/brightroom/brightroom/core"
	"github.com/brightroom/brightroom/enhance"
	"github.com/brightroom/brightroom/server"
	"github.com/brightroom/brightroom/store"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *server.Server {
	t.Helper()

	cfg := config.Default()
	cfg.UploadDir = t.TempDir()
	cfg.DataDir = t.TempDir()
	if mutate != nil {
		mutate(&cfg)
	}

	ctx := context.Background()
	users, err := store.NewUsers(ctx, filepath.Join(cfg.DataDir, "users.json"))
	require.NoError(t, err)
	history, err := store.NewHistory(filepath.Join(cfg.DataDir, "history.json"))
	require.NoError(t, err)
	assets, err := storage.NewLocal(cfg.UploadDir, 0)
	require.NoError(t, err)

	reg := core.NewRegistry()
	reg.RegisterDecoder(core.FormatJPEG, decoder.NewJPEG())
	reg.RegisterDecoder(core.FormatPNG, decoder.NewPNG())
	reg.RegisterEncoder(core.FormatJPEG, encoder.NewJPEG(cfg.Quality))
	reg.RegisterEncoder(core.FormatPNG, encoder.NewPNG())

	dispatcher := enhance.NewDispatcher(assets, reg, enhance.NativeFactory{}, cfg.Quality)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return server.New(cfg, log, auth.New(users), history, assets, dispatcher)
}

func doJSON(t *testing.T, srv *server.Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(echoHeaderContentType, "application/json")
	}
	if token != "" {
		req.Header.Set(server.SessionHeader, token)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

const echoHeaderContentType = "Content-Type"

func registerUser(t *testing.T, srv *server.Server, username, password string) string {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/register", "",
		map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		CsrfToken string `json:"csrfToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.CsrfToken)
	return resp.CsrfToken
}

func multipartImage(t *testing.T, fields map[string]string, filename string, payload []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if payload != nil {
		fw, err := w.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = fw.Write(payload)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 90, G: 90, B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

// ── Auth endpoints ────────────────────────────────────────────────────────────

func TestRegisterLoginFlow(t *testing.T) {
	srv := newTestServer(t, nil)

	token := registerUser(t, srv, "alice", "secret")
	assert.Len(t, token, 32)

	rec := doJSON(t, srv, http.MethodPost, "/api/login", "",
		map[string]string{"username": "alice", "password": "secret"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		CsrfToken string `json:"csrfToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.CsrfToken)
	assert.NotEqual(t, token, resp.CsrfToken, "login must supersede the old token")
}

func TestRegister_Duplicate(t *testing.T) {
	srv := newTestServer(t, nil)
	registerUser(t, srv, "alice", "secret")

	rec := doJSON(t, srv, http.MethodPost, "/api/register", "",
		map[string]string{"username": "alice", "password": "other"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Username already exists")
}

func TestLogin_BadCredentials(t *testing.T) {
	srv := newTestServer(t, nil)
	registerUser(t, srv, "alice", "secret")

	rec := doJSON(t, srv, http.MethodPost, "/api/login", "",
		map[string]string{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid credentials")
}

func TestSessionGate(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodGet, "/api/history", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unauthorized: No CSRF token")

	rec = doJSON(t, srv, http.MethodGet, "/api/history", "deadbeef", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unauthorized: Invalid CSRF token")
}

func TestUpdateProfile(t *testing.T) {
	srv := newTestServer(t, nil)
	token := registerUser(t, srv, "alice", "secret")

	rec := doJSON(t, srv, http.MethodPut, "/api/profile", token,
		map[string]string{"username": "alicia", "password": "hunter2"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "true")

	// The session token moves with the renamed record.
	rec = doJSON(t, srv, http.MethodGet, "/api/history", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Old credentials are gone, new ones work.
	rec = doJSON(t, srv, http.MethodPost, "/api/login", "",
		map[string]string{"username": "alice", "password": "secret"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/login", "",
		map[string]string{"username": "alicia", "password": "hunter2"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// That login superseded the renamed token.
	rec = doJSON(t, srv, http.MethodGet, "/api/history", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// ── Enhance endpoint ──────────────────────────────────────────────────────────

func TestEnhanceImage(t *testing.T) {
	srv := newTestServer(t, nil)
	token := registerUser(t, srv, "alice", "secret")

	body, contentType := multipartImage(t,
		map[string]string{"type": "brighten", "brightness": "1.5"},
		"photo.jpg", testJPEG(t, 64, 64))

	req := httptest.NewRequest(http.MethodPost, "/api/enhance", body)
	req.Header.Set(echoHeaderContentType, contentType)
	req.Header.Set(server.SessionHeader, token)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		OriginalFilename string `json:"originalFilename"`
		EnhancedFilename string `json:"enhancedFilename"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, strings.HasSuffix(resp.OriginalFilename, "-photo.jpg"))
	assert.Equal(t, "enhanced-"+resp.OriginalFilename, resp.EnhancedFilename)

	// Both assets are served from the static upload route.
	for _, name := range []string{resp.OriginalFilename, resp.EnhancedFilename} {
		req := httptest.NewRequest(http.MethodGet, "/uploads/"+name, nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "serving %s", name)
	}
}

func TestEnhanceImage_AutoDerivesFactors(t *testing.T) {
	srv := newTestServer(t, nil)
	token := registerUser(t, srv, "alice", "secret")

	// Dark gray and narrow: the analyzer should pick a brightness boost on
	// its own, with no factors supplied by the client.
	img := image.NewNRGBA(image.Rect(0, 0, 100, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 100; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 40, G: 40, B: 40, A: 255})
		}
	}
	var raw bytes.Buffer
	require.NoError(t, jpeg.Encode(&raw, img, &jpeg.Options{Quality: 90}))

	body, contentType := multipartImage(t, map[string]string{"type": "auto"}, "dark.jpg", raw.Bytes())
	req := httptest.NewRequest(http.MethodPost, "/api/enhance", body)
	req.Header.Set(echoHeaderContentType, contentType)
	req.Header.Set(server.SessionHeader, token)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		EnhancedFilename string `json:"enhancedFilename"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	get := httptest.NewRequest(http.MethodGet, "/uploads/"+resp.EnhancedFilename, nil)
	got := httptest.NewRecorder()
	srv.Handler().ServeHTTP(got, get)
	require.Equal(t, http.StatusOK, got.Code)

	enhanced, err := jpeg.Decode(bytes.NewReader(got.Body.Bytes()))
	require.NoError(t, err)
	r, _, _, _ := enhanced.At(50, 30).RGBA()
	assert.Greater(t, uint8(r>>8), uint8(44), "expected analyzer-driven brightening")
}

func TestEnhanceImage_UnknownTypePassesThrough(t *testing.T) {
	srv := newTestServer(t, nil)
	token := registerUser(t, srv, "alice", "secret")
	raw := testJPEG(t, 32, 32)

	body, contentType := multipartImage(t, map[string]string{"type": "mystery"}, "p.jpg", raw)
	req := httptest.NewRequest(http.MethodPost, "/api/enhance", body)
	req.Header.Set(echoHeaderContentType, contentType)
	req.Header.Set(server.SessionHeader, token)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		EnhancedFilename string `json:"enhancedFilename"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	get := httptest.NewRequest(http.MethodGet, "/uploads/"+resp.EnhancedFilename, nil)
	got := httptest.NewRecorder()
	srv.Handler().ServeHTTP(got, get)
	require.Equal(t, http.StatusOK, got.Code)
	assert.Equal(t, raw, got.Body.Bytes(), "pass-through output must be byte-identical")
}

func TestEnhanceImage_MissingFile(t *testing.T) {
	srv := newTestServer(t, nil)
	token := registerUser(t, srv, "alice", "secret")

	body, contentType := multipartImage(t, map[string]string{"type": "auto"}, "", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/enhance", body)
	req.Header.Set(echoHeaderContentType, contentType)
	req.Header.Set(server.SessionHeader, token)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No image file uploaded")
}

func TestEnhanceImage_Oversize(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.MaxUploadBytes = 128
	})
	token := registerUser(t, srv, "alice", "secret")

	body, contentType := multipartImage(t, map[string]string{"type": "auto"},
		"big.jpg", testJPEG(t, 64, 64))
	req := httptest.NewRequest(http.MethodPost, "/api/enhance", body)
	req.Header.Set(echoHeaderContentType, contentType)
	req.Header.Set(server.SessionHeader, token)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
}

// ── History endpoints ─────────────────────────────────────────────────────────

func TestHistoryLifecycle(t *testing.T) {
	srv := newTestServer(t, nil)
	token := registerUser(t, srv, "alice", "secret")

	rec := doJSON(t, srv, http.MethodGet, "/api/history", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = doJSON(t, srv, http.MethodPost, "/api/history", token,
		map[string]string{"filename": "enhanced-a.jpg", "type": "sepia"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/history", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []store.HistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, store.HistoryEntry{Filename: "enhanced-a.jpg", Type: "sepia"}, entries[0])

	// The collection is shared across identities.
	other := registerUser(t, srv, "bob", "pw")
	rec = doJSON(t, srv, http.MethodGet, "/api/history", other, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 1)

	rec = doJSON(t, srv, http.MethodDelete, "/api/history", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/history", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

// ── Health ────────────────────────────────────────────────────────────────────

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}
