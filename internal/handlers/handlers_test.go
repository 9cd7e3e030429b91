package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nmoreau/go-image-pipeline/internal/auth"
	"github.com/nmoreau/go-image-pipeline/internal/intake"
	"github.com/nmoreau/go-image-pipeline/internal/storage"
	"github.com/nmoreau/go-image-pipeline/internal/store"
	"github.com/nmoreau/go-image-pipeline/internal/transform"
	"github.com/nmoreau/go-image-pipeline/models"
)

type testApp struct {
	router       http.Handler
	tokens       *auth.Tokens
	users        *store.Users
	images       *store.Images
	originalsDir string
	processedDir string
}

func newTestApp(t *testing.T, maxUploadBytes int64) *testApp {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Image{}))

	originalsDir := t.TempDir()
	processedDir := t.TempDir()
	originals, err := storage.NewDiskStore(originalsDir)
	require.NoError(t, err)
	processed, err := storage.NewDiskStore(processedDir)
	require.NoError(t, err)

	tokens := auth.NewTokens("test-secret", time.Hour)
	users := store.NewUsers(db)
	images := store.NewImages(db)
	engine := transform.NewEngine(originals, processed, transform.DefaultConfig())
	in := intake.New(originals, maxUploadBytes, []string{
		"image/jpeg", "image/png", "image/gif", "image/webp",
	})

	authHandler := NewAuthHandler(users, tokens)
	imagesHandler := NewImagesHandler(in, engine, images, processed)

	r := chi.NewRouter()
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})
	r.Route("/api/images", func(r chi.Router) {
		r.Use(tokens.Middleware)
		r.Post("/upload", imagesHandler.Upload)
		r.Get("/", imagesHandler.List)
		r.Get("/{imageID}", imagesHandler.GetByID)
	})

	return &testApp{
		router:       r,
		tokens:       tokens,
		users:        users,
		images:       images,
		originalsDir: originalsDir,
		processedDir: processedDir,
	}
}

// newUser creates an account directly in the store and returns its id and a
// valid bearer token.
func (a *testApp) newUser(t *testing.T, email string) (string, string) {
	t.Helper()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	user := &models.User{Email: email, PasswordHash: hash}
	require.NoError(t, a.users.Create(context.Background(), user))

	token, err := a.tokens.Issue(user.ID)
	require.NoError(t, err)
	return user.ID, token
}

func (a *testApp) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadRequest(t *testing.T, token, filename, contentType string, data []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, intake.FieldName, filename))
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/images/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 100, 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func decodeBody(t *testing.T, r io.Reader, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(r).Decode(v))
}

type errorBody struct {
	Errors []struct {
		Msg string `json:"msg"`
	} `json:"errors"`
}
