package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/field-booking-backend/internal/auth"
	"github.com/nekogravitycat/field-booking-backend/internal/photo"
)

const (
	fieldID = "aaaaaaaa-0000-0000-0000-000000000001"
	photoID = "cccccccc-0000-0000-0000-000000000001"
	adminID = "11111111-0000-0000-0000-0000000000ad"
)

type mockService struct{ mock.Mock }

func (m *mockService) Upload(ctx context.Context, in photo.UploadInput) (*photo.Photo, error) {
	args := m.Called(ctx, in)
	p, _ := args.Get(0).(*photo.Photo)
	return p, args.Error(1)
}

func (m *mockService) Get(ctx context.Context, id string) (*photo.Photo, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*photo.Photo)
	return p, args.Error(1)
}

func (m *mockService) ListByField(ctx context.Context, fieldID string) ([]*photo.Photo, error) {
	args := m.Called(ctx, fieldID)
	list, _ := args.Get(0).([]*photo.Photo)
	return list, args.Error(1)
}

func (m *mockService) Open(ctx context.Context, id string) (io.ReadCloser, *photo.Photo, error) {
	args := m.Called(ctx, id)
	rc, _ := args.Get(0).(io.ReadCloser)
	p, _ := args.Get(1).(*photo.Photo)
	return rc, p, args.Error(2)
}

func (m *mockService) OpenThumbnail(ctx context.Context, id string) (io.ReadCloser, *photo.Photo, error) {
	args := m.Called(ctx, id)
	rc, _ := args.Get(0).(io.ReadCloser)
	p, _ := args.Get(1).(*photo.Photo)
	return rc, p, args.Error(2)
}

func (m *mockService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func setupRouter(svc photo.Service) (*gin.Engine, *auth.JWTManager) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	jwt := auth.NewJWTManager("test-secret", time.Minute)
	RegisterRoutes(r.Group("/v1"), NewHandler(svc), auth.AuthRequired(jwt), auth.RequireAdmin())
	return r, jwt
}

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUpload(t *testing.T) {
	svc := &mockService{}
	r, jwt := setupRouter(svc)
	thumb := "photos/x_thumb.jpg"

	svc.On("Upload", mock.Anything, mock.MatchedBy(func(in photo.UploadInput) bool {
		data, _ := io.ReadAll(in.Content)
		return in.FieldID == fieldID && in.UploadedBy == adminID && in.Filename == "pitch.png" && string(data) == "img"
	})).Return(&photo.Photo{
		ID: photoID, FieldID: fieldID, Filename: "pitch.png", ContentType: "image/png", Size: 3, ThumbnailPath: &thumb,
	}, nil)

	body, contentType := multipartBody(t, "../../pitch.png", []byte("img"))
	req := httptest.NewRequest(http.MethodPost, "/v1/fields/"+fieldID+"/photos", body)
	req.Header.Set("Content-Type", contentType)
	token, _ := jwt.GenerateAccessToken(adminID, auth.RoleAdmin)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp PhotoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, photo.URL(photoID), resp.URL)
	require.NotNil(t, resp.ThumbnailURL)
	assert.Equal(t, photo.ThumbnailURL(photoID), *resp.ThumbnailURL)
}

func TestUploadRequiresAdmin(t *testing.T) {
	svc := &mockService{}
	r, jwt := setupRouter(svc)

	body, contentType := multipartBody(t, "pitch.png", []byte("img"))
	req := httptest.NewRequest(http.MethodPost, "/v1/fields/"+fieldID+"/photos", body)
	req.Header.Set("Content-Type", contentType)
	token, _ := jwt.GenerateAccessToken(adminID, auth.RoleCustomer)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	svc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestServe(t *testing.T) {
	svc := &mockService{}
	r, _ := setupRouter(svc)
	svc.On("Open", mock.Anything, photoID).
		Return(io.NopCloser(strings.NewReader("pixels")), &photo.Photo{ID: photoID, Filename: "pitch.png", ContentType: "image/png"}, nil)
	svc.On("OpenThumbnail", mock.Anything, photoID).Return(nil, nil, photo.ErrThumbnailNotFound)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/files/"+photoID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "pixels", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/files/"+photoID+"/thumbnail", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
