package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"anoa.com/pencraft/internal/modules/attachment/dto"
	"anoa.com/pencraft/pkg/response"
	"anoa.com/pencraft/pkg/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStorage struct {
	folder string
	name   string
	body   string
}

func (f *fakeStorage) UploadImage(_ context.Context, r io.Reader, folder, fileName string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.folder, f.name, f.body = folder, fileName, string(b)
	return "https://res.cloudinary.com/demo/image/upload/pencraft/" + folder + "/" + fileName, nil
}

func (f *fakeStorage) DeleteImage(context.Context, string) error { return nil }
func (f *fakeStorage) Owns(string) bool                          { return true }

func newRouter(images storage.ImageStorage, authenticated bool) *gin.Engine {
	r := gin.New()
	r.POST("/api/upload", func(c *gin.Context) {
		if authenticated {
			c.Set(response.ContextUserID, uuid.NewString())
		}
		c.Next()
	}, NewAttachmentHandler(images).UploadImage)
	return r
}

func multipartRequest(t *testing.T, fileName, folder, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	if folder != "" {
		require.NoError(t, mw.WriteField("folder", folder))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadImage(t *testing.T) {
	t.Run("uploads to folder", func(t *testing.T) {
		images := &fakeStorage{}
		w := httptest.NewRecorder()
		newRouter(images, true).ServeHTTP(w, multipartRequest(t, "cover.png", "communities", "png-bytes"))

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var resp dto.UploadResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "communities", resp.Folder)
		assert.Contains(t, resp.URL, "/communities/cover.png")
		assert.Equal(t, "png-bytes", images.body)
		assert.Equal(t, int64(len("png-bytes")), resp.Size)
	})

	t.Run("defaults to posts", func(t *testing.T) {
		images := &fakeStorage{}
		w := httptest.NewRecorder()
		newRouter(images, true).ServeHTTP(w, multipartRequest(t, "a.jpg", "", "x"))
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "posts", images.folder)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		cases := map[string]*http.Request{
			"missing file":  multipartRequest(t, "", "", ""),
			"bad extension": multipartRequest(t, "run.exe", "", "x"),
			"bad folder":    multipartRequest(t, "a.png", "secrets", "x"),
		}
		for name, req := range cases {
			w := httptest.NewRecorder()
			newRouter(&fakeStorage{}, true).ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code, name)
		}
	})

	t.Run("requires auth", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter(&fakeStorage{}, false).ServeHTTP(w, multipartRequest(t, "a.png", "", "x"))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("storage disabled", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter(storage.NewDisabledStorage(), true).ServeHTTP(w, multipartRequest(t, "a.png", "", "x"))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
