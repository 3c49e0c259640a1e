package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"collab-service/internal/mocks"
)

func TestPresignImageUpload(t *testing.T) {
	signer := new(mocks.UploadSignerMock)
	signer.On("PresignUpload", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "uploads/u1/") && strings.HasSuffix(key, ".png")
	}), "image/png").Return("https://bucket.example/put", nil).Once()
	signer.On("PublicURL", mock.Anything).Return("https://bucket.example/file.png").Once()

	r := testRouter("u1")
	r.GET("/upload/presigned", NewUploadHandler(signer).Presign)

	rec := do(r, http.MethodGet, "/upload/presigned?contentType=image/png", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "https://bucket.example/put", resp["uploadUrl"])
	assert.Equal(t, "https://bucket.example/file.png", resp["fileUrl"])
	assert.True(t, strings.HasPrefix(resp["key"], "uploads/u1/"))
	signer.AssertExpectations(t)
}

func TestPresignRejectsNonImage(t *testing.T) {
	signer := new(mocks.UploadSignerMock)
	r := testRouter("u1")
	r.GET("/upload/presigned", NewUploadHandler(signer).Presign)

	rec := do(r, http.MethodGet, "/upload/presigned?contentType=application/pdf", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	signer.AssertNotCalled(t, "PresignUpload", mock.Anything, mock.Anything, mock.Anything)
}

func TestPresignRejectsUnlistedImageTypes(t *testing.T) {
	signer := new(mocks.UploadSignerMock)
	r := testRouter("u1")
	r.GET("/upload/presigned", NewUploadHandler(signer).Presign)

	for _, contentType := range []string{"image/x/../../u2/avatar", "image/", "image/made-up"} {
		rec := do(r, http.MethodGet, "/upload/presigned?contentType="+url.QueryEscape(contentType), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, contentType)
	}
	signer.AssertNotCalled(t, "PresignUpload", mock.Anything, mock.Anything, mock.Anything)
}
