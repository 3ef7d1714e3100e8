package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"testing"
	"time"

	"customerhub/internal/database"
	"customerhub/internal/domain/customer"
	"customerhub/internal/metrics"
	"customerhub/internal/middleware"
	jwtsvc "customerhub/internal/pkg/jwt"
	"customerhub/internal/storage"
	"customerhub/internal/upload"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type E2ETestSuite struct {
	router   *gin.Engine
	db       *gorm.DB
	tokens   *jwtsvc.Service
	recorder *metrics.Recorder
}

type TestResponse struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *ErrorDetail           `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func setupTestSuite(t *testing.T) *E2ETestSuite {
	t.Helper()

	db, err := database.Connect(":memory:")
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, database.Migrate(db, &customer.Customer{}))

	logger := log.New(io.Discard)

	store, err := storage.New(storage.Config{
		Backend: "local",
		Bucket:  "customers",
		BaseDir: t.TempDir(),
	}, logger)
	require.NoError(t, err)

	tokens := jwtsvc.New("test_secret_key_32_characters_min", 24*time.Hour)
	recorder := metrics.NewRecorder(prometheus.NewRegistry(), logger)
	rules := upload.MustRules(nil, upload.DefaultMaxSize)

	repo := customer.NewRepository(db)
	service := customer.NewService(repo, store, "customers", rules, recorder, logger)
	handler := customer.NewHandler(service, tokens)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/api/v1")
	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(tokens))

	customer.RegisterRoutes(v1, protected, handler, middleware.BodyLimit(rules.MaxSizeBytes()))

	return &E2ETestSuite{router: r, db: db, tokens: tokens, recorder: recorder}
}

func (s *E2ETestSuite) doJSON(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, TestResponse) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var parsed TestResponse
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &parsed)
	}
	return w, parsed
}

func (s *E2ETestSuite) uploadImage(t *testing.T, customerID string, token, fileName, contentType string, data []byte) (*httptest.ResponseRecorder, TestResponse) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/customers/"+customerID+"/profile-image", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var parsed TestResponse
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &parsed)
	}
	return w, parsed
}

// registerCustomer creates a customer through the API and returns its ID and
// the JWT issued on registration.
func (s *E2ETestSuite) registerCustomer(t *testing.T, name, email string) (string, string) {
	t.Helper()

	w, resp := s.doJSON(t, http.MethodPost, "/api/v1/customers", "", map[string]interface{}{
		"name":     name,
		"email":    email,
		"password": "password123",
		"age":      30,
		"gender":   "FEMALE",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.True(t, resp.Success)

	id := jsonNumberString(t, resp.Data["id"])
	token := w.Header().Get("Authorization")
	require.NotEmpty(t, token, "registration must issue a JWT in the Authorization header")
	return id, token
}

func jsonNumberString(t *testing.T, v interface{}) string {
	t.Helper()
	f, ok := v.(float64)
	require.True(t, ok, "expected numeric id, got %T", v)
	return strconv.FormatInt(int64(f), 10)
}

// fakeJPEG builds a payload that starts with the JPEG magic bytes.
func fakeJPEG(size int) []byte {
	data := make([]byte, size)
	copy(data, []byte{0xFF, 0xD8, 0xFF, 0xE0})
	return data
}

func TestCustomerCRUDJourney(t *testing.T) {
	s := setupTestSuite(t)

	id, token := s.registerCustomer(t, "Ada Lovelace", "ada@example.com")

	t.Run("duplicate email is rejected", func(t *testing.T) {
		w, resp := s.doJSON(t, http.MethodPost, "/api/v1/customers", "", map[string]interface{}{
			"name": "Other", "email": "ada@example.com", "password": "password123",
			"age": 20, "gender": "MALE",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "DUPLICATE_EMAIL", resp.Error.Code)
		assert.Equal(t, "email already taken", resp.Error.Message)
	})

	t.Run("get returns the customer without the password hash", func(t *testing.T) {
		w, resp := s.doJSON(t, http.MethodGet, "/api/v1/customers/"+id, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Ada Lovelace", resp.Data["name"])
		assert.Equal(t, "ada@example.com", resp.Data["email"])
		assert.NotContains(t, w.Body.String(), "password")
	})

	t.Run("list includes the customer", func(t *testing.T) {
		w, _ := s.doJSON(t, http.MethodGet, "/api/v1/customers", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "ada@example.com")
	})

	t.Run("update requires auth", func(t *testing.T) {
		w, _ := s.doJSON(t, http.MethodPut, "/api/v1/customers/"+id, "", map[string]interface{}{"name": "Ada"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("update applies changes", func(t *testing.T) {
		w, resp := s.doJSON(t, http.MethodPut, "/api/v1/customers/"+id, token, map[string]interface{}{"age": 37})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, float64(37), resp.Data["age"])
	})

	t.Run("update with identical data fails", func(t *testing.T) {
		w, resp := s.doJSON(t, http.MethodPut, "/api/v1/customers/"+id, token, map[string]interface{}{"age": 37})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "no data changes found", resp.Error.Message)
	})

	t.Run("missing customer yields formatted message", func(t *testing.T) {
		w, resp := s.doJSON(t, http.MethodGet, "/api/v1/customers/424242", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "customer with id [424242] not found", resp.Error.Message)
	})

	t.Run("delete removes the customer", func(t *testing.T) {
		w, _ := s.doJSON(t, http.MethodDelete, "/api/v1/customers/"+id, token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w, _ = s.doJSON(t, http.MethodGet, "/api/v1/customers/"+id, "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestProfileImageUploadJourney(t *testing.T) {
	s := setupTestSuite(t)
	id, token := s.registerCustomer(t, "Grace Hopper", "grace@example.com")

	image := fakeJPEG(2048)

	t.Run("upload requires auth", func(t *testing.T) {
		w, _ := s.uploadImage(t, id, "", "avatar.jpg", "image/jpeg", image)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("upload then retrieve byte-identical", func(t *testing.T) {
		w, _ := s.uploadImage(t, id, token, "avatar.jpg", "image/jpeg", image)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/customers/"+id+"/profile-image", nil)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
		assert.Equal(t, image, rec.Body.Bytes())
	})

	t.Run("re-upload replaces the image", func(t *testing.T) {
		replacement := fakeJPEG(4096)
		w, _ := s.uploadImage(t, id, token, "newavatar.png", "image/png", replacement)
		require.Equal(t, http.StatusOK, w.Code)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/customers/"+id+"/profile-image", nil)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Equal(t, replacement, rec.Body.Bytes())
	})

	t.Run("invalid type rejected with message", func(t *testing.T) {
		w, resp := s.uploadImage(t, id, token, "notes.txt", "text/plain", []byte("hello"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "INVALID_FILE_TYPE", resp.Error.Code)
		assert.Contains(t, resp.Error.Message, "Invalid file type: text/plain")
		assert.Contains(t, resp.Error.Message, "image/jpeg")
	})

	t.Run("oversize body rejected with 413", func(t *testing.T) {
		w, resp := s.uploadImage(t, id, token, "big.jpg", "image/jpeg", fakeJPEG(11*1024*1024))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "FILE_TOO_LARGE", resp.Error.Code)
	})

	t.Run("upload for unknown customer", func(t *testing.T) {
		w, resp := s.uploadImage(t, "99999", token, "avatar.jpg", "image/jpeg", image)
		assert.Equal(t, http.StatusNotFound, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "customer with id [99999] not found", resp.Error.Message)
	})

	t.Run("metrics reflect the journey", func(t *testing.T) {
		summary := s.recorder.Summarize()
		assert.Equal(t, int64(2), summary.SuccessCount)
		assert.GreaterOrEqual(t, summary.ValidationFailureCount, int64(1))
		assert.GreaterOrEqual(t, summary.FailureCount, int64(1))
	})
}

func TestProfileImageRetrievalWithoutUpload(t *testing.T) {
	s := setupTestSuite(t)
	id, _ := s.registerCustomer(t, "Alan Turing", "alan@example.com")

	w, resp := s.doJSON(t, http.MethodGet, "/api/v1/customers/"+id+"/profile-image", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "profile image not found", resp.Error.Message)
}

func TestRegistrationValidation(t *testing.T) {
	s := setupTestSuite(t)

	cases := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing email", map[string]interface{}{"name": "X", "password": "password123", "age": 20, "gender": "MALE"}},
		{"short password", map[string]interface{}{"name": "X", "email": "x@example.com", "password": "short", "age": 20, "gender": "MALE"}},
		{"bad gender", map[string]interface{}{"name": "X", "email": "x@example.com", "password": "password123", "age": 20, "gender": "OTHER"}},
		{"zero age", map[string]interface{}{"name": "X", "email": "x@example.com", "password": "password123", "age": 0, "gender": "MALE"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, resp := s.doJSON(t, http.MethodPost, "/api/v1/customers", "", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			require.NotNil(t, resp.Error)
		})
	}
}
