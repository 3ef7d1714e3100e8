package customer

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"customerhub/internal/pkg/response"
	"customerhub/internal/pkg/validator"
	"customerhub/internal/storage"
	"customerhub/internal/upload"

	"github.com/gin-gonic/gin"
)

type tokenIssuer interface {
	GenerateToken(customerID int64, email string) (string, error)
}

// Handler exposes the customer CRUD and profile image endpoints.
type Handler struct {
	service *Service
	tokens  tokenIssuer
}

func NewHandler(service *Service, tokens tokenIssuer) *Handler {
	return &Handler{service: service, tokens: tokens}
}

// List godoc
// @Summary List all customers
// @Tags Customers
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /customers [get]
func (h *Handler) List(c *gin.Context) {
	customers, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list customers")
		return
	}
	response.Success(c, http.StatusOK, customers)
}

// Get godoc
// @Summary Get a customer by ID
// @Tags Customers
// @Produce json
// @Param id path int true "Customer ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400,404 {object} map[string]interface{}
// @Router /customers/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}

	cust, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", notFoundMessage(id))
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load customer")
		return
	}
	response.Success(c, http.StatusOK, cust)
}

// Register godoc
// @Summary Register a new customer
// @Description Creates the customer and returns a JWT in the Authorization header.
// @Tags Customers
// @Accept json
// @Produce json
// @Success 201 {object} map[string]interface{}
// @Failure 400,409 {object} map[string]interface{}
// @Router /customers [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if fieldErrs := validator.Validate(req); fieldErrs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "request validation failed", fieldErrs)
		return
	}

	cust, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			response.Error(c, http.StatusConflict, "DUPLICATE_EMAIL", "email already taken")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "registration failed")
		return
	}

	token, err := h.tokens.GenerateToken(cust.ID, cust.Email)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to issue token")
		return
	}

	c.Header("Authorization", token)
	response.Success(c, http.StatusCreated, cust)
}

// Update godoc
// @Summary Update a customer
// @Tags Customers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Customer ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400,404,409 {object} map[string]interface{}
// @Router /customers/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if fieldErrs := validator.Validate(req); fieldErrs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "request validation failed", fieldErrs)
		return
	}

	cust, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", notFoundMessage(id))
		case errors.Is(err, ErrEmailTaken):
			response.Error(c, http.StatusConflict, "DUPLICATE_EMAIL", "email already taken")
		case errors.Is(err, ErrNoChanges):
			response.Error(c, http.StatusBadRequest, "NO_CHANGES", "no data changes found")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "update failed")
		}
		return
	}
	response.Success(c, http.StatusOK, cust)
}

// Delete godoc
// @Summary Delete a customer
// @Tags Customers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Customer ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400,404 {object} map[string]interface{}
// @Router /customers/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", notFoundMessage(id))
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "delete failed")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "deleted"})
}

// UploadProfileImage godoc
// @Summary Upload a customer's profile image
// @Tags Customers
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Customer ID"
// @Param file formData file true "Image file"
// @Success 200
// @Failure 400,404,413,500 {object} map[string]interface{}
// @Router /customers/{id}/profile-image [post]
func (h *Handler) UploadProfileImage(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
				"File size too large: request body exceeds the maximum upload size")
			return
		}
		response.Error(c, http.StatusBadRequest, "NO_FILE", "no file provided")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "NO_FILE", "failed to open uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to read uploaded file")
		return
	}

	candidate := upload.FileCandidate{
		Name:        fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
	}

	if err := h.service.UploadProfileImage(c.Request.Context(), id, candidate, data); err != nil {
		h.writeUploadError(c, id, err)
		return
	}

	c.Status(http.StatusOK)
}

// GetProfileImage godoc
// @Summary Download a customer's profile image
// @Tags Customers
// @Produce image/jpeg
// @Param id path int true "Customer ID"
// @Success 200 {file} binary
// @Failure 400,404,500 {object} map[string]interface{}
// @Router /customers/{id}/profile-image [get]
func (h *Handler) GetProfileImage(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}

	data, contentType, err := h.service.GetProfileImage(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", notFoundMessage(id))
		case errors.Is(err, ErrNoProfileImage), errors.Is(err, storage.ErrNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "profile image not found")
		default:
			response.Error(c, http.StatusInternalServerError, "STORE_FAILURE", "failed to retrieve profile image")
		}
		return
	}

	c.Data(http.StatusOK, contentType, data)
}

func (h *Handler) writeUploadError(c *gin.Context, id int64, err error) {
	var typeErr *upload.InvalidTypeError
	var sizeErr *upload.SizeExceededError
	var storeErr *storage.StoreError

	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", notFoundMessage(id))
	case errors.Is(err, upload.ErrEmptyFile):
		response.Error(c, http.StatusBadRequest, "EMPTY_FILE", err.Error())
	case errors.As(err, &typeErr):
		response.Error(c, http.StatusBadRequest, "INVALID_FILE_TYPE", err.Error())
	case errors.As(err, &sizeErr):
		response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", err.Error())
	case errors.As(err, &storeErr):
		response.Error(c, http.StatusInternalServerError, "STORE_FAILURE", "failed to store profile image")
	case errors.Is(err, ErrReferenceUpdate):
		response.Error(c, http.StatusInternalServerError, "REFERENCE_UPDATE_FAILED", "failed to update profile image reference")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "upload failed")
	}
}

func notFoundMessage(id int64) string {
	return "customer with id [" + strconv.FormatInt(id, 10) + "] not found"
}

func customerID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "invalid customer ID")
		return 0, false
	}
	return id, true
}
