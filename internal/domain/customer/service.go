package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"customerhub/internal/metrics"
	"customerhub/internal/storage"
	"customerhub/internal/upload"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// fallbackImageType is served for rows written before the content type column
// existed. It matches the old behavior of always declaring image/jpeg.
const fallbackImageType = "image/jpeg"

type RegistrationRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Age      int    `json:"age" validate:"required,gt=0"`
	Gender   string `json:"gender" validate:"required,oneof=MALE FEMALE"`
}

type UpdateRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email" validate:"omitempty,email"`
	Age   *int    `json:"age" validate:"omitempty,gt=0"`
}

// Service holds the customer CRUD logic and the profile image upload
// orchestration: validate, mint a blob key, write through the object store,
// then record the key against the customer row.
type Service struct {
	repo     Repository
	store    storage.ObjectStore
	bucket   string
	rules    upload.Rules
	recorder *metrics.Recorder
	logger   *log.Logger
}

func NewService(
	repo Repository,
	store storage.ObjectStore,
	bucket string,
	rules upload.Rules,
	recorder *metrics.Recorder,
	logger *log.Logger,
) *Service {
	return &Service{
		repo:     repo,
		store:    store,
		bucket:   bucket,
		rules:    rules,
		recorder: recorder,
		logger:   logger,
	}
}

func (s *Service) List(ctx context.Context) ([]*Customer, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Register(ctx context.Context, req RegistrationRequest) (*Customer, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	taken, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	c := &Customer{
		Name:         req.Name,
		Email:        email,
		PasswordHash: string(hash),
		Age:          req.Age,
		Gender:       req.Gender,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Customer, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := false

	if req.Name != nil && *req.Name != c.Name {
		c.Name = *req.Name
		changes = true
	}
	if req.Age != nil && *req.Age != c.Age {
		c.Age = *req.Age
		changes = true
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != c.Email {
			taken, err := s.repo.ExistsByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, ErrEmailTaken
			}
			c.Email = email
			changes = true
		}
	}

	if !changes {
		return nil, ErrNoChanges
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	exists, err := s.repo.ExistsByID(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

// imageKey builds the storage key for a customer's blob.
func imageKey(customerID int64, imageID string) string {
	return fmt.Sprintf("profile-images/%d/%s", customerID, imageID)
}

// UploadProfileImage runs the upload pipeline for one request. It is
// terminal on the first unrecoverable failure and never retries the store.
// The duration sample is recorded on every exit path.
func (s *Service) UploadProfileImage(ctx context.Context, customerID int64, candidate upload.FileCandidate, data []byte) error {
	stop := s.recorder.StartTimer()
	defer stop()

	exists, err := s.repo.ExistsByID(ctx, customerID)
	if err != nil {
		s.recorder.RecordFailure("database_error: " + err.Error())
		return err
	}
	if !exists {
		s.recorder.RecordFailure("customer_not_found")
		return ErrNotFound
	}

	if err := upload.Validate(s.rules, candidate); err != nil {
		s.recorder.RecordValidationFailure(validationKind(err), err.Error())
		return err
	}

	imageID := uuid.New().String()
	key := imageKey(customerID, imageID)

	s.logger.Info("uploading profile image",
		"customer_id", customerID, "key", key,
		"file_name", candidate.Name, "file_size", candidate.Size,
		"content_type", candidate.ContentType)

	if err := s.store.Put(ctx, s.bucket, key, data); err != nil {
		// No reference was written, so the system stays consistent:
		// no blob referenced, nothing to clean up.
		s.recorder.RecordStoreFailure("put", err.Error())
		return err
	}

	if err := s.repo.UpdateProfileImage(ctx, customerID, imageID, strings.ToLower(candidate.ContentType)); err != nil {
		// The blob is already in the store but unreferenced. There is no
		// compensation sweep; the orphaned key is logged and left behind.
		s.recorder.RecordFailure("database_error: " + err.Error())
		s.logger.Error("profile image stored but reference update failed, blob orphaned",
			"customer_id", customerID, "bucket", s.bucket, "key", key, "error", err)
		return fmt.Errorf("%w: %v", ErrReferenceUpdate, err)
	}

	s.recorder.RecordSuccess(customerID, candidate.Name, candidate.Size, candidate.ContentType)
	return nil
}

// GetProfileImage returns the image bytes and the content type to serve.
func (s *Service) GetProfileImage(ctx context.Context, customerID int64) ([]byte, string, error) {
	c, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		return nil, "", err
	}
	if c.ProfileImageID == "" {
		return nil, "", ErrNoProfileImage
	}

	data, err := s.store.Get(ctx, s.bucket, imageKey(customerID, c.ProfileImageID))
	if err != nil {
		return nil, "", err
	}

	contentType := c.ProfileImageType
	if contentType == "" {
		contentType = fallbackImageType
	}
	return data, contentType, nil
}

// CheckPassword verifies a login credential against the stored hash.
func (s *Service) CheckPassword(c *Customer, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil
}

func validationKind(err error) string {
	var sizeErr *upload.SizeExceededError
	var typeErr *upload.InvalidTypeError
	switch {
	case errors.Is(err, upload.ErrEmptyFile):
		return "empty_file"
	case errors.As(err, &sizeErr):
		return "file_size"
	case errors.As(err, &typeErr):
		return "file_type"
	}
	return "unexpected"
}
