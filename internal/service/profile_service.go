package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/greenhangar/ghe-billing/internal/model"
	"github.com/greenhangar/ghe-billing/internal/storage"
)

const cleanupTimeout = 30 * time.Second

type ProfileStore interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	UpdateProfile(ctx context.Context, profile model.Profile) (*model.Profile, error)
	SetIdentityDocument(ctx context.Context, id uuid.UUID, side model.DocumentSide, key string) error
	ListIdentityTypes(ctx context.Context) ([]model.IdentityType, error)
}

type BlobStore interface {
	Put(ctx context.Context, key string, content []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

type ProfileService struct {
	store    ProfileStore
	blobs    BlobStore
	validate *validator.Validate
	maxWidth int
	log      zerolog.Logger
	cleanup  sync.WaitGroup
}

type ProfileInput struct {
	FirstName              string `json:"first_name" validate:"required,min=2,max=50"`
	MiddleInitial          string `json:"middle_initial" validate:"omitempty,max=2"`
	LastName               string `json:"last_name" validate:"required,min=2,max=50"`
	Suffix                 string `json:"suffix" validate:"omitempty,max=10"`
	ContactNumber          string `json:"contact_number" validate:"omitempty,min=7,max=20"`
	BirthDate              string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	EmergencyContactName   string `json:"emergency_contact_name" validate:"omitempty,max=100"`
	EmergencyContactNumber string `json:"emergency_contact_number" validate:"omitempty,min=7,max=20"`
	GovIDType              *int   `json:"gov_id_type" validate:"omitempty,min=1"`
	GovIDNumber            string `json:"gov_id_number" validate:"omitempty,min=5,max=20"`
}

func NewProfileService(store ProfileStore, blobs BlobStore, maxImageWidth int, log zerolog.Logger) *ProfileService {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return &ProfileService{
		store:    store,
		blobs:    blobs,
		validate: validate,
		maxWidth: maxImageWidth,
		log:      log,
	}
}

func (s *ProfileService) GetProfile(ctx context.Context, principal model.Principal) (*model.Profile, error) {
	profile, err := s.store.GetProfile(ctx, principal.UserID)
	if err != nil {
		return nil, readError(err)
	}
	return profile, nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, principal model.Principal, input ProfileInput) (*model.Profile, error) {
	input = trimProfileInput(input)
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	current, err := s.store.GetProfile(ctx, principal.UserID)
	if err != nil {
		return nil, readError(err)
	}

	updated := *current
	updated.FirstName = input.FirstName
	updated.MiddleInitial = input.MiddleInitial
	updated.LastName = input.LastName
	updated.Suffix = input.Suffix
	updated.ContactNumber = input.ContactNumber
	updated.EmergencyContactName = input.EmergencyContactName
	updated.EmergencyContactNumber = input.EmergencyContactNumber
	updated.GovIDType = input.GovIDType
	updated.GovIDNumber = input.GovIDNumber
	updated.BirthDate = nil
	if input.BirthDate != "" {
		birthDate, err := time.Parse("2006-01-02", input.BirthDate)
		if err != nil {
			return nil, fmt.Errorf("%w: birth_date: %v", ErrInvalidInput, err)
		}
		updated.BirthDate = &birthDate
	}

	saved, err := s.store.UpdateProfile(ctx, updated)
	if err != nil {
		return nil, writeError(err)
	}
	return saved, nil
}

// ReplaceIdentityDocument stores a new picture for one side of the identity
// document. The superseded object is removed in the background once the
// profile points at the new one; a failed removal is only logged.
func (s *ProfileService) ReplaceIdentityDocument(
	ctx context.Context,
	principal model.Principal,
	side model.DocumentSide,
	content []byte,
) (*model.Profile, error) {
	if side != model.DocumentSideFront && side != model.DocumentSideBack {
		return nil, fmt.Errorf("%w: side must be front or back", ErrInvalidInput)
	}

	current, err := s.store.GetProfile(ctx, principal.UserID)
	if err != nil {
		return nil, readError(err)
	}

	normalized, err := storage.NormalizeImage(content, s.maxWidth)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImage) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, err
	}

	key := fmt.Sprintf("gov-id/%s/%s-%s.jpg", principal.UserID, side, uuid.NewString())
	if err := s.blobs.Put(ctx, key, normalized); err != nil {
		return nil, fmt.Errorf("%w: store document: %v", ErrRemote, err)
	}
	if err := s.store.SetIdentityDocument(ctx, principal.UserID, side, key); err != nil {
		s.removeBlob(key)
		return nil, writeError(err)
	}

	if previous := current.DocumentKey(side); previous != "" && previous != key {
		s.removeBlob(previous)
	}

	saved, err := s.store.GetProfile(ctx, principal.UserID)
	if err != nil {
		return nil, readError(err)
	}
	return saved, nil
}

// IdentityDocument returns the stored picture for one side of the caller's
// identity document.
func (s *ProfileService) IdentityDocument(ctx context.Context, principal model.Principal, side model.DocumentSide) ([]byte, error) {
	if side != model.DocumentSideFront && side != model.DocumentSideBack {
		return nil, fmt.Errorf("%w: side must be front or back", ErrInvalidInput)
	}
	profile, err := s.store.GetProfile(ctx, principal.UserID)
	if err != nil {
		return nil, readError(err)
	}
	key := profile.DocumentKey(side)
	if key == "" {
		return nil, fmt.Errorf("%w: no %s identity document on file", ErrNotFound, side)
	}
	content, err := s.blobs.Get(ctx, key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: identity document %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("%w: read document: %v", ErrRemote, err)
	}
	return content, nil
}

func (s *ProfileService) ListIdentityTypes(ctx context.Context) ([]model.IdentityType, error) {
	types, err := s.store.ListIdentityTypes(ctx)
	return emptyIfNil(types, err)
}

// Drain waits for pending blob removals.
func (s *ProfileService) Drain() {
	s.cleanup.Wait()
}

func (s *ProfileService) removeBlob(key string) {
	s.cleanup.Add(1)
	go func() {
		defer s.cleanup.Done()
		ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("failed to remove superseded identity document")
		}
	}()
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fieldErr := range verrs {
		fields[fieldErr.Field()] = fieldErr.Tag()
	}
	return &ValidationError{Fields: fields}
}

func trimProfileInput(input ProfileInput) ProfileInput {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.MiddleInitial = strings.TrimSpace(input.MiddleInitial)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Suffix = strings.TrimSpace(input.Suffix)
	input.ContactNumber = strings.TrimSpace(input.ContactNumber)
	input.BirthDate = strings.TrimSpace(input.BirthDate)
	input.EmergencyContactName = strings.TrimSpace(input.EmergencyContactName)
	input.EmergencyContactNumber = strings.TrimSpace(input.EmergencyContactNumber)
	input.GovIDNumber = strings.TrimSpace(input.GovIDNumber)
	return input
}
