package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/domain"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/repository"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/validate"
)

// UserService provides the profile store consulted at checkout for the
// shipping snapshot.
type UserService interface {
	GetProfile(ctx context.Context, userID string) (*domain.User, error)
	UpsertProfile(ctx context.Context, userID string, params ProfileParams) (*domain.User, error)
}

// ProfileParams carries the writable profile fields.
type ProfileParams struct {
	Email      string
	FirstName  string
	LastName   string
	Street     *string
	City       *string
	State      *string
	PostalCode *string
	Country    *string
	Phone      *string
}

type userService struct {
	repo repository.Querier
}

// NewUserService creates a new UserService instance
func NewUserService(repo repository.Querier) (UserService, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	return &userService{repo: repo}, nil
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	const op = "user.get"

	id, err := validate.UUID(op, "user ID", userID)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, domain.Internal(err, op, "failed to load user")
	}
	return &user, nil
}

func (s *userService) UpsertProfile(ctx context.Context, userID string, params ProfileParams) (*domain.User, error) {
	const op = "user.upsert"

	id, err := validate.UUID(op, "user ID", userID)
	if err != nil {
		return nil, err
	}
	if params.Email == "" {
		return nil, domain.Invalid(op, "email is required")
	}

	user, err := s.repo.UpsertUser(ctx, repository.UpsertUserParams{
		ID:         id,
		Email:      params.Email,
		FirstName:  params.FirstName,
		LastName:   params.LastName,
		Street:     pgTextFromPtr(params.Street),
		City:       pgTextFromPtr(params.City),
		State:      pgTextFromPtr(params.State),
		PostalCode: pgTextFromPtr(params.PostalCode),
		Country:    pgTextFromPtr(params.Country),
		Phone:      pgTextFromPtr(params.Phone),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to save user profile")
	}
	return &user, nil
}
