package user

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrUserDataInvalid = errors.New("invalid user data")

type Service interface {
	GetCurrentUser(ctx context.Context) (User, error)
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	// FindOrCreate returns the user with uid, registering it on first sign-in.
	FindOrCreate(ctx context.Context, candidate User) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
}

type UserServiceImpl struct {
	repo Repo
}

func NewUserService(repo Repo) *UserServiceImpl {
	return &UserServiceImpl{repo: repo}
}

func (u *UserServiceImpl) GetCurrentUser(ctx context.Context) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return u.repo.GetUser(ctx, userId)
}

func (u *UserServiceImpl) GetUser(ctx context.Context, id int) (User, error) {
	return u.repo.GetUser(ctx, id)
}

func (u *UserServiceImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	return u.repo.GetUserByUid(ctx, uid)
}

func (u *UserServiceImpl) FindOrCreate(ctx context.Context, candidate User) (User, error) {
	if candidate.Uid == "" {
		return User{}, fmt.Errorf("%w: uid is required", ErrUserDataInvalid)
	}
	existing, err := u.repo.GetUserByUid(ctx, candidate.Uid)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return User{}, fmt.Errorf("failed to look up user %s: %w", candidate.Uid, err)
	}

	if candidate.Username == "" {
		candidate.Username = candidate.Uid
	}
	if candidate.DisplayName == "" {
		candidate.DisplayName = candidate.Username
	}
	if err := validate(candidate); err != nil {
		return User{}, err
	}

	id, err := u.repo.CreateUser(ctx, candidate)
	if err != nil {
		return User{}, err
	}
	return u.repo.GetUser(ctx, id)
}

func (u *UserServiceImpl) UpdateUser(ctx context.Context, user User) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if err := validate(user); err != nil {
		return User{}, err
	}
	return u.repo.UpdateUser(ctx, userId, user)
}

func validate(user User) error {
	if user.DisplayName == "" {
		return fmt.Errorf("%w: display name is required", ErrUserDataInvalid)
	}
	if user.Settings.Timezone != "" {
		if _, err := time.LoadLocation(user.Settings.Timezone); err != nil {
			return fmt.Errorf("%w: unknown timezone %s", ErrUserDataInvalid, user.Settings.Timezone)
		}
	}
	return nil
}
