package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/abhishek622/filmrate/pkg/date"
	"github.com/abhishek622/filmrate/user/repository"
	"github.com/abhishek622/filmrate/user/pkg/model"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a referenced user does not exist.
var ErrNotFound = errors.New("user not found")

// ErrValidation is returned when a user candidate fails a domain invariant.
// It is always wrapped with the failing reason.
var ErrValidation = errors.New("invalid user")

// Repository is the user store the controller orchestrates.
type Repository interface {
	Exists(ctx context.Context, id int64) (bool, error)
	Get(ctx context.Context, id int64) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Put(ctx context.Context, u *model.User) (int64, error)
	Update(ctx context.Context, u *model.User) error
	AddFriendEdge(ctx context.Context, id, friendID int64) error
	RemoveFriendEdge(ctx context.Context, id, friendID int64) error
}

// Controller defines a user service controller.
type Controller struct {
	repo   Repository
	logger *zap.Logger
}

// New creates a user service controller.
func New(repo Repository, logger *zap.Logger) *Controller {
	return &Controller{repo, logger}
}

// AddUser validates and persists a new user, returning the stored record
// with its assigned id. A blank display name defaults to the login.
func (c *Controller) AddUser(ctx context.Context, u *model.User) (*model.User, error) {
	if err := validateUser(u); err != nil {
		return nil, err
	}
	candidate := *u
	if strings.TrimSpace(candidate.Name) == "" {
		candidate.Name = candidate.Login
	}
	id, err := c.repo.Put(ctx, &candidate)
	if err != nil {
		return nil, err
	}
	c.logger.Info("user added", zap.Int64("id", id), zap.String("login", candidate.Login))
	return c.repo.Get(ctx, id)
}

// UpdateUser validates and full-replaces an existing user record.
func (c *Controller) UpdateUser(ctx context.Context, u *model.User) (*model.User, error) {
	if err := validateUser(u); err != nil {
		return nil, err
	}
	ok, err := c.repo.Exists(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		c.logger.Warn("user not found", zap.Int64("id", u.ID))
		return nil, ErrNotFound
	}
	if err := c.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	c.logger.Info("user updated", zap.Int64("id", u.ID))
	return c.repo.Get(ctx, u.ID)
}

// GetUser returns the user with the given id.
func (c *Controller) GetUser(ctx context.Context, id int64) (*model.User, error) {
	u, err := c.repo.Get(ctx, id)
	if err != nil && errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return u, err
}

// ListUsers returns all users.
func (c *Controller) ListUsers(ctx context.Context) ([]model.User, error) {
	return c.repo.List(ctx)
}

// AddFriend makes two users friends, writing both directed edges, and
// returns the first user's refreshed record.
func (c *Controller) AddFriend(ctx context.Context, id, friendID int64) (*model.User, error) {
	if err := c.requireUsers(ctx, id, friendID); err != nil {
		return nil, err
	}
	if err := c.repo.AddFriendEdge(ctx, id, friendID); err != nil {
		return nil, err
	}
	if err := c.repo.AddFriendEdge(ctx, friendID, id); err != nil {
		return nil, err
	}
	c.logger.Info("friendship added", zap.Int64("id", id), zap.Int64("friendId", friendID))
	return c.repo.Get(ctx, id)
}

// RemoveFriend removes a friendship, deleting both directed edges, and
// returns the first user's refreshed record. Removal mirrors addition:
// both directions go, so the relation can never be left one-sided by this
// operation.
func (c *Controller) RemoveFriend(ctx context.Context, id, friendID int64) (*model.User, error) {
	if err := c.requireUsers(ctx, id, friendID); err != nil {
		return nil, err
	}
	if err := c.repo.RemoveFriendEdge(ctx, id, friendID); err != nil {
		return nil, err
	}
	if err := c.repo.RemoveFriendEdge(ctx, friendID, id); err != nil {
		return nil, err
	}
	c.logger.Info("friendship removed", zap.Int64("id", id), zap.Int64("friendId", friendID))
	return c.repo.Get(ctx, id)
}

// ListFriends resolves a user's friend ids to user records. Ids that no
// longer resolve are dropped rather than failing the whole listing.
func (c *Controller) ListFriends(ctx context.Context, id int64) ([]model.User, error) {
	u, err := c.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.resolve(ctx, u.Friends), nil
}

// CommonFriends returns the intersection of two users' friend sets, in the
// order of the first user's relation.
func (c *Controller) CommonFriends(ctx context.Context, id, otherID int64) ([]model.User, error) {
	u, err := c.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	other, err := c.GetUser(ctx, otherID)
	if err != nil {
		return nil, err
	}
	otherSet := make(map[int64]struct{}, len(other.Friends))
	for _, f := range other.Friends {
		otherSet[f] = struct{}{}
	}
	var common []int64
	for _, f := range u.Friends {
		if _, ok := otherSet[f]; ok {
			common = append(common, f)
		}
	}
	return c.resolve(ctx, common), nil
}

func (c *Controller) requireUsers(ctx context.Context, ids ...int64) error {
	for _, id := range ids {
		ok, err := c.repo.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
	}
	return nil
}

func (c *Controller) resolve(ctx context.Context, ids []int64) []model.User {
	users := make([]model.User, 0, len(ids))
	for _, id := range ids {
		u, err := c.repo.Get(ctx, id)
		if err != nil {
			continue
		}
		users = append(users, *u)
	}
	return users
}

func validateUser(u *model.User) error {
	if !strings.Contains(u.Email, "@") {
		return fmt.Errorf("%w: email must contain @", ErrValidation)
	}
	if u.Login == "" {
		return fmt.Errorf("%w: login must not be empty", ErrValidation)
	}
	if strings.ContainsFunc(u.Login, unicode.IsSpace) {
		return fmt.Errorf("%w: login must not contain whitespace", ErrValidation)
	}
	if u.Birthday.After(date.Today()) {
		return fmt.Errorf("%w: birthday must not be in the future", ErrValidation)
	}
	return nil
}
