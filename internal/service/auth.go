package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"stocktracker/internal/database"
	"stocktracker/internal/models"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService struct {
	repo *database.Repo
	log  *logrus.Logger
	cost int
}

func NewAuthService(r *database.Repo, log *logrus.Logger) *AuthService {
	return &AuthService{repo: r, log: log, cost: bcrypt.DefaultCost}
}

// Signup registers username. It returns database.ErrUsernameTaken when the
// name is in use.
func (a *AuthService) Signup(ctx context.Context, username, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.User{}, ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return models.User{}, err
	}
	a.log.Debugf("inserting new user: %s", username)
	u, err := a.repo.CreateUser(ctx, username, string(hash))
	if err != nil {
		return models.User{}, err
	}
	return models.User{ID: u.ID, Username: u.Username}, nil
}

func (a *AuthService) Login(ctx context.Context, username, password string) (models.User, error) {
	u, err := a.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, database.ErrNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return models.User{ID: u.ID, Username: u.Username}, nil
}
