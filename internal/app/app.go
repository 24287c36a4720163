// Package app wires the client, session store, menu and form into one
// explicit application context that front ends pass around.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/pipeline-entry/internal/client"
	"github.com/pipeline-entry/internal/config"
	"github.com/pipeline-entry/internal/form"
	"github.com/pipeline-entry/internal/menu"
	"github.com/pipeline-entry/internal/models"
	"github.com/pipeline-entry/internal/service"
	"github.com/pipeline-entry/internal/session"
	"github.com/pipeline-entry/internal/validation"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidCredentials = errors.New("credentials are incomplete")
	ErrLoginFailed        = errors.New("invalid username or password")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrUnknownOption      = errors.New("unknown menu option")
	ErrFormUnavailable    = errors.New("role cannot open the record form")
)

// App holds everything a front end needs for one user session
type App struct {
	Config  *config.Config
	Client  *client.Client
	Session *session.Store

	log zerolog.Logger
}

// New builds the application context from configuration
func New(cfg *config.Config, log zerolog.Logger) *App {
	c := client.New(cfg.API, cfg.Upload, log)
	store := session.NewStore(c, log)
	c.SetTokenSource(store)

	return &App{
		Config:  cfg,
		Client:  c,
		Session: store,
		log:     log,
	}
}

// Login checks the credentials locally and only then exchanges them with the
// API. When the returned ErrorSet is not empty no request was made.
func (a *App) Login(ctx context.Context, username, password string) (validation.ErrorSet, error) {
	if errs := validation.ValidateCredentials(username, password); !errs.Empty() {
		return errs, ErrInvalidCredentials
	}
	if !a.Session.Login(ctx, username, password) {
		return nil, ErrLoginFailed
	}
	return nil, nil
}

// Dashboard returns the menu of the logged-in user
func (a *App) Dashboard() ([]models.MenuOption, error) {
	if !a.Session.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	return menu.OptionsFor(a.Session.Role()), nil
}

// Activate resolves a dashboard tile by id for the logged-in user
func (a *App) Activate(id int) (models.MenuOption, menu.Activation, error) {
	if !a.Session.IsAuthenticated() {
		return models.MenuOption{}, menu.Activation{}, ErrNotAuthenticated
	}
	option, ok := menu.Find(a.Session.Role(), id)
	if !ok {
		return models.MenuOption{}, menu.Activation{}, fmt.Errorf("%w: %d", ErrUnknownOption, id)
	}
	return option, menu.Activate(option), nil
}

// NewForm mounts an empty record form for the logged-in user. Only roles with
// an enabled form tile may open it.
func (a *App) NewForm(picker service.Picker, opts ...form.Option) (*form.Form, error) {
	if !a.Session.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	role := a.Session.Role()
	if _, ok := menu.FormOption(role); !ok {
		return nil, fmt.Errorf("%w: %s", ErrFormUnavailable, role)
	}
	return form.New(a.Client, picker, a.log, opts...), nil
}
