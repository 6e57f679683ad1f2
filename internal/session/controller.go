// Package session decides whether the user is signed in, performs
// sign-in/sign-out against the remote API and gates the admin surface.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/example/storefront-client/internal/apiclient"
	"github.com/example/storefront-client/internal/catalog"
	"github.com/example/storefront-client/internal/credential"
	"github.com/example/storefront-client/internal/ui"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoCredential     = errors.New("no stored credential to verify")
)

// State is the controller's position in the sign-in lifecycle.
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Verifying
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Verifying:
		return "verifying"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Controller owns the session state machine. The credential it establishes
// is process-wide: the resource client reads it on every outbound call.
type Controller struct {
	client   *apiclient.Client
	creds    *credential.Store
	tracker  *ui.Tracker
	notifier *ui.Notifier
	catalog  *catalog.Store
	log      *zap.Logger

	mu    sync.RWMutex
	state State
}

func NewController(client *apiclient.Client, creds *credential.Store, tracker *ui.Tracker, notifier *ui.Notifier, cat *catalog.Store, log *zap.Logger) *Controller {
	return &Controller{
		client:   client,
		creds:    creds,
		tracker:  tracker,
		notifier: notifier,
		catalog:  cat,
		log:      log.Named("session"),
	}
}

type signinResponse struct {
	Token   string `json:"token"`
	Expired int64  `json:"expired"`
}

// SignIn exchanges the account for a bearer credential and persists it with
// its expiry. Any non-2xx leaves the state Unauthenticated and returns an
// error naming the attempted username for the blocking alert.
func (c *Controller) SignIn(ctx context.Context, username, password string) error {
	c.setState(Authenticating)
	c.tracker.Begin("signing in")
	defer c.tracker.End()

	body := map[string]string{"username": username, "password": password}
	var resp signinResponse
	if err := c.client.Do(ctx, http.MethodPost, "/admin/signin", body, &resp); err != nil {
		c.setState(Unauthenticated)
		c.log.Warn("sign in rejected", zap.String("username", username), zap.Error(err))
		return fmt.Errorf("sign in failed for user %s: %w", username, err)
	}

	if err := c.creds.Save(resp.Token, resp.Expired); err != nil {
		c.setState(Unauthenticated)
		return fmt.Errorf("persist credential: %w", err)
	}

	c.setState(Authenticated)
	c.notifier.Show("signed in")
	c.log.Info("signed in", zap.String("username", username))
	return nil
}

// Verify probes the session-check endpoint with the stored credential. On
// success it becomes Authenticated and populates the catalog with page 1;
// on failure it clears the credential so the caller redirects to sign-in.
func (c *Controller) Verify(ctx context.Context) error {
	if _, err := c.creds.Load(); err != nil {
		c.setState(Unauthenticated)
		return fmt.Errorf("%w: %w", ErrNoCredential, err)
	}

	c.setState(Verifying)
	c.tracker.Begin("checking session")
	defer c.tracker.End()

	if err := c.client.Do(ctx, http.MethodPost, "/api/user/check", nil, nil); err != nil {
		c.setState(Unauthenticated)
		if clearErr := c.creds.Clear(); clearErr != nil {
			c.log.Error("clearing invalid credential failed", zap.Error(clearErr))
		}
		c.log.Warn("session check failed", zap.Error(err))
		return fmt.Errorf("verify session: %w", err)
	}

	c.setState(Authenticated)
	return c.catalog.FetchPage(ctx, 1)
}

// SignOut tells the server, then drops the local credential. The local
// clear happens even when the network call fails.
func (c *Controller) SignOut(ctx context.Context) error {
	c.tracker.Begin("signing out")
	defer c.tracker.End()

	netErr := c.client.Do(ctx, http.MethodPost, "/logout", nil, nil)
	if netErr != nil {
		c.log.Warn("logout call failed", zap.Error(netErr))
	}

	if err := c.creds.Clear(); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	c.setState(Unauthenticated)
	c.notifier.Show("signed out")
	return netErr
}

// Gate returns ErrNotAuthenticated unless the session is established; the
// admin views call it before rendering.
func (c *Controller) Gate() error {
	if c.State() != Authenticated {
		return ErrNotAuthenticated
	}
	return nil
}

func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	c.mu.Unlock()
	if prev != s {
		c.log.Debug("state changed", zap.Stringer("from", prev), zap.Stringer("to", s))
	}
}
