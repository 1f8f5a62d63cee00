package controllers

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-playground/validator/v10"

	"storefront/internal/backend"
	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/session"
)

// ProfileBackend is the slice of the backend surface the profile page needs.
type ProfileBackend interface {
	Me(ctx context.Context) (*models.Profile, error)
	UpdateMe(ctx context.Context, patch backend.ProfilePatch) (*models.Profile, error)
}

// MirrorStore persists the cached identity mirror.
type MirrorStore interface {
	Save(p models.Profile) error
	Load(userID string) (*models.Profile, error)
	Clear(userID string) error
}

// Publisher broadcasts cross-component signals.
type Publisher interface {
	Publish(event session.Event)
}

// ProfileView is the view-state snapshot of the profile page.
type ProfileView struct {
	Profile    *models.Profile    `json:"profile"`
	Form       models.ProfileForm `json:"form"`
	Submitting bool               `json:"submitting"`
}

// ProfileController owns the profile page state for one user: the live
// record, the editable form, and the identity mirror kept in sync with it.
type ProfileController struct {
	userID   string
	backend  ProfileBackend
	mirror   MirrorStore
	bus      Publisher
	notifier notify.Notifier
	validate *validator.Validate

	submitting atomic.Bool

	mu      sync.Mutex
	profile *models.Profile
	form    models.ProfileForm
}

// NewProfileController creates a profile controller for the given user.
func NewProfileController(userID string, b ProfileBackend, mirror MirrorStore, bus Publisher, n notify.Notifier) (*ProfileController, error) {
	v := validator.New()
	if err := models.RegisterValidations(v); err != nil {
		return nil, fmt.Errorf("failed to register form validations: %w", err)
	}
	return &ProfileController{
		userID:   userID,
		backend:  b,
		mirror:   mirror,
		bus:      bus,
		notifier: n,
		validate: v,
	}, nil
}

// Load fetches the current user, seeds the form and rewrites the identity
// mirror so other components see the fresh record.
func (c *ProfileController) Load(ctx context.Context) error {
	profile, err := c.backend.Me(ctx)
	if err != nil {
		log.Printf("Error loading profile for user %s: %v", c.userID, err)
		return err
	}

	c.mu.Lock()
	c.profile = profile
	c.form = models.FormFromProfile(*profile)
	c.mu.Unlock()

	if err := c.mirror.Save(*profile); err != nil {
		log.Printf("Error saving identity mirror for user %s: %v", c.userID, err)
	}
	c.bus.Publish(session.Event{Topic: session.TopicIdentityChanged, UserID: c.userID})
	return nil
}

// Submit validates the form locally, patches the fields that changed and
// replaces both the live record and the mirror with the server's returned
// record. A submission while another is in flight is rejected.
func (c *ProfileController) Submit(ctx context.Context, form models.ProfileForm) error {
	if err := c.validate.Struct(form); err != nil {
		c.notifier.Error("Invalid profile", formErrorMessage(err))
		return fmt.Errorf("%w: %s", ErrValidation, formErrorMessage(err))
	}

	if !c.submitting.CompareAndSwap(false, true) {
		return validationError("a submission is already in flight")
	}
	defer c.submitting.Store(false)

	patch := c.diff(form)

	updated, err := c.backend.UpdateMe(ctx, patch)
	if err != nil {
		log.Printf("Error updating profile for user %s: %v", c.userID, err)
		c.notifier.Error("Update failed", userMessage(err))
		return err
	}

	c.applyServerRecord(updated)
	c.notifier.Success("Profile updated", "Your profile has been updated.")
	return nil
}

// UpdateAvatar is an independent single-field patch carrying an image URL.
func (c *ProfileController) UpdateAvatar(ctx context.Context, avatarURL string) error {
	avatarURL = strings.TrimSpace(avatarURL)
	if avatarURL == "" {
		c.notifier.Error("Invalid avatar", "Please enter an image link.")
		return validationError("avatar link must not be empty")
	}

	updated, err := c.backend.UpdateMe(ctx, backend.ProfilePatch{Avatar: &avatarURL})
	if err != nil {
		log.Printf("Error updating avatar for user %s: %v", c.userID, err)
		c.notifier.Error("Update failed", "Could not update the avatar.")
		return err
	}

	c.applyServerRecord(updated)
	c.notifier.Success("Avatar updated", "Your avatar has been updated.")
	return nil
}

// ResetPassword is a purely local, destructive action: it erases the cached
// identity, broadcasts the clearing so other views drop their copies, and
// hands back the credential-recovery route. No backend call is made.
func (c *ProfileController) ResetPassword() string {
	if err := c.mirror.Clear(c.userID); err != nil {
		log.Printf("Error clearing identity mirror for user %s: %v", c.userID, err)
	}

	c.mu.Lock()
	c.profile = nil
	c.form = models.ProfileForm{}
	c.mu.Unlock()

	c.bus.Publish(session.Event{Topic: session.TopicIdentityChanged, UserID: c.userID})
	c.bus.Publish(session.Event{Topic: session.TopicCartChanged, UserID: c.userID})
	return "/forgot-password"
}

// View returns a snapshot of the page state for rendering.
func (c *ProfileController) View() ProfileView {
	c.mu.Lock()
	defer c.mu.Unlock()

	var profile *models.Profile
	if c.profile != nil {
		copied := *c.profile
		profile = &copied
	}
	return ProfileView{
		Profile:    profile,
		Form:       c.form,
		Submitting: c.submitting.Load(),
	}
}

// applyServerRecord replaces live state and mirror with the backend's record.
func (c *ProfileController) applyServerRecord(updated *models.Profile) {
	c.mu.Lock()
	c.profile = updated
	c.form = models.FormFromProfile(*updated)
	c.mu.Unlock()

	if err := c.mirror.Save(*updated); err != nil {
		log.Printf("Error saving identity mirror for user %s: %v", c.userID, err)
	}
	c.bus.Publish(session.Event{Topic: session.TopicIdentityChanged, UserID: c.userID})
}

// diff builds a patch of the form fields that differ from the live record.
// When no record is loaded yet the whole form is sent.
func (c *ProfileController) diff(form models.ProfileForm) backend.ProfilePatch {
	c.mu.Lock()
	defer c.mu.Unlock()

	var patch backend.ProfilePatch
	if c.profile == nil {
		patch.Fullname = &form.Fullname
		patch.Email = &form.Email
		patch.Phone = &form.Phone
		return patch
	}
	if form.Fullname != c.profile.Fullname {
		patch.Fullname = &form.Fullname
	}
	if form.Email != c.profile.Email {
		patch.Email = &form.Email
	}
	if form.Phone != c.profile.Phone {
		patch.Phone = &form.Phone
	}
	return patch
}

func formErrorMessage(err error) string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrors) == 0 {
		return "Please check the form and try again."
	}
	e := validationErrors[0]
	return fmt.Sprintf("Field '%s' failed on the '%s' rule", e.Field(), e.Tag())
}
