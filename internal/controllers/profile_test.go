package controllers_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"storefront/internal/backend"
	"storefront/internal/controllers"
	"storefront/internal/models"
	"storefront/internal/session"
)

// MockProfileBackend is a mock implementation of controllers.ProfileBackend.
type MockProfileBackend struct {
	mock.Mock
}

func (m *MockProfileBackend) Me(ctx context.Context) (*models.Profile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileBackend) UpdateMe(ctx context.Context, patch backend.ProfilePatch) (*models.Profile, error) {
	args := m.Called(ctx, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

// MockMirrorStore is a mock implementation of controllers.MirrorStore.
type MockMirrorStore struct {
	mock.Mock
}

func (m *MockMirrorStore) Save(p models.Profile) error {
	args := m.Called(p)
	return args.Error(0)
}

func (m *MockMirrorStore) Load(userID string) (*models.Profile, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockMirrorStore) Clear(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

// recorderBus records published events.
type recorderBus struct {
	mu     sync.Mutex
	events []session.Event
}

func (r *recorderBus) Publish(event session.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorderBus) topics() []session.Topic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]session.Topic, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Topic)
	}
	return out
}

func janeProfile() *models.Profile {
	return &models.Profile{
		ID:       "user-1",
		Username: "jane",
		Fullname: "Jane Smith",
		Email:    "jane@example.com",
		Phone:    "0912345678",
		Avatar:   "https://cdn.example.com/a.png",
	}
}

func newProfileController(t *testing.T) (*controllers.ProfileController, *MockProfileBackend, *MockMirrorStore, *recorderBus, *recorderNotifier) {
	t.Helper()
	mockB := new(MockProfileBackend)
	mirror := new(MockMirrorStore)
	bus := &recorderBus{}
	notifier := &recorderNotifier{}
	ctrl, err := controllers.NewProfileController("user-1", mockB, mirror, bus, notifier)
	assert.NoError(t, err)
	return ctrl, mockB, mirror, bus, notifier
}

func TestProfileController_Load(t *testing.T) {
	ctrl, mockB, mirror, bus, _ := newProfileController(t)

	profile := janeProfile()
	mockB.On("Me", mock.Anything).Return(profile, nil).Once()
	mirror.On("Save", *profile).Return(nil).Once()

	assert.NoError(t, ctrl.Load(context.Background()))

	view := ctrl.View()
	assert.Equal(t, "jane", view.Profile.Username)
	assert.Equal(t, models.ProfileForm{
		Fullname: "Jane Smith",
		Email:    "jane@example.com",
		Phone:    "0912345678",
	}, view.Form)
	assert.Equal(t, []session.Topic{session.TopicIdentityChanged}, bus.topics())
	mockB.AssertExpectations(t)
	mirror.AssertExpectations(t)
}

func TestProfileController_SubmitRejectsBadPhoneLocally(t *testing.T) {
	ctrl, mockB, _, _, notifier := newProfileController(t)

	err := ctrl.Submit(context.Background(), models.ProfileForm{
		Fullname: "Jane Smith",
		Email:    "jane@example.com",
		Phone:    "12345",
	})

	assert.True(t, controllers.IsValidation(err))
	assert.Len(t, notifier.errors, 1)
	mockB.AssertNotCalled(t, "UpdateMe", mock.Anything, mock.Anything)
}

func TestProfileController_SubmitPatchesChangedFieldsOnly(t *testing.T) {
	ctrl, mockB, mirror, bus, notifier := newProfileController(t)

	profile := janeProfile()
	mockB.On("Me", mock.Anything).Return(profile, nil).Once()
	mirror.On("Save", mock.Anything).Return(nil)
	assert.NoError(t, ctrl.Load(context.Background()))

	// Only the edited field travels in the patch; the server's returned
	// record (including any normalization) replaces the live state.
	form := models.FormFromProfile(*profile)
	form.Fullname = "Jane A. Smith"
	updated := janeProfile()
	updated.Fullname = "Jane A. Smith"
	mockB.On("UpdateMe", mock.Anything, mock.MatchedBy(func(p backend.ProfilePatch) bool {
		return p.Fullname != nil && *p.Fullname == "Jane A. Smith" &&
			p.Email == nil && p.Phone == nil && p.Avatar == nil
	})).Return(updated, nil).Once()

	assert.NoError(t, ctrl.Submit(context.Background(), form))

	view := ctrl.View()
	assert.Equal(t, "Jane A. Smith", view.Profile.Fullname)
	assert.Equal(t, "Jane A. Smith", view.Form.Fullname)
	assert.Len(t, notifier.successes, 1)
	// Load and Submit both rewrote the mirror and signalled the change.
	assert.Equal(t, []session.Topic{session.TopicIdentityChanged, session.TopicIdentityChanged}, bus.topics())
	mockB.AssertExpectations(t)
}

func TestProfileController_SubmitBackendFailure(t *testing.T) {
	ctrl, mockB, mirror, _, notifier := newProfileController(t)

	profile := janeProfile()
	mockB.On("Me", mock.Anything).Return(profile, nil).Once()
	mirror.On("Save", mock.Anything).Return(nil).Once()
	assert.NoError(t, ctrl.Load(context.Background()))

	mockB.On("UpdateMe", mock.Anything, mock.Anything).
		Return(nil, &backend.Error{Status: 422, Message: "email already in use"}).Once()

	form := models.FormFromProfile(*profile)
	form.Email = "taken@example.com"
	assert.Error(t, ctrl.Submit(context.Background(), form))

	// Live record keeps the pre-edit shape; only the one Save from Load ran.
	assert.Equal(t, "jane@example.com", ctrl.View().Profile.Email)
	mirror.AssertNumberOfCalls(t, "Save", 1)
	assert.Len(t, notifier.errors, 1)
	assert.Contains(t, notifier.errors[0], "email already in use")
}

func TestProfileController_UpdateAvatar(t *testing.T) {
	ctrl, mockB, mirror, _, notifier := newProfileController(t)

	err := ctrl.UpdateAvatar(context.Background(), "  ")
	assert.True(t, controllers.IsValidation(err))
	mockB.AssertNotCalled(t, "UpdateMe", mock.Anything, mock.Anything)

	updated := janeProfile()
	updated.Avatar = "https://cdn.example.com/new.png"
	mockB.On("UpdateMe", mock.Anything, mock.MatchedBy(func(p backend.ProfilePatch) bool {
		return p.Avatar != nil && *p.Avatar == "https://cdn.example.com/new.png" && p.Fullname == nil
	})).Return(updated, nil).Once()
	mirror.On("Save", *updated).Return(nil).Once()

	assert.NoError(t, ctrl.UpdateAvatar(context.Background(), "https://cdn.example.com/new.png"))
	assert.Equal(t, "https://cdn.example.com/new.png", ctrl.View().Profile.Avatar)
	assert.Len(t, notifier.successes, 1)
	mockB.AssertExpectations(t)
	mirror.AssertExpectations(t)
}

func TestProfileController_ResetPassword(t *testing.T) {
	ctrl, mockB, mirror, bus, _ := newProfileController(t)

	profile := janeProfile()
	mockB.On("Me", mock.Anything).Return(profile, nil).Once()
	mirror.On("Save", mock.Anything).Return(nil).Once()
	assert.NoError(t, ctrl.Load(context.Background()))

	mirror.On("Clear", "user-1").Return(nil).Once()

	redirect := ctrl.ResetPassword()

	assert.Equal(t, "/forgot-password", redirect)
	assert.Nil(t, ctrl.View().Profile)
	assert.Equal(t, models.ProfileForm{}, ctrl.View().Form)
	// Both resync signals fire so other views drop their copies.
	assert.Equal(t, []session.Topic{
		session.TopicIdentityChanged,
		session.TopicIdentityChanged,
		session.TopicCartChanged,
	}, bus.topics())
	// No backend call is involved in the reset.
	mockB.AssertNumberOfCalls(t, "UpdateMe", 0)
	mirror.AssertExpectations(t)
}
