package waitlist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/carbiooai/carbioo-api/internal/log"
	"github.com/carbiooai/carbioo-api/internal/models"
	"github.com/carbiooai/carbioo-api/internal/notifications"
	apperrors "github.com/carbiooai/carbioo-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const issuedToken = "tok_0123456789abcdef"

type serviceFixture struct {
	repo     *MockWaitlistRepository
	notifier *notifications.MockSender
	service  WaitlistService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := NewMockWaitlistRepository(ctrl)
	notifier := notifications.NewMockSender(ctrl)

	service := NewWaitlistService(log.NewDiscardLogger(), repo, notifier, 24*time.Hour,
		WithClock(func() time.Time { return fixedNow }),
		WithTokenGenerator(func() (string, error) { return issuedToken, nil }),
	)

	return &serviceFixture{repo: repo, notifier: notifier, service: service}
}

func validSignup() *SignupRequest {
	return &SignupRequest{
		Email:               "a@x.com",
		FirstName:           "Jo",
		LastName:            "Li",
		NonProfessionalRole: "homeowner",
	}
}

func notFound() error {
	return apperrors.NewNotFoundError("waitlist entry not found", nil)
}

func pendingEntry(id uint, expiry time.Time) *models.WaitlistEntry {
	token := issuedToken
	entry := &models.WaitlistEntry{
		Email:                   "a@x.com",
		FirstName:               "Jo",
		LastName:                "Li",
		VerificationToken:       &token,
		VerificationTokenExpiry: &expiry,
	}
	entry.ID = id
	return entry
}

func TestWaitlistService_Signup_NewEmail(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	var created *models.WaitlistEntry

	gomock.InOrder(
		f.repo.EXPECT().FindEntryByEmail(gomock.Any(), "a@x.com").Return(nil, notFound()),
		f.repo.EXPECT().CreateEntry(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, entry *models.WaitlistEntry) error {
				entry.ID = 7
				created = entry
				return nil
			}),
		f.notifier.EXPECT().SendVerification(gomock.Any(), "a@x.com", "Jo", issuedToken).Return(nil),
	)

	req := validSignup()
	req.Email = "  A@X.com "

	response, err := f.service.Signup(ctx, req)

	require.NoError(t, err)
	assert.True(t, response.Created)
	assert.True(t, response.Success)
	assert.True(t, response.PendingVerification)

	require.NotNil(t, created)
	assert.False(t, created.IsVerified)
	require.NotNil(t, created.VerificationToken)
	assert.Equal(t, issuedToken, *created.VerificationToken)
	require.NotNil(t, created.VerificationTokenExpiry)
	assert.Equal(t, fixedNow.Add(24*time.Hour), *created.VerificationTokenExpiry)
	require.NotNil(t, created.NonProfessionalRole)
	assert.Equal(t, "homeowner", *created.NonProfessionalRole)
	assert.Nil(t, created.Profession)
}

func TestWaitlistService_Signup_DeliveryFailureRollsBack(t *testing.T) {
	f := newServiceFixture(t)

	gomock.InOrder(
		f.repo.EXPECT().FindEntryByEmail(gomock.Any(), "a@x.com").Return(nil, notFound()),
		f.repo.EXPECT().CreateEntry(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, entry *models.WaitlistEntry) error {
				entry.ID = 11
				return nil
			}),
		f.notifier.EXPECT().SendVerification(gomock.Any(), "a@x.com", "Jo", issuedToken).Return(errors.New("smtp: 451 try later")),
		f.repo.EXPECT().DeleteEntry(gomock.Any(), uint(11)).Return(nil),
	)

	response, err := f.service.Signup(context.Background(), validSignup())

	assert.Nil(t, response)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeDeliveryFailed, apperrors.GetErrorType(err))
	assert.Equal(t, 500, apperrors.HTTPStatusCode(err))
}

func TestWaitlistService_Signup_DuplicateKeyIsAlreadyOnList(t *testing.T) {
	f := newServiceFixture(t)

	f.repo.EXPECT().FindEntryByEmail(gomock.Any(), "a@x.com").Return(nil, notFound())
	f.repo.EXPECT().CreateEntry(gomock.Any(), gomock.Any()).
		Return(apperrors.NewConflictError("waitlist entry with this email already exists", nil))

	response, err := f.service.Signup(context.Background(), validSignup())

	require.NoError(t, err)
	assert.False(t, response.Created)
	assert.True(t, response.AlreadyExists)
}

func TestWaitlistService_Signup_AlreadyVerifiedIsUntouched(t *testing.T) {
	f := newServiceFixture(t)

	entry := &models.WaitlistEntry{Email: "a@x.com", FirstName: "Jo", LastName: "Li", IsVerified: true}
	entry.ID = 3

	// No renew, create or send expectations: any such call fails the test.
	f.repo.EXPECT().FindEntryByEmail(gomock.Any(), "a@x.com").Return(entry, nil)

	response, err := f.service.Signup(context.Background(), validSignup())

	require.NoError(t, err)
	assert.False(t, response.Created)
	assert.True(t, response.AlreadyExists)
	require.NotNil(t, response.Verified)
	assert.True(t, *response.Verified)
}

func TestWaitlistService_Signup_UnverifiedRenewsCycle(t *testing.T) {
	f := newServiceFixture(t)

	existing := pendingEntry(5, fixedNow.Add(-time.Hour))

	gomock.InOrder(
		f.repo.EXPECT().FindEntryByEmail(gomock.Any(), "a@x.com").Return(existing, nil),
		f.repo.EXPECT().RenewVerification(gomock.Any(), uint(5), "Joanna", "Li", issuedToken, fixedNow.Add(24*time.Hour)).Return(true, nil),
		f.notifier.EXPECT().SendVerification(gomock.Any(), "a@x.com", "Joanna", issuedToken).Return(nil),
	)

	req := validSignup()
	req.FirstName = "Joanna"

	response, err := f.service.Signup(context.Background(), req)

	require.NoError(t, err)
	assert.False(t, response.Created)
	assert.True(t, response.PendingVerification)
	assert.True(t, response.AlreadyExists)
	require.NotNil(t, response.Verified)
	assert.False(t, *response.Verified)
}

func TestWaitlistService_Signup_UnverifiedDeliveryFailureKeepsEntry(t *testing.T) {
	f := newServiceFixture(t)

	f.repo.EXPECT().FindEntryByEmail(gomock.Any(), "a@x.com").Return(pendingEntry(5, fixedNow), nil)
	f.repo.EXPECT().RenewVerification(gomock.Any(), uint(5), "Jo", "Li", issuedToken, gomock.Any()).Return(true, nil)
	f.notifier.EXPECT().SendVerification(gomock.Any(), "a@x.com", "Jo", issuedToken).Return(errors.New("connection refused"))

	_, err := f.service.Signup(context.Background(), validSignup())

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeDeliveryFailed, apperrors.GetErrorType(err))
}

func TestWaitlistService_Signup_ValidationHasNoSideEffects(t *testing.T) {
	cases := map[string]func(*SignupRequest){
		"malformed email":        func(r *SignupRequest) { r.Email = "bad-email" },
		"disposable domain":      func(r *SignupRequest) { r.Email = "jo@mailinator.com" },
		"short first name":       func(r *SignupRequest) { r.FirstName = " J " },
		"short last name":        func(r *SignupRequest) { r.LastName = "L" },
		"professional no trade":  func(r *SignupRequest) { r.IsConstructionProfessional = true },
		"unknown profession":     func(r *SignupRequest) { r.IsConstructionProfessional = true; r.Profession = "astronaut" },
		"other without details":  func(r *SignupRequest) { r.IsConstructionProfessional = true; r.Profession = "other" },
		"other with blank field": func(r *SignupRequest) { r.IsConstructionProfessional = true; r.Profession = "other"; r.ProfessionOther = "   " },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newServiceFixture(t)

			req := validSignup()
			mutate(req)

			response, err := f.service.Signup(context.Background(), req)

			assert.Nil(t, response)
			require.Error(t, err)
			assert.Equal(t, 400, apperrors.HTTPStatusCode(err))
			assert.NotEmpty(t, apperrors.GetHumanReadableMessage(err))
		})
	}
}

func TestWaitlistService_Signup_ProfessionalOther(t *testing.T) {
	f := newServiceFixture(t)

	var created *models.WaitlistEntry
	f.repo.EXPECT().FindEntryByEmail(gomock.Any(), "a@x.com").Return(nil, notFound())
	f.repo.EXPECT().CreateEntry(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, entry *models.WaitlistEntry) error {
			created = entry
			return nil
		})
	f.notifier.EXPECT().SendVerification(gomock.Any(), "a@x.com", "Jo", issuedToken).Return(nil)

	req := validSignup()
	req.IsConstructionProfessional = true
	req.Profession = "other"
	req.ProfessionOther = "Glazier"

	_, err := f.service.Signup(context.Background(), req)
	require.NoError(t, err)

	require.NotNil(t, created)
	assert.True(t, created.IsConstructionProfessional)
	assert.Equal(t, "other", *created.Profession)
	assert.Equal(t, "Glazier", *created.ProfessionOther)
	assert.Nil(t, created.NonProfessionalRole)
}

func TestWaitlistService_VerifyToken(t *testing.T) {
	ctx := context.Background()

	t.Run("success sends one welcome email", func(t *testing.T) {
		f := newServiceFixture(t)

		entry := pendingEntry(9, fixedNow.Add(time.Minute))
		gomock.InOrder(
			f.repo.EXPECT().FindEntryByToken(gomock.Any(), issuedToken).Return(entry, nil),
			f.repo.EXPECT().MarkVerified(gomock.Any(), uint(9), issuedToken, fixedNow).Return(true, nil),
			f.notifier.EXPECT().SendWelcome(gomock.Any(), "a@x.com", "Jo").Return(nil).Times(1),
		)

		result := f.service.VerifyToken(ctx, issuedToken)
		assert.Equal(t, VerificationSuccess, result.Status)
		assert.NotEmpty(t, result.Message)
	})

	t.Run("welcome failure still verifies", func(t *testing.T) {
		f := newServiceFixture(t)

		f.repo.EXPECT().FindEntryByToken(gomock.Any(), issuedToken).Return(pendingEntry(9, fixedNow.Add(time.Hour)), nil)
		f.repo.EXPECT().MarkVerified(gomock.Any(), uint(9), issuedToken, fixedNow).Return(true, nil)
		f.notifier.EXPECT().SendWelcome(gomock.Any(), "a@x.com", "Jo").Return(errors.New("smtp down"))

		assert.Equal(t, VerificationSuccess, f.service.VerifyToken(ctx, issuedToken).Status)
	})

	t.Run("expiry at exactly now is expired", func(t *testing.T) {
		f := newServiceFixture(t)

		f.repo.EXPECT().FindEntryByToken(gomock.Any(), issuedToken).Return(pendingEntry(9, fixedNow), nil)

		assert.Equal(t, VerificationExpired, f.service.VerifyToken(ctx, issuedToken).Status)
	})

	t.Run("past expiry is expired", func(t *testing.T) {
		f := newServiceFixture(t)

		f.repo.EXPECT().FindEntryByToken(gomock.Any(), issuedToken).Return(pendingEntry(9, fixedNow.Add(-48*time.Hour)), nil)

		assert.Equal(t, VerificationExpired, f.service.VerifyToken(ctx, issuedToken).Status)
	})

	t.Run("unknown token is invalid", func(t *testing.T) {
		f := newServiceFixture(t)

		f.repo.EXPECT().FindEntryByToken(gomock.Any(), "nope").Return(nil, notFound())

		assert.Equal(t, VerificationInvalid, f.service.VerifyToken(ctx, "nope").Status)
	})

	t.Run("blank token is invalid without lookup", func(t *testing.T) {
		f := newServiceFixture(t)

		assert.Equal(t, VerificationInvalid, f.service.VerifyToken(ctx, "   ").Status)
	})

	t.Run("verified entry reports already", func(t *testing.T) {
		f := newServiceFixture(t)

		entry := pendingEntry(9, fixedNow.Add(time.Hour))
		entry.IsVerified = true
		f.repo.EXPECT().FindEntryByToken(gomock.Any(), issuedToken).Return(entry, nil)

		assert.Equal(t, VerificationAlready, f.service.VerifyToken(ctx, issuedToken).Status)
	})

	t.Run("lost race is invalid and sends nothing", func(t *testing.T) {
		f := newServiceFixture(t)

		f.repo.EXPECT().FindEntryByToken(gomock.Any(), issuedToken).Return(pendingEntry(9, fixedNow.Add(time.Hour)), nil)
		f.repo.EXPECT().MarkVerified(gomock.Any(), uint(9), issuedToken, fixedNow).Return(false, nil)

		assert.Equal(t, VerificationInvalid, f.service.VerifyToken(ctx, issuedToken).Status)
	})

	t.Run("database failure is error", func(t *testing.T) {
		f := newServiceFixture(t)

		f.repo.EXPECT().FindEntryByToken(gomock.Any(), issuedToken).
			Return(nil, apperrors.NewDatabaseError("failed to fetch waitlist entry", errors.New("conn reset")))

		assert.Equal(t, VerificationError, f.service.VerifyToken(ctx, issuedToken).Status)
	})
}

func TestWaitlistService_ResendVerification(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email is not found", func(t *testing.T) {
		f := newServiceFixture(t)

		f.repo.EXPECT().FindEntryByEmail(gomock.Any(), "a@x.com").Return(nil, notFound())

		_, err := f.service.ResendVerification(ctx, &ResendVerificationRequest{Email: "A@x.com"})
		require.Error(t, err)
		assert.Equal(t, 404, apperrors.HTTPStatusCode(err))
	})

	t.Run("verified entry is reported", func(t *testing.T) {
		f := newServiceFixture(t)

		entry := pendingEntry(2, fixedNow)
		entry.IsVerified = true
		f.repo.EXPECT().FindEntryByEmail(gomock.Any(), "a@x.com").Return(entry, nil)

		response, err := f.service.ResendVerification(ctx, &ResendVerificationRequest{Email: "a@x.com"})
		require.NoError(t, err)
		assert.True(t, response.Verified)
		assert.False(t, response.Success)
	})

	t.Run("pending entry gets a new token", func(t *testing.T) {
		f := newServiceFixture(t)

		f.repo.EXPECT().FindEntryByEmail(gomock.Any(), "a@x.com").Return(pendingEntry(2, fixedNow.Add(-time.Hour)), nil)
		f.repo.EXPECT().RenewVerification(gomock.Any(), uint(2), "Jo", "Li", issuedToken, fixedNow.Add(24*time.Hour)).Return(true, nil)
		f.notifier.EXPECT().SendVerification(gomock.Any(), "a@x.com", "Jo", issuedToken).Return(nil)

		response, err := f.service.ResendVerification(ctx, &ResendVerificationRequest{Email: "a@x.com"})
		require.NoError(t, err)
		assert.True(t, response.Success)
	})

	t.Run("malformed email is rejected", func(t *testing.T) {
		f := newServiceFixture(t)

		_, err := f.service.ResendVerification(ctx, &ResendVerificationRequest{Email: "nope"})
		require.Error(t, err)
		assert.Equal(t, 400, apperrors.HTTPStatusCode(err))
	})
}

func TestWaitlistService_CheckEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid", func(t *testing.T) {
		f := newServiceFixture(t)

		response, err := f.service.CheckEmail(ctx, &CheckEmailRequest{Email: "bad-email"})
		require.NoError(t, err)
		assert.False(t, response.Valid)
		assert.Nil(t, response.Exists)
	})

	t.Run("disposable", func(t *testing.T) {
		f := newServiceFixture(t)

		response, err := f.service.CheckEmail(ctx, &CheckEmailRequest{Email: "jo@yopmail.com"})
		require.NoError(t, err)
		assert.False(t, response.Valid)
		assert.Contains(t, response.Message, "Disposable")
	})

	t.Run("free", func(t *testing.T) {
		f := newServiceFixture(t)

		f.repo.EXPECT().FindEntryByEmail(gomock.Any(), "a@x.com").Return(nil, notFound())

		response, err := f.service.CheckEmail(ctx, &CheckEmailRequest{Email: "A@X.COM"})
		require.NoError(t, err)
		assert.True(t, response.Valid)
		assert.False(t, *response.Exists)
	})

	t.Run("pending", func(t *testing.T) {
		f := newServiceFixture(t)

		f.repo.EXPECT().FindEntryByEmail(gomock.Any(), "a@x.com").Return(pendingEntry(1, fixedNow), nil)

		response, err := f.service.CheckEmail(ctx, &CheckEmailRequest{Email: "a@x.com"})
		require.NoError(t, err)
		assert.True(t, *response.Exists)
		assert.False(t, *response.Verified)
	})
}

func TestWaitlistService_CountVerified(t *testing.T) {
	f := newServiceFixture(t)

	f.repo.EXPECT().CountVerifiedEntries(gomock.Any()).Return(int64(42), nil)

	response, err := f.service.CountVerified(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), response.Count)
}

func TestWaitlistService_PurgeExpiredTokens(t *testing.T) {
	f := newServiceFixture(t)

	f.repo.EXPECT().ClearExpiredTokens(gomock.Any(), fixedNow).Return(int64(3), nil)

	cleared, err := f.service.PurgeExpiredTokens(context.Background(), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cleared)
}
