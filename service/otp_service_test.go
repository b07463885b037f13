// file: service/otp_service_test.go

package service

import (
	"context"
	"database/sql"
	"errors"
	"go-trustbank/model"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockOTPRepository is a mock for IOTPRepository.
type MockOTPRepository struct{ mock.Mock }

func (m *MockOTPRepository) Create(record *model.MobileVerification) error {
	args := m.Called(record)
	return args.Error(0)
}

func (m *MockOTPRepository) GetLatestUnverified(tx *sql.Tx, userID int, mobileNumber string) (*model.MobileVerification, error) {
	args := m.Called(tx, userID, mobileNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MobileVerification), args.Error(1)
}

func (m *MockOTPRepository) MarkVerified(tx *sql.Tx, recordID int, verifiedAt time.Time) (bool, error) {
	args := m.Called(tx, recordID, verifiedAt)
	return args.Bool(0), args.Error(1)
}

// MockUserRepository is a mock for IUserRepository.
type MockUserRepository struct{ mock.Mock }

func (m *MockUserRepository) CreateUser(user *model.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByEmail(email string) (*model.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByID(userID int) (*model.User, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) SetMobileVerified(tx *sql.Tx, userID int, mobileNumber string) error {
	args := m.Called(tx, userID, mobileNumber)
	return args.Error(0)
}

// recordingSMSSender captures sent messages instead of delivering them.
type recordingSMSSender struct {
	messages []string
	err      error
}

func (s *recordingSMSSender) Send(ctx context.Context, mobileNumber, message string) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, message)
	return nil
}

const testMobile = "+15551234567"

func newOTPServiceForTest(db *sql.DB, otpRepo *MockOTPRepository, userRepo *MockUserRepository,
	cache *fakeCache, sms *recordingSMSSender) *OTPService {
	return NewOTPService(db, otpRepo, userRepo, cache, sms, 5*time.Minute, time.Minute)
}

func TestOTPService_IssueOTP(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a 6-digit code with the configured TTL", func(t *testing.T) {
		mockOTPRepo := new(MockOTPRepository)
		sms := &recordingSMSSender{}
		otpService := newOTPServiceForTest(nil, mockOTPRepo, new(MockUserRepository), newFakeCache(), sms)

		var created *model.MobileVerification
		mockOTPRepo.On("Create", mock.MatchedBy(func(record *model.MobileVerification) bool {
			created = record
			return record.UserID == 1 && record.MobileNumber == testMobile
		})).Return(nil).Once()

		before := time.Now()
		record, err := otpService.IssueOTP(ctx, 1, testMobile)

		assert.NoError(t, err)
		assert.NotNil(t, record)
		assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), created.OTPCode)
		assert.WithinDuration(t, before.Add(5*time.Minute), created.ExpiresAt, 2*time.Second)
		assert.Len(t, sms.messages, 1)
		assert.Contains(t, sms.messages[0], created.OTPCode)
		mockOTPRepo.AssertExpectations(t)
	})

	t.Run("re-issue within the cooldown is throttled", func(t *testing.T) {
		mockOTPRepo := new(MockOTPRepository)
		cache := newFakeCache()
		cache.setNXResult = false
		otpService := newOTPServiceForTest(nil, mockOTPRepo, new(MockUserRepository), cache, &recordingSMSSender{})

		_, err := otpService.IssueOTP(ctx, 1, testMobile)

		assert.Equal(t, ErrOTPRequestTooSoon, err)
		mockOTPRepo.AssertNotCalled(t, "Create", mock.Anything)
	})

	t.Run("delivery failure is reported but the record stays", func(t *testing.T) {
		mockOTPRepo := new(MockOTPRepository)
		sms := &recordingSMSSender{err: errors.New("gateway unreachable")}
		otpService := newOTPServiceForTest(nil, mockOTPRepo, new(MockUserRepository), newFakeCache(), sms)

		mockOTPRepo.On("Create", mock.AnythingOfType("*model.MobileVerification")).Return(nil).Once()

		_, err := otpService.IssueOTP(ctx, 1, testMobile)

		assert.Equal(t, ErrOTPDeliveryFailed, err)
		mockOTPRepo.AssertExpectations(t) // Create ran despite the failed send
	})
}

func TestOTPService_VerifyOTP(t *testing.T) {
	ctx := context.Background()

	activeRecord := func() *model.MobileVerification {
		return &model.MobileVerification{
			ID:           11,
			UserID:       1,
			MobileNumber: testMobile,
			OTPCode:      "123456",
			ExpiresAt:    time.Now().Add(3 * time.Minute),
		}
	}

	t.Run("correct code verifies the record and raises the trust flag", func(t *testing.T) {
		db, dbMock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mockOTPRepo := new(MockOTPRepository)
		mockUserRepo := new(MockUserRepository)
		otpService := newOTPServiceForTest(db, mockOTPRepo, mockUserRepo, newFakeCache(), &recordingSMSSender{})

		dbMock.ExpectBegin()
		mockOTPRepo.On("GetLatestUnverified", mock.Anything, 1, testMobile).Return(activeRecord(), nil).Once()
		mockOTPRepo.On("MarkVerified", mock.Anything, 11, mock.AnythingOfType("time.Time")).Return(true, nil).Once()
		mockUserRepo.On("SetMobileVerified", mock.Anything, 1, testMobile).Return(nil).Once()
		dbMock.ExpectCommit()

		err = otpService.VerifyOTP(ctx, 1, testMobile, "123456")

		assert.NoError(t, err)
		mockOTPRepo.AssertExpectations(t)
		mockUserRepo.AssertExpectations(t)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("no active record", func(t *testing.T) {
		db, dbMock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mockOTPRepo := new(MockOTPRepository)
		otpService := newOTPServiceForTest(db, mockOTPRepo, new(MockUserRepository), newFakeCache(), &recordingSMSSender{})

		dbMock.ExpectBegin()
		mockOTPRepo.On("GetLatestUnverified", mock.Anything, 1, testMobile).Return(nil, sql.ErrNoRows).Once()
		dbMock.ExpectRollback()

		err = otpService.VerifyOTP(ctx, 1, testMobile, "123456")

		assert.Equal(t, ErrNoActiveOTP, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("expired code fails even when it matches", func(t *testing.T) {
		db, dbMock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mockOTPRepo := new(MockOTPRepository)
		mockUserRepo := new(MockUserRepository)
		otpService := newOTPServiceForTest(db, mockOTPRepo, mockUserRepo, newFakeCache(), &recordingSMSSender{})

		expired := activeRecord()
		expired.ExpiresAt = time.Now().Add(-time.Minute)

		dbMock.ExpectBegin()
		mockOTPRepo.On("GetLatestUnverified", mock.Anything, 1, testMobile).Return(expired, nil).Once()
		dbMock.ExpectRollback()

		err = otpService.VerifyOTP(ctx, 1, testMobile, "123456")

		assert.Equal(t, ErrOTPExpired, err)
		mockOTPRepo.AssertNotCalled(t, "MarkVerified", mock.Anything, mock.Anything, mock.Anything)
		mockUserRepo.AssertNotCalled(t, "SetMobileVerified", mock.Anything, mock.Anything, mock.Anything)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("wrong code leaves everything untouched", func(t *testing.T) {
		db, dbMock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mockOTPRepo := new(MockOTPRepository)
		mockUserRepo := new(MockUserRepository)
		otpService := newOTPServiceForTest(db, mockOTPRepo, mockUserRepo, newFakeCache(), &recordingSMSSender{})

		dbMock.ExpectBegin()
		mockOTPRepo.On("GetLatestUnverified", mock.Anything, 1, testMobile).Return(activeRecord(), nil).Once()
		dbMock.ExpectRollback()

		err = otpService.VerifyOTP(ctx, 1, testMobile, "654321")

		assert.Equal(t, ErrOTPCodeMismatch, err)
		mockOTPRepo.AssertNotCalled(t, "MarkVerified", mock.Anything, mock.Anything, mock.Anything)
		mockUserRepo.AssertNotCalled(t, "SetMobileVerified", mock.Anything, mock.Anything, mock.Anything)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("losing the conditional update reports no active code", func(t *testing.T) {
		db, dbMock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mockOTPRepo := new(MockOTPRepository)
		mockUserRepo := new(MockUserRepository)
		otpService := newOTPServiceForTest(db, mockOTPRepo, mockUserRepo, newFakeCache(), &recordingSMSSender{})

		dbMock.ExpectBegin()
		mockOTPRepo.On("GetLatestUnverified", mock.Anything, 1, testMobile).Return(activeRecord(), nil).Once()
		// A concurrent verification flipped the flag between our read and
		// our update: zero rows affected.
		mockOTPRepo.On("MarkVerified", mock.Anything, 11, mock.AnythingOfType("time.Time")).Return(false, nil).Once()
		dbMock.ExpectRollback()

		err = otpService.VerifyOTP(ctx, 1, testMobile, "123456")

		assert.Equal(t, ErrNoActiveOTP, err)
		mockUserRepo.AssertNotCalled(t, "SetMobileVerified", mock.Anything, mock.Anything, mock.Anything)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("commit failure leaves no partial trust elevation", func(t *testing.T) {
		db, dbMock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mockOTPRepo := new(MockOTPRepository)
		mockUserRepo := new(MockUserRepository)
		otpService := newOTPServiceForTest(db, mockOTPRepo, mockUserRepo, newFakeCache(), &recordingSMSSender{})

		dbMock.ExpectBegin()
		mockOTPRepo.On("GetLatestUnverified", mock.Anything, 1, testMobile).Return(activeRecord(), nil).Once()
		mockOTPRepo.On("MarkVerified", mock.Anything, 11, mock.AnythingOfType("time.Time")).Return(true, nil).Once()
		mockUserRepo.On("SetMobileVerified", mock.Anything, 1, testMobile).Return(nil).Once()
		dbMock.ExpectCommit().WillReturnError(errors.New("commit failed"))

		err = otpService.VerifyOTP(ctx, 1, testMobile, "123456")

		assert.Error(t, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestGenerateOTPCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := generateOTPCode()
		assert.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)
	}
}
