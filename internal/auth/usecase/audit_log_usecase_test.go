package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
	"github.com/tiago-cos/prosa-sub000/internal/clock"
)

var testAuditKey = []byte("0123456789abcdef0123456789abcdef")

func TestAuditLogUseCase_Record(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_SignsAndStores", func(t *testing.T) {
		repo := &mockAuditLogRepository{}
		signer := &mockAuditSigner{}
		uc := NewAuditLogUseCase(repo, signer, testAuditKey, clock.Fake(testNow))

		entry := &authDomain.AuditLog{CreatedAt: testNow}
		signer.On("Sign", testAuditKey, entry).Return([]byte("sig"), nil).Once()
		repo.On("Create", ctx, entry).Return(nil).Once()

		require.NoError(t, uc.Record(ctx, entry))
		assert.Equal(t, []byte("sig"), entry.Signature)
		assert.NotEqual(t, uuid.Nil, entry.ID)
		assert.Equal(t, testNow.Truncate(time.Microsecond), entry.CreatedAt)
		repo.AssertExpectations(t)
		signer.AssertExpectations(t)
	})

	t.Run("Error_RepositoryFailure", func(t *testing.T) {
		repo := &mockAuditLogRepository{}
		signer := &mockAuditSigner{}
		uc := NewAuditLogUseCase(repo, signer, testAuditKey, clock.Fake(testNow))

		signer.On("Sign", testAuditKey, mock.Anything).Return([]byte("sig"), nil).Once()
		repo.On("Create", ctx, mock.Anything).Return(errors.New("db down")).Once()

		err := uc.Record(ctx, &authDomain.AuditLog{})
		assert.ErrorContains(t, err, "failed to create audit log")
	})
}

func TestAuditLogUseCase_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_ReportsTamperedEntries", func(t *testing.T) {
		repo := &mockAuditLogRepository{}
		signer := &mockAuditSigner{}
		uc := NewAuditLogUseCase(repo, signer, testAuditKey, clock.Fake(testNow))

		good := &authDomain.AuditLog{ID: uuid.Must(uuid.NewV7())}
		bad := &authDomain.AuditLog{ID: uuid.Must(uuid.NewV7())}
		repo.On("List", ctx, 0, auditVerifyBatchSize, (*time.Time)(nil), (*time.Time)(nil)).
			Return([]*authDomain.AuditLog{good, bad}, nil).Once()
		signer.On("Verify", testAuditKey, good).Return(nil).Once()
		signer.On("Verify", testAuditKey, bad).Return(authDomain.ErrSignatureInvalid).Once()

		result, err := uc.Verify(ctx, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Checked)
		assert.Equal(t, 1, result.Valid)
		assert.Equal(t, []uuid.UUID{bad.ID}, result.Invalid)
	})

	t.Run("Success_WalksAllPages", func(t *testing.T) {
		repo := &mockAuditLogRepository{}
		signer := &mockAuditSigner{}
		uc := NewAuditLogUseCase(repo, signer, testAuditKey, clock.Fake(testNow))

		fullPage := make([]*authDomain.AuditLog, auditVerifyBatchSize)
		for i := range fullPage {
			fullPage[i] = &authDomain.AuditLog{ID: uuid.Must(uuid.NewV7())}
		}
		repo.On("List", ctx, 0, auditVerifyBatchSize, mock.Anything, mock.Anything).Return(fullPage, nil).Once()
		repo.On("List", ctx, auditVerifyBatchSize, auditVerifyBatchSize, mock.Anything, mock.Anything).
			Return([]*authDomain.AuditLog{}, nil).Once()
		signer.On("Verify", testAuditKey, mock.Anything).Return(nil)

		result, err := uc.Verify(ctx, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, auditVerifyBatchSize, result.Checked)
		assert.Empty(t, result.Invalid)
		repo.AssertExpectations(t)
	})
}

func TestAuditLogUseCase_DeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	repo := &mockAuditLogRepository{}
	uc := NewAuditLogUseCase(repo, &mockAuditSigner{}, testAuditKey, clock.Fake(testNow))

	repo.On("DeleteOlderThan", ctx, testNow.Add(-90*24*time.Hour), false).Return(int64(12), nil).Once()

	count, err := uc.DeleteOlderThan(ctx, 90, false)
	require.NoError(t, err)
	assert.Equal(t, int64(12), count)

	_, err = uc.DeleteOlderThan(ctx, -5, false)
	assert.Error(t, err)
}
