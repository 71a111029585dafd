package background

import (
	"context"
	"errors"
	"testing"
	"time"

	"inmobiliaria/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRentalExpirer struct {
	mock.Mock
}

func (m *MockRentalExpirer) ExpireRentals(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

func TestRunRentalExpiry_PassesUTCNow(t *testing.T) {
	expirer := &MockRentalExpirer{}
	fixed := time.Date(2026, 3, 1, 9, 30, 0, 0, time.FixedZone("ART", -3*3600))
	expirer.On("ExpireRentals", mock.Anything, fixed.UTC()).Return(2, nil)

	js, err := NewJobScheduler(expirer, time.Hour, logger.NewNop())
	require.NoError(t, err)
	defer js.Stop()
	js.clock = func() time.Time { return fixed }

	n, err := js.RunRentalExpiry(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	expirer.AssertExpectations(t)
}

func TestRunRentalExpiry_ReturnsError(t *testing.T) {
	expirer := &MockRentalExpirer{}
	expirer.On("ExpireRentals", mock.Anything, mock.Anything).Return(0, errors.New("db down"))

	js, err := NewJobScheduler(expirer, time.Hour, logger.NewNop())
	require.NoError(t, err)
	defer js.Stop()

	_, err = js.RunRentalExpiry(context.Background())
	assert.Error(t, err)
}

func TestScheduler_RunsExpiryOnStart(t *testing.T) {
	expirer := &MockRentalExpirer{}
	called := make(chan struct{}, 1)
	expirer.On("ExpireRentals", mock.Anything, mock.Anything).Return(0, nil).Run(func(mock.Arguments) {
		select {
		case called <- struct{}{}:
		default:
		}
	})

	js, err := NewJobScheduler(expirer, time.Hour, logger.NewNop())
	require.NoError(t, err)
	js.Start()
	defer js.Stop()

	select {
	case <-called:
	case <-time.After(5 * time.Second):
		t.Fatal("rental expiry job did not run on start")
	}

	status := js.GetJobStatus()
	require.Len(t, status, 1)
	assert.Equal(t, rentalExpiryJob, status[0].Name)
}

func TestNewJobScheduler_RejectsInvalidInterval(t *testing.T) {
	_, err := NewJobScheduler(&MockRentalExpirer{}, 0, logger.NewNop())
	assert.Error(t, err)
}
