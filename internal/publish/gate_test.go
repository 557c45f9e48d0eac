package publish

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"anycomp/internal/apiclient"
	"anycomp/internal/domain"
	"anycomp/internal/querycache"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, id string) (*domain.Specialist, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Specialist), args.Error(1)
}

func TestGate_Published(t *testing.T) {
	ctx := context.Background()
	p := new(mockPublisher)
	p.On("Publish", mock.Anything, "s1").Return(&domain.Specialist{ID: "s1", IsDraft: false}, nil)
	cache := querycache.NewMemory(time.Minute)
	require.NoError(t, cache.Set(ctx, querycache.Key(querycache.KeySpecialists, "s1"), "stale"))

	out := NewGate(p, cache, zerolog.Nop()).Publish(ctx, "s1")

	assert.True(t, out.OK())
	assert.Equal(t, "/specialists/s1", out.RedirectPath)
	assert.Equal(t, "s1", out.Specialist.ID)
	assert.Zero(t, cache.Len())
	p.AssertExpectations(t)
}

func TestGate_Classification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   Status
		message  string
		editPath string
	}{
		{
			name:     "structured code",
			err:      &apiclient.APIError{Status: http.StatusUnprocessableEntity, Code: CodeNoServiceOfferings, Message: "Add an offering first"},
			status:   NeedsServiceOffering,
			message:  "Add an offering first",
			editPath: "/specialists/s1/edit",
		},
		{
			name:     "message substring",
			err:      &apiclient.APIError{Status: http.StatusBadRequest, Message: "Specialist must have At Least One Service offering"},
			status:   NeedsServiceOffering,
			message:  "Specialist must have At Least One Service offering",
			editPath: "/specialists/s1/edit",
		},
		{
			name:    "other server message",
			err:     &apiclient.APIError{Status: http.StatusBadRequest, Message: "Specialist is already published"},
			status:  Rejected,
			message: "Specialist is already published",
		},
		{
			name:    "no message",
			err:     &apiclient.APIError{Status: http.StatusInternalServerError},
			status:  Rejected,
			message: rejectedFallback,
		},
		{
			name:    "transport error",
			err:     errors.New("connection reset"),
			status:  Rejected,
			message: rejectedFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := new(mockPublisher)
			p.On("Publish", mock.Anything, "s1").Return(nil, tt.err)

			out := NewGate(p, querycache.NewMemory(time.Minute), zerolog.Nop()).Publish(context.Background(), "s1")

			assert.False(t, out.OK())
			assert.Equal(t, tt.status, out.Status)
			assert.Equal(t, tt.message, out.Message)
			assert.Equal(t, tt.editPath, out.EditPath)
			assert.Equal(t, tt.err, out.Err)
			assert.Empty(t, out.RedirectPath)
		})
	}
}

func TestGate_FailureKeepsCache(t *testing.T) {
	ctx := context.Background()
	p := new(mockPublisher)
	p.On("Publish", mock.Anything, "s1").Return(nil, &apiclient.APIError{Status: http.StatusUnprocessableEntity, Code: CodeNoServiceOfferings})
	cache := querycache.NewMemory(time.Minute)
	require.NoError(t, cache.Set(ctx, querycache.KeySpecialists, "list"))

	NewGate(p, cache, zerolog.Nop()).Publish(ctx, "s1")

	assert.Equal(t, 1, cache.Len())
}
