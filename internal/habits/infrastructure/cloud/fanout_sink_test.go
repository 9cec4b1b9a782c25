package cloud

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/habitat/internal/habits/domain"
)

func TestFanoutSink_SyncReachesEverySink(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("redis down")
	first, second := new(mockSink), new(mockSink)
	first.On("SyncToCloud", ctx, "u1", mock.Anything).Return(boom).Once()
	second.On("SyncToCloud", ctx, "u1", mock.Anything).Return(nil).Once()

	err := NewFanoutSink(first, second).SyncToCloud(ctx, "u1", domain.Snapshot{})

	assert.ErrorIs(t, err, boom)
	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestFanoutSink_FetchFirstWithData(t *testing.T) {
	ctx := context.Background()
	remote := &domain.Snapshot{SchemaVersion: domain.SchemaVersion}
	empty, failing, full := new(mockSink), new(mockSink), new(mockSink)
	empty.On("FetchFromCloud", ctx, "u1").Return(nil, nil)
	failing.On("FetchFromCloud", ctx, "u1").Return(nil, errors.New("timeout"))
	full.On("FetchFromCloud", ctx, "u1").Return(remote, nil)

	got, err := NewFanoutSink(empty, failing, full).FetchFromCloud(ctx, "u1")
	require.NoError(t, err)
	assert.Same(t, remote, got)

	got, err = NewFanoutSink(empty).FetchFromCloud(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = NewFanoutSink(empty, failing).FetchFromCloud(ctx, "u1")
	assert.ErrorContains(t, err, "timeout")
}
