package sync

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/fisiotrack/clinic-api/pkg/errors"
)

func newUnitFixture(t *testing.T) *SourceUnitSync {
	t.Helper()
	s := NewSourceUnitSync(newMemUnitRepo(), newMemBroker(), uuid.New(), &testLogger, nil)
	require.NoError(t, s.Subscribe(context.Background()))
	t.Cleanup(s.Close)
	return s
}

func TestSourceUnitListOrderedByName(t *testing.T) {
	s := newUnitFixture(t)

	for _, name := range []string{"UBS Norte", "UBS Centro", "Policlínica"} {
		_, err := s.Create(context.Background(), name)
		require.NoError(t, err)
	}

	waitFor(t, func() bool { return len(s.All()) == 3 })
	units := s.All()
	assert.Equal(t, "Policlínica", units[0].Name)
	assert.Equal(t, "UBS Centro", units[1].Name)
	assert.Equal(t, "UBS Norte", units[2].Name)
}

func TestSourceUnitDuplicateName(t *testing.T) {
	s := newUnitFixture(t)

	_, err := s.Create(context.Background(), "UBS Centro")
	require.NoError(t, err)

	_, err = s.Create(context.Background(), "UBS Centro")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.CodeOf(err))
}

func TestSourceUnitBlankName(t *testing.T) {
	s := newUnitFixture(t)

	_, err := s.Create(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.CodeOf(err))
}

func TestSourceUnitDeleteRemovesOnlyTheUnit(t *testing.T) {
	s := newUnitFixture(t)

	unit, err := s.Create(context.Background(), "UBS Centro")
	require.NoError(t, err)
	waitFor(t, func() bool { return len(s.All()) == 1 })

	require.NoError(t, s.Delete(context.Background(), unit.ID))
	waitFor(t, func() bool { return len(s.All()) == 0 })
}

func TestSourceUnitDeleteOfForeignUnit(t *testing.T) {
	repo := newMemUnitRepo()
	victim := uuid.New()

	owned := NewSourceUnitSync(repo, newMemBroker(), victim, &testLogger, nil)
	require.NoError(t, owned.Subscribe(context.Background()))
	t.Cleanup(owned.Close)
	unit, err := owned.Create(context.Background(), "UBS Centro")
	require.NoError(t, err)

	intruder := NewSourceUnitSync(repo, newMemBroker(), uuid.New(), &testLogger, nil)
	require.NoError(t, intruder.Subscribe(context.Background()))
	t.Cleanup(intruder.Close)

	err = intruder.Delete(context.Background(), unit.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))

	units, err := repo.ListByOwner(context.Background(), victim)
	require.NoError(t, err)
	assert.Len(t, units, 1)
}

func TestSourceUnitWriteWithoutIdentity(t *testing.T) {
	s := NewSourceUnitSync(newMemUnitRepo(), newMemBroker(), uuid.Nil, &testLogger, nil)

	_, err := s.Create(context.Background(), "UBS Centro")
	assert.True(t, apperrors.IsUnauthenticated(err))
}
