package sync

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fisiotrack/clinic-api/internal/model"
)

func newManagerFixture(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(newMemPatientRepo(), newMemEvolutionRepo(), newMemUnitRepo(), newMemBroker(), &testLogger, nil)
	t.Cleanup(m.Close)
	return m
}

func TestManagerReusesSetPerOwner(t *testing.T) {
	m := newManagerFixture(t)
	owner := uuid.New()

	first, err := m.ForOwner(context.Background(), owner)
	require.NoError(t, err)
	second, err := m.ForOwner(context.Background(), owner)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestManagerIsolatesOwners(t *testing.T) {
	m := newManagerFixture(t)

	alice, err := m.ForOwner(context.Background(), uuid.New())
	require.NoError(t, err)
	bob, err := m.ForOwner(context.Background(), uuid.New())
	require.NoError(t, err)

	_, err = alice.Patients.Create(context.Background(), &model.CreatePatientRequest{
		Name: "Maria Silva", Age: 45, Phone: "11999990000",
		Diagnosis: "Lombalgia", Sex: "feminino",
	})
	require.NoError(t, err)

	waitFor(t, func() bool { return len(alice.Patients.Active()) == 1 })
	assert.Empty(t, bob.Patients.Active())
}

func TestManagerReleaseDisposesSubscriptions(t *testing.T) {
	m := newManagerFixture(t)
	owner := uuid.New()

	set, err := m.ForOwner(context.Background(), owner)
	require.NoError(t, err)
	_, err = set.Patients.Create(context.Background(), &model.CreatePatientRequest{
		Name: "Maria Silva", Age: 45, Phone: "11999990000",
		Diagnosis: "Lombalgia", Sex: "feminino",
	})
	require.NoError(t, err)
	waitFor(t, func() bool { return len(set.Patients.Active()) == 1 })

	m.Release(owner)
	assert.Empty(t, set.Patients.Active())

	// A fresh login builds a fresh set with live subscriptions.
	fresh, err := m.ForOwner(context.Background(), owner)
	require.NoError(t, err)
	assert.NotSame(t, set, fresh)
	waitFor(t, func() bool { return len(fresh.Patients.Active()) == 1 })
}
