package sync

import (
	"context"
	gosync "sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fisiotrack/clinic-api/internal/repository"
	"github.com/fisiotrack/clinic-api/pkg/messaging"
	"github.com/fisiotrack/clinic-api/pkg/metrics"
)

// Set bundles one owner's three synchronizers.
type Set struct {
	Patients    *PatientSync
	Evolutions  *EvolutionSync
	SourceUnits *SourceUnitSync
}

func (s *Set) close() {
	s.Patients.Close()
	s.Evolutions.Close()
	s.SourceUnits.Close()
}

// Manager hands out per-owner synchronizer sets and disposes them when
// the identity goes away. Releasing on logout is a correctness
// requirement, not a tidy-up: a subscription left running could refresh
// caches for an owner who is no longer logged in.
type Manager struct {
	patientRepo   repository.PatientRepository
	evolutionRepo repository.EvolutionRepository
	unitRepo      repository.SourceUnitRepository
	broker        messaging.Broker
	logger        *zerolog.Logger
	metrics       *metrics.Metrics

	mu   gosync.Mutex
	sets map[uuid.UUID]*Set
}

func NewManager(patientRepo repository.PatientRepository, evolutionRepo repository.EvolutionRepository, unitRepo repository.SourceUnitRepository, broker messaging.Broker, logger *zerolog.Logger, m *metrics.Metrics) *Manager {
	return &Manager{
		patientRepo:   patientRepo,
		evolutionRepo: evolutionRepo,
		unitRepo:      unitRepo,
		broker:        broker,
		logger:        logger,
		metrics:       m,
		sets:          make(map[uuid.UUID]*Set),
	}
}

// ForOwner returns the owner's synchronizer set, establishing the live
// subscriptions on first use.
func (m *Manager) ForOwner(ctx context.Context, ownerID uuid.UUID) (*Set, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if set, ok := m.sets[ownerID]; ok {
		return set, nil
	}

	set := &Set{
		Patients:    NewPatientSync(m.patientRepo, m.evolutionRepo, m.broker, ownerID, m.logger, m.metrics),
		Evolutions:  NewEvolutionSync(m.evolutionRepo, m.patientRepo, m.broker, ownerID, m.logger, m.metrics),
		SourceUnits: NewSourceUnitSync(m.unitRepo, m.broker, ownerID, m.logger, m.metrics),
	}

	if err := set.Patients.Subscribe(ctx); err != nil {
		return nil, err
	}
	if err := set.Evolutions.Subscribe(ctx); err != nil {
		set.Patients.Close()
		return nil, err
	}
	if err := set.SourceUnits.Subscribe(ctx); err != nil {
		set.Patients.Close()
		set.Evolutions.Close()
		return nil, err
	}

	m.sets[ownerID] = set
	return set, nil
}

// Release disposes the owner's subscriptions. Called on logout.
func (m *Manager) Release(ownerID uuid.UUID) {
	m.mu.Lock()
	set, ok := m.sets[ownerID]
	delete(m.sets, ownerID)
	m.mu.Unlock()

	if ok {
		set.close()
		m.logger.Info().Str("owner_id", ownerID.String()).Msg("subscriptions released")
	}
}

// Close disposes every owner's subscriptions. Called on shutdown.
func (m *Manager) Close() {
	m.mu.Lock()
	sets := m.sets
	m.sets = make(map[uuid.UUID]*Set)
	m.mu.Unlock()

	for _, set := range sets {
		set.close()
	}
}
