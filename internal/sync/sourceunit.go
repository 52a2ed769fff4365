package sync

import (
	"context"
	"strings"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fisiotrack/clinic-api/internal/model"
	"github.com/fisiotrack/clinic-api/internal/repository"
	apperrors "github.com/fisiotrack/clinic-api/pkg/errors"
	"github.com/fisiotrack/clinic-api/pkg/messaging"
	"github.com/fisiotrack/clinic-api/pkg/metrics"
)

const sourceUnitsCollection = "source_units"

// SourceUnitSync keeps the owner's referring units live, ordered by
// name. Deleting a unit never touches patients that reference its name;
// the view layer reclassifies them as unregistered.
type SourceUnitSync struct {
	repo    repository.SourceUnitRepository
	broker  messaging.Broker
	logger  *zerolog.Logger
	metrics *metrics.Metrics
	ownerID uuid.UUID

	mu    gosync.RWMutex
	units []*model.SourceUnit
	sub   *Subscription
}

func NewSourceUnitSync(repo repository.SourceUnitRepository, broker messaging.Broker, ownerID uuid.UUID, logger *zerolog.Logger, m *metrics.Metrics) *SourceUnitSync {
	return &SourceUnitSync{
		repo:    repo,
		broker:  broker,
		logger:  logger,
		metrics: m,
		ownerID: ownerID,
	}
}

func (s *SourceUnitSync) Subscribe(ctx context.Context) error {
	if s.ownerID == uuid.Nil {
		return apperrors.NewUnauthenticated()
	}

	channel := messaging.Channel(sourceUnitsCollection, s.ownerID.String())
	sub, err := subscribe(ctx, s.broker, channel, s.refresh, s.logger)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ActiveSubscriptions.Inc()
	}
	return nil
}

func (s *SourceUnitSync) Close() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.units = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Close()
		if s.metrics != nil {
			s.metrics.ActiveSubscriptions.Dec()
		}
	}
}

func (s *SourceUnitSync) refresh(ctx context.Context) error {
	start := time.Now()
	units, err := s.repo.ListByOwner(ctx, s.ownerID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.units = units
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.FeedRefreshes.WithLabelValues(sourceUnitsCollection).Inc()
		s.metrics.FeedRefreshLatency.WithLabelValues(sourceUnitsCollection).Observe(time.Since(start).Seconds())
	}
	return nil
}

// All returns the current snapshot, name ascending.
func (s *SourceUnitSync) All() []*model.SourceUnit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.SourceUnit, len(s.units))
	copy(out, s.units)
	return out
}

// Create registers a new referring unit.
func (s *SourceUnitSync) Create(ctx context.Context, name string) (*model.SourceUnit, error) {
	if s.ownerID == uuid.Nil {
		return nil, apperrors.NewUnauthenticated()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewBadRequest("unit name is required", nil)
	}

	unit := &model.SourceUnit{
		ID:        uuid.New(),
		OwnerID:   s.ownerID,
		Name:      name,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Create(ctx, unit); err != nil {
		return nil, err
	}
	s.publish(ctx, messaging.OpCreate, unit.ID)
	return unit, nil
}

// Delete removes a unit. Patients referencing its name keep it as a
// dangling value. Another owner's unit reads as NotFound.
func (s *SourceUnitSync) Delete(ctx context.Context, id uuid.UUID) error {
	if s.ownerID == uuid.Nil {
		return apperrors.NewUnauthenticated()
	}
	if err := s.repo.Delete(ctx, s.ownerID, id); err != nil {
		return err
	}
	s.publish(ctx, messaging.OpDelete, id)
	return nil
}

func (s *SourceUnitSync) publish(ctx context.Context, op string, id uuid.UUID) {
	event := messaging.ChangeEvent{
		Collection: sourceUnitsCollection,
		OwnerID:    s.ownerID.String(),
		Op:         op,
		DocumentID: id.String(),
	}
	channel := messaging.Channel(sourceUnitsCollection, s.ownerID.String())
	if err := s.broker.Publish(ctx, channel, event); err != nil {
		s.logger.Warn().Err(err).Str("channel", channel).Msg("change publish failed")
	}
}
