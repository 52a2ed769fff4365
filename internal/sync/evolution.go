package sync

import (
	"context"
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

const evolutionsCollection = "evolutions"

// EvolutionSync keeps one owner-scoped live view of all evolutions,
// ordered by visit date descending. Per-patient lists are an in-memory
// filter of this one view: the UI shows note counts on many patient
// cards at once, and one subscription per patient would multiply live
// queries for no benefit.
type EvolutionSync struct {
	repo     repository.EvolutionRepository
	patients repository.PatientRepository
	broker   messaging.Broker
	logger   *zerolog.Logger
	metrics  *metrics.Metrics
	ownerID  uuid.UUID

	mu  gosync.RWMutex
	all []*model.Evolution
	sub *Subscription
}

func NewEvolutionSync(repo repository.EvolutionRepository, patients repository.PatientRepository, broker messaging.Broker, ownerID uuid.UUID, logger *zerolog.Logger, m *metrics.Metrics) *EvolutionSync {
	return &EvolutionSync{
		repo:     repo,
		patients: patients,
		broker:   broker,
		logger:   logger,
		metrics:  m,
		ownerID:  ownerID,
	}
}

// Subscribe establishes the owner-scoped live view.
func (s *EvolutionSync) Subscribe(ctx context.Context) error {
	if s.ownerID == uuid.Nil {
		return apperrors.NewUnauthenticated()
	}

	channel := messaging.Channel(evolutionsCollection, s.ownerID.String())
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

// Close cancels the live view and clears the cache.
func (s *EvolutionSync) Close() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.all = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Close()
		if s.metrics != nil {
			s.metrics.ActiveSubscriptions.Dec()
		}
	}
}

func (s *EvolutionSync) refresh(ctx context.Context) error {
	start := time.Now()
	evolutions, err := s.repo.ListByOwner(ctx, s.ownerID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.all = evolutions
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.FeedRefreshes.WithLabelValues(evolutionsCollection).Inc()
		s.metrics.FeedRefreshLatency.WithLabelValues(evolutionsCollection).Observe(time.Since(start).Seconds())
	}
	return nil
}

// All returns the current snapshot, visit date descending.
func (s *EvolutionSync) All() []*model.Evolution {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Evolution, len(s.all))
	copy(out, s.all)
	return out
}

// Create writes a new note for the given patient and returns the
// stamped entity. The visit date is taken literally as a calendar date;
// it is never derived from a timestamp that could shift across zones.
func (s *EvolutionSync) Create(ctx context.Context, patientID uuid.UUID, req *model.CreateEvolutionRequest) (*model.Evolution, error) {
	if s.ownerID == uuid.Nil {
		return nil, apperrors.NewUnauthenticated()
	}
	if patientID == uuid.Nil {
		return nil, apperrors.NewBadRequest("patient id is required", nil)
	}

	// The note must hang off a patient this owner actually has.
	if _, err := s.patients.Get(ctx, s.ownerID, patientID); err != nil {
		return nil, err
	}

	date, err := model.ParseDate(req.Date)
	if err != nil {
		return nil, apperrors.NewBadRequest("invalid visit date", err)
	}

	evolution := &model.Evolution{
		ID:          uuid.New(),
		OwnerID:     s.ownerID,
		PatientID:   patientID,
		Date:        date,
		Description: req.Description,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.Create(ctx, evolution); err != nil {
		return nil, err
	}
	s.publish(ctx, messaging.OpCreate, evolution.ID)
	return evolution, nil
}

// Delete removes one note. No cascade. Another owner's note reads as
// NotFound.
func (s *EvolutionSync) Delete(ctx context.Context, id uuid.UUID) error {
	if s.ownerID == uuid.Nil {
		return apperrors.NewUnauthenticated()
	}
	if err := s.repo.Delete(ctx, s.ownerID, id); err != nil {
		return err
	}
	s.publish(ctx, messaging.OpDelete, id)
	return nil
}

// Replace is the only edit path: the replacement is written first, then
// the original is deleted, so a crash between the two duplicates the
// note rather than losing it. The result carries a new id. The pair is
// not atomic.
func (s *EvolutionSync) Replace(ctx context.Context, id uuid.UUID, req *model.ReplaceEvolutionRequest) (*model.Evolution, error) {
	if s.ownerID == uuid.Nil {
		return nil, apperrors.NewUnauthenticated()
	}

	old, err := s.repo.Get(ctx, s.ownerID, id)
	if err != nil {
		return nil, err
	}

	replacement, err := s.Create(ctx, old.PatientID, &model.CreateEvolutionRequest{
		Date:        req.Date,
		Description: req.Description,
	})
	if err != nil {
		return nil, err
	}

	if err := s.Delete(ctx, id); err != nil {
		return nil, err
	}
	return replacement, nil
}

// ListByPatient filters the snapshot for one patient, visit date
// descending. Pure in-memory; no store round-trip. The filter preserves
// snapshot order, so ties stay stable within one call.
func (s *EvolutionSync) ListByPatient(patientID uuid.UUID) []*model.Evolution {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Evolution
	for _, evo := range s.all {
		if evo.PatientID == patientID {
			out = append(out, evo)
		}
	}
	return out
}

func (s *EvolutionSync) publish(ctx context.Context, op string, id uuid.UUID) {
	event := messaging.ChangeEvent{
		Collection: evolutionsCollection,
		OwnerID:    s.ownerID.String(),
		Op:         op,
		DocumentID: id.String(),
	}
	channel := messaging.Channel(evolutionsCollection, s.ownerID.String())
	if err := s.broker.Publish(ctx, channel, event); err != nil {
		s.logger.Warn().Err(err).Str("channel", channel).Msg("change publish failed")
	}
}
