package sync

import (
	"context"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/fisiotrack/clinic-api/internal/model"
	"github.com/fisiotrack/clinic-api/internal/repository"
	apperrors "github.com/fisiotrack/clinic-api/pkg/errors"
	"github.com/fisiotrack/clinic-api/pkg/messaging"
	"github.com/fisiotrack/clinic-api/pkg/metrics"
)

const patientsCollection = "patients"

// PatientSync keeps two live views over the patients collection: the
// active list and the archived list. They are independent subscriptions
// over the same channel, not a client-side split of one list, so both
// counts stay correct under concurrent edits.
type PatientSync struct {
	repo    repository.PatientRepository
	evoRepo repository.EvolutionRepository
	broker  messaging.Broker
	logger  *zerolog.Logger
	metrics *metrics.Metrics
	ownerID uuid.UUID

	// pointReads caches GetByID misses against the store; archived
	// patients are never in the active snapshot, so detail pages for
	// them would otherwise hit the store on every read.
	pointReads *cache.Cache

	mu          gosync.RWMutex
	active      []*model.Patient
	archived    []*model.Patient
	activeSub   *Subscription
	archivedSub *Subscription
}

func NewPatientSync(repo repository.PatientRepository, evoRepo repository.EvolutionRepository, broker messaging.Broker, ownerID uuid.UUID, logger *zerolog.Logger, m *metrics.Metrics) *PatientSync {
	return &PatientSync{
		repo:       repo,
		evoRepo:    evoRepo,
		broker:     broker,
		logger:     logger,
		metrics:    m,
		ownerID:    ownerID,
		pointReads: cache.New(30*time.Second, time.Minute),
	}
}

// Subscribe establishes both live views. Must be called with a real
// owner identity; the caches stay empty otherwise.
func (s *PatientSync) Subscribe(ctx context.Context) error {
	if s.ownerID == uuid.Nil {
		return apperrors.NewUnauthenticated()
	}

	channel := messaging.Channel(patientsCollection, s.ownerID.String())

	activeSub, err := subscribe(ctx, s.broker, channel, s.refreshActive, s.logger)
	if err != nil {
		return err
	}
	archivedSub, err := subscribe(ctx, s.broker, channel, s.refreshArchived, s.logger)
	if err != nil {
		activeSub.Close()
		return err
	}

	s.mu.Lock()
	s.activeSub = activeSub
	s.archivedSub = archivedSub
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ActiveSubscriptions.Add(2)
	}
	return nil
}

// Close cancels both live views and clears the caches.
func (s *PatientSync) Close() {
	s.mu.Lock()
	activeSub, archivedSub := s.activeSub, s.archivedSub
	s.activeSub, s.archivedSub = nil, nil
	s.active, s.archived = nil, nil
	s.mu.Unlock()

	if activeSub != nil {
		activeSub.Close()
	}
	if archivedSub != nil {
		archivedSub.Close()
	}
	if s.metrics != nil && activeSub != nil {
		s.metrics.ActiveSubscriptions.Sub(2)
	}
	s.pointReads.Flush()
}

func (s *PatientSync) refreshActive(ctx context.Context) error {
	start := time.Now()
	patients, err := s.repo.ListActive(ctx, s.ownerID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.active = patients
	s.mu.Unlock()
	s.observeRefresh(start)
	return nil
}

func (s *PatientSync) refreshArchived(ctx context.Context) error {
	start := time.Now()
	patients, err := s.repo.ListArchived(ctx, s.ownerID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.archived = patients
	s.mu.Unlock()
	s.observeRefresh(start)
	return nil
}

func (s *PatientSync) observeRefresh(start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.FeedRefreshes.WithLabelValues(patientsCollection).Inc()
	s.metrics.FeedRefreshLatency.WithLabelValues(patientsCollection).Observe(time.Since(start).Seconds())
}

// Active returns the current active-patient snapshot, newest first.
func (s *PatientSync) Active() []*model.Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Patient, len(s.active))
	copy(out, s.active)
	return out
}

// Archived returns the current archived-patient snapshot, newest first.
func (s *PatientSync) Archived() []*model.Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Patient, len(s.archived))
	copy(out, s.archived)
	return out
}

// Create writes a new patient and returns the stamped entity. The
// snapshot updates only when the change notification round-trips, so a
// read immediately after Create may not include it yet.
func (s *PatientSync) Create(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	if s.ownerID == uuid.Nil {
		return nil, apperrors.NewUnauthenticated()
	}

	var dob model.Date
	if req.DateOfBirth != "" {
		parsed, err := model.ParseDate(req.DateOfBirth)
		if err != nil {
			return nil, apperrors.NewBadRequest("invalid date of birth", err)
		}
		dob = parsed
	}

	now := time.Now()
	patient := &model.Patient{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		OwnerID:        s.ownerID,
		Name:           req.Name,
		Age:            req.Age,
		Phone:          req.Phone,
		Email:          req.Email,
		Diagnosis:      req.Diagnosis,
		Sex:            req.Sex,
		DateOfBirth:    dob,
		Weight:         req.Weight,
		Height:         req.Height,
		CNS:            req.CNS,
		CPF:            req.CPF,
		ACS:            req.ACS,
		SourceUnit:     req.SourceUnit,
		Address:        req.Address,
		ReferencePoint: req.ReferencePoint,
		Service:        model.ServiceModality(req.Service),
		RiskRating:     model.RiskRating(req.RiskRating),
		Archived:       false,
	}

	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, err
	}
	s.publish(ctx, messaging.OpCreate, patient.ID)
	return patient, nil
}

// Update merges the given fields into the stored patient. The archived
// flag is always written as a concrete boolean: records created before
// the archive feature read as active and stay that way unless the
// request says otherwise.
func (s *PatientSync) Update(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	if s.ownerID == uuid.Nil {
		return nil, apperrors.NewUnauthenticated()
	}

	patient, err := s.repo.Get(ctx, s.ownerID, id)
	if err != nil {
		return nil, err
	}

	applyPatientUpdate(patient, req)
	if req.Archived != nil {
		patient.Archived = *req.Archived
	}
	patient.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, err
	}
	s.pointReads.Delete(id.String())
	s.publish(ctx, messaging.OpUpdate, id)
	return patient, nil
}

// Archive soft-deletes a patient: it leaves the active view and joins
// the archived view.
func (s *PatientSync) Archive(ctx context.Context, id uuid.UUID) error {
	archived := true
	_, err := s.Update(ctx, id, &model.UpdatePatientRequest{Archived: &archived})
	return err
}

// Unarchive restores an archived patient to the active view.
func (s *PatientSync) Unarchive(ctx context.Context, id uuid.UUID) error {
	archived := false
	_, err := s.Update(ctx, id, &model.UpdatePatientRequest{Archived: &archived})
	return err
}

// Delete permanently removes a patient and every evolution that
// references it. Evolutions go first and the patient document last, so
// a partial failure leaves the patient intact and the whole operation
// retryable; already-deleted evolutions are tolerated on retry.
func (s *PatientSync) Delete(ctx context.Context, id uuid.UUID) error {
	if s.ownerID == uuid.Nil {
		return apperrors.NewUnauthenticated()
	}
	if s.metrics != nil {
		s.metrics.CascadeDeletes.Inc()
	}

	evolutions, err := s.evoRepo.ListByPatient(ctx, s.ownerID, id)
	if err != nil {
		return err
	}

	var wg gosync.WaitGroup
	errs := make(chan error, len(evolutions))
	for _, evo := range evolutions {
		wg.Add(1)
		go func(evoID uuid.UUID) {
			defer wg.Done()
			// A note already gone is fine; the cascade is retryable.
			if err := s.evoRepo.Delete(ctx, s.ownerID, evoID); err != nil && !apperrors.IsNotFound(err) {
				errs <- err
			}
		}(evo.ID)
	}
	wg.Wait()
	close(errs)

	if err := <-errs; err != nil {
		if s.metrics != nil {
			s.metrics.CascadeDeleteFailures.Inc()
		}
		return apperrors.NewPartialCascade("evolutions", err)
	}

	if err := s.repo.Delete(ctx, s.ownerID, id); err != nil {
		if s.metrics != nil {
			s.metrics.CascadeDeleteFailures.Inc()
		}
		return err
	}

	s.pointReads.Delete(id.String())
	s.publish(ctx, messaging.OpDelete, id)
	if len(evolutions) > 0 {
		s.publishEvolutions(ctx)
	}
	return nil
}

// GetByID resolves a patient from the snapshots first and falls back to
// a point read against the store, which covers archived records not yet
// loaded. A missing patient returns (nil, nil), not an error.
func (s *PatientSync) GetByID(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	s.mu.RLock()
	for _, p := range s.active {
		if p.ID == id {
			s.mu.RUnlock()
			return p, nil
		}
	}
	for _, p := range s.archived {
		if p.ID == id {
			s.mu.RUnlock()
			return p, nil
		}
	}
	s.mu.RUnlock()

	if cached, ok := s.pointReads.Get(id.String()); ok {
		return cached.(*model.Patient), nil
	}

	patient, err := s.repo.Get(ctx, s.ownerID, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	s.pointReads.SetDefault(id.String(), patient)
	return patient, nil
}

func (s *PatientSync) publish(ctx context.Context, op string, id uuid.UUID) {
	event := messaging.ChangeEvent{
		Collection: patientsCollection,
		OwnerID:    s.ownerID.String(),
		Op:         op,
		DocumentID: id.String(),
	}
	channel := messaging.Channel(patientsCollection, s.ownerID.String())
	if err := s.broker.Publish(ctx, channel, event); err != nil {
		s.logger.Warn().Err(err).Str("channel", channel).Msg("change publish failed")
	}
}

// publishEvolutions nudges the evolutions feed after a cascade delete;
// the two feeds may observe the cascade in either order.
func (s *PatientSync) publishEvolutions(ctx context.Context) {
	event := messaging.ChangeEvent{
		Collection: evolutionsCollection,
		OwnerID:    s.ownerID.String(),
		Op:         messaging.OpDelete,
	}
	channel := messaging.Channel(evolutionsCollection, s.ownerID.String())
	if err := s.broker.Publish(ctx, channel, event); err != nil {
		s.logger.Warn().Err(err).Str("channel", channel).Msg("change publish failed")
	}
}

func applyPatientUpdate(patient *model.Patient, req *model.UpdatePatientRequest) {
	if req.Name != nil {
		patient.Name = *req.Name
	}
	if req.Age != nil {
		patient.Age = *req.Age
	}
	if req.Phone != nil {
		patient.Phone = *req.Phone
	}
	if req.Email != nil {
		patient.Email = *req.Email
	}
	if req.Diagnosis != nil {
		patient.Diagnosis = *req.Diagnosis
	}
	if req.Sex != nil {
		patient.Sex = *req.Sex
	}
	if req.DateOfBirth != nil {
		if dob, err := model.ParseDate(*req.DateOfBirth); err == nil {
			patient.DateOfBirth = dob
		}
	}
	if req.Weight != nil {
		patient.Weight = *req.Weight
	}
	if req.Height != nil {
		patient.Height = *req.Height
	}
	if req.CNS != nil {
		patient.CNS = *req.CNS
	}
	if req.CPF != nil {
		patient.CPF = *req.CPF
	}
	if req.ACS != nil {
		patient.ACS = *req.ACS
	}
	if req.SourceUnit != nil {
		patient.SourceUnit = *req.SourceUnit
	}
	if req.Address != nil {
		patient.Address = *req.Address
	}
	if req.ReferencePoint != nil {
		patient.ReferencePoint = *req.ReferencePoint
	}
	if req.Service != nil {
		patient.Service = model.ServiceModality(*req.Service)
	}
	if req.RiskRating != nil {
		patient.RiskRating = model.RiskRating(*req.RiskRating)
	}
}
