package sync

import (
	"context"
	"encoding/json"
	"sort"
	gosync "sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fisiotrack/clinic-api/internal/model"
	apperrors "github.com/fisiotrack/clinic-api/pkg/errors"
)

var testLogger = zerolog.Nop()

// memBroker is an in-process stand-in for the Redis change feed.
type memBroker struct {
	mu   gosync.Mutex
	subs map[string][]*memSub
}

type memSub struct {
	ch  chan []byte
	ctx context.Context
}

func newMemBroker() *memBroker {
	return &memBroker{subs: make(map[string][]*memSub)}
}

func (b *memBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs[channel] {
		if sub.ctx.Err() != nil {
			continue
		}
		select {
		case sub.ch <- payload:
		default:
		}
	}
	return nil
}

func (b *memBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	sub := &memSub{ch: make(chan []byte, 100), ctx: ctx}
	b.mu.Lock()
	b.subs[channel] = append(b.subs[channel], sub)
	b.mu.Unlock()
	return sub.ch, nil
}

func (b *memBroker) Close() error { return nil }

// memPatientRepo is an in-memory patients collection.
type memPatientRepo struct {
	mu       gosync.Mutex
	patients map[uuid.UUID]*model.Patient
}

func newMemPatientRepo() *memPatientRepo {
	return &memPatientRepo{patients: make(map[uuid.UUID]*model.Patient)}
}

func (r *memPatientRepo) Create(_ context.Context, patient *model.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *patient
	r.patients[patient.ID] = &clone
	return nil
}

func (r *memPatientRepo) Get(_ context.Context, ownerID, id uuid.UUID) (*model.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	patient, ok := r.patients[id]
	if !ok || patient.OwnerID != ownerID {
		return nil, apperrors.NewNotFound("patient", nil)
	}
	clone := *patient
	return &clone, nil
}

func (r *memPatientRepo) Update(_ context.Context, patient *model.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patients[patient.ID]; !ok {
		return apperrors.NewNotFound("patient", nil)
	}
	clone := *patient
	r.patients[patient.ID] = &clone
	return nil
}

func (r *memPatientRepo) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	patient, ok := r.patients[id]
	if !ok || patient.OwnerID != ownerID {
		return apperrors.NewNotFound("patient", nil)
	}
	delete(r.patients, id)
	return nil
}

func (r *memPatientRepo) ListActive(_ context.Context, ownerID uuid.UUID) ([]*model.Patient, error) {
	return r.list(ownerID, false), nil
}

func (r *memPatientRepo) ListArchived(_ context.Context, ownerID uuid.UUID) ([]*model.Patient, error) {
	return r.list(ownerID, true), nil
}

func (r *memPatientRepo) list(ownerID uuid.UUID, archived bool) []*model.Patient {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Patient{}
	for _, p := range r.patients {
		if p.OwnerID == ownerID && p.Archived == archived {
			clone := *p
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// memEvolutionRepo is an in-memory evolutions collection. failDelete
// makes every Delete fail, for cascade-failure tests.
type memEvolutionRepo struct {
	mu         gosync.Mutex
	evolutions map[uuid.UUID]*model.Evolution
	failDelete bool
}

func newMemEvolutionRepo() *memEvolutionRepo {
	return &memEvolutionRepo{evolutions: make(map[uuid.UUID]*model.Evolution)}
}

func (r *memEvolutionRepo) Create(_ context.Context, evolution *model.Evolution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *evolution
	r.evolutions[evolution.ID] = &clone
	return nil
}

func (r *memEvolutionRepo) Get(_ context.Context, ownerID, id uuid.UUID) (*model.Evolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	evolution, ok := r.evolutions[id]
	if !ok || evolution.OwnerID != ownerID {
		return nil, apperrors.NewNotFound("evolution", nil)
	}
	clone := *evolution
	return &clone, nil
}

func (r *memEvolutionRepo) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDelete {
		return apperrors.NewInternal(nil)
	}
	evolution, ok := r.evolutions[id]
	if !ok || evolution.OwnerID != ownerID {
		return apperrors.NewNotFound("evolution", nil)
	}
	delete(r.evolutions, id)
	return nil
}

func (r *memEvolutionRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*model.Evolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Evolution{}
	for _, e := range r.evolutions {
		if e.OwnerID == ownerID {
			clone := *e
			out = append(out, &clone)
		}
	}
	sortEvolutions(out)
	return out, nil
}

func (r *memEvolutionRepo) ListByPatient(_ context.Context, ownerID, patientID uuid.UUID) ([]*model.Evolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Evolution{}
	for _, e := range r.evolutions {
		if e.OwnerID == ownerID && e.PatientID == patientID {
			clone := *e
			out = append(out, &clone)
		}
	}
	sortEvolutions(out)
	return out, nil
}

func sortEvolutions(evolutions []*model.Evolution) {
	sort.Slice(evolutions, func(i, j int) bool {
		if !evolutions[i].Date.Equal(evolutions[j].Date) {
			return evolutions[i].Date.After(evolutions[j].Date)
		}
		return evolutions[i].CreatedAt.After(evolutions[j].CreatedAt)
	})
}

// memUnitRepo is an in-memory source units collection.
type memUnitRepo struct {
	mu    gosync.Mutex
	units map[uuid.UUID]*model.SourceUnit
}

func newMemUnitRepo() *memUnitRepo {
	return &memUnitRepo{units: make(map[uuid.UUID]*model.SourceUnit)}
}

func (r *memUnitRepo) Create(_ context.Context, unit *model.SourceUnit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.units {
		if u.OwnerID == unit.OwnerID && u.Name == unit.Name {
			return apperrors.NewBadRequest("source unit name already exists", nil)
		}
	}
	clone := *unit
	r.units[unit.ID] = &clone
	return nil
}

func (r *memUnitRepo) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	unit, ok := r.units[id]
	if !ok || unit.OwnerID != ownerID {
		return apperrors.NewNotFound("source unit", nil)
	}
	delete(r.units, id)
	return nil
}

func (r *memUnitRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*model.SourceUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.SourceUnit{}
	for _, u := range r.units {
		if u.OwnerID == ownerID {
			clone := *u
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// waitFor polls until cond holds or the deadline passes. Cache updates
// are eventually consistent behind the change feed, so assertions on
// snapshots go through here.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
