package view

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fisiotrack/clinic-api/internal/model"
)

func patient(name, diagnosis, unit string) *model.Patient {
	return &model.Patient{
		Base:       model.Base{ID: uuid.New()},
		Name:       name,
		Diagnosis:  diagnosis,
		SourceUnit: unit,
	}
}

func unit(name string) *model.SourceUnit {
	return &model.SourceUnit{ID: uuid.New(), Name: name}
}

func TestFilterPatientsMatchesNameOrDiagnosis(t *testing.T) {
	patients := []*model.Patient{
		patient("Maria Silva", "Lombalgia", "UBS Centro"),
		patient("João Souza", "Entorse de tornozelo", "UBS Norte"),
		patient("Ana Lima", "Cervicalgia", "UBS Centro"),
	}

	// Case-insensitive partial match on diagnosis.
	got := FilterPatients(patients, "lombalgia")
	require.Len(t, got, 1)
	assert.Equal(t, "Maria Silva", got[0].Name)

	// Partial match on name.
	got = FilterPatients(patients, "joão")
	require.Len(t, got, 1)
	assert.Equal(t, "João Souza", got[0].Name)

	assert.Len(t, FilterPatients(patients, ""), 3)
	assert.Empty(t, FilterPatients(patients, "fratura"))
}

func TestBuildStatisticsCountsCurrentMonthByVisitDate(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)
	active := []*model.Patient{
		patient("Maria Silva", "Lombalgia", "UBS Centro"),
		patient("Ana Lima", "Cervicalgia", "UBS Centro"),
	}
	archived := []*model.Patient{
		patient("José Santos", "Alta", "UBS Norte"),
	}
	evolutions := []*model.Evolution{
		{ID: uuid.New(), Date: model.NewDate(2024, time.March, 1)},
		{ID: uuid.New(), Date: model.NewDate(2024, time.March, 14)},
		{ID: uuid.New(), Date: model.NewDate(2024, time.February, 28)},
		{ID: uuid.New(), Date: model.NewDate(2023, time.March, 10)},
	}

	stats := BuildStatistics(active, archived, evolutions, now)
	assert.Equal(t, 2, stats.TotalPatients)
	assert.Equal(t, 1, stats.ArchivedPatients)
	assert.Equal(t, 4, stats.TotalEvolutions)
	// Same month of a previous year must not count.
	assert.Equal(t, 2, stats.EvolutionsThisMonth)
}

func TestGroupByUnitBucketsDanglingReferences(t *testing.T) {
	units := []*model.SourceUnit{unit("UBS Centro"), unit("UBS Norte")}
	patients := []*model.Patient{
		patient("a", "", "UBS Centro"),
		patient("b", "", "UBS Centro"),
		patient("c", "", "UBS Norte"),
		patient("d", "", "UBS Extinta"),
		patient("e", "", "UBS Extinta"),
		patient("f", "", "UBS Extinta"),
	}

	got := GroupByUnit(patients, units)
	require.Len(t, got, 3)
	assert.Equal(t, UnitCount{Name: "UBS Centro", PatientCount: 2, Registered: true}, got[0])
	assert.Equal(t, UnitCount{Name: "UBS Norte", PatientCount: 1, Registered: true}, got[1])
	assert.Equal(t, UnitCount{Name: model.UnregisteredUnit, PatientCount: 3}, got[2])
}

func TestGroupByUnitKeepsEmptyRegisteredUnits(t *testing.T) {
	units := []*model.SourceUnit{unit("UBS Centro")}

	got := GroupByUnit(nil, units)
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].PatientCount)
}

func TestPatientsOfUnit(t *testing.T) {
	units := []*model.SourceUnit{unit("UBS Centro")}
	patients := []*model.Patient{
		patient("a", "", "UBS Centro"),
		patient("b", "", "UBS Extinta"),
		patient("c", "", ""),
	}

	got := PatientsOfUnit(patients, units, "UBS Centro")
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Name)

	// Deleted or never-registered unit names fall into the synthetic
	// bucket, patients included.
	got = PatientsOfUnit(patients, units, model.UnregisteredUnit)
	assert.Len(t, got, 2)
}

func TestLatestEvolutionsPicksMaxByVisitDate(t *testing.T) {
	patientA := uuid.New()
	patientB := uuid.New()
	entry := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	evolutions := []*model.Evolution{
		{ID: uuid.New(), PatientID: patientA, Date: model.NewDate(2024, time.January, 10), CreatedAt: entry},
		{ID: uuid.New(), PatientID: patientA, Date: model.NewDate(2024, time.February, 5), CreatedAt: entry},
		{ID: uuid.New(), PatientID: patientB, Date: model.NewDate(2024, time.March, 1), CreatedAt: entry},
	}

	latest := LatestEvolutions(evolutions)
	require.Len(t, latest, 2)
	assert.Equal(t, "2024-02-05", latest[patientA].Date.String())
	assert.Equal(t, "2024-03-01", latest[patientB].Date.String())
}

func TestLatestEvolutionsBreaksDateTiesByEntryTime(t *testing.T) {
	patientID := uuid.New()
	earlier := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	later := earlier.Add(2 * time.Hour)

	first := &model.Evolution{ID: uuid.New(), PatientID: patientID, Date: model.NewDate(2024, time.March, 1), CreatedAt: earlier}
	second := &model.Evolution{ID: uuid.New(), PatientID: patientID, Date: model.NewDate(2024, time.March, 1), CreatedAt: later}

	latest := LatestEvolutions([]*model.Evolution{first, second})
	assert.Equal(t, second.ID, latest[patientID].ID)
}
