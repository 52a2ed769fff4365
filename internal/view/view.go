// Package view projects synchronizer snapshots into UI-ready
// aggregates. Everything here is pure and synchronous: builders are
// re-run on demand from current cache state and keep no state of their
// own.
package view

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fisiotrack/clinic-api/internal/model"
)

// FilterPatients returns patients whose name or diagnosis contains the
// term, case-insensitively. An empty term returns the input unchanged.
func FilterPatients(patients []*model.Patient, term string) []*model.Patient {
	if term == "" {
		return patients
	}
	term = strings.ToLower(term)
	var out []*model.Patient
	for _, p := range patients {
		if strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Diagnosis), term) {
			out = append(out, p)
		}
	}
	return out
}

// Statistics are the home dashboard numbers.
type Statistics struct {
	TotalPatients       int `json:"total_patients"`
	ArchivedPatients    int `json:"archived_patients"`
	TotalEvolutions     int `json:"total_evolutions"`
	EvolutionsThisMonth int `json:"evolutions_this_month"`
}

// BuildStatistics counts patients and evolutions; the monthly count
// compares visit dates, not entry timestamps, against now's month.
func BuildStatistics(active, archived []*model.Patient, evolutions []*model.Evolution, now time.Time) Statistics {
	stats := Statistics{
		TotalPatients:    len(active),
		ArchivedPatients: len(archived),
		TotalEvolutions:  len(evolutions),
	}
	for _, evo := range evolutions {
		if evo.Date.InMonth(now.Year(), now.Month()) {
			stats.EvolutionsThisMonth++
		}
	}
	return stats
}

// UnitCount is one row of the per-unit grouping.
type UnitCount struct {
	Name         string `json:"name"`
	PatientCount int    `json:"patient_count"`
	Registered   bool   `json:"registered"`
}

// GroupByUnit counts patients per referring unit name. Patients whose
// unit name matches no registered unit land in a synthetic
// "unregistered" bucket rather than erroring: units are referenced by
// name, so deleting or renaming one leaves dangling values behind.
func GroupByUnit(patients []*model.Patient, units []*model.SourceUnit) []UnitCount {
	registered := make(map[string]bool, len(units))
	counts := make(map[string]int)
	for _, u := range units {
		registered[u.Name] = true
		counts[u.Name] = 0
	}

	unregistered := 0
	for _, p := range patients {
		if registered[p.SourceUnit] {
			counts[p.SourceUnit]++
		} else {
			unregistered++
		}
	}

	out := make([]UnitCount, 0, len(units)+1)
	for _, u := range units {
		out = append(out, UnitCount{Name: u.Name, PatientCount: counts[u.Name], Registered: true})
	}
	if unregistered > 0 {
		out = append(out, UnitCount{Name: model.UnregisteredUnit, PatientCount: unregistered})
	}
	return out
}

// PatientsOfUnit returns the patients referencing the given unit name.
// The unregistered bucket collects every patient whose unit name is not
// in the registered set.
func PatientsOfUnit(patients []*model.Patient, units []*model.SourceUnit, name string) []*model.Patient {
	if name == model.UnregisteredUnit {
		registered := make(map[string]bool, len(units))
		for _, u := range units {
			registered[u.Name] = true
		}
		var out []*model.Patient
		for _, p := range patients {
			if !registered[p.SourceUnit] {
				out = append(out, p)
			}
		}
		return out
	}

	var out []*model.Patient
	for _, p := range patients {
		if p.SourceUnit == name {
			out = append(out, p)
		}
	}
	return out
}

// LatestEvolutions maps each patient to its most recent note by visit
// date. Evolutions for patients not in the map yet are compared by
// date; later entry time breaks date ties.
func LatestEvolutions(evolutions []*model.Evolution) map[uuid.UUID]*model.Evolution {
	latest := make(map[uuid.UUID]*model.Evolution)
	for _, evo := range evolutions {
		current, ok := latest[evo.PatientID]
		if !ok || evo.Date.After(current.Date) ||
			(evo.Date.Equal(current.Date) && evo.CreatedAt.After(current.CreatedAt)) {
			latest[evo.PatientID] = evo
		}
	}
	return latest
}
