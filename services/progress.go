// services/progress.go
package services

import "endotrack/models"

// ComputeProgress scores one day. A category is worth CategoryWeight as
// soon as it holds any qualifying entry and 0 otherwise; a nil record
// scores 0 everywhere.
func ComputeProgress(record *models.DailyRecord) models.ProgressSnapshot {
	var p models.ProgressSnapshot
	if record == nil {
		return p
	}

	if record.Sleep != nil && (record.Sleep.BedTime != "" || record.Sleep.WakeTime != "") {
		p.Sleep = models.CategoryWeight
	}
	// Snacks alone do not count as a tracked meal.
	if m := record.Meals; m != nil && (m.Morning != "" || m.Afternoon != "" || m.Evening != "") {
		p.Meals = models.CategoryWeight
	}
	if len(record.Activity) > 0 {
		p.Sport = models.CategoryWeight
	}
	if record.Period {
		p.Cycle = models.CategoryWeight
	}
	if len(record.Symptoms) > 0 {
		p.Symptoms = models.CategoryWeight
	}
	return p
}
