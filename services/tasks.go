// services/tasks.go
package services

import (
	"time"

	"endotrack/models"
)

type taskDef struct {
	id       string
	category models.Category
	text     string
	required bool
}

// dailyTasks follows models.Categories order. Cycle is the only optional
// task.
var dailyTasks = []taskDef{
	{id: "1", category: models.CategorySleep, text: "Log your sleep", required: true},
	{id: "2", category: models.CategoryMeals, text: "Log at least one meal", required: true},
	{id: "3", category: models.CategorySport, text: "Log a physical activity", required: true},
	{id: "4", category: models.CategoryCycle, text: "Log your cycle", required: false},
	{id: "5", category: models.CategorySymptoms, text: "Log your symptoms", required: true},
}

// Monthly weigh-in task.
const (
	WeightTaskID  = "weight"
	WeightTaskDay = 10
)

// GenerateTasks turns a snapshot into the five daily tasks, in category
// order.
func GenerateTasks(snapshot models.ProgressSnapshot) []models.Task {
	tasks := make([]models.Task, 0, len(dailyTasks))
	for _, def := range dailyTasks {
		value := snapshot.Value(def.category)
		tasks = append(tasks, models.Task{
			ID:        def.id,
			Text:      def.text,
			Category:  def.category,
			Completed: value >= models.CategoryWeight,
			Required:  def.required,
			Progress:  value,
		})
	}
	return tasks
}

// Summarize counts completed and required tasks of a daily list.
func Summarize(snapshot models.ProgressSnapshot, tasks []models.Task) models.TaskSummary {
	s := models.TaskSummary{TotalPercent: snapshot.Total(), Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
		}
		if t.Required {
			s.RequiredTotal++
			if t.Completed {
				s.RequiredCompleted++
			}
		}
	}
	return s
}

// WeightTask returns the monthly weigh-in task when date falls on its day
// of the month, and nil otherwise.
func WeightTask(date time.Time, record *models.DailyRecord) *models.Task {
	if date.Day() != WeightTaskDay {
		return nil
	}
	completed := record != nil && record.Weight != nil
	progress := 0
	if completed {
		progress = 100
	}
	return &models.Task{
		ID:        WeightTaskID,
		Text:      "Record your weight",
		Completed: completed,
		Required:  false,
		Progress:  progress,
	}
}

// FindTask looks up a task by id in the day's tasks.
func FindTask(tasks []models.Task, special *models.Task, id string) (models.Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	if special != nil && special.ID == id {
		return *special, true
	}
	return models.Task{}, false
}
