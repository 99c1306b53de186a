// models/progress.go
package models

// Category is one tracked area of the day.
type Category string

// Categories in declaration order. Task order follows this order.
const (
	CategorySleep    Category = "sleep"
	CategoryMeals    Category = "meals"
	CategorySport    Category = "sport"
	CategoryCycle    Category = "cycle"
	CategorySymptoms Category = "symptoms"
)

// Categories lists every category in declaration order.
var Categories = []Category{
	CategorySleep,
	CategoryMeals,
	CategorySport,
	CategoryCycle,
	CategorySymptoms,
}

// CategoryWeight is the share of the day a completed category is worth.
// Five categories of 20 sum to 100.
const CategoryWeight = 20

// ProgressSnapshot holds the per-category percentages of one day.
// Every value is either 0 or CategoryWeight.
type ProgressSnapshot struct {
	Sleep    int `json:"sleep"`
	Meals    int `json:"meals"`
	Sport    int `json:"sport"`
	Cycle    int `json:"cycle"`
	Symptoms int `json:"symptoms"`
}

// Value returns the percentage recorded for cat.
func (p ProgressSnapshot) Value(cat Category) int {
	switch cat {
	case CategorySleep:
		return p.Sleep
	case CategoryMeals:
		return p.Meals
	case CategorySport:
		return p.Sport
	case CategoryCycle:
		return p.Cycle
	case CategorySymptoms:
		return p.Symptoms
	}
	return 0
}

// Total is the day's overall completion in percent.
func (p ProgressSnapshot) Total() int {
	return p.Sleep + p.Meals + p.Sport + p.Cycle + p.Symptoms
}

// Task is a user-facing daily objective derived from a snapshot.
type Task struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	Category  Category `json:"category,omitempty"`
	Completed bool     `json:"completed"`
	Required  bool     `json:"required"`
	Progress  int      `json:"progress"`
	Claimed   bool     `json:"claimed"`
}

// TaskSummary aggregates a task list for the home screen header.
type TaskSummary struct {
	TotalPercent      int `json:"total_percent"`
	Completed         int `json:"completed"`
	Total             int `json:"total"`
	RequiredCompleted int `json:"required_completed"`
	RequiredTotal     int `json:"required_total"`
}
