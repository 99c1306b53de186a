// services/home_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"endotrack/models"
)

var (
	ErrUnknownTask    = errors.New("unknown task")
	ErrTaskIncomplete = errors.New("task is not completed yet")
)

// DayView is everything the home screen shows for one date.
type DayView struct {
	Date        string                  `json:"date"`
	Record      *models.DailyRecord     `json:"record"`
	Progress    models.ProgressSnapshot `json:"progress"`
	Tasks       []models.Task           `json:"tasks"`
	SpecialTask *models.Task            `json:"special_task,omitempty"`
	Summary     models.TaskSummary      `json:"summary"`
}

// ClaimResult is returned by ClaimTask.
type ClaimResult struct {
	TaskID   string `json:"task_id"`
	Granted  bool   `json:"granted"`
	Endolots *int64 `json:"endolots,omitempty"`
}

type HomeService struct {
	Data   *Reconciler
	Ledger *RewardLedger
}

func NewHomeService(data *Reconciler, ledger *RewardLedger) *HomeService {
	return &HomeService{Data: data, Ledger: ledger}
}

// LoadDayView loads the record of date and derives progress, tasks and
// claim state from it.
func (s *HomeService) LoadDayView(ctx context.Context, userID, date string) (*DayView, error) {
	day, err := models.ParseDate(date)
	if err != nil {
		return nil, err
	}
	rec, err := s.Data.LoadDay(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	progress := ComputeProgress(rec)
	tasks := GenerateTasks(progress)
	for i := range tasks {
		tasks[i].Claimed = s.claimed(ctx, userID, date, tasks[i].ID)
	}
	special := WeightTask(day, rec)
	if special != nil {
		special.Claimed = s.claimed(ctx, userID, date, special.ID)
	}

	return &DayView{
		Date:        date,
		Record:      rec,
		Progress:    progress,
		Tasks:       tasks,
		SpecialTask: special,
		Summary:     Summarize(progress, tasks),
	}, nil
}

func (s *HomeService) claimed(ctx context.Context, userID, date, taskID string) bool {
	can, err := s.Ledger.CanClaim(ctx, userID, date, taskID)
	if err != nil {
		log.Printf("⚠️ [HOME] Claim state of %s unknown: %v", models.ClaimKey(userID, date, taskID), err)
		return false
	}
	return !can
}

// ClaimTask converts a completed task into one endolot. Claiming an
// already claimed task returns Granted=false without error.
func (s *HomeService) ClaimTask(ctx context.Context, userID, date, taskID string) (*ClaimResult, error) {
	view, err := s.LoadDayView(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	task, ok := FindTask(view.Tasks, view.SpecialTask, taskID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}
	if !task.Completed {
		return nil, fmt.Errorf("%w: %s", ErrTaskIncomplete, taskID)
	}

	key := models.ClaimKey(userID, date, taskID)
	granted, err := s.Ledger.Claim(ctx, userID, date, taskID, func(ctx context.Context) error {
		return s.Data.CreditEndolots(ctx, userID, 1, key)
	})
	if err != nil {
		return nil, err
	}

	result := &ClaimResult{TaskID: taskID, Granted: granted}
	if profile, err := s.Data.LoadProfile(ctx, userID); err == nil && profile != nil {
		balance := profile.Character.Endolots
		result.Endolots = &balance
	}
	return result, nil
}
