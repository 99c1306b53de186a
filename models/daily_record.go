// models/daily_record.go
package models

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the calendar date format used in record ids and claim keys.
const DateLayout = "2006-01-02"

// Collection names in the remote document store.
const (
	CollectionDailyRecords = "daily_records"
	CollectionUsers        = "users"
	CollectionPhotos       = "photos"
)

// Sleep holds the bed and wake times ("HH:MM") of one night.
type Sleep struct {
	BedTime  string `json:"bedTime"`
	WakeTime string `json:"wakeTime"`
}

// Meals holds free-text meal entries. Snack does not count toward progress.
type Meals struct {
	Morning   string `json:"morning"`
	Afternoon string `json:"afternoon"`
	Evening   string `json:"evening"`
	Snack     string `json:"snack"`
}

// DailyRecord is one user's tracked activity for one calendar date.
// Every group is optional; a nil group means nothing was tracked. The
// tracked groups always encode, so saving a record clears what it leaves
// empty. A nil Weight is left out and keeps the stored weight.
type DailyRecord struct {
	UserID    string     `json:"userId"`
	Date      string     `json:"date"` // YYYY-MM-DD
	Sleep     *Sleep     `json:"sleep"`
	Meals     *Meals     `json:"meals"`
	Activity  []string   `json:"activity"`
	Period    bool       `json:"period"`
	Symptoms  []string   `json:"symptoms"`
	Weight    *float64   `json:"weight,omitempty"` // kg
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// DailyRecordID is the document id of a user's record for date.
func DailyRecordID(userID, date string) string {
	return fmt.Sprintf("%s_%s", userID, date)
}

// ErrInvalidDate is returned for dates not in YYYY-MM-DD form.
var ErrInvalidDate = errors.New("invalid date")

// ParseDate validates a YYYY-MM-DD date string.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q (want YYYY-MM-DD): %v", ErrInvalidDate, date, err)
	}
	return t, nil
}
