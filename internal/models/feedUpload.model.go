package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// FeedUploadStatus values are persisted as integers and must keep their numbering.
type FeedUploadStatus int

const (
	FeedUploadStatusQueued FeedUploadStatus = iota + 1
	FeedUploadStatusProcessing
	FeedUploadStatusFinished
	FeedUploadStatusFinishedError
)

var feedUploadStatusNames = map[FeedUploadStatus]string{
	FeedUploadStatusQueued:        "QUEUED",
	FeedUploadStatusProcessing:    "PROCESSING",
	FeedUploadStatusFinished:      "FINISHED",
	FeedUploadStatusFinishedError: "FINISHED_ERROR",
}

func (s FeedUploadStatus) String() string {
	if name, ok := feedUploadStatusNames[s]; ok {
		return name
	}
	return "UNKNOWN(" + strconv.Itoa(int(s)) + ")"
}

func (s FeedUploadStatus) IsValid() bool {
	_, ok := feedUploadStatusNames[s]
	return ok
}

// IsTerminal reports whether no further transition is allowed from s.
func (s FeedUploadStatus) IsTerminal() bool {
	return s == FeedUploadStatusFinished || s == FeedUploadStatusFinishedError
}

func ParseFeedUploadStatus(name string) (FeedUploadStatus, error) {
	for status, statusName := range feedUploadStatusNames {
		if statusName == name {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown feed upload status %q", name)
}

func (s FeedUploadStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *FeedUploadStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		status, err := ParseFeedUploadStatus(name)
		if err != nil {
			return err
		}
		*s = status
		return nil
	}

	var value int
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("feed upload status must be a name or an integer: %w", err)
	}
	status := FeedUploadStatus(value)
	if !status.IsValid() {
		return fmt.Errorf("unknown feed upload status %d", value)
	}
	*s = status
	return nil
}

func (s FeedUploadStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *FeedUploadStatus) Scan(value any) error {
	switch v := value.(type) {
	case int64:
		*s = FeedUploadStatus(v)
	case int32:
		*s = FeedUploadStatus(v)
	case []byte:
		n, err := strconv.Atoi(string(v))
		if err != nil {
			return fmt.Errorf("invalid feed upload status %q: %w", v, err)
		}
		*s = FeedUploadStatus(n)
	default:
		return fmt.Errorf("unsupported feed upload status type %T", value)
	}
	return nil
}

// FeedUpload tracks one submitted XML document through processing.
type FeedUpload struct {
	ID                     int              `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Status                 FeedUploadStatus `gorm:"column:status;not null"             json:"status"`
	Error                  *string          `gorm:"column:error"                       json:"error"`
	CreatedAt              time.Time        `gorm:"column:created_at;autoCreateTime"   json:"created_at"`
	SuccessfullyFinishedAt *time.Time       `gorm:"column:successfully_finished_at"    json:"successfully_finished_at"`
}

func (FeedUpload) TableName() string {
	return "feed_uploads"
}

// IsConsistent checks the error/finished_at invariants against the status.
func (f *FeedUpload) IsConsistent() bool {
	hasError := f.Error != nil
	hasFinishedAt := f.SuccessfullyFinishedAt != nil

	return hasError == (f.Status == FeedUploadStatusFinishedError) &&
		hasFinishedAt == (f.Status == FeedUploadStatusFinished)
}
