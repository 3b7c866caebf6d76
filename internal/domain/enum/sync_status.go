package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// SyncStatus is the acknowledgement state of a record with respect to the
// external sync authority
type SyncStatus string

const (
	SyncStatusPending SyncStatus = "pending"
	SyncStatusSynced  SyncStatus = "synced"
	SyncStatusError   SyncStatus = "error"
	SyncStatusDeleted SyncStatus = "deleted"
)

// AllSyncStatuses lists every status in display order
var AllSyncStatuses = []SyncStatus{
	SyncStatusPending,
	SyncStatusSynced,
	SyncStatusError,
	SyncStatusDeleted,
}

var syncTransitions = map[SyncStatus][]SyncStatus{
	SyncStatusPending: {SyncStatusSynced, SyncStatusError},
	SyncStatusSynced:  {SyncStatusPending, SyncStatusError, SyncStatusDeleted},
	SyncStatusError:   {SyncStatusPending, SyncStatusSynced},
	SyncStatusDeleted: {},
}

func (s SyncStatus) String() string {
	return string(s)
}

// IsValid reports whether s is a known status
func (s SyncStatus) IsValid() bool {
	_, ok := syncTransitions[s]
	return ok
}

// IsTerminal reports whether no transition leaves s
func (s SyncStatus) IsTerminal() bool {
	return s == SyncStatusDeleted
}

// CanTransitionTo reports whether moving from s to next is allowed
func (s SyncStatus) CanTransitionTo(next SyncStatus) bool {
	for _, allowed := range syncTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParseSyncStatus converts a string into a SyncStatus
func ParseSyncStatus(value string) (SyncStatus, error) {
	s := SyncStatus(value)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid sync status %q", value)
	}
	return s, nil
}

func (s SyncStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

func (s *SyncStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseSyncStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s SyncStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s *SyncStatus) Scan(value interface{}) error {
	if value == nil {
		*s = SyncStatusPending
		return nil
	}
	switch v := value.(type) {
	case string:
		*s = SyncStatus(v)
	case []byte:
		*s = SyncStatus(v)
	default:
		return fmt.Errorf("unsupported sync status type %T", value)
	}
	return nil
}
