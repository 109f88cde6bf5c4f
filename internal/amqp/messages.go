package amqp

import (
	"encoding/json"
	"time"
)

// DaySavedMessage announces that a day's ledger was fully replaced. It
// carries only the day key; consumers fetch the persisted rows themselves so
// they always export post-save truth.
type DaySavedMessage struct {
	Date      string    `json:"date"`
	Timestamp time.Time `json:"timestamp"`
}

func NewDaySavedMessage(date string) *DaySavedMessage {
	return &DaySavedMessage{Date: date, Timestamp: time.Now()}
}

func (m *DaySavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func DaySavedMessageFromJSON(data []byte) (*DaySavedMessage, error) {
	var msg DaySavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
