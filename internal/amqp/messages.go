package amqp

import (
	"encoding/json"
	"time"
)

// SheetOpMessage announces one logged workbook operation. It carries only the
// op id; the worker loads the row cells from the local database.
type SheetOpMessage struct {
	ID        int64     `json:"id"`
	Sheet     string    `json:"sheet"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSheetOpMessage(id int64, sheet, op string) *SheetOpMessage {
	return &SheetOpMessage{
		ID:        id,
		Sheet:     sheet,
		Op:        op,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SheetOpMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SheetOpMessageFromJSON creates a message from JSON bytes
func SheetOpMessageFromJSON(data []byte) (*SheetOpMessage, error) {
	var msg SheetOpMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
