package chat

import "time"

// Record is one question/answer exchange. Records are insert-only; nothing
// updates or deletes them.
type Record struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID   uint64 `gorm:"not null;index:idx_chat_records_user_created,priority:1" json:"-"`
	Question string `gorm:"type:text;not null" json:"question"`
	Answer   string `gorm:"type:text;not null" json:"answer"`

	CreatedAt time.Time `gorm:"index:idx_chat_records_user_created,priority:2" json:"created_at"`
}

func (Record) TableName() string { return "chat_records" }
