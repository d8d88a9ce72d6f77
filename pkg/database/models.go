package database

import (
	"time"

	"gorm.io/gorm"
)

// Transmission is one key press: the first frame plus any repeat frames
// sent while the key was held
type Transmission struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Protocol  string    `gorm:"index;size:16;not null" json:"protocol"`
	Address   uint32    `gorm:"index;not null" json:"address"`
	Command   uint32    `gorm:"not null" json:"command"`
	Toggle    bool      `json:"toggle"`
	Frames    int       `gorm:"default:0" json:"frames"`
	Repeats   int       `gorm:"default:0" json:"repeats"`
	Symbols   int       `gorm:"default:0" json:"symbols"`
	AirtimeUS int64     `gorm:"default:0" json:"airtime_us"`
	Error     string    `gorm:"size:255" json:"error,omitempty"`
	StartTime time.Time `gorm:"index;not null" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for Transmission
func (Transmission) TableName() string {
	return "transmissions"
}

// BeforeCreate fills in timestamps the caller left unset
func (t *Transmission) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.StartTime.IsZero() {
		t.StartTime = now
	}
	if t.EndTime.IsZero() {
		t.EndTime = t.StartTime
	}
	return nil
}

// Failed reports whether the press stopped on an error
func (t *Transmission) Failed() bool {
	return t.Error != ""
}

// Airtime returns the summed airtime of all frames of the press
func (t *Transmission) Airtime() time.Duration {
	return time.Duration(t.AirtimeUS) * time.Microsecond
}
