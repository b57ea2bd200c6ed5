package models

import "time"

// Slot names one of the two locally persisted post sequences.
type Slot string

const (
	SlotCitizen Slot = "citizen"
	SlotAdmin   Slot = "admin"
)

// Key is the storage key the slot is kept under.
func (s Slot) Key() string {
	if s == SlotAdmin {
		return "adminPosts"
	}
	return "posts"
}

// Kind is the author kind of every post in the slot.
func (s Slot) Kind() AuthorKind {
	if s == SlotAdmin {
		return AuthorAdmin
	}
	return AuthorCitizen
}

// SlotFor returns the slot a post of the given kind belongs to.
func SlotFor(kind AuthorKind) Slot {
	if kind == AuthorAdmin {
		return SlotAdmin
	}
	return SlotCitizen
}

// SlotRecord is the SQL row backing one storage key.
type SlotRecord struct {
	Key       string    `gorm:"column:slot_key;primaryKey;size:64"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName pins the table name.
func (SlotRecord) TableName() string { return "slot_records" }
