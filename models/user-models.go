package models

import (
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email    string `json:"email" gorm:"uniqueIndex;not null"`
	Username string `json:"username" gorm:"uniqueIndex;not null"`
	FullName string `json:"name"`
	Password string `json:"-" gorm:"not null"`

	// Ordered list of owned memory ids, append-only on upload. Kept as a
	// weak back-reference: deleting a memory must clean this up explicitly.
	MemoryIDs []uint `json:"memories" gorm:"serializer:json"`
}

// RemoveMemoryID drops a memory id from the user's list. Returns true if the
// id was present.
func (u *User) RemoveMemoryID(id uint) bool {
	for i, m := range u.MemoryIDs {
		if m == id {
			u.MemoryIDs = append(u.MemoryIDs[:i], u.MemoryIDs[i+1:]...)
			return true
		}
	}
	return false
}
