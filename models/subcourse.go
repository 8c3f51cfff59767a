package models

import "time"

// SubCourse is a user-defined label questions can point to by name. Questions hold the
// name itself, so removing a sub-course leaves existing references in place.
type SubCourse struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_sub_course" json:"-"`
	Name      string    `gorm:"not null;size:200;uniqueIndex:idx_user_sub_course" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
