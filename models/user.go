package models

import "gorm.io/gorm"

// User represents a user in the system
type User struct {
	gorm.Model
	Subject    string      `gorm:"uniqueIndex;not null;size:200"`
	Nickname   string      `gorm:"size:100"`
	Series     []Series    `gorm:"foreignKey:UserID"`
	SubCourses []SubCourse `gorm:"foreignKey:UserID"`
}
