package user

import (
	"time"

	"mahalla-taskboard/services/territory"
)

type User struct {
	ID         string             `gorm:"column:id;primaryKey" json:"id"`
	Username   string             `gorm:"column:username;uniqueIndex" json:"username"`
	Email      string             `gorm:"column:email" json:"email,omitempty"`
	FullName   string             `gorm:"column:full_name" json:"full_name"`
	Phone      string             `gorm:"column:phone" json:"phone"`
	JSHIR      string             `gorm:"column:jshir" json:"jshir,omitempty"`
	TelegramID *int64             `gorm:"column:telegram_id;uniqueIndex" json:"telegram_id,omitempty"`
	JobTitle   string             `gorm:"column:job_title" json:"job_title,omitempty"`
	MahallaID  *string            `gorm:"column:mahalla_id;index" json:"mahalla_id,omitempty"`
	Mahalla    *territory.Mahalla `gorm:"foreignKey:MahallaID" json:"mahalla,omitempty"`
	IsStaff    bool               `gorm:"column:is_staff" json:"is_staff"`
	IsActive   bool               `gorm:"column:is_active;default:true" json:"is_active"`
	DateJoined time.Time          `gorm:"column:date_joined" json:"date_joined"`
	LastLogin  *time.Time         `gorm:"column:last_login" json:"last_login,omitempty"`
}

func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
