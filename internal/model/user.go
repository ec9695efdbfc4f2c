package model

import (
	"time"

	"github.com/Payphone-Digital/locatory/pkg/geo"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Name                string                            `gorm:"column:name;not null"`
	Email               string                            `gorm:"column:email;unique;not null"`
	Role                string                            `gorm:"column:role;default:user;not null;index"`
	Password            string                            `gorm:"column:password;not null"`
	Address             string                            `gorm:"column:address"`
	Photo               string                            `gorm:"column:photo;default:no-photo.jpg"`
	PreferredCategory   datatypes.JSONSlice[string]       `gorm:"column:preferred_category;type:jsonb;not null;default:'[]'"`
	Location            datatypes.JSONType[geo.Point]     `gorm:"column:location;type:jsonb;not null;default:'{}'"`
	Notifications       datatypes.JSONSlice[Notification] `gorm:"column:notifications;type:jsonb;not null;default:'[]'"`
	LastLogin           *time.Time                        `gorm:"column:last_login"`
	TokenVersion        int                               `gorm:"column:token_version;default:1;not null"`
	RefreshTokenHash    string                            `gorm:"column:refresh_token_hash;default:null;index:idx_users_refresh_token_hash,where:refresh_token_hash IS NOT NULL"`
	RefreshTokenExpires *time.Time                        `gorm:"column:refresh_token_expires_at;default:null"`
	ResetPasswordToken  string                            `gorm:"column:reset_password_token;default:null;index:idx_users_reset_token,where:reset_password_token IS NOT NULL"`
	ResetPasswordExpire *time.Time                        `gorm:"column:reset_password_expire;default:null"`
}

// Notification is embedded on the user that receives it.
type Notification struct {
	ID        string    `json:"_id"`
	Username  string    `json:"username"`
	UserPhoto string    `json:"userphoto"`
	Place     string    `json:"place"`
	PlaceName string    `json:"placename"`
	ReviewID  string    `json:"reviewid"`
	Read      bool      `json:"read"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// UnreadCount returns how many notifications are still unread.
func (u *User) UnreadCount() int {
	n := 0
	for _, notif := range u.Notifications {
		if !notif.Read {
			n++
		}
	}
	return n
}

func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}
