package model

import (
	syncModel "refqa_backend/internals/features/sync/model"
)

// UserModel merepresentasikan tabel users di database.
// Kredensial & token push tidak pernah ikut ke JSON (pull).
type UserModel struct {
	syncModel.Syncable

	Name         string  `gorm:"type:varchar(120);not null;column:name" json:"name"`
	Email        *string `gorm:"type:varchar(255);uniqueIndex:uq_users_email;column:email" json:"email"`
	Phone        *string `gorm:"type:varchar(32);column:phone" json:"phone"`
	Role         string  `gorm:"type:varchar(20);not null;default:'SERVANT';column:role" json:"role"`
	IsActive     bool    `gorm:"not null;default:true;column:is_active" json:"isActive"`
	FcmToken     *string `gorm:"type:text;column:fcm_token" json:"-"`
	PasswordHash *string `gorm:"type:text;column:password_hash" json:"-"`
}

// TableName memastikan nama tabel sesuai dengan skema database
func (UserModel) TableName() string {
	return "users"
}
