package model

import (
	"encoding/json"

	"gorm.io/gorm"
)

// SystemUserID owns entities materialized by the processors before their
// real owner is known.
const SystemUserID = "system"

type User struct {
	gorm.Model
	ID    string `gorm:"primaryKey"`
	Email string
	Name  string
}

type UserList []User

func (u User) String() string {
	val, _ := json.Marshal(u)
	return string(val)
}

func NewSystemUser() User {
	return User{
		ID:    SystemUserID,
		Email: "system@devbrief.local",
		Name:  "System",
	}
}
