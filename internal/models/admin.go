package models

// AdminUser is a back-office operator account.
type AdminUser struct {
	BaseModel
	Email        string `gorm:"uniqueIndex" json:"email"`
	PasswordHash string `json:"-"`
	FullName     string `json:"full_name"`
}
