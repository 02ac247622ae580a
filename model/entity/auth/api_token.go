package auth

import "time"

// ApiToken is a bearer token scoped to one org and one acting admin user.
type ApiToken struct {
	TokenID   uint      `gorm:"column:token_id;primaryKey;autoIncrement" json:"token_id"`
	Token     string    `gorm:"column:token;type:varchar(64);not null;uniqueIndex" json:"-"`
	OrgID     uint      `gorm:"column:org_id;not null" json:"org_id"`
	UserID    uint      `gorm:"column:user_id;not null" json:"user_id"`
	Revoked   bool      `gorm:"column:revoked;not null;default:false" json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

func (ApiToken) TableName() string {
	return "api_token"
}
