package models

import "time"

// User holds the structure for the user collection in mongo. Lawyers and
// moderators carry a bcrypt password hash; records created by the AI intake
// flow (register_user) have no password until the person claims the account.
type User struct {
	ID        string    `json:"_id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Phone     string    `json:"phone,omitempty" bson:"phone,omitempty"`
	Password  string    `json:"-" bson:"password,omitempty"`
	Role      Role      `json:"role" bson:"role"`
	Active    bool      `json:"active" bson:"active"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
