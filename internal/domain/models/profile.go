// internal/domain/models/profile.go
package models

import "time"

// Profile is a user's persisted identity record: display name plus
// preferences, along with the credential fields the sign-in paths need.
//
// NOTE:
//   - UserID is the opaque identifier issued at sign-up and never changes.
//     Password accounts use the hex of the Mongo ObjectID generated at
//     creation; Google accounts use "g:" + the Google subject ID.
//   - DisplayName uniqueness is a soft constraint: it is checked best-effort
//     at rename time against display_name_ci, not enforced by a unique index.
type Profile struct {
	UserID        string  `bson:"_id" json:"user_id"`
	DisplayName   string  `bson:"display_name" json:"display_name"`
	DisplayNameCI string  `bson:"display_name_ci" json:"-"` // lowercase, diacritics-stripped
	DarkMode      bool    `bson:"dark_mode" json:"dark_mode"`
	Email         string  `bson:"email,omitempty" json:"email,omitempty"`
	AuthMethod    string  `bson:"auth_method,omitempty" json:"-"` // password | google
	PasswordHash  *string `bson:"password_hash,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
