package models

import (
	"time"
)

// UserProfile is the directory document stored per user, keyed by userId.
// Port is kept untyped because clients send it as either a JSON string or a
// number and the stored value is passed through verbatim.
type UserProfile struct {
	UserID      string    `json:"userId" firestore:"-" bson:"_id"`
	Username    string    `json:"username" firestore:"username" bson:"username"`
	IP          string    `json:"ip" firestore:"ip" bson:"ip"`
	Port        any       `json:"port" firestore:"port" bson:"port"`
	AvatarURL   *string   `json:"avatarUrl" firestore:"avatarUrl" bson:"avatarUrl"`
	Contacts    []string  `json:"contacts" firestore:"contacts" bson:"contacts"`
	LastUpdated time.Time `json:"lastUpdated" firestore:"lastUpdated" bson:"lastUpdated"`
}

type CreateUserRequest struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	IP       string `json:"ip"`
	Port     any    `json:"port"`
	// Avatar carries the image bytes base64-encoded, or empty when the user
	// uploads no avatar.
	Avatar string `json:"avatar"`
}

type CreateUserResult struct {
	UserID    string  `json:"userId"`
	AvatarURL *string `json:"avatarUrl"`
}

type UpdateUserRequest struct {
	UserID   string `json:"-"`
	Username string `json:"username"`
	IP       string `json:"ip"`
	Port     any    `json:"port"`
	Avatar   string `json:"avatar"`
}

type AddContactRequest struct {
	ContactID string `json:"contactId"`
}

// ContactEntry is one element of a contact listing. For a resolved contact it
// carries the referenced profile; for a dangling reference only Error is set,
// so one deleted contact never fails the whole listing.
type ContactEntry struct {
	UserID      string     `json:"userId,omitempty"`
	Username    string     `json:"username,omitempty"`
	IP          string     `json:"ip,omitempty"`
	Port        any        `json:"port,omitempty"`
	AvatarURL   *string    `json:"avatarUrl,omitempty"`
	Contacts    []string   `json:"contacts,omitempty"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
	Error       string     `json:"error,omitempty"`
}

func (r *CreateUserRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.UserID == "" {
		errors["userId"] = "userId is required"
	}
	if r.Username == "" {
		errors["username"] = "username is required"
	}
	if r.IP == "" {
		errors["ip"] = "ip is required"
	}
	if !portPresent(r.Port) {
		errors["port"] = "port is required"
	}

	return errors
}

// portPresent treats nil and the empty string as missing; any number counts
// as supplied.
func portPresent(port any) bool {
	if port == nil {
		return false
	}
	if s, ok := port.(string); ok {
		return s != ""
	}
	return true
}
