// internal/models/user.go
package models

import "time"

// User is an account known to the service. Identity comes from the OIDC
// provider; this row carries the service-side attributes.
type User struct {
	Username           string    `json:"username"`
	Email              string    `json:"email"`
	Realm              string    `json:"realm"`
	Active             bool      `json:"active"`
	Admin              bool      `json:"admin"`
	AdminDomains       []string  `json:"admin_domains,omitempty"`
	NotifyOnJob        bool      `json:"notify_on_job"`
	NotifyOnDeletion   bool      `json:"notify_on_deletion"`
	NotifyOnUser       bool      `json:"notify_on_user"`
	PassphraseHash     string    `json:"-"`
	CreatedAt          time.Time `json:"created_at"`
	LastSeenAt         time.Time `json:"last_seen_at"`
}

// UserUpdate carries the admin-editable user attributes.
type UserUpdate struct {
	Active       *bool    `json:"active,omitempty"`
	Admin        *bool    `json:"admin,omitempty"`
	AdminDomains []string `json:"admin_domains,omitempty"`
}

// AccountUpdate carries the self-service account attributes.
type AccountUpdate struct {
	Email            *string `json:"email,omitempty"`
	NotifyOnJob      *bool   `json:"notify_on_job,omitempty"`
	NotifyOnDeletion *bool   `json:"notify_on_deletion,omitempty"`
	NotifyOnUser     *bool   `json:"notify_on_user,omitempty"`
}
