package models

import "time"

// User is the authenticated identity the middleware hands to handlers.
type User struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	PreferredUsername string    `json:"preferredUsername,omitempty"`
	TenantID          string    `json:"tenantId,omitempty"`
	Roles             []string  `json:"roles,omitempty"`
	Groups            []string  `json:"groups,omitempty"`
	IssuedAt          time.Time `json:"issuedAt"`
	ExpiresAt         time.Time `json:"expiresAt"`
}

// UserClaims mirrors the identity provider's token claims.
type UserClaims struct {
	Oid               string   `json:"oid"`
	Email             string   `json:"email"`
	PreferredUsername string   `json:"preferred_username"`
	Name              string   `json:"name"`
	Tid               string   `json:"tid"`
	Roles             []string `json:"roles,omitempty"`
	Groups            []string `json:"groups,omitempty"`
	Aud               string   `json:"aud"`
	Iss               string   `json:"iss"`
	Iat               int64    `json:"iat"`
	Exp               int64    `json:"exp"`
}

// ToUser converts token claims into the User model. The object ID is the
// identity key; email falls back to the preferred username when the email
// claim is absent, which guest and some workplace accounts are.
func (uc *UserClaims) ToUser() *User {
	email := uc.Email
	if email == "" {
		email = uc.PreferredUsername
	}
	return &User{
		ID:                uc.Oid,
		Email:             email,
		Name:              uc.Name,
		PreferredUsername: uc.PreferredUsername,
		TenantID:          uc.Tid,
		Roles:             uc.Roles,
		Groups:            uc.Groups,
		IssuedAt:          time.Unix(uc.Iat, 0),
		ExpiresAt:         time.Unix(uc.Exp, 0),
	}
}
