// internal/models/user.go
package models

import "time"

// User is an enrolled provider or an administrator.
type User struct {
	ID               string    `json:"id"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Email            string    `json:"email"`
	OrganizationName string    `json:"organizationName"`
	NPI              string    `json:"npi"`
	Address          string    `json:"address"`
	City             string    `json:"city"`
	State            string    `json:"state"`
	ZipCode          string    `json:"zipCode"`
	Phone            string    `json:"phone"`
	Role             string    `json:"role"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
