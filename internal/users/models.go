package users

import (
	"errors"
	"strings"

	"github.com/ariefcatur/go-order-overlay/internal/ident"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidUser  = errors.New("invalid user")
)

type Name struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

type Geolocation struct {
	Lat  string `json:"lat"`
	Long string `json:"long"`
}

type Address struct {
	City        string      `json:"city"`
	Street      string      `json:"street"`
	Number      int         `json:"number"`
	Zipcode     string      `json:"zipcode"`
	Geolocation Geolocation `json:"geolocation"`
}

type User struct {
	ID            ident.ID `json:"id"`
	Email         string   `json:"email"`
	Username      string   `json:"username"`
	Password      string   `json:"password,omitempty"`
	Name          Name     `json:"name"`
	Address       *Address `json:"address,omitempty"`
	Phone         string   `json:"phone,omitempty"`
	SchemaVersion *int     `json:"__v,omitempty"`
}

func (u User) Clone() User {
	c := u
	if u.Address != nil {
		a := *u.Address
		c.Address = &a
	}
	return c
}

// validate trims the required fields and rejects empty ones.
func (u *User) validate() error {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.TrimSpace(u.Email)
	switch {
	case u.Username == "":
		return errors.Join(ErrInvalidUser, errors.New("username is required"))
	case u.Email == "":
		return errors.Join(ErrInvalidUser, errors.New("email is required"))
	}
	return nil
}
