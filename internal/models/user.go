package models

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Profile represents the current user's account record. The username is an
// immutable display handle; everything else is editable through the profile
// form. The record is owned server-side, the client only holds a mirror.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Avatar   string `json:"avatar"`
}

// ProfileForm carries the editable profile fields through validation and
// submission. Phone numbers follow the local mobile format: leading "0" or
// "+84" followed by nine digits.
type ProfileForm struct {
	Fullname string `json:"fullname" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,vnphone"`
}

var phonePattern = regexp.MustCompile(`^(0|\+84)\d{9}$`)

// RegisterValidations installs the custom form rules on a validator instance.
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation("vnphone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
}

// FormFromProfile seeds an editable form from a loaded profile record.
func FormFromProfile(p Profile) ProfileForm {
	return ProfileForm{
		Fullname: p.Fullname,
		Email:    p.Email,
		Phone:    p.Phone,
	}
}
