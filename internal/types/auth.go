package types

import (
	"github.com/go-playground/validator/v10"
)

// Role is the access role a user signs in with.
type Role string

// Supported roles
const (
	RoleUser               Role = "User"
	RoleHead               Role = "Head"
	RoleAdmin              Role = "Admin"
	RoleDataInfrastructure Role = "Data Infrastructure"
)

// Roles lists every role in display order.
func Roles() []Role {
	return []Role{RoleUser, RoleHead, RoleAdmin, RoleDataInfrastructure}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range Roles() {
		if r == known {
			return true
		}
	}
	return false
}

// CanSurvey reports whether the role fills in surveys (every role but Admin).
func (r Role) CanSurvey() bool {
	return r.Valid() && r != RoleAdmin
}

// LoginRequest represents the login request.
type LoginRequest struct {
	Role     Role   `json:"role" validate:"required,oneof=User Head Admin 'Data Infrastructure'"`
	Username string `json:"username" validate:"required,min=1,max=128"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued token and the session created for the user.
type LoginResponse struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	Role      Role   `json:"role"`
	SessionID string `json:"session_id,omitempty"`
}

// Validate validates the LoginRequest using the validator.
func (r *LoginRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// SubmitRequest carries the optional organization details of step 3.
type SubmitRequest struct {
	OrgName string `json:"org_name" validate:"max=256"`
	Contact string `json:"contact" validate:"max=256"`
}

// AnswerRequest carries a raw answer for a fixed question.
type AnswerRequest struct {
	Value any    `json:"value"`
	Other string `json:"other,omitempty" validate:"max=1024"`
}

// TextRequest carries a free-text answer.
type TextRequest struct {
	Text string `json:"text" validate:"max=8192"`
}

// FollowUpRequest asks for follow-up questions about an answer.
type FollowUpRequest struct {
	Answer string `json:"answer" validate:"required"`
	Count  int    `json:"count" validate:"omitempty,min=1,max=5"`
}
