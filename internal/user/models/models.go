package models

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "paralelogram/pkg/domain-errors"
)

// Role is a realm role mirrored locally. RoleID is the provider's id.
type Role struct {
	ID       int64     `json:"id"`
	RoleID   uuid.UUID `json:"roleId"`
	RoleName string    `json:"roleName"`
}

// User links a local profile to the provider account UserID.
type User struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	UserName  string    `json:"userName"`
	Email     string    `json:"email,omitempty"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	Role      *Role     `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
}

// RoleRequest is the role a caller asks for when adding a user.
type RoleRequest string

const (
	RoleAdmin   RoleRequest = "ADMIN"
	RoleVisitor RoleRequest = "VISITOR"
)

var roleNames = map[RoleRequest]string{
	RoleAdmin:   "paralelogram_admin",
	RoleVisitor: "paralelogram_visitor",
}

// Value is the realm role name behind the request role. Unknown roles map to "".
func (r RoleRequest) Value() string {
	return roleNames[r]
}

// UnmarshalJSON accepts only the known role names.
func (r *RoleRequest) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	role := RoleRequest(s)
	if _, ok := roleNames[role]; !ok {
		return fmt.Errorf("unknown role %q", s)
	}
	*r = role
	return nil
}

// AddUserRequest is the body of a user creation request.
type AddUserRequest struct {
	UserName  string      `json:"userName"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	Role      RoleRequest `json:"role"`
}

// Validate rejects requests missing a required field.
func (r AddUserRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.UserName) == "":
		return dErrors.NewUser(http.StatusBadRequest, "userName is required")
	case strings.TrimSpace(r.Email) == "":
		return dErrors.NewUser(http.StatusBadRequest, "email is required")
	case r.Password == "":
		return dErrors.NewUser(http.StatusBadRequest, "password is required")
	case r.Role == "":
		return dErrors.NewUser(http.StatusBadRequest, "role is required")
	}
	return nil
}
