package service

import "github.com/iliyamo/theater-management/internal/model"

// TheaterDTO is the public shape of a theater.
type TheaterDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	SeatCount int    `json:"seatCount"`
	ManagerID *int64 `json:"managerId"`
}

func toTheaterDTO(t model.Theater) TheaterDTO {
	return TheaterDTO{
		ID:        t.ID,
		Name:      t.Name,
		Address:   t.Address,
		SeatCount: t.SeatCount,
		ManagerID: t.ManagerID,
	}
}

// UserDTO is the public shape of a user. The password hash never leaves the
// service layer.
type UserDTO struct {
	ID       int64    `json:"id"`
	UserName string   `json:"userName"`
	Roles    []string `json:"roles"`
}

func toUserDTO(u *model.User) UserDTO {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return UserDTO{ID: u.ID, UserName: u.UserName, Roles: roles}
}

// LoginDTO is the login request body.
type LoginDTO struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

// CreateUserDTO is the admin user provisioning request body.
type CreateUserDTO struct {
	UserName string   `json:"userName"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}
