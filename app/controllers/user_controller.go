package controllers

import (
	"github.com/Rasmogul/greatsoko/app/services"
	"github.com/Rasmogul/greatsoko/pkg/ctx"
)

type UserController struct {
	users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{users: users}
}

func (h *UserController) Register(c *ctx.Context) {
	var in services.RegisterInput
	if !c.BindJSON(&in) {
		return
	}
	res, err := h.users.Register(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(res)
}

func (h *UserController) Login(c *ctx.Context) {
	var in services.LoginInput
	if !c.BindJSON(&in) {
		return
	}
	res, err := h.users.Login(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(res)
}

func (h *UserController) Profile(c *ctx.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	u, err := h.users.Profile(c.Context(), a)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(u)
}

func (h *UserController) Index(c *ctx.Context) {
	users, err := h.users.List(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(users)
}
