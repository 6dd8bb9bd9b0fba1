// Package controllers adapts HTTP requests to the services. Handlers bind
// and validate input, call one service method and write the envelope.
package controllers

import (
	"github.com/Rasmogul/greatsoko/app/services"
	"github.com/Rasmogul/greatsoko/pkg/bind"
	"github.com/Rasmogul/greatsoko/pkg/ctx"
)

// actor resolves the caller, writing a 401 when it cannot.
func actor(c *ctx.Context) (services.Actor, bool) {
	a, err := services.ActorFrom(c.Claims())
	if err != nil {
		c.Fail(err)
		return services.Actor{}, false
	}
	return a, true
}

func upload(f *bind.File) *services.Upload {
	if f == nil {
		return nil
	}
	return &services.Upload{
		Filename:    f.Header.Filename,
		ContentType: f.Header.Header.Get("Content-Type"),
		Body:        f,
	}
}
