package controllers

import (
	"net/http"

	"github.com/Rasmogul/greatsoko/app/services"
	"github.com/Rasmogul/greatsoko/pkg/ctx"
)

type ProductController struct {
	products *services.ProductService
}

func NewProductController(products *services.ProductService) *ProductController {
	return &ProductController{products: products}
}

// Index lists products: ?keyword=lens&pageNumber=2
func (h *ProductController) Index(c *ctx.Context) {
	page, err := h.products.List(c.Context(), c.Query("keyword"), c.QueryInt("pageNumber", 1))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(page)
}

func (h *ProductController) Top(c *ctx.Context) {
	top, err := h.products.Top(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(top)
}

func (h *ProductController) Show(c *ctx.Context) {
	p, err := h.products.Get(c.Context(), c.Param("id"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}

// Store creates a product from a multipart form with an optional "image".
func (h *ProductController) Store(c *ctx.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var in services.ProductInput
	file, ok := c.BindMultipart(&in, "image")
	if !ok {
		return
	}
	if file != nil {
		defer file.Close()
	}

	p, err := h.products.Create(c.Context(), a, in, upload(file))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(p)
}

func (h *ProductController) Update(c *ctx.Context) {
	var patch services.ProductPatch
	file, ok := c.BindMultipart(&patch, "image")
	if !ok {
		return
	}
	if file != nil {
		defer file.Close()
	}

	p, err := h.products.Update(c.Context(), c.Param("id"), patch, upload(file))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}

func (h *ProductController) Destroy(c *ctx.Context) {
	if err := h.products.Delete(c.Context(), c.Param("id")); err != nil {
		c.Fail(err)
		return
	}
	c.Message("Product removed")
}

func (h *ProductController) Review(c *ctx.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var in services.ReviewInput
	if !c.BindJSON(&in) {
		return
	}
	p, err := h.products.AddReview(c.Context(), a, c.Param("id"), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Respond(http.StatusCreated, "Review added", p)
}
