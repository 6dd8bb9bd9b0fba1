package bind_test

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rasmogul/greatsoko/pkg/bind"
)

type cartInput struct {
	ProductID string `json:"productId" validate:"required,objectid"`
	Quantity  int    `json:"quantity"  validate:"required,gte=1"`
}

func TestJSONDecodesAndValidates(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/cart",
		strings.NewReader(`{"productId":"65a1b2c3d4e5f60718293a4b","quantity":2}`))

	var in cartInput
	errs, err := bind.JSON(req, &in)
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Equal(t, 2, in.Quantity)
}

func TestJSONReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(`{"productId":"x","quantity":0}`))

	var in cartInput
	errs, err := bind.JSON(req, &in)
	require.NoError(t, err)
	assert.Contains(t, errs, "productId")
	assert.Contains(t, errs, "quantity")
}

func TestJSONRejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(`{`))

	_, err := bind.JSON(req, &cartInput{})
	assert.ErrorContains(t, err, "invalid JSON")
}

type productForm struct {
	Name     *string  `form:"name"     validate:"nullable,min=2"`
	Price    *float64 `form:"price"    validate:"nullable,gte=0"`
	Quantity *int     `form:"quantity" validate:"nullable,gte=0"`
}

func multipartRequest(t *testing.T, fields map[string]string, file string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != "" {
		part, err := w.CreateFormFile("image", "lens.png")
		require.NoError(t, err)
		_, err = part.Write([]byte(file))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/products/1", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestMultipartPartialFieldsAndFile(t *testing.T) {
	req := multipartRequest(t, map[string]string{"price": "19.5"}, "PNGDATA")

	var in productForm
	f, errs, err := bind.Multipart(req, &in, "image")
	require.NoError(t, err)
	require.Empty(t, errs)
	require.NotNil(t, f)
	defer f.Close()

	assert.Nil(t, in.Name)
	assert.Nil(t, in.Quantity)
	require.NotNil(t, in.Price)
	assert.Equal(t, 19.5, *in.Price)

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "PNGDATA", string(data))
	assert.Equal(t, "lens.png", f.Header.Filename)
}

func TestMultipartConversionErrors(t *testing.T) {
	req := multipartRequest(t, map[string]string{"quantity": "many"}, "")

	var in productForm
	f, errs, err := bind.Multipart(req, &in, "image")
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.Contains(t, errs, "quantity")
}
