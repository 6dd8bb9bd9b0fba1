// Package bind decodes and validates an HTTP request body into a struct.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/Rasmogul/greatsoko/config"
	"github.com/Rasmogul/greatsoko/pkg/validate"
)

func maxBodyBytes() int64   { return config.Int64("MAX_BODY_BYTES", 4<<20) }
func maxUploadBytes() int64 { return config.Int64("MAX_UPLOAD_BYTES", 10<<20) }

// JSON decodes r.Body as JSON into dest and runs validation.
// Returns (errs, nil) on validation failures and (nil, err) when the body is
// malformed or larger than MAX_BODY_BYTES.
func JSON(r *http.Request, dest interface{}) (errs map[string]string, err error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes())

	if err = json.NewDecoder(r.Body).Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
		}
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if errs = validate.Struct(dest); validate.HasErrors(errs) {
		return errs, nil
	}
	return nil, nil
}

// File is an uploaded multipart part.
type File struct {
	multipart.File
	Header *multipart.FileHeader
}

// Multipart parses a multipart/form-data body, copies the text fields into
// dest by their `form` tag and validates it. The part named fileField is
// returned when present; callers must Close it. Pointer fields stay nil when
// the field is absent, which lets handlers tell "not sent" from "empty".
func Multipart(r *http.Request, dest interface{}, fileField string) (*File, map[string]string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes())

	if err := r.ParseMultipartForm(maxUploadBytes()); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, nil, fmt.Errorf("upload too large (max %d bytes)", maxErr.Limit)
		}
		return nil, nil, fmt.Errorf("invalid multipart form: %w", err)
	}

	fieldErrs := Form(r.MultipartForm.Value, dest)
	if len(fieldErrs) == 0 {
		fieldErrs = validate.Struct(dest)
	}
	if validate.HasErrors(fieldErrs) {
		return nil, fieldErrs, nil
	}

	if fileField == "" {
		return nil, nil, nil
	}
	f, hdr, err := r.FormFile(fileField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", fileField, err)
	}
	return &File{File: f, Header: hdr}, nil, nil
}

// Form assigns values to the exported fields of the struct dest points to,
// matched by `form` tag. It returns conversion failures keyed by field name.
func Form(values map[string][]string, dest interface{}) map[string]string {
	errs := make(map[string]string)

	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return errs
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		name, _, _ := strings.Cut(sf.Tag.Get("form"), ",")
		if name == "" || name == "-" || !sf.IsExported() {
			continue
		}
		vals, ok := values[name]
		if !ok || len(vals) == 0 {
			continue
		}

		fv := rv.Field(i)
		if fv.Kind() == reflect.Ptr {
			ptr := reflect.New(fv.Type().Elem())
			if err := setScalar(ptr.Elem(), vals[0]); err != nil {
				errs[name] = fmt.Sprintf("The %s field is invalid.", name)
				continue
			}
			fv.Set(ptr)
			continue
		}
		if err := setScalar(fv, vals[0]); err != nil {
			errs[name] = fmt.Sprintf("The %s field is invalid.", name)
		}
	}
	return errs
}

func setScalar(v reflect.Value, raw string) error {
	raw = strings.TrimSpace(raw)
	switch v.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		v.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		v.SetBool(b)
	default:
		return fmt.Errorf("unsupported kind %s", v.Kind())
	}
	return nil
}
