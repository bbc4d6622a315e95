// Package ident parses the numeric row identifiers used in paths and bodies.
package ident

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// ErrInvalid is returned for identifiers that are not positive integers.
var ErrInvalid = errors.New("invalid id")

// ID is a positive row identifier. It decodes from a JSON number or from a
// numeric JSON string, since form-driven clients often send "7" instead of 7.
type ID int64

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*id = 0
			return nil
		}
		b = []byte(strings.TrimSpace(s))
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil || n < 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, string(b))
	}
	*id = ID(n)
	return nil
}

// Int64 returns the plain value.
func (id ID) Int64() int64 { return int64(id) }

// Ptr returns nil for the zero ID, which stands for "not sent".
func (id *ID) Ptr() *int64 {
	if id == nil || *id == 0 {
		return nil
	}
	v := int64(*id)
	return &v
}

// Parse converts a decimal string into a positive ID.
func Parse(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return n, nil
}

// Param reads a positive ID from the named path parameter.
func Param(c echo.Context, name string) (int64, error) {
	return Parse(c.Param(name))
}

// Query reads an optional positive ID from the named query parameter.
// A missing parameter yields (0, nil).
func Query(c echo.Context, name string) (int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	return Parse(raw)
}
