package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// FlexibleID decodes an identifier sent as a JSON number, a numeric string
// or an object {"id": n}. null and "" decode to an unset id.
type FlexibleID struct {
	value uint64
	set   bool
}

// Ptr returns the id, or nil when it was not supplied.
func (f FlexibleID) Ptr() *uint64 {
	if !f.set {
		return nil
	}
	v := f.value
	return &v
}

// Value returns the id, or 0 when it was not supplied.
func (f FlexibleID) Value() uint64 { return f.value }

func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*f = FlexibleID{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	switch b[0] {
	case '{':
		var obj struct {
			ID *FlexibleID `json:"id"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		if obj.ID != nil {
			*f = *obj.ID
		}
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		return f.parse(s)
	}
	return f.parse(string(b))
}

func (f *FlexibleID) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v == 0 {
		return fmt.Errorf("invalid id %q", s)
	}
	*f = FlexibleID{value: v, set: true}
	return nil
}

// queryID reads an optional positive id from the query string.
func queryID(c echo.Context, name string) (*uint64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return nil, fmt.Errorf("invalid %s", name)
	}
	return &v, nil
}

// pathID reads the positive :id path parameter.
func pathID(c echo.Context) (uint64, error) {
	v, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("invalid id")
	}
	return v, nil
}
