package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"
)

// UserView is the merged, display-ready representation of the authenticated principal.
// Views read it as-is; display fields are resolved once in BuildUserView.
type UserView struct {
	ID         string
	Email      string
	Name       string
	Role       Role
	Attributes Attributes
}

// core keys are lifted out of Attributes into typed fields.
var coreKeys = []string{"id", "email", "name", "role"}

// BuildUserView shallow-merges base with profile (profile wins on every key)
// and resolves the typed fields. When the merged record carries no valid role,
// fallback is used, and when fallback is not valid either the role is candidate.
func BuildUserView(base, profile Attributes, fallback Role) UserView {
	merged := make(Attributes, len(base)+len(profile))
	maps.Copy(merged, base)
	maps.Copy(merged, profile)

	role, ok := ParseRole(stringAttr(profile, "role"))
	if !ok {
		role, ok = ParseRole(string(fallback))
	}
	if !ok {
		role = RoleCandidate
	}

	v := UserView{
		ID:    stringAttr(merged, "id"),
		Email: stringAttr(merged, "email"),
		Role:  role,
	}
	v.Name = displayName(merged, v.Email)

	attrs := make(Attributes, len(merged))
	maps.Copy(attrs, merged)
	for _, k := range coreKeys {
		delete(attrs, k)
	}
	if len(attrs) > 0 {
		v.Attributes = attrs
	}
	return v
}

// Attribute returns a profile attribute by key.
func (v UserView) Attribute(key string) (any, bool) {
	val, ok := v.Attributes[key]
	return val, ok
}

// MarshalJSON flattens the view into a single object: attributes first, typed fields on top.
func (v UserView) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(v.Attributes)+len(coreKeys))
	maps.Copy(out, v.Attributes)
	out["id"] = v.ID
	out["email"] = v.Email
	out["name"] = v.Name
	out["role"] = string(v.Role)
	return json.Marshal(out)
}

// UnmarshalJSON parses the flat object written by MarshalJSON.
// A missing or unknown role is an error: a persisted view always carries one.
func (v *UserView) UnmarshalJSON(data []byte) error {
	var raw Attributes
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return errors.New("user view: expected object")
	}
	role, ok := ParseRole(stringAttr(raw, "role"))
	if !ok {
		return fmt.Errorf("user view: invalid role %q", stringAttr(raw, "role"))
	}

	view := UserView{
		ID:    stringAttr(raw, "id"),
		Email: stringAttr(raw, "email"),
		Name:  stringAttr(raw, "name"),
		Role:  role,
	}
	for _, k := range coreKeys {
		delete(raw, k)
	}
	if len(raw) > 0 {
		view.Attributes = raw
	}
	*v = view
	return nil
}

func displayName(a Attributes, email string) string {
	if n := stringAttr(a, "name"); n != "" {
		return n
	}
	if n := stringAttr(a, "full_name"); n != "" {
		return n
	}
	first, last := stringAttr(a, "first_name"), stringAttr(a, "last_name")
	if n := strings.TrimSpace(first + " " + last); n != "" {
		return n
	}
	if local, _, found := strings.Cut(email, "@"); found {
		return local
	}
	return email
}

// stringAttr reads a key as a string. JSON numbers are formatted without exponent.
func stringAttr(a Attributes, key string) string {
	switch val := a[key].(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return ""
	}
}
