// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package apple

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/lernkit/idp/oidc"
)

// UserFormField is the form_post field carrying the user's name on first
// authorization.
const UserFormField = "user"

type postedUser struct {
	Name *oidc.Profile `json:"name"`
}

// CaptureProfile stores the name the provider posts alongside the
// authorization response into slot. It's a no-op when the form has no user
// field or the user has no name, which is the case for every authorization
// after the first.
func CaptureProfile(form url.Values, slot *oidc.ProfileSlot) error {
	const op = "apple.CaptureProfile"
	if slot == nil {
		return fmt.Errorf("%s: profile slot is nil: %w", op, oidc.ErrNilParameter)
	}
	raw := form.Get(UserFormField)
	if raw == "" {
		return nil
	}
	var u postedUser
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return fmt.Errorf("%s: unable to parse %s field: %w", op, UserFormField, ErrInvalidProfile)
	}
	if u.Name == nil || (u.Name.FirstName == "" && u.Name.LastName == "") {
		return nil
	}
	slot.Set(u.Name)
	return nil
}
