// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"fmt"
	"sync"
)

// UserInfo is the normalized identity handed to account matching.
type UserInfo struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstname,omitempty"`
	LastName  string `json:"lastname,omitempty"`
}

// Profile holds name data a provider only sends once, when the user first
// authorizes the relying party.
type Profile struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// ProfileSlot carries a Profile from the authorization callback to the
// first identity normalization of the same login flow. It's single use: Take
// returns the profile and empties the slot. The zero value is an empty slot.
type ProfileSlot struct {
	mu      sync.Mutex
	profile *Profile
}

// Set stores p, replacing anything already in the slot.
func (s *ProfileSlot) Set(p *Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p
}

// Take returns the stored profile, or nil, and clears the slot.
func (s *ProfileSlot) Take() *Profile {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.profile
	s.profile = nil
	return p
}

// Empty reports whether the slot holds no profile.
func (s *ProfileSlot) Empty() bool {
	if s == nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile == nil
}

// Normalize maps verified id_token claims to a UserInfo. The "email" claim
// is used as both username and email since the provider has no separate
// username claim; callers matching accounts across providers must expect
// collisions. Names come from slot, which is consumed only when
// normalization succeeds. A nil slot is allowed.
func Normalize(claims map[string]interface{}, slot *ProfileSlot) (*UserInfo, error) {
	const op = "oidc.Normalize"
	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return nil, fmt.Errorf("%s: email claim is missing: %w", op, ErrIdentityIncomplete)
	}
	info := &UserInfo{
		Username: email,
		Email:    email,
	}
	if p := slot.Take(); p != nil {
		info.FirstName = p.FirstName
		info.LastName = p.LastName
	}
	return info, nil
}
