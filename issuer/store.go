// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package issuer

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// EndpointStore persists endpoint records.
type EndpointStore interface {
	// CreateEndpoint records e. Rediscovery may create an endpoint whose
	// name is already recorded for the issuer; the new url replaces the old.
	CreateEndpoint(ctx context.Context, e Endpoint) error
}

// Store is the subset of the issuer store used during discovery and sign in.
type Store interface {
	EndpointStore

	// Endpoints returns the endpoints recorded for the issuer.
	Endpoints(ctx context.Context, issuerID int64) (Endpoints, error)

	// UpdateScopesSupported replaces the issuer's space separated list of
	// supported scopes.
	UpdateScopesSupported(ctx context.Context, issuerID int64, scopes string) error
}

// MemStore is an in-memory Store which also lists issuers. It's safe for
// concurrent use.
type MemStore struct {
	m         sync.Mutex
	issuers   map[int64]*Issuer
	endpoints map[int64]map[string]Endpoint
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		issuers:   map[int64]*Issuer{},
		endpoints: map[int64]map[string]Endpoint{},
	}
}

// AddIssuer stores a copy of iss under its ID.
func (s *MemStore) AddIssuer(iss *Issuer) error {
	const op = "MemStore.AddIssuer"
	if iss == nil {
		return fmt.Errorf("%s: issuer is nil: %w", op, ErrNilParameter)
	}
	s.m.Lock()
	defer s.m.Unlock()
	cp := *iss
	s.issuers[iss.ID] = &cp
	return nil
}

// Issuer returns a copy of the stored issuer.
func (s *MemStore) Issuer(_ context.Context, id int64) (*Issuer, error) {
	const op = "MemStore.Issuer"
	s.m.Lock()
	defer s.m.Unlock()
	iss, ok := s.issuers[id]
	if !ok {
		return nil, fmt.Errorf("%s: issuer %d: %w", op, id, ErrNotFound)
	}
	cp := *iss
	return &cp, nil
}

// ListIssuers returns copies of every stored issuer ordered by ID.
func (s *MemStore) ListIssuers(_ context.Context) ([]*Issuer, error) {
	s.m.Lock()
	defer s.m.Unlock()
	out := make([]*Issuer, 0, len(s.issuers))
	for _, iss := range s.issuers {
		cp := *iss
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CreateEndpoint implements EndpointStore.
func (s *MemStore) CreateEndpoint(_ context.Context, e Endpoint) error {
	const op = "MemStore.CreateEndpoint"
	switch {
	case e.Name == "":
		return fmt.Errorf("%s: endpoint name is empty: %w", op, ErrInvalidParameter)
	case e.URL == "":
		return fmt.Errorf("%s: endpoint url is empty: %w", op, ErrInvalidParameter)
	}
	s.m.Lock()
	defer s.m.Unlock()
	if _, ok := s.issuers[e.IssuerID]; !ok {
		return fmt.Errorf("%s: issuer %d: %w", op, e.IssuerID, ErrNotFound)
	}
	if s.endpoints[e.IssuerID] == nil {
		s.endpoints[e.IssuerID] = map[string]Endpoint{}
	}
	s.endpoints[e.IssuerID][e.Name] = e
	return nil
}

// Endpoints implements Store. Endpoints are ordered by name.
func (s *MemStore) Endpoints(_ context.Context, issuerID int64) (Endpoints, error) {
	s.m.Lock()
	defer s.m.Unlock()
	out := make(Endpoints, 0, len(s.endpoints[issuerID]))
	for _, e := range s.endpoints[issuerID] {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// UpdateScopesSupported implements Store.
func (s *MemStore) UpdateScopesSupported(_ context.Context, issuerID int64, scopes string) error {
	const op = "MemStore.UpdateScopesSupported"
	s.m.Lock()
	defer s.m.Unlock()
	iss, ok := s.issuers[issuerID]
	if !ok {
		return fmt.Errorf("%s: issuer %d: %w", op, issuerID, ErrNotFound)
	}
	iss.ScopesSupported = scopes
	return nil
}
