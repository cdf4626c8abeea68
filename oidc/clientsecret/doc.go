// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package clientsecret builds and inspects client secrets for providers that
// expect the relying party's secret to be an ES256 signed JWT rather than a
// shared string, as Sign in with Apple does.
//
// The secret expires and has to be regenerated by the operator before its
// "exp"; Parse reads that expiry back out of a stored secret.
//
// Example usage:
//
//	s, err := clientsecret.New("TEAM123456", "com.example.lms", "KEY1234567", privateKey,
//		clientsecret.WithLifetime(90*24*time.Hour),
//	)
//	secret, err := s.Serialize()
package clientsecret
