package identity

import "errors"

// Expected, recoverable outcomes of the credential lifecycle. They are mapped
// to status codes at the HTTP edge and must never crash the process.
var (
	ErrInvalidInput       = errors.New("identity: invalid input")
	ErrEmailTaken         = errors.New("identity: email already registered")
	ErrNotFound           = errors.New("identity: not found")
	ErrTokenExpired       = errors.New("identity: token expired")
	ErrInvalidToken       = errors.New("identity: invalid token")
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	ErrUnverified         = errors.New("identity: email not verified")
	ErrDispatchFailed     = errors.New("identity: email dispatch failed")
)
