package tpos

import "errors"

var (
	ErrTposNotFound = errors.New("tpos not found")
	ErrNotYourTpos  = errors.New("tpos belongs to another wallet")
)
