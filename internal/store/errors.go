package store

import "errors"

// Sentinel errors translated from gorm so callers never import gorm.
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("record already exists")
)
