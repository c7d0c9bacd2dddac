// Package storage provides local persistence for bankctl.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/bankctl/internal/model"
	"github.com/Veraticus/bankctl/internal/snapshot"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidSession  = errors.New("invalid session")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateSession(session model.Session) error {
	if strings.TrimSpace(session.Token) == "" {
		return fmt.Errorf("%w: missing token", ErrInvalidSession)
	}
	return nil
}

func validateSnapshot(entry snapshot.Entry) error {
	if strings.TrimSpace(entry.Kind) == "" {
		return fmt.Errorf("%w: missing list kind", ErrInvalidSnapshot)
	}
	if entry.Page < 1 {
		return fmt.Errorf("%w: page %d", ErrInvalidSnapshot, entry.Page)
	}
	if entry.Total < 0 {
		return fmt.Errorf("%w: negative total", ErrInvalidSnapshot)
	}
	return nil
}
