// Package mysql implements the auth repositories for MySQL. UUIDs are stored
// as BINARY(16). The same queries run unchanged on SQLite, whose schema uses
// BLOB ids and DATETIME columns.
package mysql

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/tiago-cos/prosa-sub000/internal/errors"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func marshalID(id uuid.UUID, field string) ([]byte, error) {
	b, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal "+field)
	}
	return b, nil
}

func unmarshalID(b []byte, dest *uuid.UUID, field string) error {
	if err := dest.UnmarshalBinary(b); err != nil {
		return apperrors.Wrap(err, "failed to unmarshal "+field)
	}
	return nil
}

func utcOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
