package cmsdb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// entity is implemented by pointers to the record types of array
// collections.
type entity[E any] interface {
	*E
	recordID() string
	stamp(id string, now time.Time)
	touch(now time.Time)
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuidv7: %w", err)
	}

	return id.String(), nil
}

func list[E any](ctx context.Context, db *DB, c Collection) ([]E, error) {
	data, err := db.read(ctx, c)
	if err != nil {
		return nil, err
	}

	return decodeList[E](c, data)
}

func indexOf[E any, P entity[E]](all []E, id string) int {
	if id == "" {
		return -1
	}

	for i := range all {
		if P(&all[i]).recordID() == id {
			return i
		}
	}

	return -1
}

func getByID[E any, P entity[E]](ctx context.Context, db *DB, c Collection, id string) (E, error) {
	var zero E

	all, err := list[E](ctx, db, c)
	if err != nil {
		return zero, err
	}

	i := indexOf[E, P](all, id)
	if i < 0 {
		return zero, ErrNotFound
	}

	return all[i], nil
}

// mutate loads c under the collection lock, hands the decoded records to fn
// and saves the result if fn reports a change.
func mutate[E any](ctx context.Context, db *DB, c Collection, fn func(all []E) ([]E, bool, error)) error {
	_, err := db.write(ctx, c, func(cur []byte) ([]byte, error) {
		all, err := decodeList[E](c, cur)
		if err != nil {
			return nil, err
		}

		next, changed, err := fn(all)
		if err != nil || !changed {
			return nil, err
		}

		return encode(next)
	})

	return err
}

// insert assigns an id and timestamps to rec and appends it. check runs under
// the lock against the current records.
func insert[E any, P entity[E]](ctx context.Context, db *DB, c Collection, rec E, check func(all []E, rec *E) error) (E, error) {
	var zero E

	id, err := newID()
	if err != nil {
		return zero, err
	}

	P(&rec).stamp(id, db.now())

	err = mutate(ctx, db, c, func(all []E) ([]E, bool, error) {
		if check != nil {
			err := check(all, &rec)
			if err != nil {
				return nil, false, err
			}
		}

		return append(all, rec), true, nil
	})
	if err != nil {
		return zero, err
	}

	return rec, nil
}

// modify applies fn to the record with id and refreshes its updatedAt. check
// runs after fn with the index of the modified record.
func modify[E any, P entity[E]](ctx context.Context, db *DB, c Collection, id string, fn func(rec *E) error, check func(all []E, i int) error) (E, error) {
	var out E

	err := mutate(ctx, db, c, func(all []E) ([]E, bool, error) {
		i := indexOf[E, P](all, id)
		if i < 0 {
			return nil, false, ErrNotFound
		}

		err := fn(&all[i])
		if err != nil {
			return nil, false, err
		}

		P(&all[i]).touch(db.now())

		if check != nil {
			err := check(all, i)
			if err != nil {
				return nil, false, err
			}
		}

		out = all[i]

		return all, true, nil
	})
	if err != nil {
		var zero E

		return zero, err
	}

	return out, nil
}

// update shallow-merges patch into the record with id. id and createdAt never
// change.
func update[E any, P entity[E]](ctx context.Context, db *DB, c Collection, id string, patch Patch, check func(all []E, i int) error) (E, error) {
	return modify[E, P](ctx, db, c, id, func(rec *E) error {
		merged, err := mergePatch(*rec, patch, immutableKeys...)
		if err != nil {
			return err
		}

		*rec = merged

		return nil
	}, check)
}

func remove[E any, P entity[E]](ctx context.Context, db *DB, c Collection, id string) error {
	return mutate(ctx, db, c, func(all []E) ([]E, bool, error) {
		i := indexOf[E, P](all, id)
		if i < 0 {
			return nil, false, ErrNotFound
		}

		return append(all[:i:i], all[i+1:]...), true, nil
	})
}
