package docstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore implements Store on top of a Firestore client.
type FirestoreStore struct {
	c   *firestore.Client
	log *zap.Logger
}

func NewFirestoreStore(c *firestore.Client, log *zap.Logger) *FirestoreStore {
	return &FirestoreStore{c: c, log: log}
}

func (s *FirestoreStore) Get(ctx context.Context, col, id string) (Snapshot, error) {
	doc, err := s.c.Collection(col).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return Snapshot{}, fmt.Errorf("%s/%s: %w", col, id, ErrNotFound)
		}
		return Snapshot{}, err
	}
	return Snapshot{ID: doc.Ref.ID, Data: Doc(doc.Data())}, nil
}

func (s *FirestoreStore) Create(ctx context.Context, col string, data Doc) (string, error) {
	ref := s.c.Collection(col).NewDoc()
	if _, err := ref.Create(ctx, map[string]interface{}(data)); err != nil {
		return "", err
	}
	return ref.ID, nil
}

func (s *FirestoreStore) Set(ctx context.Context, col, id string, data Doc, merge bool) error {
	ref := s.c.Collection(col).Doc(id)
	var err error
	if merge {
		_, err = ref.Set(ctx, map[string]interface{}(data), firestore.MergeAll)
	} else {
		_, err = ref.Set(ctx, map[string]interface{}(data))
	}
	return err
}

func (s *FirestoreStore) Update(ctx context.Context, col, id string, ups ...Update) error {
	_, err := s.c.Collection(col).Doc(id).Update(ctx, toFirestoreUpdates(ups))
	if err != nil && status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s/%s: %w", col, id, ErrNotFound)
	}
	return err
}

func (s *FirestoreStore) Delete(ctx context.Context, col, id string) error {
	_, err := s.c.Collection(col).Doc(id).Delete(ctx)
	return err
}

func (s *FirestoreStore) Query(ctx context.Context, col string, filters ...Filter) ([]Snapshot, error) {
	q := s.c.Collection(col).Query
	for _, f := range filters {
		q = q.Where(f.Field, f.Op, f.Value)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []Snapshot
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, Snapshot{ID: doc.Ref.ID, Data: Doc(doc.Data())})
	}
	return out, nil
}

func (s *FirestoreStore) Batch() Batch {
	return &firestoreBatch{s: s, b: s.c.Batch()}
}

func (s *FirestoreStore) ListenDoc(ctx context.Context, col, id string, fn func(Snapshot, bool)) CancelFunc {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		it := s.c.Collection(col).Doc(id).Snapshots(ctx)
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					s.log.Warn("doc listener stopped",
						zap.String("col", col), zap.String("id", id), zap.Error(err))
				}
				return
			}
			if !snap.Exists() {
				fn(Snapshot{ID: id}, false)
				continue
			}
			fn(Snapshot{ID: snap.Ref.ID, Data: Doc(snap.Data())}, true)
		}
	}()
	return CancelFunc(cancel)
}

func (s *FirestoreStore) ListenQuery(ctx context.Context, col string, f Filter, fn func([]Snapshot)) CancelFunc {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		it := s.c.Collection(col).Query.Where(f.Field, f.Op, f.Value).Snapshots(ctx)
		defer it.Stop()
		for {
			qs, err := it.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					s.log.Warn("query listener stopped", zap.String("col", col), zap.Error(err))
				}
				return
			}
			var snaps []Snapshot
			docs := qs.Documents
			for {
				doc, err := docs.Next()
				if err == iterator.Done {
					break
				}
				if err != nil {
					s.log.Warn("query listener read failed", zap.String("col", col), zap.Error(err))
					break
				}
				snaps = append(snaps, Snapshot{ID: doc.Ref.ID, Data: Doc(doc.Data())})
			}
			fn(snaps)
		}
	}()
	return CancelFunc(cancel)
}

type firestoreBatch struct {
	s *FirestoreStore
	b *firestore.WriteBatch
}

func (fb *firestoreBatch) Set(col, id string, data Doc) {
	fb.b.Set(fb.s.c.Collection(col).Doc(id), map[string]interface{}(data))
}

func (fb *firestoreBatch) Update(col, id string, ups ...Update) {
	fb.b.Update(fb.s.c.Collection(col).Doc(id), toFirestoreUpdates(ups))
}

func (fb *firestoreBatch) Delete(col, id string) {
	fb.b.Delete(fb.s.c.Collection(col).Doc(id))
}

func (fb *firestoreBatch) Commit(ctx context.Context) error {
	_, err := fb.b.Commit(ctx)
	return err
}

func toFirestoreUpdates(ups []Update) []firestore.Update {
	out := make([]firestore.Update, 0, len(ups))
	for _, u := range ups {
		v := u.Value
		switch op := v.(type) {
		case arrayUnion:
			v = firestore.ArrayUnion(op.elems...)
		case arrayRemove:
			v = firestore.ArrayRemove(op.elems...)
		}
		out = append(out, firestore.Update{Path: u.Field, Value: v})
	}
	return out
}
