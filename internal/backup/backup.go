package backup

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"google.golang.org/api/iterator"
)

// Collections covered by export/import. Each becomes one JSON-lines object
// under the snapshot prefix.
var Collections = []string{"interviews", "feedback"}

// Archiver snapshots the document collections to a GCS bucket and restores
// them from a snapshot. Objects are named <prefix>/<collection>.jsonl.
type Archiver struct {
	client *gcs.Client
	bucket string
	db     *mongo.Database
	log    *logrus.Logger
}

func NewArchiver(ctx context.Context, bucket string, db *mongo.Database, log *logrus.Logger) (*Archiver, error) {
	c, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &Archiver{client: c, bucket: bucket, db: db, log: log}, nil
}

func (a *Archiver) Close() error { return a.client.Close() }

// Export writes every covered collection to the bucket and returns the
// snapshot prefix.
func (a *Archiver) Export(ctx context.Context) (string, error) {
	prefix := "backup/" + time.Now().UTC().Format("20060102-150405")

	for _, col := range Collections {
		n, err := a.exportCollection(ctx, col, prefix)
		if err != nil {
			return "", fmt.Errorf("export %s: %w", col, err)
		}
		a.log.WithFields(logrus.Fields{"collection": col, "documents": n, "prefix": prefix}).Info("collection exported")
	}
	return prefix, nil
}

func (a *Archiver) exportCollection(ctx context.Context, col, prefix string) (int, error) {
	cur, err := a.db.Collection(col).Find(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	obj := a.client.Bucket(a.bucket).Object(prefix + "/" + col + ".jsonl")
	w := obj.NewWriter(ctx)
	w.ContentType = "application/x-ndjson"

	n := 0
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			_ = w.Close()
			return n, err
		}
		line, err := json.Marshal(doc)
		if err != nil {
			_ = w.Close()
			return n, err
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			_ = w.Close()
			return n, err
		}
		n++
	}
	if err := cur.Err(); err != nil {
		_ = w.Close()
		return n, err
	}
	return n, w.Close()
}

// Import restores every covered collection found under the snapshot prefix.
// Existing documents with the same _id are left in place; inserts are
// unordered so one duplicate does not abort the rest.
func (a *Archiver) Import(ctx context.Context, prefix string) error {
	found := false
	it := a.client.Bucket(a.bucket).Objects(ctx, &gcs.Query{Prefix: prefix + "/"})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return err
		}

		col := collectionForObject(attrs.Name)
		if col == "" {
			a.log.WithField("object", attrs.Name).Warn("skipping unrecognized snapshot object")
			continue
		}
		found = true

		n, err := a.importObject(ctx, col, attrs.Name)
		if err != nil {
			return fmt.Errorf("import %s: %w", attrs.Name, err)
		}
		a.log.WithFields(logrus.Fields{"collection": col, "documents": n}).Info("collection imported")
	}

	if !found {
		return fmt.Errorf("no snapshot objects under %s", prefix)
	}
	return nil
}

func (a *Archiver) importObject(ctx context.Context, col, object string) (int, error) {
	r, err := a.client.Bucket(a.bucket).Object(object).NewReader(ctx)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	var docs []any
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var doc bson.M
		if err := json.Unmarshal(line, &doc); err != nil {
			return 0, err
		}
		docs = append(docs, doc)
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}

	res, err := a.db.Collection(col).InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) && res != nil {
			return len(res.InsertedIDs), nil
		}
		return 0, err
	}
	return len(res.InsertedIDs), nil
}

func collectionForObject(name string) string {
	for _, col := range Collections {
		if strings.HasSuffix(name, "/"+col+".jsonl") {
			return col
		}
	}
	return ""
}
