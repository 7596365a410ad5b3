// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates the registry collections (if missing) and attaches
// JSON-Schema validators. Servers that reject collMod validators (some
// DocumentDB versions) are logged and skipped.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("registry_documents", registryDocumentSchema())
	ensure("registry_revisions", revisionSchema())

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// collectionExists reports whether name already exists.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// ensureCollection makes sure name exists. created is true only when this
// call created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Debug("collection exists", zap.String("collection", name))
		return false, nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	if err := db.RunCommand(ctx, cmd).Err(); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

// commandErr reports whether err is a command error with one of codes, or
// mentions one of phrases.
func commandErr(err error, codes []int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		for _, c := range codes {
			if ce.Code == c {
				return true
			}
		}
	}
	msg := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func isNamespaceExistsErr(err error) bool {
	return commandErr(err, []int32{48}, "already exists", "namespace exists")
}

func isNoSuchCommand(err error) bool {
	return commandErr(err, []int32{59}, "no such command")
}

func isNotImplemented(err error) bool {
	return commandErr(err, []int32{115}, "not implemented", "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

func registryDocumentSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"singleton", "body", "etag", "version_id", "updated_at"},
			"properties": bson.M{
				"singleton":  bson.M{"bsonType": "bool"},
				"body":       bson.M{"bsonType": "binData"},
				"etag":       bson.M{"bsonType": "string", "minLength": 1},
				"version_id": bson.M{"bsonType": "string", "minLength": 1},
				"updated_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func revisionSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"version_id", "etag", "backend", "created_at"},
			"properties": bson.M{
				"version_id":  bson.M{"bsonType": "string", "minLength": 1},
				"etag":        bson.M{"bsonType": "string", "minLength": 1},
				"backend":     bson.M{"enum": bson.A{"mongo", "s3"}},
				"size":        bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"brand_count": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"item_count":  bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"created_at":  bson.M{"bsonType": "date"},
			},
		},
	}
}
