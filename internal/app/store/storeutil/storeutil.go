// internal/app/store/storeutil/storeutil.go
package storeutil

import "go.mongodb.org/mongo-driver/mongo/options"

// DefaultPageSize is used when a caller passes limit <= 0.
const DefaultPageSize = 20

// Paginate returns find options selecting one 1-based page of limit documents.
// Callers add their own sort; pages are only stable under a total order.
func Paginate(limit, page int64) *options.FindOptions {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	return options.Find().SetLimit(limit).SetSkip((page - 1) * limit)
}
