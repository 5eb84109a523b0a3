package mongo

import (
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/facetbase/facetd/pkg/model"
)

func makeFilterBSON(filters model.Filters) (bson.M, error) {
	bsonFilter := bson.M{}

	for _, f := range filters {
		fieldName := mapField(f.Field)

		if f.Op == model.OpPrefix {
			prefix, ok := f.Value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: prefix value must be a string", model.ErrInvalidQuery)
			}
			mergeFieldFilter(bsonFilter, fieldName, "$regex", "^"+regexp.QuoteMeta(prefix))
			mergeFieldFilter(bsonFilter, fieldName, "$options", "i")
			continue
		}

		op := mapOp(f.Op)
		if op == "" {
			return nil, fmt.Errorf("%w: unsupported operator %q", model.ErrInvalidQuery, f.Op)
		}
		mergeFieldFilter(bsonFilter, fieldName, op, f.Value)
	}

	return bsonFilter, nil
}

// mergeFieldFilter keeps multiple conditions on the same field, such as the
// gte/lt pair a date range produces.
func mergeFieldFilter(filter bson.M, field, op string, value interface{}) {
	if existing, ok := filter[field].(bson.M); ok {
		existing[op] = value
		return
	}
	filter[field] = bson.M{op: value}
}

func mapField(field string) string {
	switch field {
	case "id":
		return "doc_id"
	case "collection":
		return "collection"
	case "updatedAt":
		return "updated_at"
	case "createdAt":
		return "created_at"
	case "version":
		return "version"
	default:
		return "data." + field
	}
}

func mapOp(op model.FilterOp) string {
	switch op {
	case model.OpEq:
		return "$eq"
	case model.OpNe:
		return "$ne"
	case model.OpGt:
		return "$gt"
	case model.OpGte:
		return "$gte"
	case model.OpLt:
		return "$lt"
	case model.OpLte:
		return "$lte"
	case model.OpIn:
		return "$in"
	default:
		return ""
	}
}
