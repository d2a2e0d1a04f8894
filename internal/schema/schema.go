// Package schema converts between raw MongoDB documents and the typed
// entities in pkg/model. It is the only place that knows about legacy field
// names and missing-field defaults.
package schema

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	CollectionUsers       = "users"
	CollectionServices    = "services"
	CollectionTechnicians = "technicians"
	CollectionBookings    = "bookings"
	CollectionAccounts    = "accounts"
)

var ErrMalformedDocument = errors.New("malformed document")

// DecodeError reports a document that cannot be turned into an entity.
type DecodeError struct {
	Collection string
	ID         string
	Field      string
	Reason     string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s/%s: field %q: %s", e.Collection, e.ID, e.Field, e.Reason)
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrMalformedDocument
}

func malformed(collection, id, field, reason string) error {
	return &DecodeError{Collection: collection, ID: id, Field: field, Reason: reason}
}

// DocumentID returns the string form of _id, accepting ObjectIDs and strings.
func DocumentID(doc bson.M) (string, bool) {
	switch v := doc["_id"].(type) {
	case primitive.ObjectID:
		return v.Hex(), true
	case string:
		return v, v != ""
	default:
		return "", false
	}
}

// IDFilter matches a document by id whether it was stored as an ObjectID or
// a plain string.
func IDFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{oid, id}}}
	}
	return bson.M{"_id": id}
}

// IDsFilter is IDFilter for a set of ids.
func IDsFilter(ids []string) bson.M {
	values := make(bson.A, 0, len(ids)*2)
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			values = append(values, oid)
		}
		values = append(values, id)
	}
	return bson.M{"_id": bson.M{"$in": values}}
}

// DecodeAll decodes every document, skipping the ones that fail and
// reporting them to onSkip.
func DecodeAll[T any](docs []bson.M, decode func(bson.M) (*T, error), onSkip func(error)) []*T {
	out := make([]*T, 0, len(docs))
	for _, doc := range docs {
		entity, err := decode(doc)
		if err != nil {
			if onSkip != nil {
				onSkip(err)
			}
			continue
		}
		out = append(out, entity)
	}
	return out
}

func str(doc bson.M, key string) string {
	if s, ok := doc[key].(string); ok {
		return s
	}
	return ""
}

func boolean(doc bson.M, key string) bool {
	if b, ok := doc[key].(bool); ok {
		return b
	}
	return false
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case primitive.Decimal128:
		f, err := parseDecimal(n)
		return f, err == nil
	default:
		return 0, false
	}
}

func parseDecimal(d primitive.Decimal128) (float64, error) {
	return strconv.ParseFloat(d.String(), 64)
}

func integer(v any) (int, bool) {
	f, ok := number(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Round(f)), true
}

// timestamp accepts BSON dates, time.Time, RFC3339 strings and epoch millis.
func timestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC(), true
	case time.Time:
		return t.UTC(), true
	case primitive.Timestamp:
		return time.Unix(int64(t.T), 0).UTC(), true
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed.UTC(), true
	case nil:
		return time.Time{}, false
	default:
		if ms, ok := number(v); ok {
			return time.UnixMilli(int64(ms)).UTC(), true
		}
		return time.Time{}, false
	}
}

func timeField(doc bson.M, key string) time.Time {
	t, _ := timestamp(doc[key])
	return t
}

func stringSlice(v any) ([]string, bool) {
	var items []any
	switch s := v.(type) {
	case nil:
		return []string{}, true
	case []string:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out, true
	case string:
		return splitComma(s), true
	case primitive.A:
		items = s
	case []any:
		items = s
	default:
		return nil, false
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out, true
}

func splitComma(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
