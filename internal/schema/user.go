package schema

import (
	"dispatch/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	FieldRole         = "role"
	FieldEmail        = "email"
	FieldPasswordHash = "passwordHash"
	FieldDisabled     = "disabled"
	FieldLastSignInAt = "lastSignInAt"
)

// DecodeUserProfile fails when role is present but not a string, so the
// guard can treat it as a fault rather than as a non-admin.
func DecodeUserProfile(doc bson.M) (*model.UserProfile, error) {
	uid, ok := DocumentID(doc)
	if !ok {
		return nil, malformed(CollectionUsers, "", "_id", "missing or not an id")
	}

	role := ""
	switch raw := doc[FieldRole].(type) {
	case nil:
	case string:
		role = raw
	default:
		return nil, malformed(CollectionUsers, uid, FieldRole, "not a string")
	}

	return &model.UserProfile{
		UID:       uid,
		Role:      role,
		Email:     str(doc, FieldEmail),
		CreatedAt: timeField(doc, FieldCreatedAt),
	}, nil
}

func EncodeUserProfile(p *model.UserProfile) bson.M {
	return bson.M{
		FieldRole:      p.Role,
		FieldEmail:     p.Email,
		FieldCreatedAt: zeroTimeToNow(p.CreatedAt),
	}
}

func DecodeAccount(doc bson.M) (*model.Account, error) {
	uid, ok := DocumentID(doc)
	if !ok {
		return nil, malformed(CollectionAccounts, "", "_id", "missing or not an id")
	}
	hash := str(doc, FieldPasswordHash)
	if hash == "" {
		return nil, malformed(CollectionAccounts, uid, FieldPasswordHash, "missing")
	}

	account := &model.Account{
		UID:          uid,
		Email:        str(doc, FieldEmail),
		PasswordHash: hash,
		Disabled:     boolean(doc, FieldDisabled),
		CreatedAt:    timeField(doc, FieldCreatedAt),
	}
	if t, ok := timestamp(doc[FieldLastSignInAt]); ok {
		account.LastSignInAt = &t
	}
	return account, nil
}

func EncodeAccount(a *model.Account) bson.M {
	doc := bson.M{
		"_id":             a.UID,
		FieldEmail:        a.Email,
		FieldPasswordHash: a.PasswordHash,
		FieldDisabled:     a.Disabled,
		FieldCreatedAt:    zeroTimeToNow(a.CreatedAt),
	}
	if a.LastSignInAt != nil {
		doc[FieldLastSignInAt] = a.LastSignInAt.UTC()
	}
	return doc
}
