package schema

import (
	"dispatch/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	FieldTitle    = "title"
	FieldCategory = "category"
	FieldPrice    = "price"
	FieldDuration = "duration"
	FieldIsActive = "isActive"
)

// DecodeService reads title, falling back to the legacy name field.
func DecodeService(doc bson.M) (*model.Service, error) {
	id, ok := DocumentID(doc)
	if !ok {
		return nil, malformed(CollectionServices, "", "_id", "missing or not an id")
	}

	title := str(doc, FieldTitle)
	if title == "" {
		title = str(doc, FieldName)
	}

	price := 0.0
	if raw, present := doc[FieldPrice]; present && raw != nil {
		p, ok := number(raw)
		if !ok {
			return nil, malformed(CollectionServices, id, FieldPrice, "not a number")
		}
		price = p
	}

	duration := 0
	if raw, present := doc[FieldDuration]; present && raw != nil {
		d, ok := integer(raw)
		if !ok {
			return nil, malformed(CollectionServices, id, FieldDuration, "not a number")
		}
		duration = d
	}

	return &model.Service{
		ID:       id,
		Title:    title,
		Category: str(doc, FieldCategory),
		Price:    price,
		Duration: duration,
		IsActive: boolean(doc, FieldIsActive),
	}, nil
}

func EncodeService(s *model.Service) bson.M {
	doc := bson.M{
		FieldTitle:    s.Title,
		FieldPrice:    s.Price,
		FieldDuration: s.Duration,
		FieldIsActive: s.IsActive,
	}
	if s.Category != "" {
		doc[FieldCategory] = s.Category
	}
	return doc
}

// ServiceUpdateSet renders the fields present in u as a $set document.
func ServiceUpdateSet(u *model.ServiceUpdate) bson.M {
	set := bson.M{}
	if u.Title != nil {
		set[FieldTitle] = *u.Title
	}
	if u.Category != nil {
		set[FieldCategory] = *u.Category
	}
	if u.Price != nil {
		set[FieldPrice] = *u.Price
	}
	if u.Duration != nil {
		set[FieldDuration] = *u.Duration
	}
	return bson.M{"$set": set}
}
