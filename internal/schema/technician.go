package schema

import (
	"dispatch/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	FieldName     = "name"
	FieldPhone    = "phone"
	FieldSkills   = "skills"
	FieldActive   = "active"
	FieldVerified = "verified"
)

func DecodeTechnician(doc bson.M) (*model.Technician, error) {
	id, ok := DocumentID(doc)
	if !ok {
		return nil, malformed(CollectionTechnicians, "", "_id", "missing or not an id")
	}

	skills, ok := stringSlice(doc[FieldSkills])
	if !ok {
		return nil, malformed(CollectionTechnicians, id, FieldSkills, "not a list or string")
	}

	return &model.Technician{
		ID:        id,
		Name:      str(doc, FieldName),
		Phone:     str(doc, FieldPhone),
		Skills:    skills,
		Active:    boolean(doc, FieldActive),
		Verified:  boolean(doc, FieldVerified),
		CreatedAt: timeField(doc, FieldCreatedAt),
	}, nil
}

func EncodeTechnician(t *model.Technician) bson.M {
	skills := t.Skills
	if skills == nil {
		skills = []string{}
	}
	return bson.M{
		FieldName:      t.Name,
		FieldPhone:     t.Phone,
		FieldSkills:    skills,
		FieldActive:    t.Active,
		FieldVerified:  t.Verified,
		FieldCreatedAt: zeroTimeToNow(t.CreatedAt),
	}
}
