package mongostore

import (
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/satpel-tasikmalaya/jembatan/pkg/types"
)

// Document field names.
const (
	fieldID             = "_id"
	fieldNomorBH        = "nomorBH"
	fieldLat            = "lat"
	fieldLng            = "lng"
	fieldKmhm           = "kmhm"
	fieldKelas          = "kelas"
	fieldPanjang        = "panjang"
	fieldTahunPembuatan = "tahunPembuatan"
	fieldFoto           = "foto"
	fieldCreatedAt      = "createdAt"
	fieldUpdatedAt      = "updatedAt"
)

// encodeValue stores numbers as doubles when that keeps the text intact
// and everything else as strings. Empty values are not stored.
func encodeValue(v types.Value) (any, bool) {
	if v.IsZero() {
		return nil, false
	}
	if f, ok := v.Float(); ok && types.Number(f) == v {
		return f, true
	}
	return v.String(), true
}

// decodeValue accepts every scalar other clients may have written.
func decodeValue(raw any) types.Value {
	switch x := raw.(type) {
	case nil:
		return ""
	case string:
		return types.Value(x)
	case float64:
		return types.Number(x)
	case int32:
		return types.Value(strconv.FormatInt(int64(x), 10))
	case int64:
		return types.Value(strconv.FormatInt(x, 10))
	case bool:
		return types.Value(strconv.FormatBool(x))
	case primitive.Decimal128:
		return types.Value(x.String())
	default:
		return types.Value(fmt.Sprint(x))
	}
}

func decodeTime(raw any) *time.Time {
	var t time.Time
	switch x := raw.(type) {
	case primitive.DateTime:
		t = x.Time().UTC()
	case time.Time:
		t = x.UTC()
	default:
		return nil
	}
	return &t
}

func decodeString(raw any) string {
	switch x := raw.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// toDocument converts a record for insertion. The id is assigned by the
// server and never written.
func toDocument(b types.Bridge) bson.M {
	doc := bson.M{fieldNomorBH: b.NomorBH}
	for name, v := range map[string]types.Value{
		fieldLat:            b.Lat,
		fieldLng:            b.Lng,
		fieldKmhm:           b.Kmhm,
		fieldPanjang:        b.Panjang,
		fieldTahunPembuatan: b.TahunPembuatan,
	} {
		if enc, ok := encodeValue(v); ok {
			doc[name] = enc
		}
	}
	if b.Kelas != "" {
		doc[fieldKelas] = b.Kelas
	}
	if b.Foto != "" {
		doc[fieldFoto] = b.Foto
	}
	if b.CreatedAt != nil {
		doc[fieldCreatedAt] = *b.CreatedAt
	}
	if b.UpdatedAt != nil {
		doc[fieldUpdatedAt] = *b.UpdatedAt
	}
	return doc
}

// fromDocument converts a stored document into a record.
func fromDocument(doc bson.M) types.Bridge {
	b := types.Bridge{
		NomorBH:        decodeString(doc[fieldNomorBH]),
		Lat:            decodeValue(doc[fieldLat]),
		Lng:            decodeValue(doc[fieldLng]),
		Kmhm:           decodeValue(doc[fieldKmhm]),
		Kelas:          decodeString(doc[fieldKelas]),
		Panjang:        decodeValue(doc[fieldPanjang]),
		TahunPembuatan: decodeValue(doc[fieldTahunPembuatan]),
		Foto:           decodeString(doc[fieldFoto]),
		CreatedAt:      decodeTime(doc[fieldCreatedAt]),
		UpdatedAt:      decodeTime(doc[fieldUpdatedAt]),
	}
	switch id := doc[fieldID].(type) {
	case primitive.ObjectID:
		b.ID = id.Hex()
	case nil:
	default:
		b.ID = fmt.Sprint(id)
	}
	return b
}

// updateDocument builds the update for a patch. Cleared numeric fields
// are unset; updatedAt is always refreshed.
func updateDocument(patch types.BridgePatch, now time.Time) bson.M {
	set := bson.M{fieldUpdatedAt: now}
	unset := bson.M{}
	for name, v := range patch.Fields() {
		switch x := v.(type) {
		case types.Value:
			if enc, ok := encodeValue(x); ok {
				set[name] = enc
			} else {
				unset[name] = ""
			}
		default:
			set[name] = x
		}
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

// objectID parses a record id.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", types.ErrInvalidID, id)
	}
	return oid, nil
}
