package repository

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoCarRepoはCarRepositoryインターフェースを満たすことを検証
func TestMongoCarRepo_ImplementsInterface(t *testing.T) {
	var _ CarRepository = (*MongoCarRepo)(nil)
}

func TestParseObjectID(t *testing.T) {
	oid := primitive.NewObjectID()

	got, err := parseObjectID(oid.Hex())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != oid {
		t.Errorf("oid = %v, want %v", got, oid)
	}

	for _, id := range []string{"", "not-an-id", "6f1c1c4e-8b0a-4a8e-9a53-0d4b4c1f2a10"} {
		if _, err := parseObjectID(id); !errors.Is(err, ErrInvalidID) {
			t.Errorf("parseObjectID(%q) err = %v, want ErrInvalidID", id, err)
		}
	}
}

// carFromDocumentがObjectIDを16進文字列に変換することを検証
func TestCarFromDocument_NormalizesObjectIDs(t *testing.T) {
	oid := primitive.NewObjectID()
	ref := primitive.NewObjectID()

	car := carFromDocument(bson.M{
		"_id":      oid,
		"email":    "a@x.com",
		"quantity": int32(4),
		"dealer":   bson.M{"ref": ref},
		"tags":     bson.A{"suv", ref},
	})

	if car.ID() != oid.Hex() {
		t.Errorf("ID = %q, want %q", car.ID(), oid.Hex())
	}
	if car.Email() != "a@x.com" {
		t.Errorf("Email = %q, want %q", car.Email(), "a@x.com")
	}
	if q, ok := car["quantity"].(int32); !ok || q != 4 {
		t.Errorf("quantity = %v, want 4", car["quantity"])
	}

	dealer, ok := car["dealer"].(map[string]any)
	if !ok {
		t.Fatalf("dealer = %T, want map[string]any", car["dealer"])
	}
	if dealer["ref"] != ref.Hex() {
		t.Errorf("dealer.ref = %v, want %q", dealer["ref"], ref.Hex())
	}

	tags, ok := car["tags"].([]any)
	if !ok || len(tags) != 2 {
		t.Fatalf("tags = %v, want 2 elements", car["tags"])
	}
	if tags[1] != ref.Hex() {
		t.Errorf("tags[1] = %v, want %q", tags[1], ref.Hex())
	}
}
