package objectstore

import (
	"testing"

	"github.com/marabunet/marabud/app/appmessage"
	"github.com/marabunet/marabud/domain"
	"github.com/pkg/errors"
)

func TestPutAndGet(t *testing.T) {
	store := New()

	var added []appmessage.ObjectID
	var addedTypes []string
	store.AddOnObjectAddedHandler(func(objectID appmessage.ObjectID, objectType string) {
		added = append(added, objectID)
		addedTypes = append(addedTypes, objectType)
	})

	objectID, err := store.Put(appmessage.RawObject(`{ "type": "transaction", "outputs": [], "height": 1.0 }`))
	if err != nil {
		t.Fatalf("TestPutAndGet: Put: %s", err)
	}
	if len(objectID) != 64 {
		t.Fatalf("TestPutAndGet: expected a 64 character hex id, got %q", objectID)
	}

	// The same object in a different layout has the same ID.
	sameID, err := store.Put(appmessage.RawObject(`{"height":1,"outputs":[],"type":"transaction"}`))
	if err != nil {
		t.Fatalf("TestPutAndGet: Put: %s", err)
	}
	if sameID != objectID {
		t.Fatalf("TestPutAndGet: expected equal ids, got %s and %s", objectID, sameID)
	}
	if len(added) != 1 || added[0] != objectID || addedTypes[0] != TypeTransaction {
		t.Fatalf("TestPutAndGet: expected a single notification for %s, got %v %v", objectID, added, addedTypes)
	}

	object, err := store.Get(objectID)
	if err != nil {
		t.Fatalf("TestPutAndGet: Get: %s", err)
	}
	expected := `{"height":1,"outputs":[],"type":"transaction"}`
	if string(object) != expected {
		t.Fatalf("TestPutAndGet: got %s, want %s", object, expected)
	}
	if !store.Has(objectID) || store.Count() != 1 {
		t.Fatalf("TestPutAndGet: expected the store to hold exactly %s", objectID)
	}

	computedID, err := ObjectID(object)
	if err != nil {
		t.Fatalf("TestPutAndGet: ObjectID: %s", err)
	}
	if computedID != objectID {
		t.Fatalf("TestPutAndGet: ObjectID returned %s, want %s", computedID, objectID)
	}
}

func TestGetUnknown(t *testing.T) {
	store := New()
	_, err := store.Get("00")
	var objectErr *domain.ObjectError
	if !errors.As(err, &objectErr) {
		t.Fatalf("TestGetUnknown: expected an ObjectError, got %v", err)
	}
	if objectErr.Code != appmessage.ErrorCodeUnknownObject {
		t.Fatalf("TestGetUnknown: expected %s, got %s", appmessage.ErrorCodeUnknownObject, objectErr.Code)
	}
}

func TestPutRejects(t *testing.T) {
	tests := []struct {
		name   string
		object string
	}{
		{name: "no type", object: `{"outputs":[]}`},
		{name: "non-string type", object: `{"type":5}`},
		{name: "unknown type", object: `{"type":"coupon"}`},
		{name: "array", object: `[1,2]`},
		{name: "malformed", object: `{"type":`},
	}

	store := New()
	for _, test := range tests {
		_, err := store.Put(appmessage.RawObject(test.object))
		var objectErr *domain.ObjectError
		if !errors.As(err, &objectErr) {
			t.Fatalf("TestPutRejects: %s: expected an ObjectError, got %v", test.name, err)
		}
		if objectErr.Code != appmessage.ErrorCodeInvalidFormat {
			t.Fatalf("TestPutRejects: %s: expected %s, got %s",
				test.name, appmessage.ErrorCodeInvalidFormat, objectErr.Code)
		}
	}
	if store.Count() != 0 {
		t.Fatalf("TestPutRejects: expected an empty store, got %d objects", store.Count())
	}
}
