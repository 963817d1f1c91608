package objectstore

import (
	"sync"

	"github.com/marabunet/marabud/app/appmessage"
	"github.com/marabunet/marabud/domain"
	"github.com/marabunet/marabud/infrastructure/network/netadapter/jsonwire"
)

// Object types accepted by the store.
const (
	TypeTransaction = "transaction"
	TypeBlock       = "block"
)

// OnObjectAddedHandler is called once for every object that is new to the
// store, after it was stored.
type OnObjectAddedHandler func(objectID appmessage.ObjectID, objectType string)

// ObjectStore is an in-memory domain.ObjectStore keyed by ObjectID.
type ObjectStore struct {
	objects  map[appmessage.ObjectID]appmessage.RawObject
	handlers []OnObjectAddedHandler
	lock     sync.RWMutex
}

// New returns an empty ObjectStore.
func New() *ObjectStore {
	return &ObjectStore{
		objects: make(map[appmessage.ObjectID]appmessage.RawObject),
	}
}

// AddOnObjectAddedHandler registers handler to be notified of new objects.
func (s *ObjectStore) AddOnObjectAddedHandler(handler OnObjectAddedHandler) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.handlers = append(s.handlers, handler)
}

// Get returns the canonical encoding of the object with the given ID.
func (s *ObjectStore) Get(objectID appmessage.ObjectID) (appmessage.RawObject, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	object, ok := s.objects[objectID]
	if !ok {
		return nil, domain.NewObjectError(appmessage.ErrorCodeUnknownObject, "object %s is not known", objectID)
	}
	return object, nil
}

// Has returns whether the object with the given ID is stored.
func (s *ObjectStore) Has(objectID appmessage.ObjectID) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()

	_, ok := s.objects[objectID]
	return ok
}

// Put stores object and returns its ID. Storing a known object again is a
// no-op.
func (s *ObjectStore) Put(object appmessage.RawObject) (appmessage.ObjectID, error) {
	parsed, err := jsonwire.ParseObject(object)
	if err != nil {
		return "", domain.NewObjectError(appmessage.ErrorCodeInvalidFormat, "object is not a JSON object: %s", err)
	}
	objectType, ok := parsed["type"].(string)
	if !ok {
		return "", domain.NewObjectError(appmessage.ErrorCodeInvalidFormat, "object has no string type field")
	}
	if objectType != TypeTransaction && objectType != TypeBlock {
		return "", domain.NewObjectError(appmessage.ErrorCodeInvalidFormat, "unknown object type %q", objectType)
	}
	canonical, err := jsonwire.Canonicalize(parsed)
	if err != nil {
		return "", domain.NewObjectError(appmessage.ErrorCodeInvalidFormat, "object cannot be canonicalized: %s", err)
	}
	objectID := ObjectIDFromCanonical(canonical)

	s.lock.Lock()
	if _, exists := s.objects[objectID]; exists {
		s.lock.Unlock()
		return objectID, nil
	}
	s.objects[objectID] = canonical
	handlers := make([]OnObjectAddedHandler, len(s.handlers))
	copy(handlers, s.handlers)
	s.lock.Unlock()

	log.Debugf("Stored %s %s", objectType, objectID)
	for _, handler := range handlers {
		handler(objectID, objectType)
	}
	return objectID, nil
}

// Count returns the number of stored objects.
func (s *ObjectStore) Count() int {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return len(s.objects)
}
