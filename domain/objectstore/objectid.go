package objectstore

import (
	"encoding/hex"

	"github.com/marabunet/marabud/app/appmessage"
	"github.com/marabunet/marabud/infrastructure/network/netadapter/jsonwire"
	"golang.org/x/crypto/blake2s"
)

// ObjectIDFromCanonical returns the ID of an object whose canonical JSON
// encoding is canonical: the hex encoding of its blake2s-256 digest.
func ObjectIDFromCanonical(canonical []byte) appmessage.ObjectID {
	digest := blake2s.Sum256(canonical)
	return appmessage.ObjectID(hex.EncodeToString(digest[:]))
}

// ObjectID canonicalizes object and returns its ID.
func ObjectID(object appmessage.RawObject) (appmessage.ObjectID, error) {
	canonical, err := jsonwire.CanonicalizeBytes(object)
	if err != nil {
		return "", err
	}
	return ObjectIDFromCanonical(canonical), nil
}
