package dispatch

import (
	"bytes"

	"github.com/marabunet/marabud/app/appmessage"
	"github.com/pkg/errors"
)

func handleHello(d *Dispatcher, message appmessage.Message) ([]appmessage.Message, error) {
	log.Debugf("Ignoring repeated hello from %s", d.address)
	return nil, nil
}

func handleError(d *Dispatcher, message appmessage.Message) ([]appmessage.Message, error) {
	msgError := message.(*appmessage.MsgError)
	log.Warnf("Peer %s reported %s: %s", d.address, msgError.Name, msgError.Description)
	return nil, nil
}

func handleGetPeers(d *Dispatcher, message appmessage.Message) ([]appmessage.Message, error) {
	return []appmessage.Message{appmessage.NewMsgPeers(d.domain.PeerTable().List())}, nil
}

func handlePeers(d *Dispatcher, message appmessage.Message) ([]appmessage.Message, error) {
	msgPeers := message.(*appmessage.MsgPeers)
	for _, address := range msgPeers.Peers {
		err := d.domain.PeerTable().Add(address)
		if err != nil {
			log.Debugf("Skipping peer address %q from %s: %s", address, d.address, err)
		}
	}
	return nil, nil
}

func handleGetObject(d *Dispatcher, message appmessage.Message) ([]appmessage.Message, error) {
	msgGetObject := message.(*appmessage.MsgGetObject)
	object, err := d.domain.ObjectStore().Get(msgGetObject.ObjectID)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(object)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, errors.Errorf("object store returned an empty object for %s", msgGetObject.ObjectID)
	}
	return []appmessage.Message{appmessage.NewMsgObject(object)}, nil
}

func handleIHaveObject(d *Dispatcher, message appmessage.Message) ([]appmessage.Message, error) {
	msgIHaveObject := message.(*appmessage.MsgIHaveObject)
	return d.requestUnknownObjects(msgIHaveObject.ObjectID)
}

func handleObject(d *Dispatcher, message appmessage.Message) ([]appmessage.Message, error) {
	msgObject := message.(*appmessage.MsgObject)
	objectID, err := d.domain.ObjectStore().Put(msgObject.Object)
	if err != nil {
		return nil, err
	}
	log.Debugf("Received object %s from %s", objectID, d.address)
	return nil, nil
}

func handleGetMempool(d *Dispatcher, message appmessage.Message) ([]appmessage.Message, error) {
	return []appmessage.Message{appmessage.NewMsgMempool(d.domain.Mempool().ListTxIDs())}, nil
}

func handleMempool(d *Dispatcher, message appmessage.Message) ([]appmessage.Message, error) {
	msgMempool := message.(*appmessage.MsgMempool)
	return d.requestUnknownObjects(msgMempool.TxIDs...)
}

func handleGetChainTip(d *Dispatcher, message appmessage.Message) ([]appmessage.Message, error) {
	blockID, ok := d.domain.ChainTip().Current()
	if !ok {
		return nil, nil
	}
	return []appmessage.Message{appmessage.NewMsgChainTip(blockID)}, nil
}

func handleChainTip(d *Dispatcher, message appmessage.Message) ([]appmessage.Message, error) {
	msgChainTip := message.(*appmessage.MsgChainTip)
	return d.requestUnknownObjects(msgChainTip.BlockID)
}

// requestUnknownObjects returns a getobject for each of objectIDs that the
// object store doesn't hold.
func (d *Dispatcher) requestUnknownObjects(objectIDs ...appmessage.ObjectID) ([]appmessage.Message, error) {
	var requests []appmessage.Message
	requested := make(map[appmessage.ObjectID]struct{})
	for _, objectID := range objectIDs {
		if _, ok := requested[objectID]; ok {
			continue
		}
		isKnown, err := d.isObjectKnown(objectID)
		if err != nil {
			return nil, err
		}
		if isKnown {
			continue
		}
		requested[objectID] = struct{}{}
		requests = append(requests, appmessage.NewMsgGetObject(objectID))
	}
	return requests, nil
}
