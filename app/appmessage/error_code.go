package appmessage

// ErrorCode is the `name` of an `error` message.
type ErrorCode string

// The error taxonomy shared by every node on the network.
const (
	ErrorCodeInternalError         ErrorCode = "INTERNAL_ERROR"
	ErrorCodeInvalidFormat         ErrorCode = "INVALID_FORMAT"
	ErrorCodeUnknownObject         ErrorCode = "UNKNOWN_OBJECT"
	ErrorCodeUnfindableObject      ErrorCode = "UNFINDABLE_OBJECT"
	ErrorCodeInvalidHandshake      ErrorCode = "INVALID_HANDSHAKE"
	ErrorCodeInvalidTxOutpoint     ErrorCode = "INVALID_TX_OUTPOINT"
	ErrorCodeInvalidTxSignature    ErrorCode = "INVALID_TX_SIGNATURE"
	ErrorCodeInvalidTxConservation ErrorCode = "INVALID_TX_CONSERVATION"
	ErrorCodeInvalidBlockCoinbase  ErrorCode = "INVALID_BLOCK_COINBASE"
	ErrorCodeInvalidBlockTimestamp ErrorCode = "INVALID_BLOCK_TIMESTAMP"
	ErrorCodeInvalidBlockPOW       ErrorCode = "INVALID_BLOCK_POW"
	ErrorCodeInvalidGenesis        ErrorCode = "INVALID_GENESIS"
)

// ErrorCodes lists every ErrorCode in taxonomy order.
var ErrorCodes = []ErrorCode{
	ErrorCodeInternalError,
	ErrorCodeInvalidFormat,
	ErrorCodeUnknownObject,
	ErrorCodeUnfindableObject,
	ErrorCodeInvalidHandshake,
	ErrorCodeInvalidTxOutpoint,
	ErrorCodeInvalidTxSignature,
	ErrorCodeInvalidTxConservation,
	ErrorCodeInvalidBlockCoinbase,
	ErrorCodeInvalidBlockTimestamp,
	ErrorCodeInvalidBlockPOW,
	ErrorCodeInvalidGenesis,
}

// IsValid returns whether code belongs to the taxonomy.
func (code ErrorCode) IsValid() bool {
	for _, known := range ErrorCodes {
		if code == known {
			return true
		}
	}
	return false
}

func (code ErrorCode) String() string {
	return string(code)
}
