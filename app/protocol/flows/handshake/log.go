package handshake

import (
	"github.com/marabunet/marabud/infrastructure/logger"
)

var log = logger.RegisterSubSystem("PROT")
