package errorreporter

import (
	"github.com/marabunet/marabud/infrastructure/logger"
)

var log = logger.RegisterSubSystem("PROT")
