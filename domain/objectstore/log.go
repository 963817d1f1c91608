package objectstore

import (
	"github.com/marabunet/marabud/infrastructure/logger"
)

var log = logger.RegisterSubSystem("OBJS")
