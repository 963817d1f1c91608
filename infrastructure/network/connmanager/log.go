package connmanager

import (
	"github.com/marabunet/marabud/infrastructure/logger"
	"github.com/marabunet/marabud/util/panics"
)

var log = logger.RegisterSubSystem("CMGR")
var spawn = panics.GoroutineWrapperFunc(log)
