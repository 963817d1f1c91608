package netadapter

import (
	"github.com/marabunet/marabud/infrastructure/logger"
	"github.com/marabunet/marabud/util/panics"
)

var log = logger.RegisterSubSystem("NTAR")
var spawn = panics.GoroutineWrapperFunc(log)
