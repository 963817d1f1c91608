package app

import (
	"github.com/marabunet/marabud/infrastructure/logger"
	"github.com/marabunet/marabud/util/panics"
)

var log = logger.RegisterSubSystem("MRBD")
var spawn = panics.GoroutineWrapperFunc(log)
