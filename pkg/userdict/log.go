package userdict

import "github.com/bastiangx/wordspell/internal/logger"

var log = logger.New("userdict")
