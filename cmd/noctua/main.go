package main

import (
	"noctua/cmd/handlers"
	"noctua/internal/logger"
)

func main() {
	logger.Init()
	handlers.Execute()
}
