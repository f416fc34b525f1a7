package main

import (
	"go.uber.org/fx"

	"github.com/yourusername/telegram-comment-fleet/internal/app"
)

func main() {
	fx.New(app.CreateApp()).Run()
}
