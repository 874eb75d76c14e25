package main

import (
	"github.com/corray333/backend-labs/booking/internal/app"
	"github.com/corray333/backend-labs/booking/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
