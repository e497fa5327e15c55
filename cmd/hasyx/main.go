package main

import "hasyx/internal/app"

// @title        hasyx verification & payments API
// @version      1.0
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	app.Run()
}
