package main

import "taskrewarder/internal/app"

// @title           Task Rewarder API
// @version         1.0
// @description     Volunteer task-reward tracker: organizers post tasks, volunteers earn tokens and levels.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
