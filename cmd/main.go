package main

import "opsdesk/internal/app"

// @title        OpsDesk API
// @version      1.0
// @description  Internal operations suite: leads, tasks, quotations and PO approvals.
// @BasePath     /
func main() {
	app.Run()
}
