// Package main provides the entry point for the work permit service.
// It runs a Fiber based web service through which permits for height,
// hot, electric and general work are issued, approved, held, rejected,
// closed and reopened, backed by gorm persistence and an hourly sweep
// that marks permits past their validity window as expired.
package main

import (
	"os"

	"github.com/hindterminals/workpermit/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
