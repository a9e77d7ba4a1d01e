package store

import (
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// database/sql driver names accepted by WithDriver.
const (
	// DriverCGO is github.com/mattn/go-sqlite3.
	DriverCGO = "sqlite3"

	// DriverPure is modernc.org/sqlite, usable in CGO_ENABLED=0 builds.
	DriverPure = "sqlite"
)

// Drivers lists the accepted driver names.
var Drivers = []string{DriverCGO, DriverPure}

// ValidateDriver returns an error unless name is one of Drivers.
func ValidateDriver(name string) error {
	for _, d := range Drivers {
		if d == name {
			return nil
		}
	}
	return fmt.Errorf("unknown driver %q: must be one of %v", name, Drivers)
}
