package main

import (
	"fmt"
	"os"
)

// @title           SCEH++ Portal API
// @version         1.0
// @description     Role-based sessions, navigation and page guards for the SCEH++ campus portal.
// @host            localhost:8080
// @BasePath        /
func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
