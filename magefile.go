//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
// If not set, running mage will list available targets
var Default = Build

func Build() error {
	mg.Deps(BuildMmtsim)
	mg.Deps(BuildMeasureTables)
	fmt.Println("Compilation finished")
	return nil
}

func goCommand(args ...string) *exec.Cmd {
	ldflags := os.Getenv("CGO_LDFLAGS")
	cflags := os.Getenv("CGO_CFLAGS")
	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(),
		"CGO_ENABLED=1",
		fmt.Sprintf("CGO_LDFLAGS=%s", ldflags),
		fmt.Sprintf("CGO_CFLAGS=%s", cflags))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}

func BuildMmtsim() error {
	fmt.Println("Building mmtsim executable...")
	return goCommand("build", "-o", "./bin/mmtsim", "./mmtsim").Run()
}

func BuildMeasureTables() error {
	fmt.Println("Building measureTables executable...")
	return goCommand("build", "-o", "./bin/measureTables", "./measureTables").Run()
}

// Test runs the library and command tests.
func Test() error {
	fmt.Println("Running tests...")
	return goCommand("test", "./...").Run()
}
