//go:build mage

// Package main provides build targets for the formulary project using Mage.
//
// Usage:
//
//	mage build          Compile formulary binary to bin/
//	mage test           Run all tests
//	mage testPostgres   Run store tests against $FORMULARY_TEST_DSN
//	mage lint           Run golangci-lint
//	mage clean          Remove build artifacts
//	mage install        Install formulary to GOPATH/bin
package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "formulary"
	binaryDir  = "bin"
	cmdDir     = "./cmd/formulary"

	envTestDSN = "FORMULARY_TEST_DSN"
)

// Build compiles the formulary binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV("go", "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs all tests. Postgres tests skip unless FORMULARY_TEST_DSN is set.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// TestPostgres runs the store and repository tests against the database
// named by FORMULARY_TEST_DSN.
func TestPostgres() error {
	if os.Getenv(envTestDSN) == "" {
		return errors.New(envTestDSN + " is not set")
	}
	return sh.RunV("go", "test", "-run", "Postgres", "./internal/store/...", "./internal/refdata/...")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV("go", "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output("go", "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
