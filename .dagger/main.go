// DengueSense CI
//
// Package main provides reproducible builds and tests locally and in CI.
package main

import (
	"context"

	"dagger/denguesense/internal/dagger"
)

// DengueSense is the CI module for the DengueSense CLI and API server.
type DengueSense struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", "build", "tmp", "_examples"]
	source *dagger.Directory,
) *DengueSense {
	return &DengueSense{
		Source: source,
	}
}

// goContainer returns a Debian Bookworm-based Go container with gcc and
// libsqlite3-dev for the CGO SQLite driver, with the project source mounted.
func (d *DengueSense) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-bookworm").
		WithExec([]string{"apt-get", "update"}).
		WithExec([]string{"apt-get", "install", "-y", "gcc", "libsqlite3-dev"}).
		WithEnvVariable("CGO_ENABLED", "1").
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", d.Source)
}

// Test runs the unit tests with the race detector.
func (d *DengueSense) Test(ctx context.Context) (string, error) {
	return d.goContainer().
		WithExec([]string{"go", "test", "-race", "./..."}).
		Stdout(ctx)
}

// Vet runs go vet over every package.
func (d *DengueSense) Vet(ctx context.Context) (string, error) {
	return d.goContainer().
		WithExec([]string{"go", "vet", "./..."}).
		Stdout(ctx)
}
