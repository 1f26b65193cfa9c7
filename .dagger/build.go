package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dagger/denguesense/internal/dagger"
)

// Build returns a directory of denguesense binaries for each supported
// platform. go-sqlite3 needs CGO, so each target uses a gcc cross compiler.
func (d *DengueSense) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	targets := map[string]string{
		"linux/amd64": "x86_64-linux-gnu-gcc",
		"linux/arm64": "aarch64-linux-gnu-gcc",
	}

	outputs := dag.Directory()

	golang := d.goContainer().
		WithExec([]string{"apt-get", "install", "-y", "gcc-x86-64-linux-gnu", "gcc-aarch64-linux-gnu"})

	for platform, cc := range targets {
		goos, goarch, _ := strings.Cut(platform, "/")
		path := platform + "/"

		build := golang.
			WithEnvVariable("GOOS", goos).
			WithEnvVariable("GOARCH", goarch).
			WithEnvVariable("CC", cc).
			WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, "./cli/denguesense"})

		outputs = outputs.WithDirectory(path, build.Directory(path))
	}

	return outputs
}

// BuildRelease compiles versioned release binaries with embedded version info.
func (d *DengueSense) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	buildtime := time.Now()

	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X 'github.com/papercomputeco/denguesense/pkg/utils.Version=%s'", version),
		fmt.Sprintf("-X 'github.com/papercomputeco/denguesense/pkg/utils.Sha=%s'", commit),
		fmt.Sprintf("-X 'github.com/papercomputeco/denguesense/pkg/utils.Buildtime=%s'", buildtime),
	}

	return d.Build(ctx, strings.Join(ldflags, " "))
}
