// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package imagebuilder layers a local build context onto a base image
// and pushes the result to a registry with crane.
package imagebuilder

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"interactive-toolkit/pkg/logging"
	"interactive-toolkit/pkg/shell"

	"github.com/google/go-containerregistry/pkg/compression"
	"github.com/google/go-containerregistry/pkg/crane"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/mutate"
	"github.com/google/go-containerregistry/pkg/v1/tarball"
	"github.com/moby/patternmatcher"
	"github.com/moby/patternmatcher/ignorefile"
)

// DockerPlatform represents the target platform for a container image.
type DockerPlatform string

const (
	LinuxAMD64 DockerPlatform = "linux/amd64"
	LinuxARM64 DockerPlatform = "linux/arm64"
)

// DefaultIgnorePatterns are always excluded from the build context, in
// addition to anything listed in the context's .dockerignore.
var DefaultIgnorePatterns = []string{
	".git",
	"__pycache__",
	".ipynb_checkpoints",
	"node_modules",
	"*.log",
	".DS_Store",
}

// BuildInteractiveImage layers contextDir onto baseImage and pushes
// the result to repo. The tag embeds the invoking user, a random
// prefix, and a timestamp so repeated launches never collide. Returns
// the full name of the pushed image.
func BuildInteractiveImage(repo, baseImage, contextDir, platformStr string) (string, error) {
	platform, err := parsePlatform(platformStr)
	if err != nil {
		return "", err
	}
	matcher, err := ReadDockerignorePatterns(contextDir, DefaultIgnorePatterns)
	if err != nil {
		return "", err
	}

	user := os.Getenv("USER")
	if user == "" {
		user = "unknown"
	}
	tag := fmt.Sprintf("%s-%s", shell.RandomString(4), time.Now().Format("2006-01-02-15-04-05"))
	imageName := fmt.Sprintf("%s/%s-interactive:%s", repo, user, tag)

	logging.Info("Building image %s from base %s", imageName, baseImage)
	logging.Debug("Build context %s, platform %s/%s", contextDir, platform.OS, platform.Architecture)

	tarballPath, err := createFilteredTar(contextDir, matcher)
	if err != nil {
		return "", fmt.Errorf("failed to create build context tarball: %w", err)
	}
	defer os.Remove(tarballPath)

	layer, err := tarball.LayerFromOpener(func() (io.ReadCloser, error) {
		return os.Open(tarballPath)
	}, tarball.WithCompression(compression.GZip))
	if err != nil {
		return "", fmt.Errorf("failed to create layer from build context: %w", err)
	}

	baseRef, err := name.ParseReference(baseImage)
	if err != nil {
		return "", fmt.Errorf("failed to parse base image reference %q: %w", baseImage, err)
	}
	base, err := crane.Pull(baseRef.String(), crane.WithPlatform(&platform))
	if err != nil {
		return "", fmt.Errorf("failed to pull base image %q: %w", baseImage, err)
	}

	img, err := mutate.AppendLayers(base, layer)
	if err != nil {
		return "", fmt.Errorf("failed to append build context layer: %w", err)
	}

	ref, err := name.ParseReference(imageName)
	if err != nil {
		return "", fmt.Errorf("failed to parse image reference %q: %w", imageName, err)
	}
	logging.Info("Pushing %s", imageName)
	if err := crane.Push(img, ref.String(), crane.WithPlatform(&platform)); err != nil {
		return "", fmt.Errorf("failed to push image %q: %w", imageName, err)
	}
	logging.Info("Image %s pushed", imageName)
	return imageName, nil
}

// parsePlatform converts an "os/arch" string into a v1.Platform.
func parsePlatform(platformStr string) (v1.Platform, error) {
	parts := strings.Split(platformStr, "/")
	if len(parts) != 2 {
		return v1.Platform{}, fmt.Errorf("invalid platform format %q, expected \"os/arch\"", platformStr)
	}
	return v1.Platform{
		OS:           parts[0],
		Architecture: parts[1],
	}, nil
}

// ReadDockerignorePatterns builds a matcher from defaultPatterns plus
// the .dockerignore in dir, if one exists.
func ReadDockerignorePatterns(dir string, defaultPatterns []string) (*patternmatcher.PatternMatcher, error) {
	patterns := make([]string, len(defaultPatterns))
	copy(patterns, defaultPatterns)

	dockerignorePath := filepath.Join(dir, ".dockerignore")
	if _, err := os.Stat(dockerignorePath); err == nil {
		file, err := os.Open(dockerignorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open %q: %w", dockerignorePath, err)
		}
		defer file.Close()

		filePatterns, err := ignorefile.ReadAll(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", dockerignorePath, err)
		}
		patterns = append(patterns, filePatterns...)
		logging.Debug("Found %d patterns in %s", len(filePatterns), dockerignorePath)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat %q: %w", dockerignorePath, err)
	}

	matcher, err := patternmatcher.New(patterns)
	if err != nil {
		return nil, fmt.Errorf("failed to create pattern matcher: %w", err)
	}
	return matcher, nil
}

func addTarEntry(tw *tar.Writer, sourceDir string, matcher *patternmatcher.PatternMatcher, path string, info fs.FileInfo, walkErr error) error {
	if walkErr != nil {
		return walkErr
	}

	relPath, err := filepath.Rel(sourceDir, path)
	if err != nil {
		return fmt.Errorf("failed to get relative path for %q: %w", path, err)
	}
	if relPath == "." {
		return nil
	}

	// Directories need a trailing slash for parent-pattern matching.
	relPathSlash := filepath.ToSlash(relPath)
	if info.IsDir() && !strings.HasSuffix(relPathSlash, "/") {
		relPathSlash += "/"
	}

	ignored, err := matcher.MatchesOrParentMatches(relPathSlash)
	if err != nil {
		return fmt.Errorf("failed to check ignore patterns for %q: %w", path, err)
	}
	if ignored {
		logging.Debug("Ignoring %s", relPath)
		if info.IsDir() {
			return filepath.SkipDir
		}
		return nil
	}

	header, err := tar.FileInfoHeader(info, relPath)
	if err != nil {
		return fmt.Errorf("failed to create tar header for %q: %w", path, err)
	}
	header.Name = relPath
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write tar header for %q: %w", path, err)
	}

	if info.Mode().IsRegular() {
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %q: %w", path, err)
		}
		defer file.Close()
		if _, err := io.Copy(tw, file); err != nil {
			return fmt.Errorf("failed to write content of %q: %w", path, err)
		}
	}
	return nil
}

// createFilteredTar writes a gzipped tarball of sourceDir, minus the
// ignored entries, to a temporary file and returns its path. The
// caller removes the file.
func createFilteredTar(sourceDir string, matcher *patternmatcher.PatternMatcher) (string, error) {
	tmp, err := os.CreateTemp("", "isession-build-context-*.tar.gz")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary tarball: %w", err)
	}
	defer tmp.Close()

	gzw := gzip.NewWriter(tmp)
	tw := tar.NewWriter(gzw)

	walkErr := filepath.Walk(sourceDir, func(path string, info fs.FileInfo, err error) error {
		return addTarEntry(tw, sourceDir, matcher, path, info, err)
	})
	closeErrs := []error{walkErr, tw.Close(), gzw.Close()}
	for _, err := range closeErrs {
		if err != nil {
			os.Remove(tmp.Name())
			return "", err
		}
	}
	return tmp.Name(), nil
}
