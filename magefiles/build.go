//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

const shaderDir = "data/shaders"

type Build mg.Namespace

// Compiles every GLSL stage under data/shaders to SPIR-V next to its source.
func (Build) Shaders() error {
	return buildShaders()
}

// Runs go mod tidy and go vet.
func (Build) Tidy() error {
	return goTidy()
}

func buildShaders() error {
	sources, err := filepath.Glob(filepath.Join(shaderDir, "*.glsl"))
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return fmt.Errorf("no shaders found in %s", shaderDir)
	}
	for _, src := range sources {
		name := filepath.Base(src)
		stage, err := shaderStage(name)
		if err != nil {
			return err
		}
		if _, err := executeCmd("glslc", withArgs("-fshader-stage="+stage, name, "-o", name+".spv"), withDir(shaderDir), withStream()); err != nil {
			return err
		}
	}
	return nil
}

// shaderStage reads the stage from the .vs/.fs infix of the file name.
func shaderStage(name string) (string, error) {
	switch filepath.Ext(name[:len(name)-len(filepath.Ext(name))]) {
	case ".vs":
		return "vertex", nil
	case ".fs":
		return "fragment", nil
	}
	return "", fmt.Errorf("unknown shader stage for %s", name)
}
