//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

var shaderNames = []string{"triangle", "flat"}

// Compiles every GLSL shader pair to SPIR-V with glslc.
func (Build) Shaders() error {
	for _, name := range shaderNames {
		for _, stage := range []string{"vert", "frag"} {
			src := fmt.Sprintf("shaders/%s.%s", name, stage)
			out := fmt.Sprintf("shaders/%s.%s.spv", name, stage)
			if _, err := executeCmd("glslc", withArgs(src, "-o", out), withStream()); err != nil {
				return err
			}
		}
	}
	return nil
}

// Builds the engine binary.
func (Build) Binary() error {
	mg.Deps(Build.Shaders)
	if _, err := executeCmd("go", withArgs("build", "-o", "vetro", "."), withStream()); err != nil {
		return err
	}
	return nil
}
