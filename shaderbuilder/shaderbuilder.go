// Package shaderbuilder composes WGSL shader source from small,
// independently removable pieces: global declarations (uniforms,
// samplers, inputs, outputs), numbered intermediate variables with
// explicit dependencies, and a set of output assignments that root the
// variables actually needed in the final source.
package shaderbuilder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/solarvol/voxrender/internal/rterr"
)

type dependency struct {
	isGlobal    bool
	global      string
	variableNum int
}

type variable struct {
	number     int
	expression string
	deps       []dependency
	deleted    bool
}

// Source is one shader stage's append-only variable/global composition.
// Variables are stored in a dense slice indexed by number; removing one
// tombstones its slot (so numbers already referenced elsewhere stay
// valid) rather than shifting every later index, per the append-only
// vector plus tombstone bitmap replacement for the original's
// linked-list-with-recycled-numbers scheme.
type Source struct {
	globals   map[string]string // name -> declaration line
	variables []variable        // index == variable number
	outputs   []int             // variable numbers assigned to an output
}

// New returns an empty shader source.
func New() *Source {
	return &Source{globals: make(map[string]string)}
}

// AddGlobal registers (or overwrites) a global declaration line under
// name. A variable only depends on a global by name; unreferenced
// globals never appear in the emitted source.
func (s *Source) AddGlobal(name, declaration string) {
	s.globals[name] = declaration
}

// AddVertexInput declares a `@location(n) name: type` vertex input.
func (s *Source) AddVertexInput(location int, typ, name string) {
	s.AddGlobal(name, fmt.Sprintf("@location(%d) %s: %s,", location, name, typ))
}

// AddUniform declares a scalar uniform.
func (s *Source) AddUniform(typ, name string) {
	s.AddGlobal(name, fmt.Sprintf("var<uniform> %s: %s;", name, typ))
}

// AddArrayUniform declares a fixed-length array uniform.
func (s *Source) AddArrayUniform(typ, name string, length int) {
	s.AddGlobal(name, fmt.Sprintf("var<uniform> %s: array<%s, %d>;", name, typ, length))
}

// AddSampler3D declares a 3D texture + sampler pair under name, used for
// field-texture sampling (C).
func (s *Source) AddSampler3D(name string) {
	s.AddGlobal(name, fmt.Sprintf("var %s: texture_3d<f32>;\nvar %s_sampler: sampler;", name, name))
}

// AddSampler1D declares a 1D texture + sampler pair, used for transfer
// function sampling (D). WGSL has no 1D texture type; a 2D texture with
// a unit-height row represents it.
func (s *Source) AddSampler1D(name string) {
	s.AddGlobal(name, fmt.Sprintf("var %s: texture_2d<f32>;\nvar %s_sampler: sampler;", name, name))
}

// AddOutput declares an output global (struct field, discard target).
func (s *Source) AddOutput(typ, name string) {
	s.AddGlobal(name, fmt.Sprintf("out: %s %s", typ, name))
}

func (s *Source) newVariable() *variable {
	s.variables = append(s.variables, variable{number: len(s.variables)})
	return &s.variables[len(s.variables)-1]
}

// AddSnippet creates a new variable whose value is outputExpr, preceded
// by an arbitrary code snippet (a loop or a block of statements that
// computes outputExpr's inputs), declared to depend on the given
// globals and variable numbers. Returns the new variable's number.
func (s *Source) AddSnippet(outputType, outputExpr, snippet string, globalDeps []string, variableDeps []int) (int, error) {
	for _, d := range variableDeps {
		if d < 0 || d >= len(s.variables) || s.variables[d].deleted {
			return 0, rterr.New(rterr.InvalidConfig, "shader snippet depends on an unknown or deleted variable")
		}
	}

	v := s.newVariable()
	if snippet != "" {
		v.expression = fmt.Sprintf("%s\n    let variable_%d: %s = %s;", snippet, v.number, outputType, outputExpr)
	} else {
		v.expression = fmt.Sprintf("    let variable_%d: %s = %s;", v.number, outputType, outputExpr)
	}
	for _, g := range globalDeps {
		v.deps = append(v.deps, dependency{isGlobal: true, global: g})
	}
	for _, d := range variableDeps {
		v.deps = append(v.deps, dependency{variableNum: d})
	}
	return v.number, nil
}

// AssignToOutput marks variableNum's value as the final value of
// outputName, rooting it (and its transitive dependencies) in the
// emitted source.
func (s *Source) AssignToOutput(variableNum int, outputName string) error {
	if variableNum < 0 || variableNum >= len(s.variables) || s.variables[variableNum].deleted {
		return rterr.New(rterr.InvalidConfig, "cannot assign unknown or deleted variable to output")
	}
	v := &s.variables[variableNum]
	v.expression += fmt.Sprintf("\n    %s = variable_%d;", outputName, variableNum)
	s.outputs = append(s.outputs, variableNum)
	return nil
}

// RemoveVariable deletes variableNum and, transitively, every other
// variable whose dependency closure included it, replacing the
// original's recursive `remove_variable_in_shader`. This keeps removing
// the transfer function or a clip plane from leaving dead references
// behind: disabling a subsystem shrinks the emitted source instead of
// compiling a reference to a deleted variable.
func (s *Source) RemoveVariable(variableNum int) {
	if variableNum < 0 || variableNum >= len(s.variables) {
		return
	}

	worklist := []int{variableNum}
	for len(worklist) > 0 {
		n := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		if n < 0 || n >= len(s.variables) || s.variables[n].deleted {
			continue
		}
		s.variables[n].deleted = true
		s.variables[n].expression = ""
		s.variables[n].deps = nil

		for i := range s.variables {
			if s.variables[i].deleted {
				continue
			}
			for _, d := range s.variables[i].deps {
				if !d.isGlobal && d.variableNum == n {
					worklist = append(worklist, i)
					break
				}
			}
		}
	}

	filtered := s.outputs[:0]
	for _, o := range s.outputs {
		if !s.variables[o].deleted {
			filtered = append(filtered, o)
		}
	}
	s.outputs = filtered
}

// Generate emits the complete shader source: every global declaration
// transitively required by the output variables (sorted for determinism — WGSL has no import-order
// sensitivity that would require preserving declaration order), and the
// output variables' expressions written in dependency order inside a
// single entry-point-shaped body. Calling Generate twice with no
// mutation in between produces byte-identical output. No header line
// precedes the globals.
func (s *Source) Generate() (string, error) {
	if len(s.outputs) == 0 {
		return "", rterr.New(rterr.InvalidConfig, "shader source has no output")
	}

	requiredGlobals := make(map[string]struct{})
	reached := make(map[int]bool)
	pending := append([]int(nil), s.outputs...)
	for len(pending) > 0 {
		n := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if reached[n] {
			continue
		}
		reached[n] = true
		for _, d := range s.variables[n].deps {
			if d.isGlobal {
				requiredGlobals[d.global] = struct{}{}
			} else {
				pending = append(pending, d.variableNum)
			}
		}
	}

	names := make([]string, 0, len(requiredGlobals))
	for name := range requiredGlobals {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		decl, ok := s.globals[name]
		if !ok {
			return "", rterr.New(rterr.ShaderCompileError, fmt.Sprintf("missing required global %q", name))
		}
		b.WriteString(decl)
		b.WriteByte('\n')
	}

	b.WriteString("\nfn main() {\n")

	written := make(map[int]bool)
	var writeVar func(n int) error
	writeVar = func(n int) error {
		if written[n] {
			return nil
		}
		v := &s.variables[n]
		if v.deleted {
			return rterr.New(rterr.ShaderCompileError, "required shader variable was deleted")
		}
		for _, d := range v.deps {
			if !d.isGlobal {
				if err := writeVar(d.variableNum); err != nil {
					return err
				}
			}
		}
		b.WriteString(v.expression)
		b.WriteByte('\n')
		written[n] = true
		return nil
	}

	for _, out := range s.outputs {
		if err := writeVar(out); err != nil {
			return "", err
		}
	}

	b.WriteString("}\n")
	return b.String(), nil
}
