package shaderbuilder

import (
	"strings"
	"testing"
)

func TestGenerate_RejectsNoOutput(t *testing.T) {
	s := New()
	if _, err := s.Generate(); err == nil {
		t.Fatal("expected error when no output variable is assigned")
	}
}

func TestGenerate_OnlyEmitsReferencedGlobals(t *testing.T) {
	s := New()
	s.AddUniform("mat4x4<f32>", "mvp")
	s.AddUniform("mat4x4<f32>", "unused_uniform")

	v, err := s.TransformInput("mvp", "position")
	if err != nil {
		t.Fatal(err)
	}
	s.AddGlobal("position", "@location(0) position: vec4<f32>,")
	if err := s.AssignToOutput(v, "out_position"); err != nil {
		t.Fatal(err)
	}

	out, err := s.Generate()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "mvp") {
		t.Error("expected referenced global mvp in output")
	}
	if strings.Contains(out, "unused_uniform") {
		t.Error("expected unreferenced global to be omitted")
	}
}

func TestGenerate_IsDeterministic(t *testing.T) {
	build := func() string {
		s := New()
		s.AddUniform("f32", "a")
		s.AddUniform("f32", "b")
		v, _ := s.AddSnippet("f32", "a + b", "", []string{"a", "b"}, nil)
		s.AssignToOutput(v, "out_value")
		out, err := s.Generate()
		if err != nil {
			t.Fatal(err)
		}
		return out
	}
	if build() != build() {
		t.Error("expected identical output across repeated generation with no mutation")
	}
}

func TestRemoveVariable_RemovesTransitiveDependents(t *testing.T) {
	s := New()
	s.AddUniform("f32", "a")

	base, _ := s.AddSnippet("f32", "a", "", []string{"a"}, nil)
	derived, _ := s.AddSnippet("f32", "variable_0 * 2.0", "", nil, []int{base})
	if err := s.AssignToOutput(derived, "out_value"); err != nil {
		t.Fatal(err)
	}

	s.RemoveVariable(base)

	if _, err := s.Generate(); err == nil {
		t.Fatal("expected error: output variable's dependency chain was removed")
	}
}

func TestAssignToOutput_RejectsDeletedVariable(t *testing.T) {
	s := New()
	s.AddUniform("f32", "a")
	v, _ := s.AddSnippet("f32", "a", "", []string{"a"}, nil)
	s.RemoveVariable(v)

	if err := s.AssignToOutput(v, "out_value"); err == nil {
		t.Fatal("expected error assigning a deleted variable to an output")
	}
}

func TestAddSnippet_RejectsUnknownVariableDependency(t *testing.T) {
	s := New()
	if _, err := s.AddSnippet("f32", "variable_5", "", nil, []int{5}); err == nil {
		t.Fatal("expected error for dependency on a nonexistent variable")
	}
}
