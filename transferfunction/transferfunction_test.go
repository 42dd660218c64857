package transferfunction

import (
	"math"
	"testing"
)

func TestNew_IdentityRamp(t *testing.T) {
	tf := New()
	for c := Component(0); c < numComponents; c++ {
		want0 := float32(0)
		if c == Alpha {
			want0 = 1
		}
		if tf.Value(c, 0) != want0 {
			t.Errorf("component %d node 0: want %f, got %f", c, want0, tf.Value(c, 0))
		}
		if math.Abs(float64(tf.Value(c, Size-1)-1)) > 1e-6 {
			t.Errorf("component %d node %d: want 1, got %f", c, Size-1, tf.Value(c, Size-1))
		}
	}
}

func TestSetNode_ThenRemove_RestoresRamp(t *testing.T) {
	tf := New()
	before := tf.Sample(0.5)

	tf.SetNode(Alpha, 0.5, 1.0)
	if math.Abs(float64(tf.Value(Alpha, 128)-1.0)) > 1e-4 {
		t.Fatalf("expected node 128 alpha == 1.0, got %f", tf.Value(Alpha, 128))
	}

	tf.RemoveNode(Alpha, 0.5)
	after := tf.Sample(0.5)
	if math.Abs(float64(before[Alpha]-after[Alpha])) > 1e-4 {
		t.Errorf("expected alpha restored after remove, before=%f after=%f", before[Alpha], after[Alpha])
	}
}

func TestRemoveNode_RejectsEndpoints(t *testing.T) {
	tf := New()
	orig := tf.Value(Alpha, 0)
	tf.RemoveNode(Alpha, 0)
	if tf.Value(Alpha, 0) != orig {
		t.Error("expected node 0 to be immune to removal")
	}
	origEnd := tf.Value(Alpha, Size-1)
	tf.RemoveNode(Alpha, 1)
	if tf.Value(Alpha, Size-1) != origEnd {
		t.Error("expected last node to be immune to removal")
	}
}

func TestSetLogarithmic_RejectsNonAscending(t *testing.T) {
	tf := New()
	if err := tf.SetLogarithmic(Red, 0.2, 0.8, 1.0, 0.5); err == nil {
		t.Fatal("expected error for end <= start")
	}
}

func TestSetLogarithmic_ThenReset_RestoresIdentity(t *testing.T) {
	tf := New()
	if err := tf.SetLogarithmic(Red, 0.1, 0.9, 0.1, 2.0); err != nil {
		t.Fatalf("SetLogarithmic: %v", err)
	}
	if tf.Mode(Red) != Logarithmic {
		t.Fatal("expected Red to be in logarithmic mode")
	}
	tf.ResetComponent(Red)
	if tf.Mode(Red) != PiecewiseLinear {
		t.Fatal("expected reset to restore piecewise-linear mode")
	}
	if math.Abs(float64(tf.Value(Red, 0))) > 1e-6 {
		t.Errorf("expected node 0 reset to 0, got %f", tf.Value(Red, 0))
	}
	if math.Abs(float64(tf.Value(Red, Size-1)-1)) > 1e-6 {
		t.Errorf("expected last node reset to 1, got %f", tf.Value(Red, Size-1))
	}
}

func TestPiecewiseLinearSegment_IsExactlyLinear(t *testing.T) {
	tf := New()
	tf.SetNode(Red, 0.0, 0.0)
	tf.SetNode(Red, 1.0, 1.0)

	a := (tf.Value(Red, Size-1) - tf.Value(Red, 0)) / float32(Size-1)
	b := tf.Value(Red, 0)
	for k := 0; k < Size; k++ {
		want := a*float32(k) + b
		if math.Abs(float64(tf.Value(Red, k)-want)) > 1e-4 {
			t.Fatalf("node %d: expected linear value %f, got %f", k, want, tf.Value(Red, k))
		}
	}
}

func TestLUTAllValuesInUnitRange(t *testing.T) {
	tf := New()
	tf.SetNode(Green, 0.3, 0.7)
	for c := Component(0); c < numComponents; c++ {
		for k := 0; k < Size; k++ {
			v := tf.Value(c, k)
			if v < -1e-6 || v > 1+1e-6 {
				t.Errorf("component %d node %d out of [0,1]: %f", c, k, v)
			}
		}
	}
}
