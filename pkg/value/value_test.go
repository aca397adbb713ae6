package value

import (
	"encoding/json"
	"testing"
)

func TestZeroValueIsNumberZero(t *testing.T) {
	var v Value
	n, ok := v.AsNumber()
	if !ok || n != 0 {
		t.Errorf("zero Value = %v (ok=%v), want number 0", n, ok)
	}
	if v.Kind() != KindNumber {
		t.Errorf("zero Kind = %s, want number", v.Kind())
	}
}

func TestAccessorsRespectTag(t *testing.T) {
	v := Text("hello")
	if _, ok := v.AsNumber(); ok {
		t.Error("AsNumber on text should report !ok")
	}
	if s, ok := v.AsText(); !ok || s != "hello" {
		t.Errorf("AsText = %q, %v", s, ok)
	}
	if _, ok := v.AsBool(); ok {
		t.Error("AsBool on text should report !ok")
	}
	if _, ok := v.AsArray(); ok {
		t.Error("AsArray on text should report !ok")
	}
	if _, ok := v.AsObject(); ok {
		t.Error("AsObject on text should report !ok")
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"same number", Number(45), Number(45), true},
		{"different number", Number(45), Number(90), false},
		{"number vs text", Number(1), Text("1"), false},
		{"same text", Text("sine"), Text("sine"), true},
		{"bool", Bool(true), Bool(true), true},
		{"bool differs", Bool(true), Bool(false), false},
		{"array", Array(1, 2, 3), Array(1, 2, 3), true},
		{"array length", Array(1, 2), Array(1, 2, 3), false},
		{"array element", Array(1, 2, 3), Array(1, 2, 4), false},
		{"empty arrays", Array(), Array(), true},
		{
			"object",
			Object(map[string]Value{"x": Number(5), "y": Number(10)}),
			Object(map[string]Value{"y": Number(10), "x": Number(5)}),
			true,
		},
		{
			"object missing field",
			Object(map[string]Value{"x": Number(5)}),
			Object(map[string]Value{"y": Number(5)}),
			false,
		},
		{
			"nested object",
			Object(map[string]Value{"p": Object(map[string]Value{"x": Number(1)})}),
			Object(map[string]Value{"p": Object(map[string]Value{"x": Number(2)})}),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestArrayIsolatedFromCaller(t *testing.T) {
	src := []float64{1, 2, 3}
	v := Array(src...)
	src[0] = 99

	got, _ := v.AsArray()
	if got[0] != 1 {
		t.Fatalf("Array aliased caller slice: got %v", got)
	}

	got[1] = 42
	again, _ := v.AsArray()
	if again[1] != 2 {
		t.Fatalf("AsArray aliased internal slice: got %v", again)
	}
}

func TestObjectIsolatedFromCaller(t *testing.T) {
	fields := map[string]Value{"x": Number(5)}
	v := Object(fields)
	fields["x"] = Number(6)

	x, ok := v.Field("x")
	if !ok || !x.Equal(Number(5)) {
		t.Fatalf("Object aliased caller map: x = %v", x)
	}

	out, _ := v.AsObject()
	out["y"] = Number(1)
	if _, ok := v.Field("y"); ok {
		t.Fatal("AsObject aliased internal map")
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Number(45), "45"},
		{Number(0.5), "0.5"},
		{Text("deg"), `"deg"`},
		{Bool(false), "false"},
		{Array(1, 2.5), "[1, 2.5]"},
		{Object(map[string]Value{"y": Number(2), "x": Number(1)}), "{x: 1, y: 2}"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestFromAny(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    Value
		wantErr bool
	}{
		{"int", 45, Number(45), false},
		{"float", 0.25, Number(0.25), false},
		{"string", "sine", Text("sine"), false},
		{"bool", true, Bool(true), false},
		{"numeric sequence", []any{1, 2.5, 3}, Array(1, 2.5, 3), false},
		{"mixed sequence", []any{1, "two"}, Value{}, true},
		{"string map", map[string]any{"x": 5}, Object(map[string]Value{"x": Number(5)}), false},
		{"any map", map[any]any{"x": 5}, Object(map[string]Value{"x": Number(5)}), false},
		{"non-string key", map[any]any{1: 5}, Value{}, true},
		{"nil", nil, Value{}, true},
		{"unsupported", struct{}{}, Value{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAny(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("FromAny = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJSON(t *testing.T) {
	v := Object(map[string]Value{
		"angle":  Number(90),
		"label":  Text("θ"),
		"show":   Bool(true),
		"ticks":  Array(0, 90, 180),
		"nested": Object(map[string]Value{"r": Number(1)}),
	})

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Value
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(v) {
		t.Errorf("JSON round trip = %v, want %v", back, v)
	}
}

func TestUnmarshalJSONRejects(t *testing.T) {
	for _, in := range []string{`null`, `[1, "a"]`, `{`, ` null `} {
		var v Value
		if err := json.Unmarshal([]byte(in), &v); err == nil {
			t.Errorf("Unmarshal(%s) should fail, got %v", in, v)
		}
	}
}
