package agent

import "testing"

func TestExtractJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "bare object", raw: `{"name":"a"}`, want: "a"},
		{name: "prose wrapped", raw: "Sure, here you go:\n```json\n{\"name\":\"a\"}\n```\nLet me know if that helps.", want: "a"},
		{name: "nested braces", raw: `{"name":"a","meta":{"x":1}}`, want: "a"},
		{name: "string containing braces", raw: `{"name":"a {not json} b"}`, want: "a {not json} b"},
		{name: "no json", raw: "I don't know.", wantErr: true},
		{name: "unbalanced", raw: `{"name":"a"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			err := extractJSON("test", tt.raw, &p)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Name != tt.want {
				t.Errorf("Name = %q, want %q", p.Name, tt.want)
			}
		})
	}
}

func TestExtractJSON_Array(t *testing.T) {
	var out []int
	if err := extractJSON("test", `the answer is [1, 2, 3] probably`, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 || out[0] != 1 || out[2] != 3 {
		t.Errorf("out = %v", out)
	}
}
