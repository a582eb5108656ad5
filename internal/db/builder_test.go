package db

import (
	"strings"
	"testing"
)

func TestIndexBuilder_CorpusSchema(t *testing.T) {
	idx, err := NewIndex("screener:idx:case_notes").
		Prefix("screener:case_notes:").
		Tag("workspace_id", "case_id", "category", "parent_id").
		Numeric("chunk").
		VectorHNSW("vector", 1536, DistanceCosine, 16, 200).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(idx.Fields) != 6 {
		t.Fatalf("fields count = %d, want 6", len(idx.Fields))
	}
	for i, name := range []string{"workspace_id", "case_id", "category", "parent_id"} {
		if idx.Fields[i].Name != name || idx.Fields[i].Type != IndexFieldTag {
			t.Errorf("field[%d] = %+v, want %s TAG", i, idx.Fields[i], name)
		}
	}
	if idx.Fields[4].Type != IndexFieldNumeric {
		t.Errorf("field[4] = %+v, want NUMERIC", idx.Fields[4])
	}
	v := idx.Fields[5]
	if v.VectorAlgo != VectorHNSW || v.VectorDim != 1536 || v.VectorM != 16 || v.VectorEFConstruct != 200 {
		t.Errorf("vector field = %+v", v)
	}
}

func TestIndexBuilder_VectorFlat(t *testing.T) {
	idx, err := NewIndex("vec-idx").
		Prefix("emb:").
		VectorFlat("embedding", 1536, DistanceCosine).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f := idx.Fields[0]
	if f.VectorAlgo != VectorFlat {
		t.Errorf("algo = %q, want FLAT", f.VectorAlgo)
	}
	if f.VectorDistance != DistanceCosine {
		t.Errorf("distance = %q, want COSINE", f.VectorDistance)
	}
}

func TestIndexBuilder_MultiplePrefixes(t *testing.T) {
	idx, err := NewIndex("multi-idx").Prefix("a:", "b:", "c:").Tag("x").Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(idx.Prefixes) != 3 {
		t.Errorf("prefix count = %d, want 3", len(idx.Prefixes))
	}
}

func TestIndexBuilder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder func() (*IndexDefinition, error)
		wantErr string
	}{
		{
			name: "empty name",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("").Tag("x").Build()
			},
			wantErr: "index name is required",
		},
		{
			name: "no fields",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Build()
			},
			wantErr: "at least one field",
		},
		{
			name: "vector without dim",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").VectorFlat("v", 0, DistanceCosine).Build()
			},
			wantErr: "positive DIM",
		},
		{
			name: "invalid characters",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx with spaces").Tag("x").Build()
			},
			wantErr: "invalid characters",
		},
		{
			name: "duplicate fields",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Tag("a").Numeric("a").Build()
			},
			wantErr: "duplicate field name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got error %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestIndexDefinition_String(t *testing.T) {
	idx, _ := NewIndex("my-idx").
		Prefix("doc:").
		Tag("cat").
		VectorFlat("vec", 512, DistanceCosine).
		Build()

	s := idx.String()
	if !strings.HasPrefix(s, "FT.CREATE my-idx ON HASH") {
		t.Errorf("unexpected prefix: %q", s)
	}
	if !strings.Contains(s, "cat TAG") || !strings.Contains(s, "vec VECTOR FLAT") {
		t.Errorf("missing schema fields: %q", s)
	}
}

func TestParseVectorAlgorithm(t *testing.T) {
	tests := []struct {
		in      string
		want    VectorAlgorithm
		wantErr bool
	}{
		{"", VectorHNSW, false},
		{"HNSW", VectorHNSW, false},
		{"FLAT", VectorFlat, false},
		{"IVF", "", true},
	}
	for _, tt := range tests {
		got, err := ParseVectorAlgorithm(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseVectorAlgorithm(%q) = (%q, %v)", tt.in, got, err)
		}
	}
}

func TestIsValidIdentifier(t *testing.T) {
	for _, s := range []string{"a", "screener:idx:case_notes", "x-1"} {
		if !IsValidIdentifier(s) {
			t.Errorf("IsValidIdentifier(%q) = false", s)
		}
	}
	for _, s := range []string{"", "with space", "dot.name", "brace{"} {
		if IsValidIdentifier(s) {
			t.Errorf("IsValidIdentifier(%q) = true", s)
		}
	}
}
