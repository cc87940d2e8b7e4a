package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNode_IsLeaf(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want bool
	}{
		{"NilChildren", Node{Label: "LA"}, true},
		{"EmptyChildren", Node{Label: "LA", Children: []Node{}}, true},
		{"WithChildren", Node{Label: "CA", Children: []Node{{Label: "LA"}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.IsLeaf(); got != tt.want {
				t.Errorf("Node.IsLeaf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNode_CloneIsDeep(t *testing.T) {
	orig := Node{Label: "CA", Children: []Node{{Label: "LA", Children: []Node{{Label: "Downtown"}}}}}
	clone := orig.Clone()

	clone.Children[0].Label = "changed"
	clone.Children[0].Children[0].Label = "changed"

	if orig.Children[0].Label != "LA" {
		t.Errorf("clone shares children with original: %q", orig.Children[0].Label)
	}
	if orig.Children[0].Children[0].Label != "Downtown" {
		t.Errorf("clone shares grandchildren with original: %q", orig.Children[0].Children[0].Label)
	}
}

func TestStrip_DropsChildren(t *testing.T) {
	siblings := []Node{
		{Label: "CA", Children: []Node{{Label: "LA"}}},
		{Label: "NY", Disabled: true},
	}
	level := Strip(siblings)

	want := Level{{Label: "CA"}, {Label: "NY", Disabled: true}}
	if !level.SameContent(want) {
		t.Fatalf("Strip() = %+v, want %+v", level, want)
	}

	// Rows have no children field at all, so serialized columns stay flat.
	data, err := json.Marshal(level)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "children") {
		t.Errorf("stripped level should not serialize children: %s", data)
	}
}

func TestLevel_SameContent(t *testing.T) {
	a := Level{{Label: "LA"}, {Label: "SF"}}
	tests := []struct {
		name  string
		other Level
		want  bool
	}{
		{"Identical", Level{{Label: "LA"}, {Label: "SF"}}, true},
		{"Reordered", Level{{Label: "SF"}, {Label: "LA"}}, false},
		{"Shorter", Level{{Label: "LA"}}, false},
		{"DisabledDiffers", Level{{Label: "LA"}, {Label: "SF", Disabled: true}}, false},
		{"Nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.SameContent(tt.other); got != tt.want {
				t.Errorf("SameContent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLevel_FirstEnabled(t *testing.T) {
	if got := (Level{{Label: "a", Disabled: true}, {Label: "b"}}).FirstEnabled(); got != 1 {
		t.Errorf("FirstEnabled() = %d, want 1", got)
	}
	if got := (Level{{Label: "a", Disabled: true}}).FirstEnabled(); got != -1 {
		t.Errorf("FirstEnabled() on all-disabled = %d, want -1", got)
	}
	if got := Level(nil).FirstEnabled(); got != -1 {
		t.Errorf("FirstEnabled() on empty = %d, want -1", got)
	}
}

func TestPath_CloneAndEqual(t *testing.T) {
	p := Path{0, 2, 1}
	c := p.Clone()
	if !p.Equal(c) {
		t.Fatalf("clone %v should equal %v", c, p)
	}
	c[0] = 5
	if p[0] != 0 {
		t.Error("Clone() shares backing array")
	}
	if Path(nil).Clone() != nil {
		t.Error("Clone() of nil path should be nil")
	}
	if !Path(nil).Equal(Path{}) {
		t.Error("nil and empty paths should be equal")
	}
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		in      string
		want    Path
		wantErr bool
	}{
		{"", Path{}, false},
		{"0", Path{0}, false},
		{"0,2,1", Path{0, 2, 1}, false},
		{" 1 , 3 ", Path{1, 3}, false},
		{"-1,2", Path{-1, 2}, false},
		{"1,x", nil, true},
		{"1x", nil, true},
	}
	for _, tt := range tests {
		got, err := ParsePath(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePath(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && !got.Equal(tt.want) {
			t.Errorf("ParsePath(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if s := (Path{0, 2, 1}).String(); s != "0,2,1" {
		t.Errorf("Path.String() = %q", s)
	}
}

func TestPickerModel_Validate(t *testing.T) {
	valid := PickerModel{
		Levels: []Level{{{Label: "CA"}, {Label: "NY"}}, {{Label: "NYC"}}},
		Path:   Path{1, 0},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() on valid model: %v", err)
	}

	short := valid
	short.Path = Path{1}
	if err := short.Validate(); err == nil {
		t.Error("expected error when path and levels lengths differ")
	}

	outOfRange := valid
	outOfRange.Path = Path{2, 0}
	if err := outOfRange.Validate(); err == nil {
		t.Error("expected error for out-of-range index")
	}
}

func TestPickerModel_SelectedLabels(t *testing.T) {
	m := PickerModel{
		Levels: []Level{{{Label: "CA"}, {Label: "NY"}}, {{Label: "NYC"}}},
		Path:   Path{1, 0},
	}
	got := strings.Join(m.SelectedLabels(), "|")
	if got != "NY|NYC" {
		t.Errorf("SelectedLabels() = %q, want %q", got, "NY|NYC")
	}
}
