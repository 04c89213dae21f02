package storyboard

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCommandString(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{"instant fade", Fade(1000, 1000, 0.5, 0.5), "F,0,1000,,0.5"},
		{"ranged fade", Fade(0, 500, 0, 1), "F,0,0,500,0,1"},
		{"setup vecscale", VecScale(0, 0, 5, 9, 5, 9), "V,0,0,,5,9"},
		{"colour", Colour(33, 33, [3]int{255, 0, 12}, [3]int{255, 0, 12}), "C,0,33,,255,0,12"},
		{"scale change", Scale(10, 20, 1, 2.25), "S,0,10,20,1,2.25"},
		{"parameter", SetParameter(0, 100, ParamAdditive), "P,0,0,100,A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cmd.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommandValidate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     Command
		wantErr bool
	}{
		{"ok", Fade(0, 0, 1, 1), false},
		{"end before start", Fade(10, 5, 1, 1), true},
		{"colour out of range", Colour(0, 0, [3]int{256, 0, 0}, [3]int{256, 0, 0}), true},
		{"negative colour", Colour(0, 0, [3]int{0, -1, 0}, [3]int{0, 0, 0}), true},
		{"bad easing", Command{Op: OpFade, Easing: 35, From: []float64{1}, To: []float64{1}}, true},
		{"bad parameter", SetParameter(0, 0, "X"), true},
		{"unknown op", Command{Op: "Z", From: []float64{1}, To: []float64{1}}, true},
		{"missing operands", Command{Op: OpFade}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidField) {
				t.Errorf("error %v does not wrap ErrInvalidField", err)
			}
		})
	}
}

func TestEnumValidation(t *testing.T) {
	if err := Layer("Overlay").Validate(); err == nil {
		t.Error("unknown layer accepted")
	}
	if err := Origin("Middle").Validate(); err == nil {
		t.Error("unknown origin accepted")
	}
	if err := LoopType("Sometimes").Validate(); err == nil {
		t.Error("unknown loop type accepted")
	}
	for _, l := range Layers {
		if err := l.Validate(); err != nil {
			t.Errorf("layer %s rejected: %v", l, err)
		}
	}
	if err := LoopForever.Validate(); err != nil {
		t.Error(err)
	}
}

func TestWrite(t *testing.T) {
	sb := New()
	o := sb.NewObject(LayerBackground, "a", Sprite{Path: "res/dot.png", Origin: OriginCentre, X: 320, Y: 240})
	o.AddSetup(VecScale(0, 0, 641, 481, 641, 481))
	o.AddSetup(Fade(0, 0, 0, 0))
	o.Add(Fade(1000, 1000, 0.5, 0.5))
	fg := sb.NewObject(LayerForeground, "b", Sprite{Path: "x.png", Origin: OriginTopLeft, X: -1.5, Y: 0})
	fg.Add(Fade(0, 0, 1, 1))

	var b strings.Builder
	if err := Write(&b, sb); err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"[Events]",
		"//Background and Video events",
		"//Storyboard Layer 0 (Background)",
		`Sprite,Background,Centre,"res/dot.png",320,240`,
		" V,0,0,,641,481",
		" F,0,0,,0",
		" F,0,1000,,0.5",
		"//Storyboard Layer 1 (Fail)",
		"//Storyboard Layer 2 (Pass)",
		"//Storyboard Layer 3 (Foreground)",
		`Sprite,Foreground,TopLeft,"x.png",-1.5,0`,
		" F,0,0,,1",
		"//Storyboard Sound Samples",
		"",
	}, "\n")
	if b.String() != want {
		t.Errorf("Write() =\n%s\nwant\n%s", b.String(), want)
	}
	if sb.Len() != 2 || sb.CommandCount() != 4 {
		t.Errorf("Len/CommandCount = %d/%d, want 2/4", sb.Len(), sb.CommandCount())
	}
}

func TestWriteFileRejectsInvalid(t *testing.T) {
	sb := New()
	o := sb.NewObject(LayerBackground, "bad", Sprite{Path: "res/dot.png", Origin: OriginCentre})
	o.Add(Fade(10, 0, 1, 1))

	path := filepath.Join(t.TempDir(), "out.osb")
	if err := WriteFile(path, sb); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("WriteFile() error = %v, want ErrInvalidField", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("partial file left behind: %v", err)
	}
}
