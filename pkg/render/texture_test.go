package render

import (
	"image"
	"image/color"
	"testing"
)

func TestTextureSampleNearest(t *testing.T) {
	tex := NewTexture(2, 1)
	tex.SetPixel(0, 0, ColorBlack)
	tex.SetPixel(1, 0, ColorWhite)

	tests := []struct {
		name string
		wrap WrapMode
		u    float64
		want Color
	}{
		{"left", WrapRepeat, 0.25, ColorBlack},
		{"right", WrapRepeat, 0.75, ColorWhite},
		{"repeat", WrapRepeat, 1.25, ColorBlack},
		{"clamp", WrapClamp, 1.5, ColorWhite},
		{"clamp negative", WrapClamp, -3, ColorBlack},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tex.WrapU = tt.wrap
			if got := tex.Sample(tt.u, 0.5); got != tt.want {
				t.Errorf("Sample(%v) = %v, want %v", tt.u, got, tt.want)
			}
		})
	}
}

func TestTextureSampleFlipsV(t *testing.T) {
	tex := NewTexture(1, 2)
	tex.SetPixel(0, 0, ColorRed)
	tex.SetPixel(0, 1, ColorBlue)

	if got := tex.Sample(0.5, 0.9); got != ColorRed {
		t.Errorf("top = %v, want red", got)
	}
	if got := tex.Sample(0.5, 0.1); got != ColorBlue {
		t.Errorf("bottom = %v, want blue", got)
	}
}

func TestTextureSampleBilinear(t *testing.T) {
	tex := NewTexture(2, 1)
	tex.SetPixel(0, 0, ColorBlack)
	tex.SetPixel(1, 0, ColorWhite)
	tex.WrapU, tex.WrapV = WrapClamp, WrapClamp
	tex.FilterMode = FilterBilinear

	got := tex.Sample(0.5, 0.5)
	if got.R < 126 || got.R > 128 {
		t.Errorf("midpoint R = %d, want about 127", got.R)
	}
}

func TestTextureFromImage(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}

	rgba := image.NewRGBA(image.Rect(0, 0, 2, 2))
	rgba.Set(1, 0, red)
	nrgba := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	nrgba.Set(1, 0, red)

	for name, img := range map[string]image.Image{"rgba": rgba, "nrgba": nrgba} {
		t.Run(name, func(t *testing.T) {
			tex := TextureFromImage(img)
			if tex.Width != 2 || tex.Height != 2 {
				t.Fatalf("size = %dx%d, want 2x2", tex.Width, tex.Height)
			}
			if got := tex.GetPixel(1, 0); got != red {
				t.Errorf("pixel (1,0) = %v, want %v", got, red)
			}
			if got := tex.GetPixel(0, 0); got.R != 0 {
				t.Errorf("pixel (0,0) = %v, want transparent black", got)
			}
		})
	}
}

func TestTextureOutOfBounds(t *testing.T) {
	tex := NewTexture(2, 2)
	tex.SetPixel(5, 5, ColorRed)
	if got := tex.GetPixel(5, 5); got != (Color{}) {
		t.Errorf("GetPixel out of bounds = %v, want zero", got)
	}
	if got := (&Texture{}).Sample(0.5, 0.5); got != (Color{}) {
		t.Errorf("empty texture sample = %v, want zero", got)
	}
}
