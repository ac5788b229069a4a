package math3d

import (
	"testing"
)

func BenchmarkMat4Mul(b *testing.B) {
	m1 := Translate(V3(1, 2, 3))
	m2 := RotateY(0.5)

	for b.Loop() {
		_ = m1.Mul(m2)
	}
}

func BenchmarkMat4MulVec4(b *testing.B) {
	m := Translate(V3(1, 2, 3)).Mul(RotateY(0.5))
	v := V4(1, 2, 3, 1)

	for b.Loop() {
		_ = m.MulVec4(v)
	}
}

func BenchmarkMat4MulVec3(b *testing.B) {
	m := Translate(V3(1, 2, 3)).Mul(RotateY(0.5))
	v := V3(1, 2, 3)

	for b.Loop() {
		_ = m.MulVec3(v)
	}
}

func BenchmarkMat4Inverse(b *testing.B) {
	m := Translate(V3(1, 2, 3)).Mul(RotateY(0.5)).Mul(Scale(V3(2, 2, 2)))

	for b.Loop() {
		_ = m.Inverse()
	}
}

func BenchmarkVec3Normalize(b *testing.B) {
	v := V3(1, 2, 3)

	for b.Loop() {
		_ = v.Normalize()
	}
}

func BenchmarkVec3Cross(b *testing.B) {
	v1 := V3(1, 2, 3)
	v2 := V3(4, 5, 6)

	for b.Loop() {
		_ = v1.Cross(v2)
	}
}

func BenchmarkVec3Dot(b *testing.B) {
	v1 := V3(1, 2, 3)
	v2 := V3(4, 5, 6)

	for b.Loop() {
		_ = v1.Dot(v2)
	}
}

func BenchmarkPerspective(b *testing.B) {
	for b.Loop() {
		_ = Perspective(60.0, 1.333, 0.1, 100.0)
	}
}

func BenchmarkCompose(b *testing.B) {
	pos := V3(1, 2, 3)
	q := QuatFromEuler(E(0.1, 0.2, 0.3))
	scale := V3(0.015, 0.015, 0.015)

	for b.Loop() {
		_ = Compose(pos, q, scale)
	}
}

func BenchmarkQuatSlerp(b *testing.B) {
	q1 := QuatFromAxisAngle(Up(), 0.2)
	q2 := QuatFromAxisAngle(V3(1, 0, 0), 1.4)

	for b.Loop() {
		_ = q1.Slerp(q2, 0.37)
	}
}

func BenchmarkViewProjection(b *testing.B) {
	// Mirrors how the camera combines its matrices each frame
	view := RotateX(-0.2).Mul(RotateY(0.4)).Mul(Translate(V3(0, 0, -4)))
	proj := Perspective(1.309, 1.333, 0.1, 100.0)

	for b.Loop() {
		_ = proj.Mul(view)
	}
}
