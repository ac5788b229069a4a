package math3d

import "math"

// Euler holds rotation angles in radians, applied in intrinsic X, Y, Z order.
type Euler struct {
	X, Y, Z float64
}

// E creates a new Euler.
func E(x, y, z float64) Euler {
	return Euler{x, y, z}
}

// EulerFromQuat converts a unit quaternion back to XYZ angles.
func EulerFromQuat(q Quat) Euler {
	return EulerFromRotationMatrix(q.Mat4())
}

// EulerFromRotationMatrix reads XYZ angles from an unscaled rotation matrix.
// Near gimbal lock Z is pinned to 0.
func EulerFromRotationMatrix(m Mat4) Euler {
	m11, m12, m13 := m[0], m[4], m[8]
	m22, m23 := m[5], m[9]
	m32, m33 := m[6], m[10]

	var e Euler
	e.Y = math.Asin(clamp(m13, -1, 1))
	if math.Abs(m13) < 0.9999999 {
		e.X = math.Atan2(-m23, m33)
		e.Z = math.Atan2(-m12, m11)
	} else {
		e.X = math.Atan2(m32, m22)
	}
	return e
}

// ApproxEqual compares each angle within eps.
//
//nolint:st1016 // a,b naming convention is clearer for comparisons
func (a Euler) ApproxEqual(b Euler, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Y-b.Y) <= eps && math.Abs(a.Z-b.Z) <= eps
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
