package math3d

import "math"

// Quat is a rotation quaternion. The zero value is not a valid rotation;
// use QuatIdentity.
type Quat struct {
	X, Y, Z, W float64
}

// QuatIdentity returns the no-op rotation.
func QuatIdentity() Quat {
	return Quat{0, 0, 0, 1}
}

// QuatFromAxisAngle returns a rotation of angle radians around axis.
func QuatFromAxisAngle(axis Vec3, angle float64) Quat {
	axis = axis.Normalize()
	s := math.Sin(angle / 2)
	return Quat{axis.X * s, axis.Y * s, axis.Z * s, math.Cos(angle / 2)}
}

// QuatFromEuler converts intrinsic XYZ Euler angles to a quaternion.
func QuatFromEuler(e Euler) Quat {
	c1, s1 := math.Cos(e.X/2), math.Sin(e.X/2)
	c2, s2 := math.Cos(e.Y/2), math.Sin(e.Y/2)
	c3, s3 := math.Cos(e.Z/2), math.Sin(e.Z/2)

	return Quat{
		X: s1*c2*c3 + c1*s2*s3,
		Y: c1*s2*c3 - s1*c2*s3,
		Z: c1*c2*s3 + s1*s2*c3,
		W: c1*c2*c3 - s1*s2*s3,
	}
}

// QuatFromRotationMatrix extracts the rotation from the upper 3x3 of m,
// which must be unscaled.
func QuatFromRotationMatrix(m Mat4) Quat {
	m11, m12, m13 := m[0], m[4], m[8]
	m21, m22, m23 := m[1], m[5], m[9]
	m31, m32, m33 := m[2], m[6], m[10]

	trace := m11 + m22 + m33
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		return Quat{(m32 - m23) * s, (m13 - m31) * s, (m21 - m12) * s, 0.25 / s}
	case m11 > m22 && m11 > m33:
		s := 2 * math.Sqrt(1+m11-m22-m33)
		return Quat{0.25 * s, (m12 + m21) / s, (m13 + m31) / s, (m32 - m23) / s}
	case m22 > m33:
		s := 2 * math.Sqrt(1+m22-m11-m33)
		return Quat{(m12 + m21) / s, 0.25 * s, (m23 + m32) / s, (m13 - m31) / s}
	default:
		s := 2 * math.Sqrt(1+m33-m11-m22)
		return Quat{(m13 + m31) / s, (m23 + m32) / s, 0.25 * s, (m21 - m12) / s}
	}
}

// Mul returns a * b: the rotation b followed by a.
//
//nolint:st1016 // a*b naming convention is clearer for quaternion products
func (a Quat) Mul(b Quat) Quat {
	return Quat{
		X: a.X*b.W + a.W*b.X + a.Y*b.Z - a.Z*b.Y,
		Y: a.Y*b.W + a.W*b.Y + a.Z*b.X - a.X*b.Z,
		Z: a.Z*b.W + a.W*b.Z + a.X*b.Y - a.Y*b.X,
		W: a.W*b.W - a.X*b.X - a.Y*b.Y - a.Z*b.Z,
	}
}

// Dot returns the 4D dot product.
//
//nolint:st1016 // a·b naming convention is clearer for quaternion operations
func (a Quat) Dot(b Quat) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z + a.W*b.W
}

// Len returns the quaternion norm.
func (q Quat) Len() float64 {
	return math.Sqrt(q.Dot(q))
}

// Normalize returns the unit quaternion; a zero quaternion becomes identity.
func (q Quat) Normalize() Quat {
	l := q.Len()
	if l == 0 {
		return QuatIdentity()
	}
	return Quat{q.X / l, q.Y / l, q.Z / l, q.W / l}
}

// Slerp spherically interpolates from a to b along the shortest arc.
//
//nolint:st1016 // a,b naming convention is clearer for interpolation
func (a Quat) Slerp(b Quat, t float64) Quat {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}

	cosHalf := a.Dot(b)
	if cosHalf < 0 {
		b = Quat{-b.X, -b.Y, -b.Z, -b.W}
		cosHalf = -cosHalf
	}
	if cosHalf >= 1 {
		return a
	}

	sqrSin := 1 - cosHalf*cosHalf
	if sqrSin <= 1e-12 {
		// Nearly parallel: fall back to normalized lerp.
		s := 1 - t
		return Quat{
			s*a.X + t*b.X,
			s*a.Y + t*b.Y,
			s*a.Z + t*b.Z,
			s*a.W + t*b.W,
		}.Normalize()
	}

	sinHalf := math.Sqrt(sqrSin)
	halfTheta := math.Atan2(sinHalf, cosHalf)
	ra := math.Sin((1-t)*halfTheta) / sinHalf
	rb := math.Sin(t*halfTheta) / sinHalf

	return Quat{
		a.X*ra + b.X*rb,
		a.Y*ra + b.Y*rb,
		a.Z*ra + b.Z*rb,
		a.W*ra + b.W*rb,
	}
}

// Rotate applies the rotation to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := V3(q.X, q.Y, q.Z)
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// Mat4 returns the rotation as a matrix.
func (q Quat) Mat4() Mat4 {
	return Compose(Zero3(), q, One3())
}

// ApproxEqual reports whether a and b describe the same rotation within eps.
// q and -q are treated as equal.
//
//nolint:st1016 // a,b naming convention is clearer for comparisons
func (a Quat) ApproxEqual(b Quat, eps float64) bool {
	return 1-math.Abs(a.Dot(b)) <= eps
}
