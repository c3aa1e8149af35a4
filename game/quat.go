package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Quat is a unit quaternion orientation. Identity faces +Z with +Y up.
//
// The fields mirror mgl64.Quat so telemetry keeps named JSON keys; the
// algebra itself runs on mgl64.
type Quat struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Identity is the no-rotation orientation
var Identity = Quat{0, 0, 0, 1}

func (v Vec3) mgl() mgl64.Vec3 { return mgl64.Vec3{v.X, v.Y, v.Z} }

func vecFromMgl(v mgl64.Vec3) Vec3 { return Vec3{v[0], v[1], v[2]} }

func (q Quat) mgl() mgl64.Quat {
	return mgl64.Quat{W: q.W, V: mgl64.Vec3{q.X, q.Y, q.Z}}
}

func quatFromMgl(q mgl64.Quat) Quat {
	return Quat{q.V[0], q.V[1], q.V[2], q.W}
}

// AngleAxis builds a rotation of deg degrees about axis.
func AngleAxis(deg float64, axis Vec3) Quat {
	return quatFromMgl(mgl64.QuatRotate(mgl64.DegToRad(deg), axis.Normalized().mgl()))
}

// Yaw returns a rotation of deg degrees about the world up axis.
func Yaw(deg float64) Quat {
	return AngleAxis(deg, Up)
}

// Mul composes rotations: the result applies o first, then q.
func (q Quat) Mul(o Quat) Quat {
	return quatFromMgl(q.mgl().Mul(o.mgl()))
}

// Rotate applies the rotation to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	return vecFromMgl(q.mgl().Rotate(v.mgl()))
}

// Forward returns the direction the orientation faces.
func (q Quat) Forward() Vec3 {
	return q.Rotate(Forward)
}

func (q Quat) Dot(o Quat) float64 {
	return q.mgl().Dot(o.mgl())
}

func (q Quat) normalized() Quat {
	if q.Dot(q) < 1e-24 {
		return Identity
	}
	return quatFromMgl(q.mgl().Normalize())
}

// LookRotation returns the orientation whose forward axis points along dir
// with up as close to the given up vector as possible. A zero direction
// yields Identity; a direction parallel to up falls back to world forward
// as the up reference.
func LookRotation(dir, up Vec3) Quat {
	f := dir.Normalized()
	if f.LenSq() == 0 {
		return Identity
	}
	r := up.Cross(f)
	if r.LenSq() < 1e-12 {
		r = Forward.Cross(f)
		if r.LenSq() < 1e-12 {
			r = Right
		}
	}
	r = r.Normalized()
	u := f.Cross(r)

	// Basis columns are r, u, f (mgl64 matrices are column-major).
	m := mgl64.Mat4{
		r.X, r.Y, r.Z, 0,
		u.X, u.Y, u.Z, 0,
		f.X, f.Y, f.Z, 0,
		0, 0, 0, 1,
	}
	return quatFromMgl(mgl64.Mat4ToQuat(m)).normalized()
}

// QuatAngle returns the angle in degrees needed to rotate a onto b.
func QuatAngle(a, b Quat) float64 {
	d := math.Min(math.Abs(a.Dot(b)), 1)
	return mgl64.RadToDeg(2 * math.Acos(d))
}

// Slerp interpolates along the shortest arc between a and b.
func Slerp(a, b Quat, t float64) Quat {
	t = Clamp(t, 0, 1)
	if a.Dot(b) < 0 {
		b = Quat{-b.X, -b.Y, -b.Z, -b.W}
	}
	return quatFromMgl(mgl64.QuatSlerp(a.mgl(), b.mgl(), t)).normalized()
}

// RotateTowards turns from toward to by at most maxDeg degrees.
func RotateTowards(from, to Quat, maxDeg float64) Quat {
	angle := QuatAngle(from, to)
	if angle < 1e-9 {
		return to
	}
	if maxDeg <= 0 {
		return from
	}
	return Slerp(from, to, math.Min(1, maxDeg/angle))
}
