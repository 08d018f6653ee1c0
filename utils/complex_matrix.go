package utils

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"
)

/*
CMatrix3 is a dense 3x3 complex matrix stored row major, CMatrix3[row][col].
It is a value type: assignment copies, and the zero value is the zero matrix.
All of the operations are unrolled over the fixed dimension, there is no
allocation in any of them.
*/
type CMatrix3 [3][3]complex128

func Identity3() (I CMatrix3) {
	I[0][0], I[1][1], I[2][2] = 1, 1, 1
	return
}

// Mul3 returns A·B
func Mul3(A, B *CMatrix3) (C CMatrix3) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			C[i][j] = A[i][0]*B[0][j] + A[i][1]*B[1][j] + A[i][2]*B[2][j]
		}
	}
	return
}

// LeftMul replaces A with T·A
func (A *CMatrix3) LeftMul(T *CMatrix3) {
	*A = Mul3(T, A)
}

// RightMul replaces A with A·T
func (A *CMatrix3) RightMul(T *CMatrix3) {
	*A = Mul3(A, T)
}

// AddPhased accumulates A += exp(i·phase)·C
func (A *CMatrix3) AddPhased(phase float64, C *CMatrix3) {
	s, c := math.Sincos(phase)
	f := complex(c, s)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			A[i][j] += f * C[i][j]
		}
	}
}

func (A *CMatrix3) Scale(f complex128) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			A[i][j] *= f
		}
	}
}

// Dagger returns the conjugate transpose
func (A *CMatrix3) Dagger() (D CMatrix3) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			D[j][i] = cmplx.Conj(A[i][j])
		}
	}
	return
}

// MaxAbsDiff is the largest difference in either the real or imaginary part
// of any element
func (A *CMatrix3) MaxAbsDiff(B *CMatrix3) (diff float64) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			d := A[i][j] - B[i][j]
			diff = math.Max(diff, math.Max(math.Abs(real(d)), math.Abs(imag(d))))
		}
	}
	return
}

// UnitarityDefect returns max |(A·A† - I)_ij|
func (A *CMatrix3) UnitarityDefect() float64 {
	var (
		D  = A.Dagger()
		P  = Mul3(A, &D)
		Id = Identity3()
	)
	return P.MaxAbsDiff(&Id)
}

func (A *CMatrix3) IsNaN() bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if cmplx.IsNaN(A[i][j]) {
				return true
			}
		}
	}
	return false
}

func (A CMatrix3) String() string {
	var b strings.Builder
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			fmt.Fprintf(&b, "(%+10.6e %+10.6ei) ", real(A[i][j]), imag(A[i][j]))
		}
		b.WriteString("\n")
	}
	return b.String()
}
