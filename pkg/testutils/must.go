package testutils

import (
	. "github.com/onsi/gomega"
)

// Must fails the current test if err is not nil and returns the value.
func Must[T any](o T, err error) T {
	ExpectWithOffset(1, err).To(Succeed())
	return o
}

func Must2[T, U any](o T, u U, err error) (T, U) {
	ExpectWithOffset(1, err).To(Succeed())
	return o, u
}

func MustBeSuccessful(err error) {
	ExpectWithOffset(1, err).To(Succeed())
}

// MustFailWithMessage fails the current test if err is nil or
// does not show the given message.
func MustFailWithMessage(err error, msg string) {
	ExpectWithOffset(1, err).To(HaveOccurred())
	ExpectWithOffset(1, err.Error()).To(Equal(msg))
}
