package main

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestMain(m *testing.M) {
	// Disable log generation during UT.
	logrus.SetOutput(io.Discard)

	m.Run()
}
