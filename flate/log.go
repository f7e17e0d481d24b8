package flate

import "github.com/sirupsen/logrus"

var log = logrus.WithField("pkg", "flate")

// SetLogger replaces the logger used for block-level debug output.
func SetLogger(l *logrus.Entry) {
	log = l
}
