package log

import "github.com/sirupsen/logrus"

// BadgerLogrusAdapter implements badger.Logger on top of a logrus entry so the
// catalog store's internal logging lands in the application log stream.
type BadgerLogrusAdapter struct {
	*logrus.Entry
}

// NewBadgerLogrusAdapter creates a new adapter
func NewBadgerLogrusAdapter(entry *logrus.Entry) *BadgerLogrusAdapter {
	return &BadgerLogrusAdapter{entry}
}

func (l *BadgerLogrusAdapter) Errorf(f string, v ...interface{})   { l.Entry.Errorf(f, v...) }
func (l *BadgerLogrusAdapter) Warningf(f string, v ...interface{}) { l.Entry.Warningf(f, v...) }
func (l *BadgerLogrusAdapter) Infof(f string, v ...interface{})    { l.Entry.Infof(f, v...) }
func (l *BadgerLogrusAdapter) Debugf(f string, v ...interface{})   { l.Entry.Debugf(f, v...) }
