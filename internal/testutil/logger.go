package testutil

import (
	"github.com/stretchr/testify/mock"

	coremocks "github.com/amirhossein-jamali/clipforge/mocks/port/core"
)

// QuietLogger returns a mock logger that accepts any call
func QuietLogger(t interface {
	mock.TestingT
	Cleanup(func())
}) *coremocks.MockLogger {
	l := coremocks.NewMockLogger(t)
	l.EXPECT().Debug(mock.Anything, mock.Anything).Maybe()
	l.EXPECT().Info(mock.Anything, mock.Anything).Maybe()
	l.EXPECT().Warn(mock.Anything, mock.Anything).Maybe()
	l.EXPECT().Error(mock.Anything, mock.Anything).Maybe()
	return l
}
