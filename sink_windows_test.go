//go:build windows && (amd64 || arm64)
// +build windows
// +build amd64 arm64

package etwtrace

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

func TestSystemSink(t *testing.T) {
	suite.Run(t, new(systemSinkSuite))
}

type systemSinkSuite struct {
	suite.Suite

	registry *Registry
}

func (s *systemSinkSuite) SetupTest() {
	sink, err := NewSystemSink()
	s.Require().NoError(err, "Failed to load advapi32.")

	s.registry = NewRegistry(sink, WithLogger(quietLogger()), WithFieldValueRelease(true))
}

func (s *systemSinkSuite) TearDownTest() {
	s.Require().NoError(s.registry.Close(), "Failed to unregister providers.")
}

// TestSmoke ensures ETW accepts our traits and metadata blocks. Writes
// succeed whether or not a session listens to the provider.
func (s *systemSinkSuite) TestSmoke() {
	id := ProviderIDFromName("Etwtrace-Test")

	for i := 0; i < 3; i++ {
		err := s.registry.Emit("Etwtrace-Test", id, "TestEvent", TRACE_LEVEL_INFORMATION, 0,
			UInt32Field("Count", uint32(i)),
			AnsiStringField("Name", "string value"),
			DoubleField("Ratio", 45.7),
			GUIDField("Provider", id),
			Bool32Field("Flag", true),
		)
		s.Require().NoError(err, "Failed to write event")
	}

	p := s.registry.FindProvider(id)
	s.Require().NotNil(p)
	s.NotZero(p.Handle())
	s.Len(p.Events(), 1)
}
