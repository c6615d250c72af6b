package etwtrace

import (
	"errors"
	"testing"

	"github.com/Microsoft/go-winio/pkg/guid"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/suite"
)

func TestEmit(t *testing.T) {
	suite.Run(t, new(emitSuite))
}

type emitSuite struct {
	suite.Suite

	sink     *Recorder
	alloc    *HeapAllocator
	priority Priority
	registry *Registry
	id       guid.GUID
}

func (s *emitSuite) SetupTest() {
	s.sink = NewRecorder()
	s.alloc = NewHeapAllocator(0)
	s.priority = PassiveLevel
	s.registry = s.newRegistry()
	s.id = mustGUID(s.T(), "11111111-1111-1111-1111-111111111111")
}

func (s *emitSuite) TearDownTest() {
	s.Require().NoError(s.registry.Close(), "Failed to close registry.")
}

func (s *emitSuite) newRegistry(opts ...Option) *Registry {
	opts = append([]Option{
		WithAllocator(s.alloc),
		WithLogger(quietLogger()),
		WithPriority(func() Priority { return s.priority }),
	}, opts...)
	return NewRegistry(s.sink, opts...)
}

func (s *emitSuite) emitStarted() error {
	return s.registry.Emit("MyProv", s.id, "Started", TRACE_LEVEL_INFORMATION, 1,
		UInt32Field("Count", 7),
		AnsiStringField("Name", "ok"),
	)
}

// TestEndToEnd writes a two-field event and checks every descriptor handed to
// the sink.
func (s *emitSuite) TestEndToEnd() {
	s.Require().NoError(s.emitStarted())

	s.Require().Len(s.registry.Providers(), 1)
	p := s.registry.Providers()[0]
	ev := p.FindEvent("Started")
	s.Require().NotNil(ev)
	s.Equal([]FieldSpec{{"Count", FieldUInt32}, {"Name", FieldAnsiString}}, ev.Fields())

	s.Equal([]SinkOp{OpRegisterProvider, OpSetProviderTraits, OpWriteEvent}, s.sink.Ops())
	s.Require().Len(s.sink.Writes, 1)
	w := s.sink.Writes[0]

	s.Equal(p.Handle(), w.Handle)
	s.Equal(EventDescriptor{Channel: ChannelTraceLogging, Level: 4, Keyword: 1}, w.Event)

	want := []Descriptor{
		{Kind: ProviderMetadataDescriptor, Data: p.MetadataDescriptor().Data},
		{Kind: EventMetadataDescriptor, Data: ev.MetadataDescriptor().Data},
		{Kind: UserDataDescriptor, Data: []byte{0x07, 0x00, 0x00, 0x00}},
		{Kind: UserDataDescriptor, Data: []byte{'o', 'k', 0x00}},
	}
	if diff := cmp.Diff(want, w.Descriptors); diff != "" {
		s.Failf("Descriptor mismatch", "(-want +got):\n%s", diff)
	}

	var md EventMetadata
	s.Require().NoError(md.UnmarshalBinary(w.Descriptors[1].Data))
	s.Equal("Started", md.Name)
}

// TestSchemaCached ensures repeated writes of an event reuse its schema.
func (s *emitSuite) TestSchemaCached() {
	s.Require().NoError(s.emitStarted())
	s.Require().NoError(s.emitStarted())

	s.Equal(1, s.alloc.Stats(TagEventMetadata).Allocs)
	s.Equal(1, s.alloc.Stats(TagProviderMetadata).Allocs)
	s.Len(s.sink.Writes, 2)
	s.Equal([]SinkOp{OpRegisterProvider, OpSetProviderTraits, OpWriteEvent, OpWriteEvent}, s.sink.Ops())
	s.Equal(s.sink.Writes[0].Descriptors[1], s.sink.Writes[1].Descriptors[1])
}

// TestFirstSchemaWins writes the same event name with different fields: the
// first schema stays registered and the second write still goes through.
func (s *emitSuite) TestFirstSchemaWins() {
	s.Require().NoError(s.emitStarted())
	s.Require().NoError(s.registry.Emit("MyProv", s.id, "Started", TRACE_LEVEL_WARNING, 0,
		DoubleField("Ratio", 0.5),
	))

	ev := s.registry.FindProvider(s.id).FindEvent("Started")
	s.Equal([]FieldSpec{{"Count", FieldUInt32}, {"Name", FieldAnsiString}}, ev.Fields())
	s.Equal(1, s.alloc.Stats(TagEventMetadata).Allocs)

	s.Require().Len(s.sink.Writes, 2)
	s.Equal(s.sink.Writes[0].Descriptors[1], s.sink.Writes[1].Descriptors[1])
	s.Len(s.sink.Writes[1].Descriptors, 3)
}

// TestContextViolation ensures nothing is allocated and the sink is never
// called above PassiveLevel.
func (s *emitSuite) TestContextViolation() {
	s.priority = DispatchLevel

	err := s.emitStarted()
	s.True(errors.Is(err, ErrContextViolation), "Got unexpected error %v", err)
	s.Empty(s.sink.Calls)
	s.Zero(s.alloc.LiveBytes())
	s.Empty(s.registry.Providers())

	s.priority = PassiveLevel
	s.NoError(s.emitStarted())
}

func (s *emitSuite) TestRegisterFailureAbortsWrite() {
	sinkErr := errors.New("no more providers")
	s.sink.RegisterErr = sinkErr

	err := s.emitStarted()
	s.True(errors.Is(err, sinkErr), "Got unexpected error %v", err)
	s.Equal([]SinkOp{OpRegisterProvider}, s.sink.Ops())
	s.Empty(s.sink.Writes)
}

func (s *emitSuite) TestWriteFailure() {
	sinkErr := errors.New("buffer full")
	s.sink.WriteErr = sinkErr

	err := s.emitStarted()
	s.True(errors.Is(err, sinkErr), "Got unexpected error %v", err)

	var se *SinkError
	s.Require().True(errors.As(err, &se))
	s.Equal(OpWriteEvent, se.Op)

	s.sink.WriteErr = nil
	s.NoError(s.emitStarted(), "Provider and schema stay usable after a failed write")
	s.Len(s.registry.Providers(), 1)
}

func (s *emitSuite) TestUnsupportedFieldAbortsWrite() {
	err := s.registry.Emit("MyProv", s.id, "Raw", TRACE_LEVEL_VERBOSE, 0,
		UInt32Field("Count", 7),
		Field{Name: "Blob", Type: FieldBinary, Value: []byte{1, 2}},
	)
	s.True(errors.Is(err, ErrUnsupportedFieldType), "Got unexpected error %v", err)
	s.Empty(s.sink.Writes)
}

func (s *emitSuite) TestFieldValueAllocationFailure() {
	// Room for both metadata blocks but not for the field values.
	s.alloc = NewHeapAllocator(9 + 24)
	s.registry = s.newRegistry()

	err := s.emitStarted()
	s.True(errors.Is(err, ErrAllocation), "Got unexpected error %v", err)
	s.Empty(s.sink.Writes)
	s.NotNil(s.registry.FindProvider(s.id).FindEvent("Started"), "Schema is registered before values are encoded")
}

// TestFieldValuesLeak documents that field value buffers are not released
// by default: every written field stays allocated.
func (s *emitSuite) TestFieldValuesLeak() {
	s.Require().NoError(s.emitStarted())
	s.Require().NoError(s.emitStarted())

	st := s.alloc.Stats(TagFieldValue)
	s.Equal(4, st.Live())
	s.Equal(2*(4+3), st.LiveBytes)
}

func (s *emitSuite) TestFieldValueRelease() {
	s.registry = s.newRegistry(WithFieldValueRelease(true))

	s.Require().NoError(s.emitStarted())
	s.Require().NoError(s.emitStarted())

	st := s.alloc.Stats(TagFieldValue)
	s.Equal(4, st.Allocs)
	s.Zero(st.Live())
	s.Zero(st.LiveBytes)

	s.Require().Len(s.sink.Writes, 2)
	s.Equal([]byte{'o', 'k', 0x00}, s.sink.Writes[1].Descriptors[3].Data)
}

func (s *emitSuite) TestFieldValueReleaseOnFailure() {
	s.registry = s.newRegistry(WithFieldValueRelease(true))
	s.sink.WriteErr = errors.New("buffer full")

	s.Error(s.emitStarted())
	s.Zero(s.alloc.Stats(TagFieldValue).Live())

	s.sink.WriteErr = nil
}

func (s *emitSuite) TestChannelOption() {
	s.registry = s.newRegistry(WithChannel(16))

	s.Require().NoError(s.emitStarted())
	s.Equal(uint8(16), s.sink.Writes[0].Event.Channel)
}

// TestTraceDefaultRegistry ensures the package entry point goes through the
// registry installed by Init and that Shutdown unregisters everything.
func TestTraceDefaultRegistry(t *testing.T) {
	sink := NewRecorder()
	if err := Init(sink, WithLogger(quietLogger())); err != nil {
		t.Fatalf("Init: %v", err)
	}

	id := ProviderIDFromName("MyProv")
	for i := 0; i < 2; i++ {
		if err := Trace("MyProv", id, "Tick", TRACE_LEVEL_VERBOSE, 0, Int64Field("N", int64(i))); err != nil {
			t.Fatalf("Trace: %v", err)
		}
	}

	if got := len(sink.Writes); got != 2 {
		t.Fatalf("got %d writes, want 2", got)
	}
	if err := Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if sink.Registered() != 0 {
		t.Errorf("%d providers still registered after Shutdown", sink.Registered())
	}
	if err := Shutdown(); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
}
