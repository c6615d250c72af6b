package etwtrace

// Event is the schema of a named event: its name and the ordered names and
// types of its fields. It is created the first time the name is written
// through a provider and never changes afterwards.
type Event struct {
	name     string
	fields   []FieldSpec
	metadata Descriptor
}

// Name returns the event name.
func (e *Event) Name() string {
	return e.name
}

// Fields returns the field specs the event was registered with.
func (e *Event) Fields() []FieldSpec {
	return append([]FieldSpec(nil), e.fields...)
}

// MetadataDescriptor returns the descriptor of the event metadata block.
func (e *Event) MetadataDescriptor() Descriptor {
	return e.metadata
}

func (e *Event) free(alloc Allocator) {
	if !e.metadata.IsZero() {
		alloc.Free(e.metadata.Data, TagEventMetadata)
		e.metadata = Descriptor{}
	}
}

// FindEvent returns the event registered under name, or nil. Names are
// compared exactly.
func (p *Provider) FindEvent(name string) *Event {
	for _, ev := range p.events {
		if ev.name == name {
			return ev
		}
	}
	return nil
}

// EnsureEvent returns the event registered under name, building and
// appending its schema if this is the first use of the name.
//
// The first registration wins: when name is already known, specs are
// ignored even if they differ from the registered fields.
func (p *Provider) EnsureEvent(name string, specs []FieldSpec) (*Event, error) {
	if ev := p.FindEvent(name); ev != nil {
		if !sameSpecs(ev.fields, specs) {
			p.log.Warn().Str("provider", p.Name).Str("event", name).Msg("event already registered with different fields, keeping first schema")
		}
		return ev, nil
	}

	md, err := buildEventMetadata(p.alloc, name, specs)
	if err != nil {
		return nil, err
	}

	ev := &Event{
		name:     name,
		fields:   append([]FieldSpec(nil), specs...),
		metadata: md,
	}
	p.events = append(p.events, ev)

	p.log.Debug().Str("provider", p.Name).Str("event", name).Int("fields", len(specs)).Msg("event registered")

	return ev, nil
}

func sameSpecs(a, b []FieldSpec) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
