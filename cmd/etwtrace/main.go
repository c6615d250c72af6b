// Command etwtrace writes a single manifest-free ETW event.
//
//	etwtrace --provider MyProv --event Started --level 4 --keyword 1 \
//	    --field Count:uint32=7 --field Name:ansistring=ok
//
// With --dry-run nothing is sent to ETW; the sink calls are printed as JSON
// instead.
package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/Microsoft/go-winio/pkg/guid"
	"github.com/goccy/go-json"
	"github.com/spf13/pflag"

	"github.com/gaelmuller/etwtrace"
)

type options struct {
	provider string
	id       string
	event    string
	level    uint8
	keyword  uint64
	fields   []string
	dryRun   bool
	logLevel string
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var opts options

	flags := pflag.NewFlagSet("etwtrace", pflag.ContinueOnError)
	flags.StringVarP(&opts.provider, "provider", "p", "", "provider name (required)")
	flags.StringVar(&opts.id, "guid", "", "provider GUID; derived from the provider name when empty")
	flags.StringVarP(&opts.event, "event", "e", "", "event name (required)")
	flags.Uint8VarP(&opts.level, "level", "l", uint8(etwtrace.TRACE_LEVEL_INFORMATION), "event level (1 critical .. 5 verbose)")
	flags.Uint64VarP(&opts.keyword, "keyword", "k", 0, "event keyword bitmask")
	flags.StringArrayVarP(&opts.fields, "field", "f", nil, "field as name:type=value, repeatable, written in order")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "print sink calls as JSON instead of writing to ETW")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level (trace, debug, info, warn, error)")

	if err := flags.Parse(args); err != nil {
		return err
	}
	if opts.provider == "" || opts.event == "" {
		return fmt.Errorf("--provider and --event are required")
	}

	etwtrace.SetLogLevel(opts.logLevel)

	id := etwtrace.ProviderIDFromName(opts.provider)
	if opts.id != "" {
		var err error
		if id, err = guid.FromString(opts.id); err != nil {
			return fmt.Errorf("invalid --guid: %w", err)
		}
	}

	fields := make([]etwtrace.Field, 0, len(opts.fields))
	for _, spec := range opts.fields {
		f, err := parseField(spec)
		if err != nil {
			return err
		}
		fields = append(fields, f)
	}

	var (
		sink     etwtrace.Sink
		recorder *etwtrace.Recorder
	)
	if opts.dryRun {
		recorder = etwtrace.NewRecorder()
		sink = recorder
	} else {
		var err error
		if sink, err = etwtrace.NewSystemSink(); err != nil {
			return err
		}
	}

	registry := etwtrace.NewRegistry(sink)
	emitErr := registry.Emit(opts.provider, id, opts.event, etwtrace.TraceLevel(opts.level), opts.keyword, fields...)
	closeErr := registry.Close()

	if recorder != nil {
		if err := dump(recorder); err != nil {
			return err
		}
	}

	if emitErr != nil {
		return emitErr
	}
	return closeErr
}

type descriptorView struct {
	Kind string `json:"kind"`
	Size int    `json:"size"`
	Data string `json:"data"`
}

type writeView struct {
	Handle      etwtrace.Handle          `json:"handle"`
	Event       etwtrace.EventDescriptor `json:"event"`
	Descriptors []descriptorView         `json:"descriptors"`
}

func dump(r *etwtrace.Recorder) error {
	writes := make([]writeView, 0, len(r.Writes))
	for _, w := range r.Writes {
		v := writeView{Handle: w.Handle, Event: w.Event}
		for _, d := range w.Descriptors {
			v.Descriptors = append(v.Descriptors, descriptorView{
				Kind: d.Kind.String(),
				Size: d.Size(),
				Data: hex.EncodeToString(d.Data),
			})
		}
		writes = append(writes, v)
	}

	out, err := json.MarshalIndent(struct {
		Ops    []etwtrace.SinkOp `json:"ops"`
		Writes []writeView       `json:"writes"`
	}{r.Ops(), writes}, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(out))
	return nil
}
