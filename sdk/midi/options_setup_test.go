package midi

import (
	"testing"

	"github.com/octetta/gomidio/sdk/contracts"
)

func TestApplyDefaultOptionsFillsDefaults(t *testing.T) {
	opts, err := applyDefaultOptions()
	if err != nil {
		t.Fatalf("applyDefaultOptions failed: %v", err)
	}
	if opts.Logger == nil {
		t.Fatalf("expected a default logger")
	}
	if opts.ClientName != contracts.DefaultClientName {
		t.Fatalf("got %q want %q", opts.ClientName, contracts.DefaultClientName)
	}
	if opts.MaxPorts != contracts.DefaultMaxPorts {
		t.Fatalf("got %d want %d", opts.MaxPorts, contracts.DefaultMaxPorts)
	}
	if opts.SysExBufferSize != contracts.DefaultSysExBufferSize {
		t.Fatalf("got %d want %d", opts.SysExBufferSize, contracts.DefaultSysExBufferSize)
	}
}

func TestApplyDefaultOptionsRespectsOverrides(t *testing.T) {
	opts, err := applyDefaultOptions(
		contracts.WithClientName("custom"),
		contracts.WithMaxPorts(8),
		contracts.WithSysExBufferSize(128),
	)
	if err != nil {
		t.Fatalf("applyDefaultOptions failed: %v", err)
	}
	if opts.ClientName != "custom" || opts.MaxPorts != 8 || opts.SysExBufferSize != 128 {
		t.Fatalf("overrides not respected: %+v", opts)
	}
}
