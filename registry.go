package qrda2qpp

import (
	"fmt"
	"sync"

	"github.com/alnah/go-qrda2qpp/internal/decode"
	"github.com/alnah/go-qrda2qpp/internal/encode"
	"github.com/alnah/go-qrda2qpp/internal/measures"
	"github.com/alnah/go-qrda2qpp/internal/registry"
	"github.com/alnah/go-qrda2qpp/internal/validate"
)

// defaultRegistry is built on first use and shared, read-only, by every
// Converter in the process.
var defaultRegistry = sync.OnceValues(buildRegistry)

func buildRegistry() (*registry.Registry, error) {
	cat, err := measures.Default()
	if err != nil {
		return nil, fmt.Errorf("loading measure catalogue: %w", err)
	}

	b := registry.NewBuilder()
	if err := decode.Register(b, cat); err != nil {
		return nil, fmt.Errorf("registering decoders: %w", err)
	}
	if err := validate.Register(b, cat); err != nil {
		return nil, fmt.Errorf("registering validators: %w", err)
	}
	if err := encode.Register(b); err != nil {
		return nil, fmt.Errorf("registering encoders: %w", err)
	}
	return b.Build(), nil
}
