package core

import "sync"

// DefaultRegistry is the codec table the service routes decode and encode
// through.  Both backends populate it the same way: the pure-Go adapters
// register one codec per format at start-up, the libvips backend registers
// itself for every format it handles.  Lookups and registrations may race
// (hot-swapping a backend is allowed), hence the lock.
type DefaultRegistry struct {
	mu       sync.RWMutex
	decoders map[Format]Decoder
	encoders map[Format]Encoder
}

// NewRegistry returns a registry with no codecs registered.
func NewRegistry() *DefaultRegistry {
	return &DefaultRegistry{
		decoders: make(map[Format]Decoder),
		encoders: make(map[Format]Encoder),
	}
}

// RegisterDecoder routes format through d, replacing any prior decoder.
func (r *DefaultRegistry) RegisterDecoder(format Format, d Decoder) {
	r.mu.Lock()
	r.decoders[format] = d
	r.mu.Unlock()
}

// RegisterEncoder routes format through e, replacing any prior encoder.
func (r *DefaultRegistry) RegisterEncoder(format Format, e Encoder) {
	r.mu.Lock()
	r.encoders[format] = e
	r.mu.Unlock()
}

// DecoderFor returns the decoder registered for format, if any.
func (r *DefaultRegistry) DecoderFor(format Format) (Decoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.decoders[format]
	return d, ok
}

// EncoderFor returns the encoder registered for format, if any.
func (r *DefaultRegistry) EncoderFor(format Format) (Encoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.encoders[format]
	return e, ok
}

var _ Registry = (*DefaultRegistry)(nil)
