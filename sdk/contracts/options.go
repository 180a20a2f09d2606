package contracts

// CoreMIDIConfig holds configuration for CoreMIDI.
type CoreMIDIConfig struct {
	ClientName string // Name of the MIDI client.
}

// PortsListener is told about the port lists after every rescan, so the host
// can rebuild its port menus.
type PortsListener func(inputs, outputs []Port)

// ClientOptions defines the configuration options for the MIDI router.
type ClientOptions struct {
	Logger         Logger          // Logger for logging events and errors.
	LogLevel       LogLevel        // Level of logging to use.
	LogFilePath    string          // File path for logging if file logging is enabled.
	Transport      Transport       // Platform MIDI layer; chosen by OS when nil.
	Sink           Sink            // Receiver of incoming messages.
	PortsListener  PortsListener   // Optional callback fired after each rescan.
	ListenConfig   *ListenConfig   // Input filter applied on every input open.
	CoreMIDIConfig *CoreMIDIConfig // Configuration specific to CoreMIDI.
}

// Option is a function that modifies ClientOptions.
type Option func(*ClientOptions)

// WithLogger sets the logger for the MIDI router.
func WithLogger(l Logger) Option {
	return func(opts *ClientOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level for the MIDI router.
func WithLogLevel(level LogLevel) Option {
	return func(opts *ClientOptions) {
		opts.LogLevel = level
	}
}

// WithLogFile sends log output to path instead of the console.
func WithLogFile(path string) Option {
	return func(opts *ClientOptions) {
		opts.LogFilePath = path
	}
}

// WithTransport overrides the platform transport.
func WithTransport(t Transport) Option {
	return func(opts *ClientOptions) {
		opts.Transport = t
	}
}

// WithSink sets the receiver for messages read from the input port.
func WithSink(s Sink) Option {
	return func(opts *ClientOptions) {
		opts.Sink = s
	}
}

// WithPortsListener registers a callback fired after each rescan.
func WithPortsListener(l PortsListener) Option {
	return func(opts *ClientOptions) {
		opts.PortsListener = l
	}
}

// WithListenConfig overrides the input filter. The default drops timing and
// active sensing and keeps SysEx.
func WithListenConfig(cfg ListenConfig) Option {
	return func(opts *ClientOptions) {
		opts.ListenConfig = &cfg
	}
}

// WithCoreMIDIConfig sets the CoreMIDI configuration for the MIDI router.
func WithCoreMIDIConfig(config CoreMIDIConfig) Option {
	return func(opts *ClientOptions) {
		opts.CoreMIDIConfig = &config
	}
}
