// Package console provides the kernel's HTTP debug surface: a stats
// and thread-listing REST API validated against an embedded OpenAPI
// document, a health/readiness check, pprof endpoints, and a
// WebSocket stream of scheduler/cleanup telemetry events. Grounded on
// the teacher's framework/observability/debugging.go (DebugManager)
// and framework/adapters/transport/{rest,openapi_validation,websocket}.go.
package console

// Config configures the debug console.
type Config struct {
	Enabled bool
	Port    int

	// EnablePprof exposes net/http/pprof under /debug/pprof/, the same
	// switch as DebugManager.EnablePprof.
	EnablePprof bool

	// OpenAPISpecPath is not read by Server; request validation is on
	// only when New is given a non-nil *Validator.
	OpenAPISpecPath string

	// WSPath is the path the WebSocket event stream upgrades on.
	WSPath string
}

// DefaultConfig mirrors DebugManager's defaults, retargeted to the
// kernel's own port and paths.
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		Port:            7080,
		EnablePprof:     false,
		OpenAPISpecPath: "",
		WSPath:          "/ws/events",
	}
}
