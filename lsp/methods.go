package lsp

// Method identifies a known LSP method or notification.
type Method uint8

const (
	MethodUnknown Method = iota

	// Lifecycle
	MethodInitialize
	MethodInitialized
	MethodShutdown
	MethodExit

	// General
	MethodCancelRequest
	MethodSetTrace
)

// Wire names of the known methods.
const (
	InitializeMethodName    = "initialize"
	InitializedMethodName   = "initialized"
	ShutdownMethodName      = "shutdown"
	ExitMethodName          = "exit"
	CancelRequestMethodName = "$/cancelRequest"
	SetTraceMethodName      = "$/setTrace"
)

// ParseMethod maps a raw method name to its Method. Matching is exact byte
// equality; anything unrecognized is MethodUnknown.
func ParseMethod(name []byte) Method {
	switch string(name) {
	case InitializeMethodName:
		return MethodInitialize
	case InitializedMethodName:
		return MethodInitialized
	case ShutdownMethodName:
		return MethodShutdown
	case ExitMethodName:
		return MethodExit
	case CancelRequestMethodName:
		return MethodCancelRequest
	case SetTraceMethodName:
		return MethodSetTrace
	default:
		return MethodUnknown
	}
}

func (m Method) String() string {
	switch m {
	case MethodInitialize:
		return InitializeMethodName
	case MethodInitialized:
		return InitializedMethodName
	case MethodShutdown:
		return ShutdownMethodName
	case MethodExit:
		return ExitMethodName
	case MethodCancelRequest:
		return CancelRequestMethodName
	case MethodSetTrace:
		return SetTraceMethodName
	default:
		return "unknown"
	}
}

// IsRequest reports whether the method is a request that expects a response.
// Every other known method is a notification.
func (m Method) IsRequest() bool {
	return m == MethodInitialize || m == MethodShutdown
}
