package cmd

// Exit codes for the httpconnect CLI
const (
	// ExitSuccess indicates a successful (2xx) response
	ExitSuccess = 0

	// ExitHTTPFailure indicates a completed response with a non-2xx status
	ExitHTTPFailure = 1

	// ExitPipelineError indicates the call faulted before or during transport
	ExitPipelineError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitThresholdFailure indicates a bench run missed a latency threshold
	ExitThresholdFailure = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64

	// ExitInterrupted indicates a run stopped by SIGINT or SIGTERM
	ExitInterrupted = 130
)
