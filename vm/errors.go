package karel

import "errors"

// Compile errors. All are fatal: on any of these the load leaves
// bytecode-valid false and discards whatever was compiled so far.
var (
	ErrUnknownConditionPrefix = errors.New("unknown condition prefix")
	ErrUnknownCondition       = errors.New("unknown condition")
	ErrRepeatCountInvalid     = errors.New("repeat count invalid")
	ErrRepeatCountTooBig      = errors.New("repeat count too big")
	ErrSymbolAlreadyDefined   = errors.New("symbol already defined")
	ErrUnexpectedEndOfFile    = errors.New("unexpected end of file")
)

// Runtime errors. All are fatal to the current run; the world is left in
// whatever partial state it was in when the error fired.
var (
	ErrStepOutOfBounds = errors.New("step out of bounds")
	ErrPickupZeroFlags = errors.New("pickup with zero flags on square")
	ErrPlaceMaxFlags   = errors.New("place with square already at max flags")
	ErrStopEncountered = errors.New("stop instruction encountered")
	ErrCancelled       = errors.New("run cancelled by host")
)

// Facade errors.
var (
	ErrNotInitialized = errors.New("vm not initialized")
	ErrStateNotValid  = errors.New("bytecode or world not loaded")
	ErrSymbolNotFound = errors.New("symbol not found")
	ErrFileNotFound   = errors.New("source file not found")
	ErrInProgress     = errors.New("run already in progress")

	// ErrInvalidWorldSize/ErrInvalidWorldValue surface malformed
	// load_world input (wrong array length, or a square/coordinate value
	// outside the accepted domain). Kept distinct internally so callers of
	// the Go API get a precise error; the Result mapping in facade.go
	// collapses them both to ResultStateNotValid for the embedding surface.
	ErrInvalidWorldSize  = errors.New("world data has the wrong size")
	ErrInvalidWorldValue = errors.New("world data contains an out-of-range value")
)
