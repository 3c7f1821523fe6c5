package karel

import (
	"os"
	"sync"
	"sync/atomic"
)

// Result is the small enumerated result type the embedding surface sees.
// Every error this package can produce maps to exactly one of these.
type Result int32

const (
	ResultSuccess Result = iota
	ResultUnknownError
	ResultNotInitialized
	ResultFileNotFound
	ResultCompilationError
	ResultStateNotValid
	ResultSymbolNotFound
	ResultStepOutOfBounds
	ResultPickupZeroFlags
	ResultPlaceMaxFlags
	ResultStopEncountered
	ResultInProgress
)

var resultNames = map[Result]string{
	ResultSuccess:          "success",
	ResultUnknownError:     "unknown_error",
	ResultNotInitialized:   "not_initialized",
	ResultFileNotFound:     "file_not_found",
	ResultCompilationError: "compilation_error",
	ResultStateNotValid:    "state_not_valid",
	ResultSymbolNotFound:   "symbol_not_found",
	ResultStepOutOfBounds:  "step_out_of_bounds",
	ResultPickupZeroFlags:  "pickup_zero_flags",
	ResultPlaceMaxFlags:    "place_max_flags",
	ResultStopEncountered:  "stop_encountered",
	ResultInProgress:       "in_progress",
}

func (r Result) String() string {
	s, ok := resultNames[r]
	if !ok {
		return "unknown_error"
	}
	return s
}

// resultForError maps an internal runtime/facade error to its Result
// code.
func resultForError(err error) Result {
	switch err {
	case nil:
		return ResultSuccess
	case ErrStepOutOfBounds:
		return ResultStepOutOfBounds
	case ErrPickupZeroFlags:
		return ResultPickupZeroFlags
	case ErrPlaceMaxFlags:
		return ResultPlaceMaxFlags
	case ErrStopEncountered:
		return ResultStopEncountered
	case ErrCancelled:
		return ResultSuccess
	case ErrStateNotValid, ErrInvalidWorldSize, ErrInvalidWorldValue:
		return ResultStateNotValid
	case ErrSymbolNotFound:
		return ResultSymbolNotFound
	case ErrFileNotFound:
		return ResultFileNotFound
	case ErrNotInitialized:
		return ResultNotInitialized
	case ErrInProgress:
		return ResultInProgress
	case ErrUnknownConditionPrefix, ErrUnknownCondition, ErrRepeatCountInvalid,
		ErrRepeatCountTooBig, ErrSymbolAlreadyDefined, ErrUnexpectedEndOfFile:
		return ResultCompilationError
	default:
		return ResultUnknownError
	}
}

// VM owns the bytecode buffer, symbol table and world state, and
// sequences load/run/read so that each op sees a consistent view of that
// state. Returning an opaque handle from New rather than keeping a
// package-level singleton lets a host run more than one program at a
// time if it wants to; a host that only ever wants one just keeps a
// single *VM around.
type VM struct {
	// loadMu serializes load/load-world against each other. runMu is
	// always taken alongside it (see Load/LoadWorld/Close below) so that
	// a load can never run concurrently with run_symbol: load-during-run
	// blocks until the run finishes rather than tearing the world state
	// an in-flight interp is reading and writing through.
	loadMu sync.Mutex

	bytecode      []byte
	symbols       map[string]uint32
	bytecodeValid bool

	city       City
	karel      Karel
	worldValid bool

	status atomic.Int32

	runMu sync.Mutex

	// fieldsMu guards cancel/doneSignal, which RunSymbol publishes for
	// the duration of a run and ShortCircuit reads from a different
	// goroutine.
	fieldsMu   sync.Mutex
	cancel     *cancelFlag
	doneSignal *runDoneSignal
}

// New returns a freshly initialized VM with no program and no world
// loaded.
func New() *VM {
	vm := &VM{}
	vm.status.Store(int32(ResultSuccess))
	return vm
}

// Close releases the VM's buffers, blocking until any run in progress
// has finished. After Close the VM must not be used.
func (vm *VM) Close() {
	vm.runMu.Lock()
	defer vm.runMu.Unlock()
	vm.loadMu.Lock()
	defer vm.loadMu.Unlock()

	vm.bytecode = nil
	vm.symbols = nil
	vm.bytecodeValid = false
	vm.worldValid = false
}

// Load (re)compiles source into a fresh bytecode buffer and symbol
// table, discarding whatever program was previously loaded. Blocks until
// any run in progress has finished, since a run holds pointers into the
// VM's bytecode and world state.
func (vm *VM) Load(src LineSource) error {
	vm.runMu.Lock()
	defer vm.runMu.Unlock()
	vm.loadMu.Lock()
	defer vm.loadMu.Unlock()

	vm.bytecodeValid = false
	vm.bytecode = nil
	vm.symbols = nil

	buf, symbols, err := CompileSource(src)
	if err != nil {
		return err
	}

	vm.bytecode = buf
	vm.symbols = symbols
	vm.bytecodeValid = true
	return nil
}

// LoadFile reads path and compiles it, per Load.
func (vm *VM) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrFileNotFound
		}
		return err
	}
	return vm.Load(NewSourceFromBytes(data))
}

// LoadWorld writes city and karel into the VM's world state. cityBytes
// must be the 400-byte external city encoding; karel must be
// [x, y, dir, home_x, home_y]. Blocks until any run in progress has
// finished, since a run holds pointers into the VM's world state.
func (vm *VM) LoadWorld(cityBytes []byte, karel [5]uint32) error {
	vm.runMu.Lock()
	defer vm.runMu.Unlock()
	vm.loadMu.Lock()
	defer vm.loadMu.Unlock()

	vm.worldValid = false

	var city City
	if err := city.LoadCityBytes(cityBytes); err != nil {
		return err
	}

	var k Karel
	if err := k.LoadKarelTuple(karel); err != nil {
		return err
	}

	if city.GetSquare(k.X, k.Y) == WallValue {
		return ErrInvalidWorldValue
	}

	vm.city = city
	vm.karel = k
	vm.worldValid = true
	return nil
}

// ReadWorld copies the VM's world state back out into the host-facing
// encoding. This is a best-effort snapshot: it does not take runMu, so
// it may tear against a concurrently running program.
func (vm *VM) ReadWorld(cityOut []byte) ([5]uint32, error) {
	if !vm.worldValid {
		return [5]uint32{}, ErrStateNotValid
	}

	if err := vm.city.StoreCityBytes(cityOut); err != nil {
		return [5]uint32{}, err
	}
	return vm.karel.StoreKarelTuple(), nil
}

// RunSymbol looks up name and drives the interpreter from its address to
// completion. Only one run may be active at a time; a concurrent second
// call blocks on runMu until the first finishes, and so does a
// concurrent Load/LoadWorld.
func (vm *VM) RunSymbol(name string) (uint64, error) {
	return vm.run(name, func(it *interp) (uint64, error) {
		return it.Run()
	})
}

// RunSymbolDebug behaves like RunSymbol but drives the interpreter
// through the interactive single-step REPL instead of to completion in
// one shot.
func (vm *VM) RunSymbolDebug(name string) (uint64, error) {
	return vm.run(name, RunProgramDebugMode)
}

func (vm *VM) run(name string, drive func(*interp) (uint64, error)) (uint64, error) {
	vm.runMu.Lock()
	defer vm.runMu.Unlock()

	if !vm.bytecodeValid || !vm.worldValid {
		return 0, ErrStateNotValid
	}

	addr, ok := vm.symbols[name]
	if !ok {
		return 0, ErrSymbolNotFound
	}

	vm.status.Store(int32(ResultInProgress))

	cancel := &cancelFlag{}
	signal := newRunDoneSignal()
	vm.fieldsMu.Lock()
	vm.cancel = cancel
	vm.doneSignal = signal
	vm.fieldsMu.Unlock()

	it := newInterp(vm.bytecode, &vm.city, &vm.karel, addr, cancel)
	count, err := drive(it)

	vm.status.Store(int32(resultForError(err)))

	vm.fieldsMu.Lock()
	vm.cancel = nil
	vm.doneSignal = nil
	vm.fieldsMu.Unlock()
	signal.announce()

	if err == ErrCancelled {
		return count, nil
	}
	return count, err
}

// ShortCircuit cancels an in-progress run and blocks until Status no
// longer reports in_progress. If no run is in progress it returns
// immediately.
func (vm *VM) ShortCircuit() {
	vm.fieldsMu.Lock()
	cancel := vm.cancel
	signal := vm.doneSignal
	vm.fieldsMu.Unlock()

	if cancel == nil || signal == nil {
		return
	}

	cancel.set()
	signal.wait()
}

// Status returns the current run status.
func (vm *VM) Status() Result {
	return Result(vm.status.Load())
}

// DumpLoaded enumerates the loaded symbol table for diagnostics.
func (vm *VM) DumpLoaded() []string {
	if !vm.bytecodeValid {
		return nil
	}
	return DumpSymbols(vm.bytecode, vm.symbols)
}
