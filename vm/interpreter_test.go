package karel

import "testing"

func newTestWorld() (City, Karel) {
	var city City
	var k Karel
	k.Dir = DirNorth
	return city, k
}

func compileAndRun(t *testing.T, source string, city *City, k *Karel) (uint64, error) {
	buf, symbols, err := CompileSource(NewSourceFromBytes([]byte(source)))
	assert(t, err == nil, "failed to compile: %v", err)

	addr, ok := symbols["main"]
	assert(t, ok, "main must be defined")

	it := newInterp(buf, city, k, addr, nil)
	return it.Run()
}

func TestStepMovesKarelForward(t *testing.T) {
	city, k := newTestWorld()
	k.X, k.Y, k.Dir = 5, 5, DirEast

	_, err := compileAndRun(t, "main\nSTEP\nEND\n", &city, &k)
	assert(t, err == nil, "unexpected run error: %v", err)
	assert(t, k.X == 6 && k.Y == 5, "karel should have moved east, got (%d,%d)", k.X, k.Y)
}

func TestStepIntoWallIsError(t *testing.T) {
	city, k := newTestWorld()
	k.X, k.Y, k.Dir = 5, 5, DirEast
	city.SetSquare(6, 5, WallValue)

	_, err := compileAndRun(t, "main\nSTEP\nEND\n", &city, &k)
	assert(t, err == ErrStepOutOfBounds, "expected ErrStepOutOfBounds, got %v", err)
}

func TestStepOffGridIsError(t *testing.T) {
	city, k := newTestWorld()
	k.X, k.Y, k.Dir = 0, 0, DirWest

	_, err := compileAndRun(t, "main\nSTEP\nEND\n", &city, &k)
	assert(t, err == ErrStepOutOfBounds, "expected ErrStepOutOfBounds, got %v", err)
}

func TestPickupZeroFlagsIsError(t *testing.T) {
	city, k := newTestWorld()
	_, err := compileAndRun(t, "main\nPICK\nEND\n", &city, &k)
	assert(t, err == ErrPickupZeroFlags, "expected ErrPickupZeroFlags, got %v", err)
}

func TestPlaceMaxFlagsIsError(t *testing.T) {
	city, k := newTestWorld()
	city.SetSquare(0, 0, 8)
	_, err := compileAndRun(t, "main\nPLACE\nEND\n", &city, &k)
	assert(t, err == ErrPlaceMaxFlags, "expected ErrPlaceMaxFlags, got %v", err)
}

func TestPlaceThenPickupRoundTrips(t *testing.T) {
	city, k := newTestWorld()
	_, err := compileAndRun(t, "main\nPLACE\nPLACE\nPICK\nEND\n", &city, &k)
	assert(t, err == nil, "unexpected run error: %v", err)
	assert(t, city.GetSquare(0, 0) == 1, "expected 1 flag left, got %d", city.GetSquare(0, 0))
}

func TestStopEncounteredIsError(t *testing.T) {
	city, k := newTestWorld()
	_, err := compileAndRun(t, "main\nSTOP\nEND\n", &city, &k)
	assert(t, err == ErrStopEncountered, "expected ErrStopEncountered, got %v", err)
}

// TestNestedRepeatScenario traces the spec's two-outer-by-three-inner
// REPEAT scenario: 2 outer iterations of (3 inner PLACEs, then LEFT).
// Expected result: 6 flags placed on the starting square, dir advanced
// by 2 (North -> South).
func TestNestedRepeatScenario(t *testing.T) {
	city, k := newTestWorld()
	src := "main\nREPEAT 2-TIMES\nREPEAT 3-TIMES\nPLACE\nEND\nLEFT\nEND\nEND\n"

	_, err := compileAndRun(t, src, &city, &k)
	assert(t, err == nil, "unexpected run error: %v", err)
	assert(t, city.GetSquare(0, 0) == 6, "expected 6 flags, got %d", city.GetSquare(0, 0))
	assert(t, k.Dir == DirSouth, "expected dir south, got %d", k.Dir)
}

func TestConditionIsWall(t *testing.T) {
	city, k := newTestWorld()
	k.Dir = DirEast
	city.SetSquare(1, 0, WallValue)

	_, err := compileAndRun(t, "main\nIF IS WALL\nLEFT\nEND\nEND\n", &city, &k)
	assert(t, err == nil, "unexpected run error: %v", err)
	assert(t, k.Dir == DirSouth, "expected LEFT to have fired, dir=%d", k.Dir)
}

func TestConditionIsHome(t *testing.T) {
	city, k := newTestWorld()
	k.X, k.Y, k.HomeX, k.HomeY = 3, 3, 3, 3

	_, err := compileAndRun(t, "main\nUNTIL IS HOME\nSTEP\nEND\nEND\n", &city, &k)
	assert(t, err == nil, "unexpected run error: %v", err)
	assert(t, k.X == 3 && k.Y == 3, "karel should never have moved, already home")
}

// TestStepLeftStepFromOriginFacingNorth traces the spec's basic-step-and-
// turn scenario: empty city, Karel at (0,0) facing North, STEP; LEFT;
// STEP. Expected final pose is (1,1) facing East.
func TestStepLeftStepFromOriginFacingNorth(t *testing.T) {
	city, k := newTestWorld()

	_, err := compileAndRun(t, "main\nSTEP\nLEFT\nSTEP\nEND\n", &city, &k)
	assert(t, err == nil, "unexpected run error: %v", err)
	assert(t, k.X == 1 && k.Y == 1, "expected (1,1), got (%d,%d)", k.X, k.Y)
	assert(t, k.Dir == DirEast, "expected dir east, got %d", k.Dir)
}

// TestUntilWallThenTurn traces the spec's until-wall-then-turn scenario:
// empty city, Karel at (0,0) facing North, steps until the wall then
// turns. Expected final pose is (0,19) facing East.
func TestUntilWallThenTurn(t *testing.T) {
	city, k := newTestWorld()

	_, err := compileAndRun(t, "main\nUNTIL IS WALL\nSTEP\nEND\nLEFT\nEND\n", &city, &k)
	assert(t, err == nil, "unexpected run error: %v", err)
	assert(t, k.X == 0 && k.Y == 19, "expected (0,19), got (%d,%d)", k.X, k.Y)
	assert(t, k.Dir == DirEast, "expected dir east, got %d", k.Dir)
}

func TestUndefinedCallIsNoop(t *testing.T) {
	city, k := newTestWorld()
	k.Dir = DirEast

	_, err := compileAndRun(t, "main\nundefinedHelper\nSTEP\nEND\n", &city, &k)
	assert(t, err == nil, "unexpected run error: %v", err)
	assert(t, k.X == 1 && k.Y == 0, "calling an undefined symbol should be a no-op, STEP still ran: (%d,%d)", k.X, k.Y)
}

// TestUndefinedCallThenStepFacingNorth traces the spec's undefined-call
// scenario with Karel left facing North (the default orientation): the
// undefined call is a no-op and the following STEP moves to (0,1).
func TestUndefinedCallThenStepFacingNorth(t *testing.T) {
	city, k := newTestWorld()

	_, err := compileAndRun(t, "main\nundefinedHelper\nSTEP\nEND\n", &city, &k)
	assert(t, err == nil, "unexpected run error: %v", err)
	assert(t, k.X == 0 && k.Y == 1, "expected (0,1), got (%d,%d)", k.X, k.Y)
}

func TestCancellationStopsRun(t *testing.T) {
	city, k := newTestWorld()
	buf, symbols, err := CompileSource(NewSourceFromBytes([]byte("main\nREPEAT 0xffff-TIMES\nLEFT\nEND\nEND\n")))
	assert(t, err == nil, "failed to compile: %v", err)

	cancel := &cancelFlag{}
	cancel.set()
	it := newInterp(buf, &city, &k, symbols["main"], cancel)

	_, err = it.Run()
	assert(t, err == ErrCancelled, "expected ErrCancelled, got %v", err)
}
