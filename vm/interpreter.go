package karel

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// initialStackCapacity is the pre-reserved depth for the call and repeat
// stacks before either grows out-of-line.
const initialStackCapacity = 512

// repeatFrame is one saved outer-loop frame, pushed when a REPEAT nests
// inside another active REPEAT.
type repeatFrame struct {
	origin    uint32
	remaining uint16
}

// interp is the live register set of a single run_symbol call.
type interp struct {
	buf  []byte
	city *City
	k    *Karel

	pc uint32

	callStack   []uint32
	repeatStack []repeatFrame

	curRepeatOrigin    uint32
	curRepeatHasOrigin bool
	curRepeatRemaining uint16

	instructionCount uint64
	cancel           *cancelFlag
}

func newInterp(buf []byte, city *City, k *Karel, startAddr uint32, cancel *cancelFlag) *interp {
	return &interp{
		buf:         buf,
		city:        city,
		k:           k,
		pc:          startAddr,
		callStack:   make([]uint32, 0, initialStackCapacity),
		repeatStack: make([]repeatFrame, 0, initialStackCapacity),
		cancel:      cancel,
	}
}

// Run drives the dispatch loop to completion, returning the instruction
// count on success or the runtime error that ended the run.
func (it *interp) Run() (uint64, error) {
	for {
		if it.cancel != nil && it.cancel.isSet() {
			it.callStack = it.callStack[:0]
			it.repeatStack = it.repeatStack[:0]
			return it.instructionCount, ErrCancelled
		}

		done, err := it.step()
		if err != nil {
			return it.instructionCount, err
		}
		if done {
			return it.instructionCount, nil
		}
	}
}

// step executes exactly one instruction. done is true once the run has
// unwound its outermost RETN.
func (it *interp) step() (done bool, err error) {
	if int(it.pc) >= len(it.buf) {
		return false, ErrStopEncountered
	}

	hdr := it.buf[it.pc]
	op, cond, inverse := DecodeHeader(hdr)
	it.instructionCount++

	switch op {
	case OpStep:
		x, y, ok := it.k.GetStep()
		if !ok || it.city.GetSquare(x, y) == WallValue {
			return false, ErrStepOutOfBounds
		}
		it.k.X, it.k.Y = x, y
		it.pc++

	case OpLeft:
		it.k.TurnLeft()
		it.pc++

	case OpPickUp:
		v := it.city.GetSquare(it.k.X, it.k.Y)
		if v == 0 || v == WallValue {
			return false, ErrPickupZeroFlags
		}
		it.city.SetSquare(it.k.X, it.k.Y, v-1)
		it.pc++

	case OpPlace:
		v := it.city.GetSquare(it.k.X, it.k.Y)
		if v >= 8 {
			return false, ErrPlaceMaxFlags
		}
		it.city.SetSquare(it.k.X, it.k.Y, v+1)
		it.pc++

	case OpRepeat:
		it.execRepeat()

	case OpBranch:
		taken := it.evalCondition(cond) != inverse
		if taken {
			it.pc = BranchTarget(it.buf[it.pc:])
		} else {
			it.pc += sizeBranch
		}

	case OpBranchLink:
		it.callStack = append(it.callStack, it.pc+sizeBranch)
		it.pc = BranchTarget(it.buf[it.pc:])

	case OpRetn:
		if len(it.callStack) == 0 {
			return true, nil
		}
		last := len(it.callStack) - 1
		it.pc = it.callStack[last]
		it.callStack = it.callStack[:last]

	case OpStop:
		return false, ErrStopEncountered

	default:
		return false, ErrStopEncountered
	}

	return false, nil
}

// execRepeat implements REPEAT's semantics: enter a new loop, decrement
// an active one, or finish and restore the enclosing loop.
func (it *interp) execRepeat() {
	instr := it.buf[it.pc:]
	n := RepeatCount(instr)
	loopTop := RepeatLoopTop(instr)

	if !it.curRepeatHasOrigin || it.curRepeatOrigin != it.pc {
		if it.curRepeatHasOrigin {
			it.repeatStack = append(it.repeatStack, repeatFrame{
				origin:    it.curRepeatOrigin,
				remaining: it.curRepeatRemaining,
			})
		}
		it.curRepeatHasOrigin = true
		it.curRepeatOrigin = it.pc
		it.curRepeatRemaining = n
	}

	if it.curRepeatRemaining <= 1 {
		if len(it.repeatStack) > 0 {
			last := len(it.repeatStack) - 1
			it.curRepeatOrigin = it.repeatStack[last].origin
			it.curRepeatRemaining = it.repeatStack[last].remaining
			it.repeatStack = it.repeatStack[:last]
		} else {
			it.curRepeatHasOrigin = false
		}
		it.pc += sizeRepeat
		return
	}

	it.curRepeatRemaining--
	it.pc = loopTop
}

// evalCondition computes the truth value of cond at the robot's current
// pose and square, without applying the header's inversion flag.
func (it *interp) evalCondition(cond Cond) bool {
	switch cond {
	case CondNone:
		return true
	case CondIsWall:
		x, y, ok := it.k.GetStep()
		return !ok || it.city.GetSquare(x, y) == WallValue
	case CondIsFlag:
		return it.city.GetSquare(it.k.X, it.k.Y) >= 1
	case CondIsHome:
		return it.k.AtHome()
	case CondIsNorth:
		return it.k.Dir == DirNorth
	case CondIsEast:
		return it.k.Dir == DirEast
	case CondIsSouth:
		return it.k.Dir == DirSouth
	case CondIsWest:
		return it.k.Dir == DirWest
	default:
		return false
	}
}

// RunProgramDebugMode drives the dispatch loop one instruction at a time
// from an interactive stdin REPL, printing Karel's pose and the square
// underfoot after each step and supporting breakpoints by address.
func RunProgramDebugMode(it *interp) (uint64, error) {
	fmt.Printf("Commands:\n\tn or next: execute next instruction\n\tr or run: run program\n\tb or break <addr>: break on bytecode address\n\n")
	printInterpState(it)

	reader := bufio.NewReader(os.Stdin)
	waitForInput := true
	breakAtAddrs := make(map[uint32]struct{})
	lastBreak := int64(-1)

	for {
		line := ""
		if waitForInput {
			fmt.Print("\n->")
			line, _ = reader.ReadString('\n')
			line = strings.ToLower(strings.TrimSpace(line))
		} else {
			if _, ok := breakAtAddrs[it.pc]; ok && lastBreak != int64(it.pc) {
				fmt.Println("breakpoint")
				printInterpState(it)
				waitForInput = true
				lastBreak = int64(it.pc)
				continue
			}
		}

		if !waitForInput || line == "n" || line == "next" {
			lastBreak = -1

			if it.cancel != nil && it.cancel.isSet() {
				return it.instructionCount, ErrCancelled
			}

			done, err := it.step()
			if waitForInput {
				printInterpState(it)
			}
			if err != nil {
				return it.instructionCount, err
			}
			if done {
				return it.instructionCount, nil
			}
		} else if line == "program" {
			fmt.Println(FormatInstruction(it.buf, it.pc))
		} else if line == "r" || line == "run" {
			waitForInput = false
		} else if strings.HasPrefix(line, "b") {
			arg := strings.TrimPrefix(line, "break")
			if arg == line {
				arg = strings.TrimPrefix(line, "b")
			}
			arg = strings.TrimSpace(arg)
			addr, err := strconv.ParseUint(arg, 10, 32)
			if err != nil {
				fmt.Println("unknown address:", err)
				continue
			}
			a := uint32(addr)
			if _, ok := breakAtAddrs[a]; ok {
				delete(breakAtAddrs, a)
			} else {
				breakAtAddrs[a] = struct{}{}
			}
		}
	}
}

func printInterpState(it *interp) {
	fmt.Printf("  next instruction> %s\n", FormatInstruction(it.buf, it.pc))
	fmt.Printf("  karel> pos=(%d,%d) dir=%d home=(%d,%d)\n", it.k.X, it.k.Y, it.k.Dir, it.k.HomeX, it.k.HomeY)
	fmt.Printf("  square underfoot> %d\n", it.city.GetSquare(it.k.X, it.k.Y))
}
