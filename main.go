package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"

	vm "karel/vm"
)

// worldFileSize is the CLI's on-disk world format: the 400-byte external
// city encoding followed by the 5 little-endian uint32 karel fields.
const worldFileSize = 400 + 5*4

func readWorldFile(path string) ([]byte, [5]uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, [5]uint32{}, err
	}
	if len(data) != worldFileSize {
		return nil, [5]uint32{}, fmt.Errorf("world file %s: expected %d bytes, got %d", path, worldFileSize, len(data))
	}

	cityBytes := data[:400]
	var karel [5]uint32
	for i := range karel {
		karel[i] = binary.LittleEndian.Uint32(data[400+i*4:])
	}
	return cityBytes, karel, nil
}

func emptyWorld() ([]byte, [5]uint32) {
	return make([]byte, 400), [5]uint32{0, 0, vm.DirNorth, 0, 0}
}

func main() {
	var (
		configPath = flag.String("config", "", "path to a TOML config file")
		sourcePath = flag.String("source", "", "path to a Karel source file")
		worldPath  = flag.String("world", "", "path to a world file (400-byte city + 5 uint32 karel tuple)")
		entry      = flag.String("entry", "", "symbol to run")
		debugMode  = flag.Bool("debug", false, "step through the program interactively")
		dump       = flag.Bool("dump", false, "print the compiled symbol table and exit")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	if *sourcePath == "" {
		*sourcePath = cfg.SourcePath
	}
	if *worldPath == "" {
		*worldPath = cfg.WorldPath
	}
	if *entry == "" {
		*entry = cfg.EntryPoint
	}
	if !*debugMode {
		*debugMode = cfg.Debug
	}

	if *sourcePath == "" || *entry == "" {
		fmt.Fprintln(os.Stderr, "usage: karel -source <file> -entry <symbol> [-world <file>] [-debug] [-dump]")
		os.Exit(2)
	}

	m := vm.New()
	defer m.Close()

	if err := m.LoadFile(*sourcePath); err != nil {
		fmt.Fprintln(os.Stderr, "compile error:", err)
		os.Exit(1)
	}

	if *dump {
		for _, line := range m.DumpLoaded() {
			fmt.Println(line)
		}
		return
	}

	var (
		cityBytes []byte
		karel     [5]uint32
	)
	if *worldPath != "" {
		cityBytes, karel, err = readWorldFile(*worldPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "world error:", err)
			os.Exit(1)
		}
	} else {
		cityBytes, karel = emptyWorld()
	}

	if err := m.LoadWorld(cityBytes, karel); err != nil {
		fmt.Fprintln(os.Stderr, "world error:", err)
		os.Exit(1)
	}

	var (
		count  uint64
		runErr error
	)
	if *debugMode {
		count, runErr = m.RunSymbolDebug(*entry)
	} else {
		count, runErr = m.RunSymbol(*entry)
	}

	out := make([]byte, 400)
	finalKarel, readErr := m.ReadWorld(out)
	if readErr != nil {
		fmt.Fprintln(os.Stderr, "read_world error:", readErr)
	} else {
		fmt.Printf("karel> pos=(%d,%d) dir=%d home=(%d,%d)\n",
			finalKarel[0], finalKarel[1], finalKarel[2], finalKarel[3], finalKarel[4])
	}

	fmt.Printf("instructions executed: %d\n", count)
	if runErr != nil {
		fmt.Fprintln(os.Stderr, "run error:", runErr)
		os.Exit(1)
	}
	fmt.Println("status:", m.Status())
}
