// Package blargg runs Blargg's test ROMs, which report their result as text
// on the serial port.
package blargg

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/valerio/jeebie-core/jeebie"
)

const baseDir = "../../test-roms/game-boy-test-roms/blargg"

type blarggTest struct {
	name      string
	path      string
	maxFrames int
}

func blarggTests() []blarggTest {
	cpuInstrs := []string{
		"01-special",
		"02-interrupts",
		"03-op sp,hl",
		"04-op r,imm",
		"05-op rp",
		"06-ld r,r",
		"07-jr,jp,call,ret,rst",
		"08-misc instrs",
		"09-op r,r",
		"10-bit ops",
		"11-op a,(hl)",
	}

	var tests []blarggTest
	for _, name := range cpuInstrs {
		tests = append(tests, blarggTest{
			name:      name,
			path:      filepath.Join(baseDir, "cpu_instrs", "individual", name+".gb"),
			maxFrames: 1500,
		})
	}

	return append(tests,
		blarggTest{name: "instr_timing", path: filepath.Join(baseDir, "instr_timing", "instr_timing.gb"), maxFrames: 1200},
		blarggTest{name: "01-read_timing", path: filepath.Join(baseDir, "mem_timing", "individual", "01-read_timing.gb"), maxFrames: 600},
		blarggTest{name: "02-write_timing", path: filepath.Join(baseDir, "mem_timing", "individual", "02-write_timing.gb"), maxFrames: 600},
		blarggTest{name: "03-modify_timing", path: filepath.Join(baseDir, "mem_timing", "individual", "03-modify_timing.gb"), maxFrames: 600},
		blarggTest{name: "halt_bug", path: filepath.Join(baseDir, "halt_bug.gb"), maxFrames: 600},
	)
}

func runBlarggTest(t *testing.T, tc blarggTest) {
	if _, err := os.Stat(tc.path); errors.Is(err, fs.ErrNotExist) {
		t.Skipf("ROM file not found: %s", tc.path)
	}

	var out bytes.Buffer
	emu, err := jeebie.NewWithFile(tc.path,
		jeebie.WithSerialOutput(&out),
		jeebie.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	for frame := 0; frame < tc.maxFrames; frame++ {
		emu.RunFrame()

		output := out.String()
		if strings.Contains(output, "Passed") {
			return
		}
		if strings.Contains(output, "Failed") {
			t.Fatalf("%s failed after %d frames:\n%s", tc.name, frame, output)
		}
	}
	t.Fatalf("%s gave no result after %d frames:\n%s", tc.name, tc.maxFrames, out.String())
}

func TestBlarggSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping ROM tests in short mode")
	}

	for _, tc := range blarggTests() {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			runBlarggTest(t, tc)
		})
	}
}
