package cmds

import (
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mbdebug/mbdebug/pkg/config"
	"github.com/mbdebug/mbdebug/pkg/logflags"
	"github.com/mbdebug/mbdebug/pkg/proc"
	"github.com/mbdebug/mbdebug/pkg/symtab"
	"github.com/mbdebug/mbdebug/pkg/version"
)

var (
	// logFlag is whether to log debug statements.
	logFlag bool
	// logOutput is a comma separated list of components that should produce debug output.
	logOutput string
	// littleEndian reads code and stack memory as little-endian.
	littleEndian bool

	// backtrace flags.
	btPC    uint64
	btSP    uint64
	btRegs  []string
	btDepth int

	// rootCommand is the root of the command tree.
	rootCommand *cobra.Command

	conf *config.Config
)

const mbdbgCommandLongDesc = `mbdbg analyzes MicroBlaze executables for a symbolic debugger.

It reconstructs stack frames from function prologues alone: how much stack a
function allocated, which callee-saved registers it spilled and where, and how
to recover the caller's registers and call chain from the callee's frame.`

// New returns an initialized command tree.
func New() *cobra.Command {
	conf = config.LoadConfig()

	rootCommand = &cobra.Command{
		Use:   "mbdbg",
		Short: "mbdbg is a stack-frame analyzer for MicroBlaze executables.",
		Long:  mbdbgCommandLongDesc,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			out := logOutput
			if out == "" {
				out = conf.TraceFlags
			}
			return logflags.Setup(logFlag, out)
		},
	}

	rootCommand.PersistentFlags().BoolVarP(&logFlag, "log", "", false, "Enable logging.")
	rootCommand.PersistentFlags().StringVarP(&logOutput, "log-output", "", "", "Comma separated list of components that should produce debug output (microblaze, unwind, symtab).")
	rootCommand.PersistentFlags().BoolVarP(&littleEndian, "little-endian", "", false, "Read code and stack memory as little-endian.")

	// 'funcs' subcommand.
	funcsCommand := &cobra.Command{
		Use:   "funcs <executable> [prefix]",
		Short: "List the functions of an executable.",
		Long:  "List the functions of an executable, optionally restricted to names starting with prefix.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("you must provide an executable")
			}
			return nil
		},
		RunE: funcsCmd,
	}
	rootCommand.AddCommand(funcsCommand)

	// 'prologue' subcommand.
	prologueCommand := &cobra.Command{
		Use:   "prologue <executable> <function>",
		Short: "Analyze the prologue of a function.",
		Long: `Analyze the prologue of a function.

Prints the stack space the function reserves, the register acting as its frame
pointer, the save slot of every spilled register and the address of the first
instruction of real code.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				return errors.New("you must provide an executable and a function name")
			}
			return nil
		},
		RunE: prologueCmd,
	}
	rootCommand.AddCommand(prologueCommand)

	// 'backtrace' subcommand.
	backtraceCommand := &cobra.Command{
		Use:   "backtrace <executable>",
		Short: "Print a backtrace from a register snapshot.",
		Long: `Print a backtrace from a register snapshot.

The stack contents are read from the executable's loadable segments, so this
is only meaningful for snapshots whose stack lives in initialized memory
(post-mortem dumps converted to ELF, or test fixtures).`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("you must provide an executable")
			}
			return nil
		},
		RunE: backtraceCmd,
	}
	backtraceCommand.Flags().Uint64Var(&btPC, "pc", 0, "Program counter of the innermost frame.")
	backtraceCommand.Flags().Uint64Var(&btSP, "sp", 0, "Stack pointer of the innermost frame.")
	backtraceCommand.Flags().StringArrayVar(&btRegs, "reg", nil, "Additional register value, as rN=value. May be repeated.")
	backtraceCommand.Flags().IntVar(&btDepth, "depth", 0, "Maximum number of frames (defaults to the configured maximum).")
	rootCommand.AddCommand(backtraceCommand)

	// 'version' subcommand.
	versionCommand := &cobra.Command{
		Use:   "version",
		Short: "Prints version.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mbdbg %s\nBuild: %s\n", version.MbdbgVersion, version.BuildInfo())
		},
	}
	rootCommand.AddCommand(versionCommand)

	return rootCommand
}

// newTarget loads the executable at path and builds a Target around it.
func newTarget(path string) (*proc.Target, error) {
	syms, err := symtab.LoadELF(path, logflags.SymtabLogger())
	if err != nil {
		return nil, err
	}

	var order binary.ByteOrder = binary.BigEndian
	if littleEndian || conf.LittleEndian {
		order = binary.LittleEndian
	}
	arch, err := proc.NewMicroblazeArch(nil, order)
	if err != nil {
		return nil, err
	}

	mem, err := loadELFMemory(path)
	if err != nil {
		return nil, err
	}

	t := proc.NewTarget(arch, mem, syms)
	if conf.MaxScanInstructions != nil {
		t.SetMaxScanInstructions(*conf.MaxScanInstructions)
	}
	return t, nil
}

// loadELFMemory maps the loadable segments of the executable at path.
func loadELFMemory(path string) (*proc.RegionMemory, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mem := &proc.RegionMemory{}
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD || prog.Filesz == 0 {
			continue
		}
		data := make([]byte, prog.Filesz)
		if _, err := io.ReadFull(prog.Open(), data); err != nil {
			return nil, fmt.Errorf("could not read segment at %#x: %v", prog.Vaddr, err)
		}
		mem.AddRegion(prog.Vaddr, data)
	}
	return mem, nil
}

func funcsCmd(cmd *cobra.Command, args []string) error {
	t, err := newTarget(args[0])
	if err != nil {
		return err
	}

	var funcs []*symtab.Function
	if len(args) > 1 {
		funcs = t.Syms.FindFunctions(args[1])
	} else {
		all := t.Syms.Functions()
		for i := range all {
			funcs = append(funcs, &all[i])
		}
	}
	for _, fn := range funcs {
		fmt.Printf("%#08x %s\n", fn.Entry, fn.Name)
	}
	return nil
}

func prologueCmd(cmd *cobra.Command, args []string) error {
	t, err := newTarget(args[0])
	if err != nil {
		return err
	}

	fn := t.Syms.LookupFunc(args[1])
	if fn == nil {
		return fmt.Errorf("no function named %s", args[1])
	}

	info := t.FunctionPrologue(fn.Entry)
	fmt.Printf("%s:\n", fn.Name)
	if info.Frameless {
		fmt.Printf("\tframeless\n")
	} else {
		fmt.Printf("\tframe size: %d\n", info.FrameSize)
	}
	fmt.Printf("\tframe pointer: %s\n", t.Arch.RegisterName(info.FPRegNum))
	fmt.Printf("\tprologue end: %#08x\n", info.PrologueEnd)
	fmt.Printf("\tfirst statement: %#08x\n", t.SkipPrologue(fn.Entry))
	for rn := 0; rn < t.Arch.NumRegisters(); rn++ {
		if off, ok := info.SavedRegisters[rn]; ok {
			fmt.Printf("\tsaved %s at base%+d\n", t.Arch.RegisterName(rn), off)
		}
	}
	return nil
}

func backtraceCmd(cmd *cobra.Command, args []string) error {
	t, err := newTarget(args[0])
	if err != nil {
		return err
	}

	regs := &proc.MicroblazeRegisters{}
	regs.SetReg(t.Arch.PCRegNum, btPC)
	regs.SetReg(t.Arch.SPRegNum, btSP)
	for _, spec := range btRegs {
		rn, value, err := parseRegFlag(spec)
		if err != nil {
			return err
		}
		if err := regs.SetReg(rn, value); err != nil {
			return fmt.Errorf("register %d: %v", rn, err)
		}
	}

	depth := btDepth
	if depth <= 0 {
		depth = 64
		if conf.MaxBacktraceDepth != nil {
			depth = *conf.MaxBacktraceDepth
		}
	}

	frames, err := t.Stacktrace(regs, depth)
	if err != nil {
		return err
	}
	for i, frame := range frames {
		name := "?"
		if frame.Current.Fn != nil {
			name = frame.Current.Fn.Name
		}
		fmt.Printf("%2d %#08x in %s (frame base %#x)\n", i, frame.Current.PC, name, frame.Base)
	}
	return nil
}

// parseRegFlag parses a --reg option of the form rN=value or N=value.
func parseRegFlag(spec string) (int, uint64, error) {
	parts := strings.SplitN(spec, "=", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid register assignment %q", spec)
	}
	rn, err := strconv.Atoi(strings.TrimPrefix(strings.ToLower(parts[0]), "r"))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid register name %q", parts[0])
	}
	value, err := strconv.ParseUint(parts[1], 0, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid register value %q", parts[1])
	}
	return rn, value, nil
}

// Execute runs the command tree, exiting on error.
func Execute() {
	if err := New().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
