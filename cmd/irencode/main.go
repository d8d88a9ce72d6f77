// Command irencode prints the symbol sequence for one IR command without
// touching any hardware.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dbehnke/ir-nexus/pkg/encoder"
	"github.com/dbehnke/ir-nexus/pkg/logger"
	"github.com/dbehnke/ir-nexus/pkg/protocol"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	protocol string
	address  string
	command  string
	toggle   bool
	repeat   bool
	bits     int
	format   string
	policy   string
	list     bool
}

// output is the json format
type output struct {
	Protocol  protocol.Protocol `json:"protocol"`
	Address   uint32            `json:"address"`
	Command   uint32            `json:"command"`
	CarrierHz uint32            `json:"carrier_hz"`
	DutyCycle uint8             `json:"duty_cycle"`
	AirtimeUS int64             `json:"airtime_us"`
	Symbols   []encoder.Symbol  `json:"symbols"`
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("irencode", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.protocol, "protocol", "NEC", "Protocol name")
	fs.StringVar(&o.address, "address", "0", "Address (decimal or 0x hex)")
	fs.StringVar(&o.command, "command", "0", "Command (decimal or 0x hex)")
	fs.BoolVar(&o.toggle, "toggle", false, "Set the RC5/RC6 toggle bit")
	fs.BoolVar(&o.repeat, "repeat", false, "Encode the repeat frame")
	fs.IntVar(&o.bits, "bits", 0, "Sony frame width: 12, 15 or 20")
	fs.StringVar(&o.format, "format", "table", "Output format: table, raw or json")
	fs.StringVar(&o.policy, "policy", "strict", "Out-of-range values: strict or mask")
	fs.BoolVar(&o.list, "list", false, "List supported protocols and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	log := logger.New(logger.Config{Level: "warn", Format: "text", Output: stderr})

	if o.list {
		listProtocols(stdout)
		return 0
	}

	cmd, policy, err := o.resolve()
	if err != nil {
		log.Error("Invalid arguments", logger.Error(err))
		return 2
	}

	symbols, err := encoder.New(encoder.WithPolicy(policy)).Encode(cmd)
	if err != nil {
		log.Error("Encode failed",
			logger.String("protocol", cmd.Protocol.String()),
			logger.Error(err))
		return 1
	}

	if err := write(stdout, o.format, cmd, symbols); err != nil {
		log.Error("Write failed", logger.Error(err))
		return 1
	}
	return 0
}

func (o options) resolve() (encoder.Command, encoder.Policy, error) {
	p, ok := protocol.ParseName(o.protocol)
	if !ok {
		return encoder.Command{}, 0, &protocol.UnknownNameError{Name: o.protocol}
	}
	addr, err := parseUint(o.address)
	if err != nil {
		return encoder.Command{}, 0, fmt.Errorf("address: %w", err)
	}
	command, err := parseUint(o.command)
	if err != nil {
		return encoder.Command{}, 0, fmt.Errorf("command: %w", err)
	}
	policy, err := encoder.ParsePolicy(o.policy)
	if err != nil {
		return encoder.Command{}, 0, err
	}
	switch o.format {
	case "table", "raw", "json":
	default:
		return encoder.Command{}, 0, fmt.Errorf("%w: format %q", protocol.ErrInvalidArgument, o.format)
	}
	return encoder.Command{
		Protocol: p,
		Address:  addr,
		Command:  command,
		Toggle:   o.toggle,
		Repeat:   o.repeat,
		Bits:     o.bits,
	}, policy, nil
}

func parseUint(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an unsigned 32-bit number", protocol.ErrInvalidArgument, s)
	}
	return uint32(v), nil
}

func write(w io.Writer, format string, cmd encoder.Command, symbols []encoder.Symbol) error {
	tm, _ := protocol.TimingFor(cmd.Protocol)
	airtime := encoder.Duration(symbols)

	switch format {
	case "raw":
		// mark and space alternate, one per line, as pulse timing tools expect
		for _, s := range symbols {
			if _, err := fmt.Fprintf(w, "+%d\n", s.Mark); err != nil {
				return err
			}
			if s.Space == 0 {
				continue
			}
			if _, err := fmt.Fprintf(w, "-%d\n", s.Space); err != nil {
				return err
			}
		}
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(output{
			Protocol:  cmd.Protocol,
			Address:   cmd.Address,
			Command:   cmd.Command,
			CarrierHz: tm.CarrierHz,
			DutyCycle: tm.DutyCycle,
			AirtimeUS: airtime.Microseconds(),
			Symbols:   symbols,
		})
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "#\tmark\tspace\t\n")
	for i, s := range symbols {
		fmt.Fprintf(tw, "%d\t%d\t%d\t\n", i, s.Mark, s.Space)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s address=0x%X command=0x%X carrier=%dHz duty=%d%% symbols=%d airtime=%s\n",
		cmd.Protocol, cmd.Address, cmd.Command, tm.CarrierHz, tm.DutyCycle, len(symbols), airtime)
	return err
}

func listProtocols(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "NAME\tCARRIER\tADDR BITS\tCMD BITS\tREPEAT\tDESCRIPTION\n")
	for _, p := range protocol.All() {
		info, _ := protocol.Lookup(p)
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%t\t%s\n",
			info.Name, info.DefaultCarrierHz, info.AddressBits, info.CommandBits, info.HasRepeat, info.Description)
	}
	_ = tw.Flush()
}
