package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dcrubro/ftc-driver-hub/internal/protocol"
)

func decodeCmd() *cobra.Command {
	var noColor bool
	cmd := &cobra.Command{
		Use:   "decode [hex...]",
		Short: "Decode raw datagrams",
		Long: `Decode one datagram per argument, or one per line of stdin when no
arguments are given. Hex may contain spaces or colons.

Examples:
  ftchub decode 040011...
  curl -s localhost:8080/capture | jq -r '.data[].hex' | ftchub decode`,
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := pp.New()
			printer.SetOutput(cmd.OutOrStdout())
			printer.SetColoringEnabled(!noColor && isTerminal(os.Stdout))

			if len(args) > 0 {
				for _, arg := range args {
					decodeOne(cmd.OutOrStdout(), printer, arg)
				}
				return nil
			}
			return decodeLines(cmd.InOrStdin(), cmd.OutOrStdout(), printer)
		},
	}
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}

func decodeLines(in io.Reader, out io.Writer, printer *pp.PrettyPrinter) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 2*protocol.MaxPayloadSize+16)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			decodeOne(out, printer, line)
		}
	}
	return sc.Err()
}

// decodeOne prints the routed packet for one hex datagram, or why it could
// not be decoded.
func decodeOne(out io.Writer, printer *pp.PrettyPrinter, s string) {
	raw, err := parseHex(s)
	if err != nil {
		fmt.Fprintf(out, "%s: %v\n", s, err)
		return
	}
	env, p, err := protocol.Route(raw)
	if err != nil {
		fmt.Fprintf(out, "%d bytes: %v\n", len(raw), err)
		return
	}
	if env.HasSeq {
		fmt.Fprintf(out, "%s seq=%d payload=%d bytes\n", env.Type, env.Seq, len(env.Payload))
	} else {
		fmt.Fprintf(out, "%s payload=%d bytes\n", env.Type, len(env.Payload))
	}
	printer.Println(p)
}

func parseHex(s string) ([]byte, error) {
	s = strings.NewReplacer(" ", "", ":", "", "\t", "").Replace(s)
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	return hex.DecodeString(s)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
