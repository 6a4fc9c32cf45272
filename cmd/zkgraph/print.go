package main

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"zkgraph/internal/eventabi"
	"zkgraph/internal/filter"
	"zkgraph/internal/input"
	"zkgraph/internal/pipeline"
)

const divider = "-------------------------------------------------------------------------------"

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func printSummary(w io.Writer, blockID string, in *pipeline.Inputs, dec *eventabi.Decoder) {
	fmt.Fprintf(w, "[*] %d %s from block %s\n", in.ReceiptCount, plural(in.ReceiptCount, "receipt fetched", "receipts fetched"), blockID)
	matched := in.Filtered.MatchedCount()
	fmt.Fprintf(w, "[*] %d %s\n", matched, plural(matched, "event matched", "events matched"))
	printEvents(w, in.Filtered, dec)
}

// printEvents lists every log of the kept receipts; matches are flagged.
func printEvents(w io.Writer, res filter.Result, dec *eventabi.Decoder) {
	for i, rc := range res.Receipts {
		for j, ev := range rc.Events {
			mark := ""
			if ev.Matched {
				mark = " (matched)"
			}
			fmt.Fprintf(w, "\tTx[%d]Event[%d]%s tx_index=%d log_index=%d\n", i, j, mark, ev.TxIndex, ev.LogIndex)
			fmt.Fprintf(w, "\t\taddress: %s\n", ev.Log.Address.Hex())
			for k, topic := range ev.Log.Topics {
				fmt.Fprintf(w, "\t\ttopic%d:  %s\n", k, topic.Hex())
			}
			fmt.Fprintf(w, "\t\tdata:    %s\n", hexutil.Encode(ev.Log.Data))
			if dec == nil {
				continue
			}
			if decoded, ok, err := dec.Decode(ev.Log); ok && err == nil {
				fmt.Fprintf(w, "\t\tevent:   %s\n", decoded.Signature)
				for _, arg := range decoded.Args {
					fmt.Fprintf(w, "\t\t  %s %s = %s\n", arg.Type, arg.Name, arg.Value)
				}
			}
		}
	}
}

func printBuffers(w io.Writer, state string, public, private input.Buffer) {
	fmt.Fprintf(w, "[+] ZKGRAPH STATE OUTPUT: %s\n\n", input.TrimHexPrefix(state))
	fmt.Fprintf(w, "[+] PRIVATE INPUT FOR ZKWASM:\n%s\n\n", private.String())
	fmt.Fprintf(w, "[+] PUBLIC INPUT FOR ZKWASM:\n%s\n\n", public.String())
}
